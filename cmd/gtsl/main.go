// Command gtsl compiles shader node graphs saved as JSON or msgpack into
// TSL source, NodeMaterial interchange documents and preview swatches.
//
// Usage:
//
//	gtsl [flags] graph.json [more.json ...]
//
// Options are read from gtsl.hcl in the working directory when present,
// or from the file named by -config. Flags override the config file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

const defaultConfigFile = "gtsl.hcl"

func main() {
	if err := run(context.Background(), os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "gtsl:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	fs := flag.NewFlagSet("gtsl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		flagConfig  = fs.String("config", "", "HCL config file (default "+defaultConfigFile+" if present)")
		flagOut     = fs.String("o", "", "output directory, or - to write text outputs to stdout")
		flagEmit    = fs.String("emit", "", "comma separated outputs: "+strings.Join(emitKinds, ", "))
		flagTime    = fs.Float64("t", 0, "preview time in seconds")
		flagStrict  = fs.Bool("strict", false, "fail on cyclic graphs instead of ordering them leniently")
		flagName    = fs.String("name", "", "material name used by the material and interchange outputs")
		flagWorkers = fs.Int("workers", 0, "number of graphs processed concurrently")
		flagVerbose = fs.Int("v", 0, "log verbosity")
	)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: gtsl [flags] graph.json [more.json ...]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	s := defaultSettings()
	cfgPath := *flagConfig
	if cfgPath == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			cfgPath = defaultConfigFile
		}
	}
	if cfgPath != "" {
		cfg, err := loadConfig(cfgPath)
		if err != nil {
			return err
		}
		s.apply(cfg)
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "o":
			s.OutputDir = *flagOut
		case "emit":
			s.Emit = strings.Split(*flagEmit, ",")
			for i := range s.Emit {
				s.Emit[i] = strings.TrimSpace(s.Emit[i])
			}
		case "t":
			s.PreviewTime = float32(*flagTime)
		case "strict":
			s.StrictCycles = *flagStrict
		case "name":
			s.MaterialName = *flagName
		case "workers":
			s.Workers = *flagWorkers
		case "v":
			s.LogVerbosity = *flagVerbose
		}
	})
	if err := s.validate(); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no graph files given")
	}
	log := newLogger(stderr, s.LogVerbosity)
	return processAll(ctx, log, s, stdout, fs.Args())
}

// newLogger returns a logger safe for use by concurrent workers.
func newLogger(w io.Writer, verbosity int) logr.Logger {
	var mu sync.Mutex
	return funcr.New(func(prefix, args string) {
		mu.Lock()
		defer mu.Unlock()
		if prefix != "" {
			fmt.Fprintln(w, prefix+":", args)
		} else {
			fmt.Fprintln(w, args)
		}
	}, funcr.Options{Verbosity: verbosity})
}
