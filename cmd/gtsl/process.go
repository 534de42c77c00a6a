package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-logr/logr"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/gtsl"
	"github.com/soypat/gtsl/gtslaux"
	"github.com/soypat/gtsl/tslbuild"
	"github.com/soypat/gtsl/tsleval"
	"golang.org/x/sync/errgroup"
)

const swatchSize = 32

// processAll compiles every graph file with at most s.Workers files in
// flight. The first failure cancels the files not yet started.
func processAll(ctx context.Context, log logr.Logger, s settings, stdout io.Writer, files []string) error {
	if s.OutputDir != "-" {
		if err := os.MkdirAll(s.OutputDir, 0o755); err != nil {
			return err
		}
	}
	out := &outputs{dir: s.OutputDir, stdout: stdout}
	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(s.Workers)
	for _, file := range files {
		file := file
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := processFile(log.WithValues("file", file), s, out, file); err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			return nil
		})
	}
	return grp.Wait()
}

func processFile(log logr.Logger, s settings, out *outputs, file string) error {
	g, err := readGraph(file)
	if err != nil {
		return err
	}
	if err := g.Validate(); err != nil {
		// Evaluators tolerate malformed graphs so only report.
		log.Error(err, "graph has structural problems")
	}
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	if s.emits(emitTSL) {
		var buf bytes.Buffer
		p := tslbuild.NewDefaultProgrammer()
		p.Strict = s.StrictCycles
		if _, err := p.WriteTSL(&buf, g); err != nil {
			return err
		}
		buf.WriteByte('\n')
		if err := out.write(log, base+".tsl.js", buf.Bytes()); err != nil {
			return err
		}
	}
	if s.emits(emitInterchange) {
		b, err := json.MarshalIndent(gtsl.ToNodeMaterial(g, s.MaterialName), "", "  ")
		if err != nil {
			return err
		}
		if err := out.write(log, base+".nodematerial.json", append(b, '\n')); err != nil {
			return err
		}
	}
	if s.emits(emitMaterial) {
		it := tsleval.Interpreter{Log: log.WithName("tsleval"), Name: s.MaterialName}
		mat, err := it.Build(g, tsleval.TextBackend{})
		if err != nil {
			return err
		}
		text := mat.(*tsleval.TextMaterial).String() + "\n"
		if err := out.write(log, base+".material.js", []byte(text)); err != nil {
			return err
		}
	}
	if s.emits(emitPreview) {
		d := gtslaux.Preview(g, s.PreviewTime)
		if err := out.write(log, base+".preview.txt", previewTable(g, d)); err != nil {
			return err
		}
		if out.dir != "-" {
			ids := make([]string, 0, len(g.Nodes))
			for _, n := range g.Nodes {
				if _, ok := d.Color(n.ID); ok {
					ids = append(ids, n.ID)
				}
			}
			var buf bytes.Buffer
			if err := gtslaux.WriteSwatches(&buf, d, ids, swatchSize); err != nil {
				log.V(1).Info("no swatches written", "reason", err.Error())
			} else if err := out.write(log, base+".preview.png", buf.Bytes()); err != nil {
				return err
			}
		}
	}
	return nil
}

func readGraph(file string) (gtsl.Graph, error) {
	fp, err := os.Open(file)
	if err != nil {
		return gtsl.Graph{}, err
	}
	defer fp.Close()
	switch filepath.Ext(file) {
	case ".msgpack", ".mp":
		return gtsl.ReadMsgpack(fp)
	}
	return gtsl.ReadJSON(fp)
}

// previewTable lists one line per previewed node in graph order. Scalars
// carry a badge color on a blue to orange scale spanning the graph's values.
func previewTable(g gtsl.Graph, d gtslaux.Display) []byte {
	lo, hi := float32(0), float32(1)
	for _, v := range d.Values {
		lo, hi = min(lo, v), max(hi, v)
	}
	badge := gtslaux.Gradient(lo, hi, ms3.Vec{X: 0.2, Y: 0.4, Z: 1}, ms3.Vec{X: 1, Y: 0.6, Z: 0.1})
	var buf bytes.Buffer
	for _, n := range g.Nodes {
		if v, ok := d.Values[n.ID]; ok {
			fmt.Fprintf(&buf, "%s\t%s\t%g\t%s\n", n.ID, n.TypeName(), v, gtslaux.Hex(badge(v)))
		} else if c, ok := d.Colors[n.ID]; ok {
			fmt.Fprintf(&buf, "%s\t%s\trgb(%.3g, %.3g, %.3g)\t%s\n", n.ID, n.TypeName(), c.X, c.Y, c.Z, gtslaux.Hex(c))
		}
	}
	return buf.Bytes()
}

// outputs writes result files. A dir of "-" sends them to stdout, each
// preceded by a header line naming the file.
type outputs struct {
	dir    string
	mu     sync.Mutex
	stdout io.Writer
}

func (o *outputs) write(log logr.Logger, name string, data []byte) error {
	if o.dir == "-" {
		o.mu.Lock()
		defer o.mu.Unlock()
		_, err := fmt.Fprintf(o.stdout, "// %s\n%s", name, data)
		return err
	}
	path := filepath.Join(o.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	log.V(1).Info("wrote output", "path", path, "bytes", len(data))
	return nil
}
