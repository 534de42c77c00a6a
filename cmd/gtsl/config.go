package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Outputs a run can produce for each graph.
const (
	emitTSL         = "tsl"
	emitInterchange = "interchange"
	emitPreview     = "preview"
	emitMaterial    = "material"
)

var emitKinds = []string{emitTSL, emitInterchange, emitPreview, emitMaterial}

// Config is the decoded form of a gtsl.hcl file. Unset attributes keep
// the values of [defaultSettings].
type Config struct {
	OutputDir    *string   `hcl:"output_dir,optional"`
	Emit         *[]string `hcl:"emit,optional"`
	PreviewTime  *float64  `hcl:"preview_time,optional"`
	StrictCycles *bool     `hcl:"strict_cycles,optional"`
	MaterialName *string   `hcl:"material_name,optional"`
	Workers      *int      `hcl:"workers,optional"`
	LogVerbosity *int      `hcl:"log_verbosity,optional"`
}

// settings are the resolved options of a run.
type settings struct {
	OutputDir    string
	Emit         []string
	PreviewTime  float32
	StrictCycles bool
	MaterialName string
	Workers      int
	LogVerbosity int
}

func defaultSettings() settings {
	return settings{
		OutputDir:    ".",
		Emit:         []string{emitTSL},
		MaterialName: "NodeMaterial",
		Workers:      runtime.NumCPU(),
	}
}

// loadConfig parses and decodes an HCL config file. Expressions may use
// env.NAME and the upper, lower, format and join functions.
func loadConfig(filename string) (Config, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, err
	}
	return decodeConfig(filename, src, environ())
}

func decodeConfig(filename string, src []byte, env map[string]string) (Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", filename, diags)
	}
	var cfg Config
	diags = gohcl.DecodeBody(file.Body, evalContext(env), &cfg)
	if diags.HasErrors() {
		return Config{}, fmt.Errorf("failed to decode config %s: %w", filename, diags)
	}
	return cfg, nil
}

func evalContext(env map[string]string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(env))
	for k, v := range env {
		vars[k] = cty.StringVal(v)
	}
	envVal := cty.MapValEmpty(cty.String)
	if len(vars) > 0 {
		envVal = cty.MapVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": envVal},
		Functions: map[string]function.Function{
			"upper":  stdlib.UpperFunc,
			"lower":  stdlib.LowerFunc,
			"format": stdlib.FormatFunc,
			"join":   stdlib.JoinFunc,
		},
	}
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && hclIdent(k) {
			env[k] = v
		}
	}
	return env
}

// hclIdent reports whether s can be used as an attribute name in env.NAME traversals.
func hclIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c == '-' || c >= '0' && c <= '9'):
		default:
			return false
		}
	}
	return true
}

// apply overlays the attributes set in cfg.
func (s *settings) apply(cfg Config) {
	if cfg.OutputDir != nil {
		s.OutputDir = *cfg.OutputDir
	}
	if cfg.Emit != nil {
		s.Emit = *cfg.Emit
	}
	if cfg.PreviewTime != nil {
		s.PreviewTime = float32(*cfg.PreviewTime)
	}
	if cfg.StrictCycles != nil {
		s.StrictCycles = *cfg.StrictCycles
	}
	if cfg.MaterialName != nil {
		s.MaterialName = *cfg.MaterialName
	}
	if cfg.Workers != nil {
		s.Workers = *cfg.Workers
	}
	if cfg.LogVerbosity != nil {
		s.LogVerbosity = *cfg.LogVerbosity
	}
}

func (s settings) validate() error {
	var errs []error
	if s.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", s.Workers))
	}
	if len(s.Emit) == 0 {
		errs = append(errs, errors.New("nothing to emit"))
	}
	for _, e := range s.Emit {
		if !contains(emitKinds, e) {
			errs = append(errs, fmt.Errorf("unknown emit kind %q, want one of %s", e, strings.Join(emitKinds, ", ")))
		}
	}
	return errors.Join(errs...)
}

func (s settings) emits(kind string) bool { return contains(s.Emit, kind) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
