package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/soypat/gtsl"
)

func TestDecodeConfig(t *testing.T) {
	const src = `
output_dir    = format("%s/out", env.WORKDIR)
emit          = ["tsl", lower("PREVIEW")]
preview_time  = 1.5
strict_cycles = true
material_name = join("-", [upper("red"), "plastic"])
workers       = 3
`
	cfg, err := decodeConfig("gtsl.hcl", []byte(src), map[string]string{"WORKDIR": "/tmp/gtsl"})
	assert.NoError(t, err)
	s := defaultSettings()
	s.apply(cfg)
	assert.Equal(t, settings{
		OutputDir:    "/tmp/gtsl/out",
		Emit:         []string{"tsl", "preview"},
		PreviewTime:  1.5,
		StrictCycles: true,
		MaterialName: "RED-plastic",
		Workers:      3,
	}, s)
	assert.NoError(t, s.validate())
}

func TestDecodeConfigPartial(t *testing.T) {
	cfg, err := decodeConfig("gtsl.hcl", []byte(`log_verbosity = 2`), nil)
	assert.NoError(t, err)
	s := defaultSettings()
	s.apply(cfg)
	want := defaultSettings()
	want.LogVerbosity = 2
	assert.Equal(t, want, s)
}

func TestDecodeConfigErrors(t *testing.T) {
	for name, src := range map[string]string{
		"syntax":       `emit = [`,
		"unknown key":  `colour = "red"`,
		"missing env":  `output_dir = env.NOT_SET`,
		"type":         `workers = "many"`,
		"unknown func": `material_name = reverse("x")`,
	} {
		_, err := decodeConfig("gtsl.hcl", []byte(src), map[string]string{"HOME": "/root"})
		assert.Error(t, err, name)
	}
}

func TestValidateSettings(t *testing.T) {
	s := defaultSettings()
	s.Workers = 0
	s.Emit = []string{"tsl", "glsl"}
	err := s.validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "workers")
	assert.Contains(t, err.Error(), `"glsl"`)
}

func writeGraph(t *testing.T, dir, name string) string {
	t.Helper()
	var bld gtsl.Builder
	sin := bld.Op(gtsl.KindSin, bld.Accessor(gtsl.KindTime))
	bld.Material(gtsl.KindMeshStandard, map[string]string{"roughness": sin, "color": bld.Color("#ff8800")})
	assert.NoError(t, bld.Err())
	path := filepath.Join(dir, name)
	fp, err := os.Create(path)
	assert.NoError(t, err)
	defer fp.Close()
	assert.NoError(t, gtsl.WriteJSON(fp, bld.Graph()))
	return path
}

func TestRunWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	a := writeGraph(t, dir, "a.json")
	b := writeGraph(t, dir, "b.json")
	out := filepath.Join(dir, "out")
	var stdout, stderr bytes.Buffer
	// A config file named explicitly must exist.
	err := run(context.Background(), &stdout, &stderr, []string{"-config", filepath.Join(dir, "missing.hcl"), a})
	assert.Error(t, err)

	err = run(context.Background(), &stdout, &stderr, []string{
		"-o", out, "-emit", "tsl, interchange, preview, material", "-workers", "2", "-t", "1.5707963", a, b,
	})
	assert.NoError(t, err)
	for _, base := range []string{"a", "b"} {
		for _, suffix := range []string{".tsl.js", ".nodematerial.json", ".preview.txt", ".preview.png", ".material.js"} {
			_, err := os.Stat(filepath.Join(out, base+suffix))
			assert.NoError(t, err, base+suffix)
		}
	}
	tsl, err := os.ReadFile(filepath.Join(out, "a.tsl.js"))
	assert.NoError(t, err)
	assert.Contains(t, string(tsl), "material.roughnessNode = _node2;")
	mat, err := os.ReadFile(filepath.Join(out, "a.material.js"))
	assert.NoError(t, err)
	assert.Contains(t, string(mat), "material.roughnessNode = sin( time );")
	preview, err := os.ReadFile(filepath.Join(out, "a.preview.txt"))
	assert.NoError(t, err)
	assert.Contains(t, string(preview), "sin-2\tsin\t")
}

func TestRunStdout(t *testing.T) {
	dir := t.TempDir()
	a := writeGraph(t, dir, "a.json")
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), &stdout, &stderr, []string{"-o", "-", "-emit", "material", a})
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout.String(), "// a.material.js\nconst material = new MeshStandardNodeMaterial();\n"), stdout.String())
}

func TestRunErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Error(t, run(context.Background(), &stdout, &stderr, nil))
	assert.Error(t, run(context.Background(), &stdout, &stderr, []string{"-emit", "nope", "x.json"}))
	assert.Error(t, run(context.Background(), &stdout, &stderr, []string{"-o", t.TempDir(), "does-not-exist.json"}))
}
