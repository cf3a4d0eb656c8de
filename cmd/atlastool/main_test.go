package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/uvatlas/internal/config"
	"github.com/Faultbox/uvatlas/pkg/atlas"
	"github.com/Faultbox/uvatlas/pkg/formats"
	"github.com/Faultbox/uvatlas/pkg/packer"
)

const quadOBJ = `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vn 0 0 1
vn 0 0 1
vn 0 0 1
vn 0 0 1
f 1//1 2//2 3//3
f 1//1 3//3 4//4
`

// setup isolates config lookup and writes the quad mesh.
func setup(t *testing.T) (dir, mesh string) {
	t.Helper()
	dir = t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Chdir(dir)

	mesh = filepath.Join(dir, "quad.obj")
	require.NoError(t, os.WriteFile(mesh, []byte(quadOBJ), 0644))
	return dir, mesh
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGenerate(t *testing.T) {
	dir, mesh := setup(t)
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "generate", mesh, "-o", outDir, "--image", "png", "-v")
	require.NoError(t, err)
	assert.Contains(t, out, "--- Generated Atlas ---")
	assert.Contains(t, out, "Charts: 1")

	data, err := os.ReadFile(filepath.Join(outDir, "quad_atlas.obj"))
	require.NoError(t, err)

	obj, err := formats.ParseOBJ(data)
	require.NoError(t, err)
	assert.Len(t, obj.Positions, 4)
	assert.Len(t, obj.Normals, 4)
	assert.Len(t, obj.TexCoords, 4)
	assert.Len(t, obj.Triangles, 2)
	for _, uv := range obj.TexCoords {
		assert.GreaterOrEqual(t, uv[0], float32(0))
		assert.LessOrEqual(t, uv[0], float32(1))
		assert.GreaterOrEqual(t, uv[1], float32(0))
		assert.LessOrEqual(t, uv[1], float32(1))
	}

	_, err = os.Stat(filepath.Join(outDir, "quad_atlas0.png"))
	assert.NoError(t, err)
}

func TestGenerateBMP(t *testing.T) {
	dir, mesh := setup(t)

	_, err := execute(t, "generate", mesh, "-o", dir, "--image", "bmp", "--resolution", "64")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "quad_atlas0.bmp"))
	require.NoError(t, err)
	assert.Equal(t, []byte("BM"), data[:2])
}

func TestGenerateUsesConfigFile(t *testing.T) {
	dir, mesh := setup(t)
	outDir := filepath.Join(dir, "from-config")

	cfg := "output:\n  dir: " + outDir + "\n  image_format: bmp\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "atlastool.yaml"), []byte(cfg), 0644))

	_, err := execute(t, "generate", mesh)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(outDir, "quad_atlas.obj"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "quad_atlas0.bmp"))
	assert.NoError(t, err)
}

func TestInfo(t *testing.T) {
	_, mesh := setup(t)

	out, err := execute(t, "info", mesh)
	require.NoError(t, err)
	assert.Contains(t, out, "Input faces:     2")
	assert.Contains(t, out, "Charts:          1")
	assert.Contains(t, out, "Atlases:         1")
	assert.NotContains(t, out, "--- Generated Atlas ---")
}

func TestErrors(t *testing.T) {
	dir, mesh := setup(t)

	bad := filepath.Join(dir, "bad.obj")
	require.NoError(t, os.WriteFile(bad, []byte("v 0 0 0\nf 1 2 3\n"), 0644))

	tests := []struct {
		name string
		args []string
	}{
		{"missing argument", []string{"generate"}},
		{"missing file", []string{"info", filepath.Join(dir, "nope.obj")}},
		{"bad mesh", []string{"generate", bad}},
		{"bad image format", []string{"generate", mesh, "--image", "gif"}},
		{"bad log level", []string{"info", mesh, "--config", writeConfig(t, dir, "logging:\n  level: loud\n")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCollectStatsBeforeGenerate(t *testing.T) {
	a := atlas.New(packer.New())
	defer a.Close()

	_, err := collectStats(a)
	assert.True(t, errors.Is(err, atlas.ErrNotGenerated), "got %v", err)
}

func TestConfigInit(t *testing.T) {
	dir, _ := setup(t)
	path := filepath.Join(dir, "conf", "atlastool.yaml")

	out, err := execute(t, "config", "init", path, "--padding", "2", "--image", "png")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	// The written file is picked up by later runs.
	show, err := execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, show, "padding: 2")
	assert.Contains(t, show, "image_format: png")

	_, err = execute(t, "config", "init", path)
	assert.ErrorContains(t, err, "already exists")

	_, err = execute(t, "config", "init", path, "--force", "--padding", "5")
	require.NoError(t, err)
	show, err = execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, show, "padding: 5")
}

func TestConfigInitDefaultPath(t *testing.T) {
	setup(t)

	_, err := execute(t, "config", "init")
	require.NoError(t, err)

	_, err = os.Stat(config.DefaultPath())
	assert.NoError(t, err)
}
