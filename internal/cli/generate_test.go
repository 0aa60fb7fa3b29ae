package cli_test

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/clothgen/internal/assets"
	"github.com/rshade/clothgen/internal/cli"
)

// writePNG writes a small RGBA texture to path.
func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for x := range 8 {
		for y := range 8 {
			img.Set(x, y, color.NRGBA{R: uint8(x * 30), G: uint8(y * 30), B: 200, A: 255})
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func textureDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		writePNG(t, filepath.Join(dir, n))
	}
	return dir
}

type jsonResult struct {
	Status    string `json:"status"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
	Cancelled int    `json:"cancelled"`
	Outcomes  []struct {
		ID    string `json:"id"`
		State string `json:"state"`
		Kind  string `json:"kind"`
		Error string `json:"error"`
	} `json:"outcomes"`
}

func TestGenerateCmd_WritesBundles(t *testing.T) {
	setupCLITest(t)
	src := textureDir(t, "red.png", "blue.png", "nested/green.png")
	out := filepath.Join(t.TempDir(), "Assets")

	stdout, stderr, err := executeRoot(t, "generate", src, "--plain", "--out", out, "--type", "shirt")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Done: 3 textures")
	assert.Contains(t, stderr, "Processing: 3/3 (100%)")

	for _, name := range []string{"red", "blue", "green"} {
		_, statErr := os.Stat(filepath.Join(out, "Clothing", "Shirts", name, "shirt.png"))
		assert.NoError(t, statErr, name)
	}
	_, statErr := os.Stat(filepath.Join(out, filepath.FromSlash(assets.TagManagerPath)))
	assert.NoError(t, statErr)
	_, statErr = os.Stat(filepath.Join(out, assets.ManifestPath))
	assert.NoError(t, statErr)
}

func TestGenerateCmd_BrokenTextureExitsOne(t *testing.T) {
	setupCLITest(t)
	src := textureDir(t, "a.png", "b.png")
	require.NoError(t, os.WriteFile(filepath.Join(src, "broken.png"), []byte("not a png"), 0o600))
	out := filepath.Join(t.TempDir(), "Assets")

	stdout, _, err := executeRoot(t, "generate", src, "--json", "--out", out, "--no-cache")
	require.Error(t, err)

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, cli.ExitFailure, exitErr.Code)
	assert.Contains(t, exitErr.Reason, "1 of 3 textures failed")

	var res jsonResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Equal(t, "all_completed", res.Status)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Completed)
	assert.Equal(t, 1, res.Failed)

	var broken bool
	for _, o := range res.Outcomes {
		if o.ID == "broken.png" {
			broken = true
			assert.Equal(t, "failed", o.State)
			assert.Equal(t, "preprocess", o.Kind)
			assert.NotEmpty(t, o.Error)
		}
	}
	assert.True(t, broken, "broken.png outcome missing")

	_, statErr := os.Stat(filepath.Join(out, "Clothing", "Shirts", "a", "shirt.png"))
	assert.NoError(t, statErr)
}

func TestGenerateCmd_SpecialTypeWritesExtraPrefab(t *testing.T) {
	setupCLITest(t)
	src := textureDir(t, "cap.png")
	out := filepath.Join(t.TempDir(), "Assets")

	_, _, err := executeRoot(t, "generate", src, "--plain", "--out", out, "--type", "hat")
	require.NoError(t, err)

	folder := filepath.Join(out, "Clothing", "Hats", "cap")
	_, statErr := os.Stat(filepath.Join(folder, "Hat.png"))
	assert.NoError(t, statErr)
	_, statErr = os.Stat(filepath.Join(folder, "Hat.prefab.yaml"))
	assert.NoError(t, statErr)
}

func TestGenerateCmd_OutputInsideSourceIsSkipped(t *testing.T) {
	setupCLITest(t)
	src := textureDir(t, "one.png")
	out := filepath.Join(src, "Assets")

	_, _, err := executeRoot(t, "generate", src, "--plain", "--out", out)
	require.NoError(t, err)

	// The copied shirt.png under the output folder is not picked up again.
	stdout, _, err := executeRoot(t, "generate", src, "--json", "--out", out)
	require.NoError(t, err)
	var res jsonResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Equal(t, 1, res.Total)
}

func TestGenerateCmd_MissingFolder(t *testing.T) {
	setupCLITest(t)

	_, _, err := executeRoot(t, "generate", filepath.Join(t.TempDir(), "missing"), "--plain",
		"--out", filepath.Join(t.TempDir(), "Assets"))
	require.Error(t, err)

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, cli.ExitFailure, exitErr.Code)
}

func TestGenerateCmd_EmptyFolder(t *testing.T) {
	setupCLITest(t)

	stdout, _, err := executeRoot(t, "generate", t.TempDir(), "--plain",
		"--out", filepath.Join(t.TempDir(), "Assets"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "Done: 0 textures")
}

func TestGenerateCmd_UnknownType(t *testing.T) {
	setupCLITest(t)

	_, _, err := executeRoot(t, "generate", t.TempDir(), "--plain", "--type", "cape",
		"--out", filepath.Join(t.TempDir(), "Assets"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown clothing type")
}

func TestGenerateCmd_MetricsFile(t *testing.T) {
	setupCLITest(t)
	src := textureDir(t, "a.png")
	metricsPath := filepath.Join(t.TempDir(), "clothgen.prom")

	_, _, err := executeRoot(t, "generate", src, "--plain",
		"--out", filepath.Join(t.TempDir(), "Assets"), "--metrics-file", metricsPath)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "clothgen_runs_total")
}

func TestSingleCmd(t *testing.T) {
	setupCLITest(t)
	src := textureDir(t, "jeans.png", "other.png")
	out := filepath.Join(t.TempDir(), "Assets")

	stdout, _, err := executeRoot(t, "single", filepath.Join(src, "jeans.png"), "--plain",
		"--out", out, "--type", "pants")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Done: 1 textures")

	_, statErr := os.Stat(filepath.Join(out, "Clothing", "Pants", "jeans", "pants.png"))
	assert.NoError(t, statErr)
	_, statErr = os.Stat(filepath.Join(out, "Clothing", "Pants", "other"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSingleCmd_RejectsFolder(t *testing.T) {
	setupCLITest(t)

	_, _, err := executeRoot(t, "single", t.TempDir(), "--plain",
		"--out", filepath.Join(t.TempDir(), "Assets"))
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, exitErr.Reason, "use generate")
}

func TestSingleCmd_MissingTexture(t *testing.T) {
	setupCLITest(t)

	_, _, err := executeRoot(t, "single", filepath.Join(t.TempDir(), "nope.png"), "--plain")
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, cli.ExitFailure, exitErr.Code)
}
