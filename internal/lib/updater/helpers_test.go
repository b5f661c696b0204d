package updater

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const (
	addonsDir = "/addons"
	addonPath = "/addons/uv_island_alignment_tool"
)

func zipArchive(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// releaseArchive mimics a repository zipball of ref.
func releaseArchive(t *testing.T, ref, marker string) []byte {
	root := "UV-Island-Alignment-Tool-" + strings.TrimPrefix(ref, "v") + "/"
	return zipArchive(t, map[string]string{
		root + "README.md":                                "readme",
		root + "src/uv_island_alignment_tool/__init__.py": "bl_info = " + marker,
		root + "src/uv_island_alignment_tool/op/align.py": "def align(): pass",
	})
}

func seedInstall(t *testing.T, fs afero.Fs) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(addonPath+"/op", 0755))
	require.NoError(t, afero.WriteFile(fs, addonPath+"/__init__.py", []byte("bl_info = old"), 0644))
	require.NoError(t, afero.WriteFile(fs, addonPath+"/op/legacy.py", []byte("legacy"), 0644))
	require.NoError(t, fs.MkdirAll(addonsDir+"/other_addon", 0755))
	require.NoError(t, afero.WriteFile(fs, addonsDir+"/other_addon/__init__.py", []byte("untouched"), 0644))
}

// snapshotTree maps every path below root to its content.
func snapshotTree(t *testing.T, fs afero.Fs, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			out[filepath.ToSlash(path)+"/"] = ""
			return nil
		}
		data, err := afero.ReadFile(fs, path)
		out[filepath.ToSlash(path)] = string(data)
		return err
	})
	require.NoError(t, err)
	return out
}

func noWait() backoff.BackOff {
	return &backoff.ZeroBackOff{}
}

func testConfig() Config {
	return Config{
		Owner:                  "samia-done",
		Repository:             "UV-Island-Alignment-Tool",
		CurrentAddonPath:       addonPath,
		Branches:               []string{"master", "develop"},
		MinReleaseVersion:      "6.0",
		DefaultTargetAddonPath: "uv_island_alignment_tool",
		TargetAddonPath: map[string]string{
			"master":  "src/uv_island_alignment_tool",
			"develop": "src/uv_island_alignment_tool",
		},
	}
}
