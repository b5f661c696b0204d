package install_state

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

func newTestStore(fm FileManager) *Store {
	s := NewWithFileManager(fm)
	s.now = func() time.Time { return fixedTime }
	return s
}

func TestStoreWithMock(t *testing.T) {
	t.Run("new store creation", func(t *testing.T) {
		store := New()
		assert.NotNil(t, store)
		assert.IsType(t, &DefaultFileManager{}, store.fileManager)
	})

	t.Run("missing file yields empty lock", func(t *testing.T) {
		store := newTestStore(&MockFileManager{})
		assert.Empty(t, store.GetData().Installs)
		assert.NotNil(t, store.GetData().Installs)
	})

	t.Run("read error yields empty lock", func(t *testing.T) {
		store := newTestStore(&MockFileManager{
			FileExistsFunc: func(path string) bool { return true },
			ReadFileFunc:   func(path string) ([]byte, error) { return nil, errors.New("boom") },
		})
		assert.Empty(t, store.GetData().Installs)
	})

	t.Run("parse error yields empty lock", func(t *testing.T) {
		store := newTestStore(&MockFileManager{
			FileExistsFunc: func(path string) bool { return true },
			ReadFileFunc:   func(path string) ([]byte, error) { return []byte("not-json"), nil },
		})
		assert.Empty(t, store.GetData().Installs)
	})

	t.Run("record new install", func(t *testing.T) {
		var written []byte
		var writtenPath string
		store := newTestStore(&MockFileManager{
			WriteFileFunc: func(path string, data []byte, perm uint32) error {
				writtenPath = path
				written = data
				return nil
			},
		})

		err := store.RecordInstall("UV Island Alignment Tool", "develop", "6.4", "/addons/uv_island_alignment_tool")
		require.NoError(t, err)
		assert.Equal(t, "/mock/path/addonup-lock.json", writtenPath)

		var saved LockFile
		require.NoError(t, json.Unmarshal(written, &saved))
		require.Len(t, saved.Installs, 1)
		assert.Equal(t, InstallItem{
			Addon:       "UV Island Alignment Tool",
			Ref:         "develop",
			Version:     "6.4",
			Path:        "/addons/uv_island_alignment_tool",
			InstalledAt: fixedTime,
		}, saved.Installs[0])
	})

	t.Run("record replaces existing entry", func(t *testing.T) {
		existing := LockFile{Installs: []InstallItem{
			{Addon: "b", Ref: "master", Version: "6.3"},
			{Addon: "a", Ref: "master", Version: "1.0"},
		}}
		jsonData, _ := json.Marshal(existing)
		var written []byte
		store := newTestStore(&MockFileManager{
			FileExistsFunc: func(path string) bool { return true },
			ReadFileFunc:   func(path string) ([]byte, error) { return jsonData, nil },
			WriteFileFunc: func(path string, data []byte, perm uint32) error {
				written = data
				return nil
			},
		})

		require.NoError(t, store.RecordInstall("b", "develop", "6.4", "/addons/b"))

		var saved LockFile
		require.NoError(t, json.Unmarshal(written, &saved))
		require.Len(t, saved.Installs, 2)
		assert.Equal(t, "a", saved.Installs[0].Addon, "entries are sorted by add-on")
		assert.Equal(t, "develop", saved.Installs[1].Ref)
		assert.Equal(t, "6.4", saved.Installs[1].Version)
	})

	t.Run("write error bubbles up", func(t *testing.T) {
		store := newTestStore(&MockFileManager{
			WriteFileFunc: func(path string, data []byte, perm uint32) error { return errors.New("write failed") },
		})
		err := store.RecordInstall("a", "master", "1.0", "/a")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "write failed")
	})

	t.Run("marshal error bubbles up", func(t *testing.T) {
		old := marshalIndent
		marshalIndent = func(v any, prefix, indent string) ([]byte, error) {
			return nil, errors.New("marshal failed")
		}
		defer func() { marshalIndent = old }()

		store := newTestStore(&MockFileManager{})
		assert.Error(t, store.RecordInstall("a", "master", "1.0", "/a"))
	})

	t.Run("lookup", func(t *testing.T) {
		existing := LockFile{Installs: []InstallItem{{Addon: "a", Ref: "v6.5", Version: "v6.5"}}}
		jsonData, _ := json.Marshal(existing)
		store := newTestStore(&MockFileManager{
			FileExistsFunc: func(path string) bool { return true },
			ReadFileFunc:   func(path string) ([]byte, error) { return jsonData, nil },
		})

		item, ok := store.GetByAddon("a")
		assert.True(t, ok)
		assert.Equal(t, "v6.5", item.Ref)
		_, ok = store.GetByAddon("b")
		assert.False(t, ok)
	})
}

func TestDefaultFileManagerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ADDONUP_HOME", dir)

	store := New()
	require.NoError(t, store.RecordInstall("a", "develop", "6.4", "/addons/a"))

	path := filepath.Join(dir, "addonup-lock.json")
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	item, ok := store.GetByAddon("a")
	require.True(t, ok)
	assert.Equal(t, "6.4", item.Version)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}
