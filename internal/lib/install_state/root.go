package install_state

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// InstallItem records one add-on installed by the updater.
type InstallItem struct {
	Addon       string    `json:"addon"`
	Ref         string    `json:"ref"`
	Version     string    `json:"version"`
	Path        string    `json:"path"`
	InstalledAt time.Time `json:"installed_at"`
}

type LockFile struct {
	Installs []InstallItem `json:"installs"`
}

// swapped in tests
var marshalIndent = json.MarshalIndent

// Store reads and writes the install lock file.
type Store struct {
	fileManager FileManager
	now         func() time.Time
}

// New creates a store backed by the app lock file.
func New() *Store {
	return NewWithFileManager(&DefaultFileManager{})
}

// NewWithFileManager creates a store with a custom file manager.
func NewWithFileManager(fileManager FileManager) *Store {
	return &Store{fileManager: fileManager, now: time.Now}
}

// GetData reads the lock file. A missing or unreadable file yields an empty
// lock so a damaged file never blocks an update.
func (s *Store) GetData() LockFile {
	path := s.fileManager.GetAppLockFilePath()
	empty := LockFile{Installs: []InstallItem{}}
	if !s.fileManager.FileExists(path) {
		return empty
	}
	data, err := s.fileManager.ReadFile(path)
	if err != nil {
		return empty
	}
	var lock LockFile
	if err := json.Unmarshal(data, &lock); err != nil {
		return empty
	}
	if lock.Installs == nil {
		lock.Installs = []InstallItem{}
	}
	return lock
}

// RecordInstall adds or replaces the entry of addon.
func (s *Store) RecordInstall(addon, ref, version, path string) error {
	lock := s.GetData()
	item := InstallItem{
		Addon:       addon,
		Ref:         ref,
		Version:     version,
		Path:        path,
		InstalledAt: s.now().UTC(),
	}

	replaced := false
	for i := range lock.Installs {
		if lock.Installs[i].Addon == addon {
			lock.Installs[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		lock.Installs = append(lock.Installs, item)
	}
	return s.save(lock)
}

func (s *Store) GetByAddon(addon string) (InstallItem, bool) {
	for _, item := range s.GetData().Installs {
		if item.Addon == addon {
			return item, true
		}
	}
	return InstallItem{}, false
}

func (s *Store) save(lock LockFile) error {
	sort.SliceStable(lock.Installs, func(i, j int) bool {
		return lock.Installs[i].Addon < lock.Installs[j].Addon
	})
	data, err := marshalIndent(lock, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling lock file: %w", err)
	}
	if err := s.fileManager.WriteFile(s.fileManager.GetAppLockFilePath(), data, 0644); err != nil {
		return fmt.Errorf("error writing lock file: %w", err)
	}
	return nil
}
