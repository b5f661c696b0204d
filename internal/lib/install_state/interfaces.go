package install_state

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dchest/safefile"
	"github.com/mistweaverco/addonup/internal/lib/files"
	"github.com/spf13/afero"
)

// FileManager defines the interface for file operations
type FileManager interface {
	GetAppLockFilePath() string
	FileExists(path string) bool
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm uint32) error
}

// DefaultFileManager implements FileManager using the files package.
// Writes go through safefile so a crash never leaves a truncated lock file.
type DefaultFileManager struct{}

func (dfm *DefaultFileManager) GetAppLockFilePath() string {
	return files.GetAppLockFilePath()
}

func (dfm *DefaultFileManager) FileExists(path string) bool {
	return files.FileExists(path)
}

func (dfm *DefaultFileManager) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(files.Fs(), path)
}

func (dfm *DefaultFileManager) WriteFile(path string, data []byte, perm uint32) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating folder for lock file: %w", err)
	}
	f, err := safefile.Create(path, os.FileMode(perm))
	if err != nil {
		return fmt.Errorf("creating lock file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing lock file: %w", err)
	}
	if err := f.Commit(); err != nil {
		return fmt.Errorf("committing lock file: %w", err)
	}
	return nil
}

// MockFileManager is a mock implementation for testing
type MockFileManager struct {
	GetAppLockFilePathFunc func() string
	FileExistsFunc         func(path string) bool
	ReadFileFunc           func(path string) ([]byte, error)
	WriteFileFunc          func(path string, data []byte, perm uint32) error
}

func (mfm *MockFileManager) GetAppLockFilePath() string {
	if mfm.GetAppLockFilePathFunc != nil {
		return mfm.GetAppLockFilePathFunc()
	}
	return "/mock/path/addonup-lock.json"
}

func (mfm *MockFileManager) FileExists(path string) bool {
	if mfm.FileExistsFunc != nil {
		return mfm.FileExistsFunc(path)
	}
	return false
}

func (mfm *MockFileManager) ReadFile(path string) ([]byte, error) {
	if mfm.ReadFileFunc != nil {
		return mfm.ReadFileFunc(path)
	}
	return nil, fmt.Errorf("mock read error")
}

func (mfm *MockFileManager) WriteFile(path string, data []byte, perm uint32) error {
	if mfm.WriteFileFunc != nil {
		return mfm.WriteFileFunc(path, data, perm)
	}
	return nil
}
