package files

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mistweaverco/addonup/internal/lib/version"
	"github.com/spf13/afero"
)

// FileSystem is an afero filesystem plus the few environment lookups the
// path helpers need, so tests can swap both for in-memory fakes.
type FileSystem interface {
	afero.Fs
	UserConfigDir() (string, error)
	UserHomeDir() (string, error)
	TempDir() string
	Getenv(key string) string
}

// HTTPClient interface for HTTP operations
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ZipArchive is an interface that abstracts the functionality
// of an opened zip archive.
type ZipArchive interface {
	File() []*zip.File
	Close() error
}

// ZipFileOpener is the interface for opening a zip file.
type ZipFileOpener interface {
	Open(name string) (ZipArchive, error)
}

// defaultFileSystem implements FileSystem using Afero
type defaultFileSystem struct {
	afero.Fs
}

func (d *defaultFileSystem) UserConfigDir() (string, error) {
	return os.UserConfigDir()
}

func (d *defaultFileSystem) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}

func (d *defaultFileSystem) TempDir() string {
	return os.TempDir()
}

func (d *defaultFileSystem) Getenv(key string) string {
	return os.Getenv(key)
}

// aferoZipArchive reads a zip archive stored on an afero filesystem.
type aferoZipArchive struct {
	file   afero.File
	reader *zip.Reader
}

func (a *aferoZipArchive) File() []*zip.File {
	return a.reader.File
}

func (a *aferoZipArchive) Close() error {
	return a.file.Close()
}

// AferoZipFileOpener opens zip archives from the wrapped filesystem.
type AferoZipFileOpener struct {
	Fs afero.Fs
}

func (o *AferoZipFileOpener) Open(name string) (ZipArchive, error) {
	f, err := o.Fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r, err := zip.NewReader(f, info.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read zip %s: %w", name, err)
	}
	return &aferoZipArchive{file: f, reader: r}, nil
}

// StatusError is returned when the server answers with a non-200 status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d for %s", e.StatusCode, e.URL)
}

// Temporary reports whether retrying the request may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// DefaultHTTPTimeout bounds every request made with the default client, so a
// stalled server cannot hang a caller whose context has no deadline.
const DefaultHTTPTimeout = 5 * time.Minute

func newDefaultClient() *http.Client {
	return &http.Client{Timeout: DefaultHTTPTimeout}
}

// Global variables for dependency injection
var (
	fileSystem FileSystem = &defaultFileSystem{Fs: afero.NewOsFs()}
	httpClient HTTPClient = newDefaultClient()
)

// SetFileSystem sets the file system implementation
func SetFileSystem(fs FileSystem) {
	fileSystem = fs
}

// SetHTTPClient sets the HTTP client implementation
func SetHTTPClient(client HTTPClient) {
	httpClient = client
}

// ResetDependencies resets all dependencies to their default implementations
func ResetDependencies() {
	fileSystem = &defaultFileSystem{Fs: afero.NewOsFs()}
	httpClient = newDefaultClient()
}

// Fs returns the filesystem currently in use.
func Fs() FileSystem {
	return fileSystem
}

// Client returns the HTTP client currently in use.
func Client() HTTPClient {
	return httpClient
}

// DownloadTo fetches url into dest on fs. A partially written dest is removed
// on failure.
func DownloadTo(ctx context.Context, client HTTPClient, fs afero.Fs, url string, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close response body: %v\n", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	out, err := fs.Create(dest)
	if err != nil {
		return err
	}

	_, copyErr := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if copyErr != nil || closeErr != nil {
		_ = fs.Remove(dest)
		if copyErr != nil {
			return copyErr
		}
		return closeErr
	}
	return nil
}

func FileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := fileSystem.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil
}

func EnsureDirExists(path string) string {
	if _, err := fileSystem.Stat(path); os.IsNotExist(err) {
		if err := fileSystem.MkdirAll(path, 0755); err != nil {
			// Log the error but don't fail the function
			fmt.Fprintf(os.Stderr, "Warning: failed to create directory %s: %v\n", path, err)
		}
	}
	return path
}

// GetAppDataPath returns the path to the app data directory
// If the ADDONUP_HOME environment variable is set, it will use that path
// otherwise it will use the user's config directory
// e.g. /home/user/.config/addonup
func GetAppDataPath() string {
	if home := fileSystem.Getenv("ADDONUP_HOME"); home != "" {
		return EnsureDirExists(home)
	}
	userConfigDir, err := fileSystem.UserConfigDir()
	if err != nil {
		panic(err)
	}
	return EnsureDirExists(filepath.Join(userConfigDir, "addonup"))
}

// GetAppLockFilePath returns the path to the install lock file
// e.g. /home/user/.config/addonup/addonup-lock.json
func GetAppLockFilePath() string {
	return filepath.Join(GetAppDataPath(), "addonup-lock.json")
}

// GetConfigFilePath returns the default updater config file location.
func GetConfigFilePath() string {
	return filepath.Join(GetAppDataPath(), "addonup.yaml")
}

// GetTempPath returns the path to the temp directory
func GetTempPath() string {
	return fileSystem.TempDir()
}

// GetCachePath returns the path to the cache directory
// If ADDONUP_CACHE is set, it will use that path
// Otherwise:
//   - Linux: ~/.cache/addonup
//   - macOS: ~/Library/Caches/addonup
//   - Windows: %LOCALAPPDATA%\addonup\cache
func GetCachePath() string {
	if cache := fileSystem.Getenv("ADDONUP_CACHE"); cache != "" {
		return EnsureDirExists(cache)
	}

	userHomeDir, err := fileSystem.UserHomeDir()
	if err != nil {
		panic(err)
	}

	var cacheDir string
	switch runtime.GOOS {
	case "darwin":
		cacheDir = filepath.Join(userHomeDir, "Library", "Caches", "addonup")
	case "windows":
		localAppData := fileSystem.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = fileSystem.Getenv("APPDATA")
		}
		if localAppData != "" {
			cacheDir = filepath.Join(localAppData, "addonup", "cache")
		} else {
			cacheDir = filepath.Join(userHomeDir, ".addonup", "cache")
		}
	default:
		cacheDir = filepath.Join(userHomeDir, ".cache", "addonup")
	}

	return EnsureDirExists(cacheDir)
}

// GetLogFilePath returns the rotating log file location.
func GetLogFilePath() string {
	return filepath.Join(GetCachePath(), "addonup.log")
}

// ModuleDir returns the directory holding the running executable with
// symlinks resolved.
func ModuleDir() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(execPath)
	if err != nil {
		resolved = execPath
	}
	return filepath.Dir(resolved), nil
}

// AddonDirectory returns the directory that holds the add-on at addonPath,
// i.e. everything up to the last path separator.
// AddonDirectory("/home/u/addons/uv_tool") returns "/home/u/addons"
func AddonDirectory(addonPath string) string {
	cleaned := filepath.Clean(addonPath)
	idx := strings.LastIndex(cleaned, string(os.PathSeparator))
	switch {
	case idx < 0:
		return "."
	case idx == 0:
		return string(os.PathSeparator)
	}
	return cleaned[:idx]
}

// UnzipTo extracts an archive stored on fs into dest on the same filesystem.
func UnzipTo(fs afero.Fs, src, dest string) error {
	return unzip(&AferoZipFileOpener{Fs: fs}, fs, src, dest)
}

func unzip(opener ZipFileOpener, fs afero.Fs, src, dest string) error {
	r, err := opener.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = r.Close()
	}()

	if err := fs.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	// Closure to address file descriptors issue with all the deferred .Close() methods
	extractAndWriteFile := func(f *zip.File) error {
		path := filepath.Join(dest, f.Name)

		// Check for ZipSlip (Directory traversal)
		if !strings.HasPrefix(path, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("illegal file path: %s", path)
		}

		if f.FileInfo().IsDir() {
			if err := fs.MkdirAll(path, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", path, err)
			}
			return nil
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}
		defer func() {
			_ = rc.Close()
		}()

		if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
		}
		mode := f.Mode().Perm()
		if mode == 0 {
			mode = 0644
		}
		out, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
		if err != nil {
			return err
		}
		_, copyErr := io.Copy(out, rc)
		if closeErr := out.Close(); copyErr == nil {
			copyErr = closeErr
		}
		return copyErr
	}

	for _, f := range r.File() {
		if err := extractAndWriteFile(f); err != nil {
			return err
		}
	}

	return nil
}
