package updater

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	apperrors "github.com/mistweaverco/addonup/internal/errors"
	"github.com/mistweaverco/addonup/internal/lib/files"
	"github.com/mistweaverco/addonup/internal/lib/source"
	"github.com/spf13/afero"
)

// Installer replaces the installed add-on with a candidate.
type Installer interface {
	Apply(ctx context.Context, c source.Candidate, cfg Config) error
}

// Recoverer is implemented by installers that can repair what an update
// interrupted between its renames left behind.
type Recoverer interface {
	Recover(cfg Config) error
}

// MockInstaller is a mock implementation for testing
type MockInstaller struct {
	ApplyFunc   func(ctx context.Context, c source.Candidate, cfg Config) error
	RecoverFunc func(cfg Config) error
}

func (m *MockInstaller) Apply(ctx context.Context, c source.Candidate, cfg Config) error {
	if m.ApplyFunc != nil {
		return m.ApplyFunc(ctx, c, cfg)
	}
	return nil
}

func (m *MockInstaller) Recover(cfg Config) error {
	if m.RecoverFunc != nil {
		return m.RecoverFunc(cfg)
	}
	return nil
}

const (
	stagingPrefix = ".addonup-staging-"
	backupInfix   = ".addonup-backup-"
)

// Applier downloads a candidate archive and swaps it into place. The
// previous install is kept as a sibling backup until the new tree is in
// place, so a failure at any step leaves the original untouched.
type Applier struct {
	fs         afero.Fs
	client     files.HTTPClient
	tempDir    string
	maxRetries uint64
	newBackOff func() backoff.BackOff
	now        func() time.Time
}

type ApplierOption func(*Applier)

func WithFs(fs afero.Fs) ApplierOption {
	return func(a *Applier) { a.fs = fs }
}

func WithDownloadClient(client files.HTTPClient) ApplierOption {
	return func(a *Applier) { a.client = client }
}

func WithTempDir(dir string) ApplierOption {
	return func(a *Applier) { a.tempDir = dir }
}

func WithDownloadRetries(n uint64, fn func() backoff.BackOff) ApplierOption {
	return func(a *Applier) {
		a.maxRetries = n
		if fn != nil {
			a.newBackOff = fn
		}
	}
}

func NewApplier(opts ...ApplierOption) *Applier {
	a := &Applier{
		fs:         files.Fs(),
		client:     files.Client(),
		maxRetries: 3,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxElapsedTime = time.Minute
			return b
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.tempDir == "" {
		a.tempDir = files.GetTempPath()
	}
	return a
}

// Apply installs c over cfg.CurrentAddonPath.
func (a *Applier) Apply(ctx context.Context, c source.Candidate, cfg Config) error {
	if c.ArchiveURL == "" {
		return apperrors.New(apperrors.CodeInvalidBranch, fmt.Sprintf("no archive known for %s", c.Name), nil)
	}
	target := filepath.Clean(cfg.CurrentAddonPath)
	parent := addonDirectory(cfg)
	subpath := cfg.SubpathFor(c.Name)

	archive, err := a.download(ctx, c)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.fs.Remove(archive)
	}()

	if err := a.fs.MkdirAll(parent, 0755); err != nil {
		return fsError("failed to prepare add-on directory", err)
	}
	staging, err := afero.TempDir(a.fs, parent, stagingPrefix)
	if err != nil {
		return fsError("failed to create staging directory", err)
	}
	defer func() {
		_ = a.fs.RemoveAll(staging)
	}()

	if err := files.UnzipTo(a.fs, archive, staging); err != nil {
		return fsError(fmt.Sprintf("failed to extract %s", c.Name), err)
	}

	root, err := a.archiveRoot(staging)
	if err != nil {
		return fsError("failed to read extracted archive", err)
	}
	staged := filepath.Join(root, filepath.FromSlash(subpath))
	if isDir, err := afero.IsDir(a.fs, staged); err != nil || !isDir {
		return fsError(fmt.Sprintf("path %q not found in archive of %s", subpath, c.Name), err)
	}

	if err := ctx.Err(); err != nil {
		return apperrors.New(apperrors.CodeNetwork, "update cancelled", err)
	}
	return a.swap(staged, target)
}

func (a *Applier) download(ctx context.Context, c source.Candidate) (string, error) {
	if err := a.fs.MkdirAll(a.tempDir, 0755); err != nil {
		return "", fsError("failed to prepare temp directory", err)
	}
	f, err := afero.TempFile(a.fs, a.tempDir, "addonup-*.zip")
	if err != nil {
		return "", fsError("failed to create temp file", err)
	}
	name := f.Name()
	_ = f.Close()

	operation := func() error {
		err := files.DownloadTo(ctx, a.client, a.fs, c.ArchiveURL, name)
		if err == nil {
			return nil
		}
		var statusErr *files.StatusError
		if errors.As(err, &statusErr) && !statusErr.Temporary() {
			return backoff.Permanent(err)
		}
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(a.newBackOff(), a.maxRetries), ctx)
	err = backoff.RetryNotify(operation, policy, func(err error, d time.Duration) {
		Logger.Warn("Download failed, retrying", "url", c.ArchiveURL, "in", d, "error", err)
	})
	if err != nil {
		_ = a.fs.Remove(name)
		return "", apperrors.New(apperrors.CodeNetwork, fmt.Sprintf("failed to download %s", c.Name), err)
	}
	return name, nil
}

// archiveRoot returns the single top-level directory repository zipballs
// carry, or dir itself when the archive is flat.
func (a *Applier) archiveRoot(dir string) (string, error) {
	entries, err := afero.ReadDir(a.fs, dir)
	if err != nil {
		return "", err
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(dir, entries[0].Name()), nil
	}
	return dir, nil
}

func (a *Applier) swap(staged, target string) error {
	existed, err := afero.Exists(a.fs, target)
	if err != nil {
		return fsError("failed to inspect current install", err)
	}

	backup := fmt.Sprintf("%s%s%d", target, backupInfix, a.now().UnixNano())
	if existed {
		if err := a.fs.Rename(target, backup); err != nil {
			return fsError("failed to move current install aside", err)
		}
	}

	if err := a.fs.Rename(staged, target); err != nil {
		if existed {
			if restoreErr := a.fs.Rename(backup, target); restoreErr != nil {
				Logger.Error("Failed to restore previous install", "backup", backup, "error", restoreErr)
				return fsError(fmt.Sprintf("failed to install update and restore backup (previous install kept at %s)", backup), errors.Join(err, restoreErr))
			}
		}
		return fsError("failed to install update", err)
	}

	if existed {
		if err := a.fs.RemoveAll(backup); err != nil {
			Logger.Warn("Failed to remove backup of previous install", "backup", backup, "error", err)
		}
	}
	return nil
}

// Recover cleans up after a process that died mid-update. Staging
// directories are removed. When the install is missing the newest backup is
// moved back into place; any other backup is deleted.
func (a *Applier) Recover(cfg Config) error {
	target := filepath.Clean(cfg.CurrentAddonPath)
	var errs []error

	staging, err := a.leftovers(addonDirectory(cfg), func(name string) bool {
		return strings.HasPrefix(name, stagingPrefix)
	})
	errs = append(errs, err)
	for _, dir := range staging {
		Logger.Info("Removing leftover staging directory", "path", dir)
		errs = append(errs, a.fs.RemoveAll(dir))
	}

	prefix := filepath.Base(target) + backupInfix
	backups, err := a.leftovers(filepath.Dir(target), func(name string) bool {
		_, ok := backupStamp(name, prefix)
		return ok
	})
	errs = append(errs, err)
	sort.Slice(backups, func(i, j int) bool {
		ti, _ := backupStamp(filepath.Base(backups[i]), prefix)
		tj, _ := backupStamp(filepath.Base(backups[j]), prefix)
		return ti < tj
	})

	if len(backups) > 0 {
		exists, err := afero.Exists(a.fs, target)
		switch {
		case err != nil:
			return fsError("failed to inspect current install", err)
		case !exists:
			newest := backups[len(backups)-1]
			if err := a.fs.Rename(newest, target); err != nil {
				return fsError(fmt.Sprintf("failed to restore previous install from %s", newest), err)
			}
			Logger.Warn("Restored previous install after an interrupted update", "backup", newest, "path", target)
			backups = backups[:len(backups)-1]
		}
	}
	for _, b := range backups {
		Logger.Info("Removing leftover backup", "path", b)
		errs = append(errs, a.fs.RemoveAll(b))
	}

	if err := errors.Join(errs...); err != nil {
		return fsError("failed to clean up after an interrupted update", err)
	}
	return nil
}

func (a *Applier) leftovers(dir string, match func(name string) bool) ([]string, error) {
	entries, err := afero.ReadDir(a.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && match(e.Name()) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}

func backupStamp(name, prefix string) (int64, bool) {
	if !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(name, prefix), 10, 64)
	return n, err == nil
}

// addonDirectory is where staging happens. It must share a filesystem with
// the install for the final rename.
func addonDirectory(cfg Config) string {
	if cfg.AddonDirectory != "" {
		return filepath.Clean(cfg.AddonDirectory)
	}
	return filepath.Dir(filepath.Clean(cfg.CurrentAddonPath))
}

func fsError(msg string, err error) error {
	if err == nil {
		err = os.ErrNotExist
	}
	return apperrors.New(apperrors.CodeFileSystem, strings.TrimSpace(msg), err)
}
