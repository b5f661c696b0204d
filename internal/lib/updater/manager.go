package updater

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	apperrors "github.com/mistweaverco/addonup/internal/errors"
	"github.com/mistweaverco/addonup/internal/lib/log"
	"github.com/mistweaverco/addonup/internal/lib/source"
)

var Logger = log.NewLogger()

// State is the lifecycle state of a Manager.
type State int

const (
	StateUninitialized State = iota
	StateIdle
	StateChecking
	StateChecked
	StateUpdating
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChecking:
		return "checking"
	case StateChecked:
		return "checked"
	case StateUpdating:
		return "updating"
	default:
		return "uninitialized"
	}
}

// InstallRecorder persists what was installed after a successful update.
type InstallRecorder interface {
	RecordInstall(addon, ref, version, path string) error
}

// Snapshot is a consistent copy of the manager state for rendering.
type Snapshot struct {
	State      State              `json:"-"`
	StateName  string             `json:"state"`
	Owner      string             `json:"owner"`
	Repository string             `json:"repository"`
	AddonPath  string             `json:"addon_path"`
	Current    string             `json:"current_version"`
	Branches   []string           `json:"branches"`
	Result     CheckResult        `json:"result"`
	Candidates []source.Candidate `json:"candidates"`
	Error      string             `json:"error,omitempty"`
	Info       string             `json:"info,omitempty"`
}

// Manager owns the updater state. Check and Update are single writers: a
// request arriving while another one runs is rejected with a busy error.
// Accessors only take the read lock and never wait on the network.
type Manager struct {
	mu sync.RWMutex

	name     string
	state    State
	busy     bool
	cfg      Config
	result   CheckResult
	errMsg   string
	infoMsg  string
	found    []source.Candidate
	source   source.VersionSource
	checker  *Checker
	applier  Installer
	recorder InstallRecorder
}

type ManagerOption func(*Manager)

func WithSource(s source.VersionSource) ManagerOption {
	return func(m *Manager) { m.source = s }
}

func WithInstaller(i Installer) ManagerOption {
	return func(m *Manager) { m.applier = i }
}

func WithRecorder(r InstallRecorder) ManagerOption {
	return func(m *Manager) { m.recorder = r }
}

// WithAddonName sets the name recorded in the install lock file.
func WithAddonName(name string) ManagerOption {
	return func(m *Manager) { m.name = name }
}

func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{}
	for _, opt := range opts {
		opt(m)
	}
	if m.source == nil {
		m.source = source.NewGitHubSource()
	}
	if m.checker == nil {
		m.checker = NewChecker()
	}
	if m.applier == nil {
		m.applier = NewApplier()
	}
	return m
}

// Init validates cfg and resets the manager to Idle. Calling it again
// replaces the config, as happens when the add-on is reloaded.
func (m *Manager) Init(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		Logger.Error("Invalid updater config", "error", err)
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy {
		return busyError(m.state)
	}
	m.cfg = cfg.normalized()
	if r, ok := m.applier.(Recoverer); ok {
		if err := r.Recover(m.cfg); err != nil {
			Logger.Warn("Failed to clean up after an interrupted update", "error", err)
		}
	}
	m.state = StateIdle
	m.result = CheckResult{}
	m.found = nil
	m.errMsg = ""
	m.infoMsg = ""
	if m.name == "" {
		m.name = m.cfg.Repository
	}
	Logger.Debug("Updater initialised", "repository", m.cfg.Owner+"/"+m.cfg.Repository, "branches", m.cfg.Branches)
	return nil
}

func busyError(s State) error {
	return apperrors.New(apperrors.CodeBusy, fmt.Sprintf("another operation is in progress (%s)", s), nil)
}

// begin marks the manager busy. The caller must hold the write lock.
func (m *Manager) begin(next State) error {
	if m.state == StateUninitialized {
		return apperrors.New(apperrors.CodeUninitialized, "updater is not initialised", nil)
	}
	if m.busy {
		return busyError(m.state)
	}
	m.busy = true
	Logger.Debug("Updater state change", "from", m.state, "to", next)
	m.state = next
	return nil
}

// CheckUpdateCandidate asks the version source for candidates and stores the
// selection. A network failure is recorded in Error and also returned; the
// manager ends up Checked either way, so the user can retry.
func (m *Manager) CheckUpdateCandidate(ctx context.Context) error {
	m.mu.Lock()
	if err := m.begin(StateChecking); err != nil {
		m.mu.Unlock()
		return err
	}
	cfg := m.cfg
	m.mu.Unlock()

	candidates, err := m.source.ListCandidates(ctx, cfg.query())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy = false
	m.state = StateChecked

	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeUnknown {
			err = apperrors.New(apperrors.CodeNetwork, "failed to check for updates", err)
		}
		Logger.Error("Update check failed", "error", err)
		m.result = CheckResult{Checked: true, Error: err.Error(), CheckedAt: m.checker.clock()}
		m.found = nil
		m.errMsg = m.result.Error
		m.infoMsg = ""
		return err
	}

	m.result = m.checker.Check(candidates, cfg)
	m.found = candidates
	m.errMsg = m.result.Error
	m.infoMsg = m.result.Info
	Logger.Info("Update check finished", "candidates", len(candidates), "latest", m.result.LatestVersion, "ref", m.result.LatestCandidate)
	return nil
}

// Update installs the named branch or release tag. Failures are recorded in
// Error and returned; the previous install is left untouched.
func (m *Manager) Update(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)

	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		return busyError(m.state)
	}
	if m.state == StateUninitialized {
		m.mu.Unlock()
		return apperrors.New(apperrors.CodeUninitialized, "updater is not initialised", nil)
	}
	candidate, err := m.resolve(name)
	if err != nil {
		m.errMsg = err.Error()
		m.infoMsg = ""
		m.mu.Unlock()
		Logger.Warn("Update rejected", "ref", name, "error", err)
		return err
	}
	if err := m.begin(StateUpdating); err != nil {
		m.mu.Unlock()
		return err
	}
	cfg := m.cfg
	m.mu.Unlock()

	Logger.Info("Updating add-on", "ref", candidate.Name, "version", candidate.Version, "path", cfg.CurrentAddonPath)
	applyErr := m.applier.Apply(ctx, candidate, cfg)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy = false
	m.state = StateIdle
	m.result = CheckResult{}
	m.found = nil

	if applyErr != nil {
		if apperrors.CodeOf(applyErr) == apperrors.CodeUnknown {
			applyErr = apperrors.New(apperrors.CodeFileSystem, "failed to update", applyErr)
		}
		Logger.Error("Update failed", "ref", candidate.Name, "error", applyErr)
		m.errMsg = applyErr.Error()
		m.infoMsg = ""
		return applyErr
	}

	m.errMsg = ""
	m.infoMsg = fmt.Sprintf("Updated to %s. Please restart the application.", candidate.Name)
	if m.recorder != nil {
		if err := m.recorder.RecordInstall(m.name, candidate.Name, candidate.Version, cfg.CurrentAddonPath); err != nil {
			Logger.Warn("Failed to record install", "error", err)
		}
	}
	return nil
}

// resolve validates name against the config and the last check. The caller
// must hold the write lock.
func (m *Manager) resolve(name string) (source.Candidate, error) {
	if name == "" {
		return source.Candidate{}, apperrors.New(apperrors.CodeInvalidBranch, "no branch selected", nil)
	}
	if m.state != StateChecked || m.result.Error != "" {
		return source.Candidate{}, apperrors.New(apperrors.CodeNotChecked, "check for updates first", nil)
	}

	var match *source.Candidate
	for i := range m.found {
		if m.found[i].Name == name {
			match = &m.found[i]
			break
		}
	}

	switch {
	case m.cfg.HasBranch(name) && match != nil:
		return *match, nil
	case m.cfg.HasBranch(name):
		// The listing may omit a branch; any configured one is installable.
		if loc, ok := m.source.(source.ArchiveLocator); ok {
			return source.Candidate{
				Name:       name,
				Kind:       source.KindBranch,
				ArchiveURL: loc.ArchiveURL(m.cfg.Owner, m.cfg.Repository, name),
			}, nil
		}
		return source.Candidate{}, apperrors.New(apperrors.CodeInvalidBranch, fmt.Sprintf("no archive known for branch %s", name), nil)
	case match != nil && match.Kind == source.KindTag:
		return *match, nil
	}
	return source.Candidate{}, apperrors.New(apperrors.CodeInvalidBranch,
		fmt.Sprintf("invalid branch %s: expected one of %s or a release tag", name, strings.Join(m.cfg.Branches, ", ")), nil)
}

func (m *Manager) CandidateChecked() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.result.Checked
}

// LatestVersion is empty when no update qualifies.
func (m *Manager) LatestVersion() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.result.LatestVersion
}

// LatestCandidate is the branch or tag name carrying LatestVersion.
func (m *Manager) LatestCandidate() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.result.LatestCandidate
}

func (m *Manager) HasError() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errMsg != ""
}

func (m *Manager) Error() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errMsg
}

func (m *Manager) HasInfo() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.infoMsg != ""
}

func (m *Manager) Info() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.infoMsg
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) Branches() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.cfg.Branches...)
}

// Result returns the last check result.
func (m *Manager) Result() CheckResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.result
}

// Config returns a copy of the active config.
func (m *Manager) Config() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.normalized()
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	candidates := make([]source.Candidate, len(m.found))
	copy(candidates, m.found)
	return Snapshot{
		State:      m.state,
		StateName:  m.state.String(),
		Owner:      m.cfg.Owner,
		Repository: m.cfg.Repository,
		AddonPath:  m.cfg.CurrentAddonPath,
		Current:    m.cfg.CurrentVersion,
		Branches:   append([]string(nil), m.cfg.Branches...),
		Result:     m.result,
		Candidates: candidates,
		Error:      m.errMsg,
		Info:       m.infoMsg,
	}
}

// WaitIdle blocks until no operation is running or ctx is done.
func (m *Manager) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		m.mu.RLock()
		busy := m.busy
		m.mu.RUnlock()
		if !busy {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
