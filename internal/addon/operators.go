package addon

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mistweaverco/addonup/internal/lib/log"
	"github.com/mistweaverco/addonup/internal/lib/updater"
)

var Logger = log.NewLogger()

const (
	CheckUpdateOperatorID = "uv.uvia_check_addon_update"
	UpdateOperatorID      = "uv.uvia_update_addon"

	// PropBranchName is the branch or tag the update operator installs.
	PropBranchName = "branch_name"
)

// Result is what an operator reports back to the host.
type Result int

const (
	Finished Result = iota
	Cancelled
)

func (r Result) String() string {
	if r == Cancelled {
		return "CANCELLED"
	}
	return "FINISHED"
}

// Properties are the named string arguments of an operator call.
type Properties map[string]string

// Operator is a user-triggerable action.
type Operator struct {
	ID          string
	Label       string
	Description string
	Options     []string
	Execute     func(ctx context.Context, props Properties) Result
}

// Registry maps operator IDs to handlers. It is built once at startup.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]Operator
}

func NewRegistry() *Registry {
	return &Registry{ops: map[string]Operator{}}
}

func (r *Registry) Register(op Operator) error {
	if op.ID == "" {
		return fmt.Errorf("operator id must not be empty")
	}
	if op.Execute == nil {
		return fmt.Errorf("operator %s has no execute function", op.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ops[op.ID]; exists {
		return fmt.Errorf("operator %s is already registered", op.ID)
	}
	r.ops[op.ID] = op
	return nil
}

func (r *Registry) Lookup(id string) (Operator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[id]
	return op, ok
}

// Execute runs the operator registered under id.
func (r *Registry) Execute(ctx context.Context, id string, props Properties) (Result, error) {
	op, ok := r.Lookup(id)
	if !ok {
		return Cancelled, fmt.Errorf("unknown operator %s", id)
	}
	if props == nil {
		props = Properties{}
	}
	Logger.Debug("Executing operator", "id", id, "props", props)
	return op.Execute(ctx, props), nil
}

// IDs returns the registered operator IDs in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.ops))
	for id := range r.ops {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NewUpdaterOperators builds the check and update operators bound to m.
// Both report Finished even on failure; the outcome lives in m's state.
func NewUpdaterOperators(m *updater.Manager) []Operator {
	return []Operator{
		{
			ID:          CheckUpdateOperatorID,
			Label:       "Check Update",
			Description: "Check Add-on Update",
			Options:     []string{"REGISTER", "UNDO"},
			Execute: func(ctx context.Context, _ Properties) Result {
				if err := m.CheckUpdateCandidate(ctx); err != nil {
					Logger.Warn("Check update failed", "error", err)
				}
				return Finished
			},
		},
		{
			ID:          UpdateOperatorID,
			Label:       "Update",
			Description: "Update Add-on",
			Options:     []string{"REGISTER", "UNDO"},
			Execute: func(ctx context.Context, props Properties) Result {
				branch := props[PropBranchName]
				if branch == "" {
					return Cancelled
				}
				if err := m.Update(ctx, branch); err != nil {
					Logger.Warn("Update failed", "branch", branch, "error", err)
				}
				return Finished
			},
		},
	}
}

// RegisterOperators adds the updater operators of m to r.
func RegisterOperators(r *Registry, m *updater.Manager) error {
	for _, op := range NewUpdaterOperators(m) {
		if err := r.Register(op); err != nil {
			return err
		}
	}
	return nil
}
