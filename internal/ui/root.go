package ui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mistweaverco/addonup/internal/addon"
	"github.com/mistweaverco/addonup/internal/lib/updater"
)

// exitWait bounds the wait for a running operator when no timeout is set.
const exitWait = 30 * time.Second

// Show runs the interactive preference panel until the user quits. Every
// operator started from the panel is bounded by timeout. On exit it waits,
// at most timeout, for a running operator so an update is not cut off
// between its renames.
func Show(ctx context.Context, m *updater.Manager, reg *addon.Registry, prefs addon.Preferences, timeout time.Duration) error {
	p := tea.NewProgram(newModel(ctx, m, reg, prefs, timeout), tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := p.Run()

	wait := timeout
	if wait <= 0 {
		wait = exitWait
	}
	waitCtx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	if err := m.WaitIdle(waitCtx); err != nil {
		Logger.Warn("Exiting while an operation is still running", "state", m.State(), "error", err)
	}

	if runErr != nil {
		return fmt.Errorf("error running program: %w", runErr)
	}
	return nil
}
