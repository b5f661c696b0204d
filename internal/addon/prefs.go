package addon

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/mistweaverco/addonup/internal/lib/updater"
)

// Icon names the host draws next to a panel element.
type Icon string

const (
	IconNone        Icon = ""
	IconFileRefresh Icon = "FILE_REFRESH"
	IconTriaDownBar Icon = "TRIA_DOWN_BAR"
	IconCancel      Icon = "CANCEL"
	IconError       Icon = "ERROR"
)

const (
	NoUpdatesText    = "No updates are available."
	ManualUpdateText = "Manual Update:"
	TargetLabel      = "Target"
)

// Preferences holds the user-editable preference values.
type Preferences struct {
	BranchToUpdate string `json:"branch_to_update"`
}

// NewPreferences validates the manual update target.
// An empty target is allowed; it is rejected only when the update runs.
func NewPreferences(branch string) (Preferences, error) {
	branch = strings.TrimSpace(branch)
	switch {
	case strings.IndexFunc(branch, unicode.IsSpace) >= 0:
		return Preferences{}, fmt.Errorf("target %q must not contain whitespace", branch)
	case strings.Contains(branch, ".."):
		return Preferences{}, fmt.Errorf("target %q must not contain '..'", branch)
	case strings.HasPrefix(branch, "-"):
		return Preferences{}, fmt.Errorf("target %q must not start with '-'", branch)
	}
	return Preferences{BranchToUpdate: branch}, nil
}

// Button invokes an operator when enabled.
type Button struct {
	Text       string
	Icon       Icon
	Operator   string
	Properties Properties
	Enabled    bool
}

// Field is an editable text property.
type Field struct {
	Label    string
	Property string
	Value    string
}

// ManualUpdateRow lets the user install an arbitrary branch or tag.
type ManualUpdateRow struct {
	Label  string
	Target Field
	Button Button
}

// MessageBox is the error or info notice under the buttons.
type MessageBox struct {
	Text    string
	Icon    Icon
	IsError bool
}

// Panel is the preference section for the updater, top to bottom.
type Panel struct {
	Busy   bool
	Status string

	// Check is shown before a check has run.
	Check *Button
	// Update is the latest-release button, disabled when nothing qualifies.
	Update *Button
	Manual *ManualUpdateRow

	Message *MessageBox
}

// DrawUpdaterUI builds the panel for the current manager state. It only reads
// the manager and never blocks on I/O.
func DrawUpdaterUI(prefs Preferences, m *updater.Manager) Panel {
	snap := m.Snapshot()
	busy := snap.State == updater.StateChecking || snap.State == updater.StateUpdating
	panel := Panel{Busy: busy, Status: snap.StateName}

	if !snap.Result.Checked {
		panel.Check = &Button{
			Text:     fmt.Sprintf("Check '%s' add-on update", snap.Repository),
			Icon:     IconFileRefresh,
			Operator: CheckUpdateOperatorID,
			Enabled:  !busy && snap.State != updater.StateUninitialized,
		}
	} else {
		if snap.Result.LatestVersion != "" {
			panel.Update = &Button{
				Text:       fmt.Sprintf("Update to the latest release version (version: %s)", snap.Result.LatestVersion),
				Icon:       IconTriaDownBar,
				Operator:   UpdateOperatorID,
				Properties: Properties{PropBranchName: snap.Result.LatestCandidate},
				Enabled:    !busy,
			}
		} else {
			panel.Update = &Button{Text: NoUpdatesText, Enabled: false}
		}

		panel.Manual = &ManualUpdateRow{
			Label:  ManualUpdateText,
			Target: Field{Label: TargetLabel, Property: "branch_to_update", Value: prefs.BranchToUpdate},
			Button: Button{
				Text:       "Update",
				Operator:   UpdateOperatorID,
				Properties: Properties{PropBranchName: prefs.BranchToUpdate},
				Enabled:    !busy,
			},
		}
	}

	switch {
	case snap.Error != "":
		panel.Message = &MessageBox{Text: snap.Error, Icon: IconCancel, IsError: true}
	case snap.Info != "":
		panel.Message = &MessageBox{Text: snap.Info, Icon: IconError}
	}
	return panel
}

// Buttons lists the panel's buttons in drawing order.
func (p Panel) Buttons() []Button {
	var out []Button
	if p.Check != nil {
		out = append(out, *p.Check)
	}
	if p.Update != nil {
		out = append(out, *p.Update)
	}
	if p.Manual != nil {
		out = append(out, p.Manual.Button)
	}
	return out
}
