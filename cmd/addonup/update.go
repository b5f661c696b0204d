package addonup

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/mistweaverco/addonup/internal/addon"
	"github.com/mistweaverco/addonup/internal/lib/updater"
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:     "update [branch|tag]",
	Aliases: []string{"up"},
	Short:   "Install a branch or release tag of the add-on",
	Long: `Install a branch or release tag in place of the current add-on.

The repository is checked first. Without an argument the latest candidate is
installed when --latest is given, otherwise you are asked to pick one.

Examples:
  addonup update develop
  addonup update v6.5.0
  addonup update --latest`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: branchCompletion,
	RunE: func(cmd *cobra.Command, args []string) error {
		latest, _ := cmd.Flags().GetBool("latest")
		s, err := newSessionFn()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd, s)
		defer cancel()

		out := cmd.OutOrStdout()
		if err := runCheck(ctx, s); err != nil {
			fmt.Fprintf(out, "%s %v\n", IconClose(), err)
			return err
		}

		target := ""
		if len(args) == 1 {
			target = args[0]
		}
		if target == "" {
			switch {
			case latest:
				target = s.manager.LatestCandidate()
				if target == "" {
					fmt.Fprintf(out, "%s %s\n", IconCheck(), addon.NoUpdatesText)
					return nil
				}
			case isTerminalFn() && !ShouldUseJSONOutput():
				target, err = selectTargetFn(s.manager)
				if err != nil {
					return err
				}
			default:
				return errors.New("no branch given: pass a branch or tag, or use --latest")
			}
		}

		prefs, err := addon.NewPreferences(target)
		if err != nil {
			return err
		}

		var res addon.Result
		var execErr error
		withSpinner(fmt.Sprintf("Updating to %s...", prefs.BranchToUpdate), func() {
			res, execErr = s.registry.Execute(ctx, addon.UpdateOperatorID, addon.Properties{
				addon.PropBranchName: prefs.BranchToUpdate,
			})
		})
		if execErr != nil {
			return execErr
		}
		if res == addon.Cancelled {
			return errors.New("update cancelled")
		}

		if ShouldUseJSONOutput() {
			if err := PrintJSON(out, s.manager.Snapshot()); err != nil {
				return err
			}
		}
		if s.manager.HasError() {
			if !ShouldUseJSONOutput() {
				fmt.Fprintf(out, "%s %s\n", IconClose(), s.manager.Error())
			}
			return errors.New(s.manager.Error())
		}
		if !ShouldUseJSONOutput() {
			fmt.Fprintf(out, "%s %s\n", IconCheck(), s.manager.Info())
		}
		return nil
	},
}

func init() {
	updateCmd.Flags().Bool("latest", false, "install the latest candidate found by the check")
}

// selectTarget asks the user to pick one of the checked candidates.
func selectTarget(m *updater.Manager) (string, error) {
	snap := m.Snapshot()
	if len(snap.Candidates) == 0 {
		return "", errors.New("no branches or tags found")
	}
	options := make([]huh.Option[string], 0, len(snap.Candidates))
	for _, c := range snap.Candidates {
		label := fmt.Sprintf("%s (%s, %s)", c.Name, c.Version, c.Kind)
		if c.Name == snap.Result.LatestCandidate {
			label += " latest"
		}
		options = append(options, huh.NewOption(label, c.Name))
	}

	choice := snap.Result.LatestCandidate
	err := huh.NewSelect[string]().
		Title("Install which branch or tag?").
		Options(options...).
		Value(&choice).
		Run()
	if err != nil {
		return "", err
	}
	return choice, nil
}

// selectTargetFn is an indirection for tests.
var selectTargetFn = selectTarget
