package addonup

import (
	"fmt"
	"strings"
	"time"

	"github.com/mistweaverco/addonup/internal/lib/install_state"
	"github.com/mistweaverco/addonup/internal/lib/updater"
	"github.com/spf13/cobra"
)

type statusReport struct {
	Updater   updater.Snapshot           `json:"updater"`
	Installed *install_state.InstallItem `json:"installed,omitempty"`
	Config    string                     `json:"config_file,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the updater configuration and the last installed version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSessionFn()
		if err != nil {
			return err
		}

		report := statusReport{Updater: s.manager.Snapshot(), Config: s.settings.File}
		if item, ok := s.store.GetByAddon(s.info.Name); ok {
			report.Installed = &item
		}

		if ShouldUseJSONOutput() {
			return PrintJSON(cmd.OutOrStdout(), report)
		}

		cfg := s.manager.Config()
		var md strings.Builder
		fmt.Fprintf(&md, "# %s\n\n", s.info.Name)
		fmt.Fprintf(&md, "- **Repository:** %s/%s\n", cfg.Owner, cfg.Repository)
		fmt.Fprintf(&md, "- **Add-on path:** `%s`\n", cfg.CurrentAddonPath)
		fmt.Fprintf(&md, "- **Branches:** %s\n", strings.Join(cfg.Branches, ", "))
		fmt.Fprintf(&md, "- **Minimum release version:** %s\n", cfg.MinReleaseVersion)
		if report.Config != "" {
			fmt.Fprintf(&md, "- **Config file:** `%s`\n", report.Config)
		}
		if report.Installed != nil {
			fmt.Fprintf(&md, "\n%s Installed %s (%s) on %s\n", IconCheck(),
				report.Installed.Ref, report.Installed.Version, report.Installed.InstalledAt.Format(time.RFC3339))
		} else {
			fmt.Fprintf(&md, "\n%s No update has been installed by addonup yet\n", IconAlert())
		}
		printMarkdown(cmd.OutOrStdout(), md.String())
		return nil
	},
}
