package addonup

import (
	"strings"

	"github.com/spf13/cobra"
)

// branchCompletion completes the configured branches. Tags would need a
// network round trip and are left out.
func branchCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	s, err := newSessionFn()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []string
	for _, b := range s.manager.Branches() {
		if strings.HasPrefix(b, toComplete) {
			out = append(out, b)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
