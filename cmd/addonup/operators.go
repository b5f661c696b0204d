package addonup

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type operatorInfo struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Options     []string `json:"options"`
}

var operatorsCmd = &cobra.Command{
	Use:   "operators",
	Short: "List the operators the add-on registers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSessionFn()
		if err != nil {
			return err
		}

		var ops []operatorInfo
		for _, id := range s.registry.IDs() {
			op, ok := s.registry.Lookup(id)
			if !ok {
				continue
			}
			ops = append(ops, operatorInfo{ID: op.ID, Label: op.Label, Description: op.Description, Options: op.Options})
		}

		if ShouldUseJSONOutput() {
			return PrintJSON(cmd.OutOrStdout(), ops)
		}
		var md strings.Builder
		md.WriteString("# Operators\n\n")
		for _, op := range ops {
			fmt.Fprintf(&md, "- `%s` **%s**: %s [%s]\n", op.ID, op.Label, op.Description, strings.Join(op.Options, ", "))
		}
		printMarkdown(cmd.OutOrStdout(), md.String())
		return nil
	},
}
