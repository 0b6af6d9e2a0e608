package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newEnginesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List the known search engines and their registry keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}

			rules := app.Extractor.Rules()
			keys := make([]string, 0, len(rules))
			for key := range rules {
				keys = append(keys, key)
			}
			sort.Slice(keys, func(i, j int) bool {
				a, b := rules[keys[i]], rules[keys[j]]
				if a.Name != b.Name {
					return a.Name < b.Name
				}
				return keys[i] < keys[j]
			})

			out := cmd.OutOrStdout()
			for _, key := range keys {
				fmt.Fprintf(out, "%-30s%s\n", rules[key].Name, key)
			}
			fmt.Fprintf(out, "%d engines listed.\n", len(keys))
			return nil
		},
	}
}
