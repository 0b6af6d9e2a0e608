package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newParamsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "params",
		Short: "List every query parameter name used by the known engines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range app.Extractor.AllQueryParamNames() {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
}
