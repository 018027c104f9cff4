package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <doi-or-url>",
	Short: "Print the CSL-JSON metadata for an identifier",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tk := newToolkit()
		md, err := tk.resolver.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		var out bytes.Buffer
		if err := json.Indent(&out, md, "", "  "); err != nil {
			// Upstream sent something we cannot indent; show it as-is.
			fmt.Fprintln(cmd.OutOrStdout(), string(md))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
