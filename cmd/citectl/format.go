package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var formatStyle string

var formatCmd = &cobra.Command{
	Use:   "format <doi-or-url>",
	Short: "Resolve an identifier and format it in a citation style",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tk := newToolkit()
		md, err := tk.resolver.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		text, err := tk.renderer.Render(cmd.Context(), md, formatStyle)
		if err != nil {
			return err
		}
		if verbose {
			color.Cyan("[%s]", formatStyle)
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	formatCmd.Flags().StringVarP(&formatStyle, "style", "s", "apa", "Citation style key")
	rootCmd.AddCommand(formatCmd)
}
