package main

import (
	"fmt"

	"ai-writing-be/pkg/citation/style"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "List supported styles and check that each definition loads",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tk := newToolkit()
		failed := 0
		for _, key := range style.Keys() {
			def, err := tk.styles.EnsureLoaded(cmd.Context(), key)
			if err != nil {
				failed++
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", key, color.RedString("unavailable: %v", err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", key, color.GreenString("%s", def.Style.Title))
		}
		if failed > 0 {
			return fmt.Errorf("%d style(s) failed to load", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stylesCmd)
}
