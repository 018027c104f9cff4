package main

import (
	"fmt"
	"io"
	"os"

	"ai-writing-be/pkg/citation/csl"

	"github.com/spf13/cobra"
)

var (
	convertFile  string
	convertStyle string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Format pasted BibTeX or CSL-JSON in a citation style",
	Long: `convert reads BibTeX or CSL-JSON from --file, or from stdin when no
file is given, and prints one formatted entry per line.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = cmd.InOrStdin()
		if convertFile != "" && convertFile != "-" {
			f, err := os.Open(convertFile)
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		raw, err := io.ReadAll(in)
		if err != nil {
			return err
		}

		tk := newToolkit()
		text, err := tk.renderer.Render(cmd.Context(), csl.RawText(raw), convertStyle)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	convertCmd.Flags().StringVarP(&convertFile, "file", "f", "", "Input file (default stdin)")
	convertCmd.Flags().StringVarP(&convertStyle, "style", "s", "apa", "Citation style key")
	rootCmd.AddCommand(convertCmd)
}
