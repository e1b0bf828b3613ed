package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/translate"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported translation languages",
	Run: func(cmd *cobra.Command, args []string) {
		runLanguages()
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}

func runLanguages() {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "CODE\tNAME")
	fmt.Fprintln(w, "----\t----")

	for _, l := range translate.Languages() {
		marker := ""
		if l.Code == cfg.TargetLanguage {
			marker = " *"
		}
		fmt.Fprintf(w, "%s\t%s%s\n", l.Code, l.Name, marker)
	}
	w.Flush()
}
