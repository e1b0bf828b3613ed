package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/store"
)

var (
	historyLimit int
	historyClear bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently recognized words",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		if historyClear {
			if err := st.Recognitions().Clear(); err != nil {
				return fmt.Errorf("clear history: %w", err)
			}
			fmt.Println("History cleared.")
			return nil
		}
		return runHistory(st, historyLimit)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", store.DefaultHistoryLimit, "Number of entries to show")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "Delete all history")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(st *store.Store, limit int) error {
	recs, err := st.Recognitions().List(limit)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}

	if len(recs) == 0 {
		fmt.Println("No recognitions recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "TIME\tGESTURE\tWORD\tTRANSLATION\tLANG\tBACKEND")
	fmt.Fprintln(w, "----\t-------\t----\t-----------\t----\t-------")

	for _, r := range recs {
		backend := r.Backend
		if backend == "" {
			backend = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Label, r.Word, r.Translation, r.Language, backend)
	}
	return w.Flush()
}
