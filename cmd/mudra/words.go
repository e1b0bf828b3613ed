package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

var wordsCmd = &cobra.Command{
	Use:   "words [<gesture> <word>]",
	Short: "Show or change the word spoken for each gesture",
	Long: "Without arguments, lists the word for every gesture. With a gesture and a word,\n" +
		"stores the new word. A running server picks it up on its next start.",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("accepts 0 or 2 args, received %d", len(args))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		if len(args) == 2 {
			if err := setWord(st, args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Gesture %s now says '%s'\n", args[0], strings.TrimSpace(args[1]))
			return nil
		}
		return runWords(st)
	},
}

func init() {
	rootCmd.AddCommand(wordsCmd)
}

// setWord validates and stores word for label.
func setWord(st *store.Store, label, word string) error {
	if !gesture.Label(label).Valid() {
		return fmt.Errorf("unknown gesture %q (one of %s)", label, labelList())
	}
	word = strings.TrimSpace(word)
	if word == "" {
		return fmt.Errorf("word for %s must not be empty", label)
	}
	if err := st.Words().Seed(gesture.DefaultWords().Table()); err != nil {
		return fmt.Errorf("seed words: %w", err)
	}
	if err := st.Words().Set(label, word); err != nil {
		return fmt.Errorf("set word: %w", err)
	}
	return nil
}

// loadWords returns the stored mapping, seeding the defaults on first use.
func loadWords(st *store.Store) (map[string]string, error) {
	if err := st.Words().Seed(gesture.DefaultWords().Table()); err != nil {
		return nil, fmt.Errorf("seed words: %w", err)
	}
	words, err := st.Words().Map()
	if err != nil {
		return nil, fmt.Errorf("load words: %w", err)
	}
	return words, nil
}

func runWords(st *store.Store) error {
	words, err := loadWords(st)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "GESTURE\tWORD")
	fmt.Fprintln(w, "-------\t----")
	for _, label := range gesture.Labels() {
		fmt.Fprintf(w, "%s\t%s\n", label, words[string(label)])
	}
	return w.Flush()
}

func labelList() string {
	labels := make([]string, 0, len(gesture.Labels()))
	for _, l := range gesture.Labels() {
		labels = append(labels, string(l))
	}
	sort.Strings(labels)
	return strings.Join(labels, ", ")
}
