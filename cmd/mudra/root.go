package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/config"
)

// Version is the application version.
const Version = "0.1.0"

var (
	// cfg is loaded from the environment and overridden by flags before any
	// subcommand runs.
	cfg config.Config

	flagAddr   string
	flagCamera int
	flagDB     string
	flagWeb    string
	flagLang   string
	flagTray   bool
	flagStart  bool
)

var rootCmd = &cobra.Command{
	Use:     "mudra",
	Short:   "Hand gesture to speech translator",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		applyFlags(cmd, &loaded)
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		cfg = loaded
		return nil
	},
	SilenceUsage: true,
}

// applyFlags overrides environment values with flags set on the command line.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("addr") {
		c.Addr = flagAddr
	}
	if flags.Changed("camera") {
		c.Camera.DeviceID = flagCamera
	}
	if flags.Changed("db") {
		c.DBPath = flagDB
	}
	if flags.Changed("web") {
		c.WebDir = flagWeb
	}
	if flags.Changed("lang") {
		c.TargetLanguage = flagLang
	}
	if flags.Changed("tray") {
		c.Tray = flagTray
	}
	if flags.Changed("start") {
		c.AutoStart = flagStart
	}
}

// Execute runs the root command with a context cancelled on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.mudra/mudra.db)")
	pf.StringVar(&flagLang, "lang", "", "Target language for recognized words")
}
