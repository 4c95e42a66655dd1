package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/danielgatis/go-headless-console/internal/config"
	"github.com/danielgatis/go-headless-console/internal/log"
)

var (
	version = "dev"
	cfgFile string
	cfg     config.Config

	v          = viper.New()
	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "headless-console",
	Short: "A line-editing console with wrap-aware editing",
	Long: `headless-console runs a line editor that understands soft-wrapped lines:
cursor keys, insertion, deletion and selection work across the rows a long
line wraps onto. It can front a child program (a REPL, a shell in line mode)
on a local terminal, over SSH or over a websocket.`,
	Version:            version,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./.headless-console.yaml or ~/.config/headless-console/config.yaml)")
	rootCmd.PersistentFlags().String("prompt", "", "prompt drawn in front of each line")
	rootCmd.PersistentFlags().String("log", "", "write logs to this file")
	rootCmd.PersistentFlags().String("log-level", "", "minimum log level (debug, info, warn, error)")

	_ = v.BindPFlag("console.prompt", rootCmd.PersistentFlags().Lookup("prompt"))
	_ = v.BindPFlag("log.path", rootCmd.PersistentFlags().Lookup("log"))
	_ = v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// setup loads the configuration and starts logging.
func setup(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded

	if cfg.Log.Path != "" {
		cleanup, err := log.Init(cfg.Log.Path)
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		logCleanup = cleanup
		log.SetMinLevel(cfg.LogLevel())
	}
	log.Info(log.CatConfig, "starting", "version", version, "config", v.ConfigFileUsed())
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if logCleanup != nil {
		logCleanup()
		logCleanup = nil
	}
	return nil
}

// watchConfig applies config file edits through fn while the command runs.
func watchConfig(fn func(config.Config)) {
	if v.ConfigFileUsed() == "" {
		return
	}
	config.Watch(v, fn)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
