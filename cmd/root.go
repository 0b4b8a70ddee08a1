// Package cmd is for command line interactions with the homa application
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jjtimmons/homa/config"
	"github.com/jjtimmons/homa/internal/errs"
)

var (
	// stderr is for logging a fatal error before exiting
	stderr = log.New(os.Stderr, "", 0)

	// logger is the run's structured log, set up before every command
	logger = zap.NewNop()
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use: "homa",
	Short: `Align sequences with MAFFT, around a sparse core of representatives
or with homologs found by BLAST`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(viper.GetViper(), viper.GetString("settings")); err != nil {
			return errs.Configf("failed to read settings: %v", err)
		}

		l, err := newLogger(viper.GetBool("verbose"))
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// newLogger builds a production logger to stderr. Every line has the run's id.
func newLogger(verbose bool) (*zap.Logger, error) {
	conf := zap.NewProductionConfig()
	conf.OutputPaths = []string{"stderr"}
	if verbose {
		conf.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	l, err := conf.Build()
	if err != nil {
		return nil, err
	}
	return l.With(zap.String("run", uuid.NewString())), nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
//
// An interrupt cancels the running command so its temporary files are removed.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := RootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		stderr.Fatalf("%v", err)
	}
}

func init() {
	// settings is an optional parameter for a settings file (that overrides the settings.yaml lookup)
	RootCmd.PersistentFlags().StringP("settings", "", "", "settings file, default $HOME/.homa/settings.yaml")
	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "whether to log debug output to stderr")
	viper.BindPFlag("settings", RootCmd.PersistentFlags().Lookup("settings"))
	viper.BindPFlag("verbose", RootCmd.PersistentFlags().Lookup("verbose"))

	// shared by every subcommand, so it's bound once
	RootCmd.PersistentFlags().StringP("mafft", "m", "", "mafft command, default mafft")
	viper.BindPFlag("mafft", RootCmd.PersistentFlags().Lookup("mafft"))
}
