package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kbukum/seqkit/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if appErr, ok := errors.AsAppError(err); ok {
		return errors.ExitCode(appErr.Code)
	}
	return 1
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configFile string
	envFile    string
	logLevel   string
	logFormat  string
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "seqplan",
		Short:         "seqplan evaluates declarative sequence pipeline plans",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var flags globalFlags
	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file to load")
	cmd.PersistentFlags().StringVar(&flags.envFile, "env-file", "", ".env file to load")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level to use")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "log formatter to use")

	cmd.AddCommand(runCmd(&flags))
	cmd.AddCommand(checkCmd(&flags))
	cmd.AddCommand(versionCmd())

	return cmd
}
