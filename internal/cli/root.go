package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lockbridge/pkg/buildinfo"
	apperrors "github.com/matzehuels/lockbridge/pkg/errors"
)

// Execute runs the lockbridge CLI and returns an error if any command
// fails. This is the main entry point for the CLI application.
//
// The function sets up the root command with the lock and export
// subcommands and configures logging based on the --verbose flag. The
// logger is attached to the context and accessible to all commands via
// loggerFromContext.
//
// Usage errors are rendered with their remedial instruction; all other
// failures are rendered with their full cause chain.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:           "lockbridge",
		Short:         "lockbridge locks Python projects with uv and exports the result",
		Long:          `lockbridge drives the uv resolver against a Python project, translates its lock output into a typed dependency model, and exports that model as requirements.txt or pylock.toml.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newLockCmd())
	root.AddCommand(newExportCmd())

	err := root.ExecuteContext(ctx)
	if err != nil && ctx.Err() == nil {
		if apperrors.IsUsage(err) {
			printError("%s", apperrors.UserMessage(err))
		} else {
			printError("%v", err)
		}
	}
	return err
}
