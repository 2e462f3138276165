// Package cli implements the claimsctl command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/claims-validator/internal/common"
)

// Exit codes
const (
	ExitSuccess    = 0
	ExitError      = 1
	ExitUsageError = 2
)

// Run executes claimsctl with args and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	a.close()
	if err == nil {
		return ExitSuccess
	}
	fmt.Fprintln(stderr, a.styles.err.Render("error: "+err.Error()))
	var usage usageError
	if errors.As(err, &usage) || errors.Is(err, common.ErrValidation) || errors.Is(err, common.ErrInvalidInput) {
		return ExitUsageError
	}
	return ExitError
}

type usageError struct{ error }

func (u usageError) Unwrap() error { return u.error }

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "claimsctl",
		Short:         "Validate insurance claims against tenant rule sets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	f := root.PersistentFlags()
	f.StringVar(&a.flags.sqlite, "sqlite", "", "SQLite database file (overrides DB_SQLITE_PATH)")
	f.StringVar(&a.flags.dbURL, "db-url", "", "Postgres DSN (overrides DB_URL)")
	f.BoolVarP(&a.flags.verbose, "verbose", "v", false, "log debug output to stderr")
	f.BoolVar(&a.flags.json, "json", false, "print machine-readable JSON")
	f.BoolVar(&a.flags.noColor, "no-color", os.Getenv("NO_COLOR") != "", "disable colored output")

	root.AddCommand(
		newMigrateCmd(a),
		newSeedDemoCmd(a),
		newTenantsCmd(a),
		newRulesCmd(a),
		newClaimsCmd(a),
		newValidateCmd(a),
		newResultsCmd(a),
		newAuditCmd(a),
		newExportCmd(a),
	)
	return root
}

func (a *app) newLogger() *slog.Logger {
	level := slog.LevelWarn
	if a.flags.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return attr
		},
	}))
}
