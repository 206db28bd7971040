// Package cli implements consolectl, a terminal front end over the same
// session graph the console shell uses.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"breeze-console/internal/config"
	"breeze-console/internal/notify"
	"breeze-console/internal/shell"
	"breeze-console/pkg/logger"

	"github.com/spf13/cobra"
)

const sessionFileName = "session.json"

// app holds what every subcommand needs. It is built in PersistentPreRunE.
type app struct {
	debug       bool
	env         string
	storageFile string

	notifier notify.Notifier
	shell    *shell.Shell
}

type Option func(*app)

// WithNotifier replaces the terminal notifier.
func WithNotifier(n notify.Notifier) Option {
	return func(a *app) { a.notifier = n }
}

// NewRootCmd creates the root cobra command for consolectl.
func NewRootCmd(opts ...Option) *cobra.Command {
	a := &app{}
	for _, o := range opts {
		o(a)
	}

	root := &cobra.Command{
		Use:   "consolectl",
		Short: "Breeze console session tool",
		Long:  "consolectl signs in to the Breeze SSO backend and inspects the stored console session.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context(), cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.shell == nil {
				return nil
			}
			return a.shell.Close()
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&a.env, "env", "", "Environment (overrides APP_ENV)")
	root.PersistentFlags().StringVar(&a.storageFile, "storage-file", defaultStorageFile(), "Session file used when STORAGE_DRIVER is unset")

	root.AddCommand(
		newLoginCmd(a),
		newSsoURLCmd(a),
		newTicketCmd(a),
		newWhoamiCmd(a),
		newMenusCmd(a),
		newSsoClientsCmd(a),
		newStatusCmd(a),
		newLogoutCmd(a),
	)
	for _, c := range root.Commands() {
		a.closeOnError(c)
	}
	return root
}

// closeOnError closes the shell when c fails, since cobra skips the post-run
// hook then. Close lets a 401 logout prompt finish before the process exits.
func (a *app) closeOnError(c *cobra.Command) {
	run := c.RunE
	if run == nil {
		return
	}
	c.RunE = func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		if err != nil && a.shell != nil {
			_ = a.shell.Close()
			a.shell = nil
		}
		return err
	}
}

func (a *app) open(ctx context.Context, stderr io.Writer) error {
	if a.env != "" {
		if err := os.Setenv("APP_ENV", a.env); err != nil {
			return err
		}
	}
	// The CLI keeps its session on disk unless told otherwise.
	if os.Getenv("STORAGE_DRIVER") == "" {
		if err := os.Setenv("STORAGE_DRIVER", config.DriverFile); err != nil {
			return err
		}
		if os.Getenv("STORAGE_FILE") == "" {
			if err := os.Setenv("STORAGE_FILE", a.storageFile); err != nil {
				return err
			}
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level := "production"
	if a.debug {
		level = "dev"
	}
	log := logger.NewWithWriter(level, stderr)

	n := a.notifier
	if n == nil {
		n = notify.NewTerminal()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	sh, err := shell.Build(ctx, cfg, log, shell.Options{Notifier: n})
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	a.shell = sh
	return nil
}

// defaultStorageFile is ~/.breeze/session.json.
func defaultStorageFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return sessionFileName
	}
	return filepath.Join(home, ".breeze", sessionFileName)
}
