package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"internify/internal/shared/config"
	"internify/internal/shared/telemetry"
)

// Options configures the root command. Zero values use the process defaults.
type Options struct {
	Viper     *viper.Viper
	Out       io.Writer
	In        io.Reader
	OpenState StateOpener
}

// NewRootCommand builds the internify command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Viper == nil {
		opts.Viper = config.NewViper()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.OpenState == nil {
		opts.OpenState = OpenSQLiteState
	}
	v := opts.Viper
	v.SetDefault(config.KeyLogLevel, "warn")

	var app *App
	current := func() *App { return app }

	root := &cobra.Command{
		Use:           "internify",
		Short:         "Internify internship outreach client",
		Long:          "Upload a resume, search postings, draft an application email with AI, send it and track what you sent.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadClient(v)
			if err != nil {
				return err
			}
			telemetry.SetLevel(cfg.LogLevel)

			state, closer, err := opts.OpenState(cmd.Context(), cfg.StatePath)
			if err != nil {
				return fmt.Errorf("open local state: %w", err)
			}
			app, err = NewApp(cfg, state, closer, cmd.OutOrStdout())
			if err != nil {
				_ = closer.Close()
				return err
			}
			return nil
		},
	}
	root.SetOut(opts.Out)
	root.SetIn(opts.In)

	flags := root.PersistentFlags()
	flags.String("backend-url", "", "Backend REST base URL (BACKEND_URL)")
	flags.String("auth-url", "", "Auth provider base URL (AUTH_URL)")
	flags.String("anon-key", "", "Auth provider anonymous key (AUTH_ANON_KEY)")
	flags.String("state-path", "", "Local state database path (STATE_PATH)")
	flags.String("log-level", "", "Log level: debug, info, warn, error (LOG_LEVEL)")
	bindFlag(v, config.KeyBackendURL, root, "backend-url")
	bindFlag(v, config.KeyAuthURL, root, "auth-url")
	bindFlag(v, config.KeyAuthAnonKey, root, "anon-key")
	bindFlag(v, config.KeyStatePath, root, "state-path")
	bindFlag(v, config.KeyLogLevel, root, "log-level")

	root.AddCommand(
		newLoginCommand(current),
		newSignupCommand(current),
		newLogoutCommand(current),
		newWhoamiCommand(current),
		newUploadCommand(current),
		newResumeCommand(current),
		newDeleteResumeCommand(current),
		newSearchCommand(current),
		newComposeCommand(current),
		newHistoryCommand(current),
	)
	closeStateAfterRun(root, current)
	return root
}

// closeStateAfterRun closes the invocation's state on every exit path, including
// failures, which cobra's post-run hooks skip.
func closeStateAfterRun(cmd *cobra.Command, current func() *App) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(cmd *cobra.Command, args []string) (err error) {
			defer func() {
				if cerr := current().Close(); err == nil {
					err = cerr
				}
			}()
			return run(cmd, args)
		}
	}
	for _, child := range cmd.Commands() {
		closeStateAfterRun(child, current)
	}
}

// bindFlag binds a persistent flag into viper; an unset flag leaves env and defaults in charge.
func bindFlag(v *viper.Viper, key string, cmd *cobra.Command, name string) {
	_ = v.BindPFlag(key, cmd.PersistentFlags().Lookup(name))
}

// Execute runs the CLI with process defaults.
func Execute() {
	if err := NewRootCommand(Options{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
