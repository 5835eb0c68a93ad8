package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"internify/internal/login"
	"internify/internal/nav"
	"internify/internal/navbar"
	"internify/internal/session"
)

func newLoginCommand(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCredentials(cmd, app(), login.SignIn)
		},
	}
	credentialFlags(cmd)
	return cmd
}

func newSignupCommand(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCredentials(cmd, app(), login.SignUp)
		},
	}
	credentialFlags(cmd)
	return cmd
}

func credentialFlags(cmd *cobra.Command) {
	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("password", "", "Account password; read from stdin when omitted")
}

func runCredentials(cmd *cobra.Command, a *App, mode login.Mode) error {
	ctx := cmd.Context()
	a.Router.Replace(nav.Login)

	page := login.New(login.Deps{Auth: a.Sessions, Navigator: a.Router, Notifier: a.Notifier})
	if page.Mount(ctx) == login.Redirecting {
		fmt.Fprintln(cmd.OutOrStdout(), "Already signed in.")
		return nil
	}
	if mode == login.SignUp {
		page.Toggle()
	}

	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	in := bufio.NewReader(cmd.InOrStdin())
	if strings.TrimSpace(email) == "" {
		var err error
		if email, err = prompt(cmd.OutOrStdout(), in, "Email: "); err != nil {
			return err
		}
	}
	if password == "" {
		var err error
		if password, err = prompt(cmd.OutOrStdout(), in, "Password: "); err != nil {
			return err
		}
	}
	page.SetEmail(email)
	page.SetPassword(password)
	return page.Submit(ctx)
}

func prompt(out io.Writer, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear local selections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			bar := navbar.New(a.Sessions, a.Router)
			unsubscribe := bar.Mount(cmd.Context())
			defer unsubscribe()
			if err := bar.SignOut(cmd.Context()); err != nil {
				return err
			}
			a.Notifier.Success("Signed out")
			return nil
		},
	}
}

func newWhoamiCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			u, err := a.Sessions.GetUser(cmd.Context())
			if errors.Is(err, session.ErrNoSession) {
				return ErrNotSignedIn
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", u.Email, u.ID)
			return nil
		},
	}
}
