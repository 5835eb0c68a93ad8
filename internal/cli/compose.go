package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"internify/internal/compose"
	"internify/internal/nav"
)

var errComposeLeft = errors.New("no draft available; run `internify search <role> --pick N` first")

func newComposeCommand(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Draft an email for the selected posting, optionally edit and send it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := app()
			a.Router.Push(nav.EmailPreview)

			page := compose.New(compose.Deps{
				Sessions:  a.Sessions,
				LLM:       a.API.LLM,
				Emails:    a.API.Emails,
				Handoff:   a.Handoff,
				Navigator: a.Router,
				Notifier:  a.Notifier,
			})
			state := page.Mount(ctx)
			if err := a.requireSignedIn(); err != nil {
				return err
			}
			if state == compose.Left {
				return errComposeLeft
			}

			if regenerate, _ := cmd.Flags().GetBool("regenerate"); regenerate {
				if err := page.Regenerate(ctx); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("to") {
				v, _ := cmd.Flags().GetString("to")
				page.SetRecipient(v)
			}
			if cmd.Flags().Changed("subject") {
				v, _ := cmd.Flags().GetString("subject")
				page.SetSubject(v)
			}
			if cmd.Flags().Changed("body") {
				v, _ := cmd.Flags().GetString("body")
				page.SetBody(v)
			}

			printDraft(cmd.OutOrStdout(), page.Draft())
			if send, _ := cmd.Flags().GetBool("send"); send {
				return page.Send(ctx)
			}
			return nil
		},
	}
	cmd.Flags().String("to", "", "Override the recipient address")
	cmd.Flags().String("subject", "", "Override the subject")
	cmd.Flags().String("body", "", "Override the body")
	cmd.Flags().Bool("regenerate", false, "Draft another variation before showing it")
	cmd.Flags().Bool("send", false, "Send the draft")
	return cmd
}

func printDraft(w io.Writer, d compose.Draft) {
	fmt.Fprintf(w, "To:      %s\n", d.Recipient)
	fmt.Fprintf(w, "Subject: %s\n\n", d.Subject)
	fmt.Fprintln(w, d.Body)
}
