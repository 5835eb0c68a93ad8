package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"internify/internal/history"
	"internify/internal/models"
	"internify/internal/nav"
)

func mountHistory(ctx context.Context, a *App) (*history.Controller, error) {
	a.Router.Push(nav.History)
	page := history.New(history.Deps{
		Sessions:  a.Sessions,
		Emails:    a.API.Emails,
		Navigator: a.Router,
		Notifier:  a.Notifier,
	})
	page.Mount(ctx)
	if err := a.requireSignedIn(); err != nil {
		return nil, err
	}
	return page, nil
}

func newHistoryCommand(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List sent emails, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := mountHistory(cmd.Context(), app())
			if err != nil {
				return err
			}

			emails := page.Emails()
			if len(emails) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No emails sent yet.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSENT\tTO\tSUBJECT\tPOSTING\tSTATUS")
			for _, e := range emails {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					e.ID, e.SentAt.Local().Format("2006-01-02 15:04"), e.RecipientEmail, e.Subject, postingLabel(e), e.Status)
			}
			return tw.Flush()
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show one sent email",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				page, err := mountHistory(cmd.Context(), app())
				if err != nil {
					return err
				}
				email, err := page.Show(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printSentEmail(cmd.OutOrStdout(), email)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Remove one sent email from history",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				page, err := mountHistory(cmd.Context(), app())
				if err != nil {
					return err
				}
				return page.Delete(cmd.Context(), args[0])
			},
		},
	)
	return cmd
}

func postingLabel(e models.SentEmail) string {
	if e.Posting == nil {
		return "-"
	}
	return e.Posting.Title + " @ " + e.Posting.Company
}

func printSentEmail(w io.Writer, e models.SentEmail) {
	fmt.Fprintf(w, "To:      %s\n", e.RecipientEmail)
	fmt.Fprintf(w, "Subject: %s\n", e.Subject)
	fmt.Fprintf(w, "Sent:    %s (%s)\n", e.SentAt.Local().Format("2006-01-02 15:04"), e.Status)
	fmt.Fprintf(w, "Posting: %s\n\n", postingLabel(e))
	fmt.Fprintln(w, e.Body)
}
