package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"internify/internal/dashboard"
	"internify/internal/models"
	"internify/internal/nav"
)

// mountDashboard opens the dashboard page and fails when the gate sent us to login.
func mountDashboard(ctx context.Context, a *App, searchLimit int) (*dashboard.Controller, error) {
	a.Router.Push(nav.Dashboard)
	page := dashboard.New(dashboard.Deps{
		Sessions:    a.Sessions,
		Resumes:     a.API.Resumes,
		Postings:    a.API.Postings,
		Handoff:     a.Handoff,
		Navigator:   a.Router,
		Notifier:    a.Notifier,
		SearchLimit: searchLimit,
	})
	page.Mount(ctx)
	if err := a.requireSignedIn(); err != nil {
		return nil, err
	}
	return page, nil
}

func newUploadCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <resume.pdf>",
		Short: "Upload a PDF resume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := mountDashboard(cmd.Context(), app(), 0)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open resume: %w", err)
			}
			defer f.Close()

			if err := page.Upload(cmd.Context(), dashboard.File{Name: filepath.Base(args[0]), Body: f}); err != nil {
				return err
			}
			if r := page.View().Resume; r != nil {
				printResume(cmd.OutOrStdout(), *r)
			}
			return nil
		},
	}
}

func newResumeCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Show the latest uploaded resume",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := mountDashboard(cmd.Context(), app(), 0)
			if err != nil {
				return err
			}
			r := page.View().Resume
			if r == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No resume uploaded yet.")
				return nil
			}
			printResume(cmd.OutOrStdout(), *r)
			return nil
		},
	}
}

func newDeleteResumeCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-resume",
		Short: "Delete the latest uploaded resume",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := mountDashboard(cmd.Context(), app(), 0)
			if err != nil {
				return err
			}
			return page.DeleteResume(cmd.Context())
		},
	}
}

func printResume(w io.Writer, r models.Resume) {
	fmt.Fprintf(w, "Resume:   %s\n", r.FileName())
	fmt.Fprintf(w, "Uploaded: %s\n", r.UploadedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "Text:     %d characters\n", len(r.ExtractedText))
}
