package cli

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pwklam/scrape-chinese-social-media/internal/ingest"
	"github.com/pwklam/scrape-chinese-social-media/internal/normalize"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [urls-file]",
		Short: "Collect, normalize and store every post in a URL list",
		Long: "Each line of the URL list is a post URL, or \"<platform> <url>\" for file:// snapshots.\n" +
			"Without an argument the configured collector.urls_file is used.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			svc, err := a.OpenIngest()
			if err != nil {
				return err
			}

			var summary ingest.Summary
			if len(args) == 1 {
				summary, err = svc.RunFile(cmd.Context(), args[0])
				if err != nil {
					return err
				}
			} else {
				summary, err = svc.Run(cmd.Context())
				if err != nil {
					return err
				}
			}

			t := newTable(cmd.OutOrStdout(), table.Row{"URL", "Platform", "Result", "Comments", "Skipped"})
			for _, o := range summary.Outcomes {
				result := "saved"
				switch {
				case o.Error != "":
					result = o.Error
				case o.Updated:
					result = "updated"
				}
				t.AppendRow(table.Row{o.URL, o.Platform, result, o.Comments, o.Skipped})
			}
			t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d saved, %d failed", summary.Saved, summary.Failed), "", ""})
			t.Render()

			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d posts failed", summary.Failed, len(summary.Outcomes))
			}
			return nil
		},
	}
	return cmd
}

func newPostsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List stored posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			store, err := a.OpenStore()
			if err != nil {
				return err
			}
			posts, err := store.GetAllPosts()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetEscapeHTML(false)
				enc.SetIndent("", "  ")
				return enc.Encode(posts)
			}

			t := newTable(out, table.Row{"URL", "Platform", "User", "Published", "Shares", "Comments", "Likes", "Extracted"})
			for _, p := range posts {
				comments, err := normalize.Deserialize(p.Comments)
				if err != nil {
					return err
				}
				t.AppendRow(table.Row{
					p.URL, p.Platform, p.UserName, p.PublicationDate,
					formatCount(p.Metrics.Shares), formatCount(p.Metrics.Comments), formatCount(p.Metrics.Likes),
					len(comments),
				})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
