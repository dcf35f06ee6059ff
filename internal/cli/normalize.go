package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pwklam/scrape-chinese-social-media/internal/extract"
	"github.com/pwklam/scrape-chinese-social-media/internal/normalize"
	"github.com/pwklam/scrape-chinese-social-media/internal/reltime"
)

// splitFragments cuts input on lines equal to separator.
func splitFragments(input, separator string) []string {
	var fragments []string
	var current []string
	flush := func() {
		if text := strings.TrimSpace(strings.Join(current, "\n")); text != "" {
			fragments = append(fragments, text)
		}
		current = nil
	}
	for _, ln := range strings.Split(strings.ReplaceAll(input, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(ln) == separator {
			flush()
			continue
		}
		current = append(current, ln)
	}
	flush()
	return fragments
}

func newNormalizeCmd() *cobra.Command {
	var platform, now, separator string
	var fragments, asTable bool

	cmd := &cobra.Command{
		Use:   "normalize [file]",
		Short: "Extract comment records from raw comment text",
		Long: "Reads raw comment text from a file or stdin and prints the extracted records as JSON.\n" +
			"With --fragments the input holds one comment element per block, blocks separated by --separator lines.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := normalize.ParsePlatform(platform)
			if err != nil {
				return err
			}
			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ref, err := reltime.ParseInstant(now, a.Normalizer.Now().Location())
			if err != nil {
				return fmt.Errorf("invalid --now: %w", err)
			}

			var in extract.Input
			if fragments {
				in.Fragments = splitFragments(input, separator)
			} else {
				in.Text = input
			}

			result, err := a.Normalizer.Comments(p, in, ref)
			if err != nil {
				return err
			}
			for _, s := range result.Skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %d: %s\n", s.Index, s.Reason)
			}

			out := cmd.OutOrStdout()
			if asTable {
				t := newTable(out, table.Row{"#", "Username", "Time", "Likes", "Content"})
				for i, r := range result.Records {
					t.AppendRow(table.Row{i + 1, r.Username, r.Time, r.Likes, r.Content})
				}
				t.Render()
				return nil
			}

			payload, err := normalize.Serialize(result.Records)
			if err != nil {
				return err
			}
			if payload == nil {
				fmt.Fprintln(out, "[]")
				return nil
			}
			fmt.Fprintln(out, *payload)
			return nil
		},
	}

	cmd.Flags().StringVarP(&platform, "platform", "p", "", "source platform: weibo, weixin or douyin")
	cmd.Flags().StringVar(&now, "now", "", "reference instant, RFC3339 or \"2006-01-02 15:04:05\" (default: current time)")
	cmd.Flags().BoolVar(&fragments, "fragments", false, "treat input as separated comment fragments")
	cmd.Flags().StringVar(&separator, "separator", "---", "fragment separator line")
	cmd.Flags().BoolVar(&asTable, "table", false, "print a table instead of JSON")
	cmd.MarkFlagRequired("platform")
	return cmd
}
