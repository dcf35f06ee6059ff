package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pwklam/scrape-chinese-social-media/internal/count"
)

func newCountCmd() *cobra.Command {
	var asTable bool

	cmd := &cobra.Command{
		Use:   "count <text>...",
		Short: "Expand abbreviated counts such as 1.2万 or 3.4K",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values := make([]float64, len(args))
			for i, text := range args {
				v, err := count.Parse(text)
				if err != nil {
					return err
				}
				values[i] = v
			}

			out := cmd.OutOrStdout()
			if asTable {
				t := newTable(out, table.Row{"Text", "Value"})
				for i, text := range args {
					t.AppendRow(table.Row{text, formatCount(values[i])})
				}
				t.Render()
				return nil
			}
			for i, text := range args {
				fmt.Fprintf(out, "%s\t%s\n", text, formatCount(values[i]))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asTable, "table", false, "print a table")
	return cmd
}
