// Package cli implements the socialnorm command line.
package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pwklam/scrape-chinese-social-media/internal/app"
	"github.com/pwklam/scrape-chinese-social-media/internal/config"
)

// NewRootCmd creates the root cobra command for the socialnorm CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "socialnorm",
		Short: "Normalize Weibo, Weixin and Douyin post data",
		Long: "socialnorm turns raw post text from Chinese social platforms into uniform records:\n" +
			"comment lists, expanded engagement counts and absolute dates.",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file (default ./config.yaml or ./config/config.yaml)")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		newNormalizeCmd(),
		newCountCmd(),
		newIngestCmd(),
		newPostsCmd(),
		newServeCmd(),
	)
	return root
}

func loadApp(cmd *cobra.Command) (*app.App, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.New(cfg)
}

func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(header)
	t.SetStyle(table.StyleRounded)
	return t
}

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(args[0])
	return string(data), err
}
