package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/pdfannotext/internal/gcp"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "annotext",
	Short: "Extract page text and annotations from PDF files",
	Long: `annotext walks a PDF once, writing its text layer and collecting the
annotations of every page, including pages that carry no content stream.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		return setupLogging(level)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the annotext version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "annotext", version)
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", gcp.GetEnv("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	rootCmd.AddCommand(versionCmd)
}

// setupLogging installs a text handler on stderr so stdout stays free for output.
func setupLogging(level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
	return nil
}
