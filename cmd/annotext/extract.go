package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/pdfannotext/internal/gcp"
	"github.com/Lllllllleong/pdfannotext/internal/models"
	"github.com/Lllllllleong/pdfannotext/internal/pdftext"
	"github.com/Lllllllleong/pdfannotext/internal/stripper"
)

var extractCmd = &cobra.Command{
	Use:   "extract [pdf-file]",
	Short: "Write the text of a PDF and collect its annotations",
	Example: `  # Text to stdout
  annotext extract manual.pdf

  # Text and annotations to files, stop after 30 seconds
  annotext extract manual.pdf -o manual.txt -a manual.annotations.json --timeout 30s`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

// extractSummary is written alongside the page records in the annotations file.
type extractSummary struct {
	File             string                   `json:"file"`
	PageCount        int                      `json:"pageCount"`
	AnnotatedPages   int                      `json:"annotatedPages"`
	AnnotationCount  int                      `json:"annotationCount"`
	Canceled         bool                     `json:"canceled"`
	CoverageDegraded bool                     `json:"coverageDegraded"`
	Pages            []models.PageAnnotations `json:"pages"`
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("output", "o", "", "Text output file (default: stdout)")
	extractCmd.Flags().StringP("annotations", "a", "", "Annotations JSON output file (default: not written)")
	extractCmd.Flags().Duration("timeout", 0, "Stop after this long, keeping the pages done so far (0 disables)")
	extractCmd.Flags().String("separator", gcp.GetEnv("PAGE_SEPARATOR", pdftext.DefaultPageSeparator), "Text written after each page")
}

func runExtract(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")
	annotationsPath, _ := cmd.Flags().GetString("annotations")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	separator, _ := cmd.Flags().GetString("separator")

	pdfPath := args[0]
	log := slog.With("file", pdfPath)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	doc, err := pdftext.OpenFile(pdfPath)
	if err != nil {
		log.Error("Failed to open PDF", "error", err)
		return err
	}
	log.Info("Opened PDF.", "pageCount", doc.PageCount())

	// Interrupts and the timeout both stop the walk at a page boundary.
	flag := &stripper.Flag{}
	if timeout > 0 {
		timer := flag.CancelAfter(timeout)
		defer timer.Stop()
	}
	gate := stripper.AnyGate(flag, stripper.ContextGate(ctx))

	out := cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	bw := bufio.NewWriter(out)

	start := time.Now()
	// The run context stays live so a signal ends the walk through the gate.
	ex, err := pdftext.Extract(context.WithoutCancel(ctx), doc, bw, gate, log, pdftext.WithPageSeparator(separator))
	if err != nil {
		log.Error("Extraction failed", "error", err)
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write text: %w", err)
	}

	if annotationsPath != "" {
		if err := writeAnnotations(annotationsPath, pdfPath, ex); err != nil {
			return err
		}
	}

	log.Info("Extraction complete.",
		"annotatedPages", ex.Result.Pages,
		"annotationCount", ex.AnnotationCount,
		"canceled", ex.Canceled,
		"degraded", ex.Degraded,
		"duration", time.Since(start).String(),
	)
	return nil
}

func writeAnnotations(path, source string, ex *pdftext.Extraction) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create annotations file: %w", err)
	}
	defer f.Close()
	return encodeSummary(f, source, ex)
}

func encodeSummary(w io.Writer, source string, ex *pdftext.Extraction) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(extractSummary{
		File:             source,
		PageCount:        ex.PageCount,
		AnnotatedPages:   ex.Result.Pages,
		AnnotationCount:  ex.AnnotationCount,
		Canceled:         ex.Canceled,
		CoverageDegraded: ex.Degraded,
		Pages:            ex.PageRecords,
	}); err != nil {
		return fmt.Errorf("failed to write annotations: %w", err)
	}
	return nil
}
