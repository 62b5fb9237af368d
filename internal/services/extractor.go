package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"

	"github.com/Lllllllleong/pdfannotext/internal/gcp"
	"github.com/Lllllllleong/pdfannotext/internal/models"
	"github.com/Lllllllleong/pdfannotext/internal/pdftext"
	"github.com/Lllllllleong/pdfannotext/internal/stripper"
)

// ExtractorConfig holds all configuration for the extractor service.
type ExtractorConfig struct {
	ProjectID         string
	OutputBucket      string
	CollectionName    string
	WorkflowID        string
	WorkflowLocation  string
	ExtractionTimeout time.Duration
	PageSeparator     string
}

// ExtractorFunction holds the dependencies for the extraction logic.
type ExtractorFunction struct {
	storageClient    *storage.Client
	firestoreClient  *firestore.Client
	executionsClient *executions.Client // nil when no workflow is configured
	config           ExtractorConfig
}

// GCSEvent is the payload of a GCS event.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

const (
	textObjectName        = "text.txt"
	annotationsObjectName = "annotations.json"
	maxConcurrentWrites   = 10
)

// loadExtractorConfig loads and validates all necessary environment variables for this service.
func loadExtractorConfig() (*ExtractorConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	outputBucket := gcp.GetEnv("OUTPUT_BUCKET", "")
	if outputBucket == "" {
		return nil, fmt.Errorf("OUTPUT_BUCKET environment variable must be set")
	}
	timeout, err := time.ParseDuration(gcp.GetEnv("EXTRACTION_TIMEOUT", "5m"))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("EXTRACTION_TIMEOUT must be a positive duration: %q", gcp.GetEnv("EXTRACTION_TIMEOUT", ""))
	}

	return &ExtractorConfig{
		ProjectID:         projectID,
		OutputBucket:      outputBucket,
		CollectionName:    gcp.GetEnv("FIRESTORE_COLLECTION", "documents"),
		WorkflowLocation:  gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
		WorkflowID:        gcp.GetEnv("WORKFLOW_ID", ""),
		ExtractionTimeout: timeout,
		PageSeparator:     gcp.GetEnv("PAGE_SEPARATOR", pdftext.DefaultPageSeparator),
	}, nil
}

// NewExtractor creates a new ExtractorFunction instance.
func NewExtractor(ctx context.Context) (*ExtractorFunction, error) {
	config, err := loadExtractorConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}

	f := &ExtractorFunction{
		firestoreClient: firestoreClient,
		storageClient:   storageClient,
		config:          *config,
	}
	if config.WorkflowID != "" {
		f.executionsClient, err = executions.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
		}
	}
	slog.Info("Extractor logic initialized.", "workflowId", config.WorkflowID, "timeout", config.ExtractionTimeout.String())
	return f, nil
}

// Process handles a GCS upload event for a single PDF.
func (f *ExtractorFunction) Process(ctx context.Context, e GCSEvent) error {
	if !isPDF(e.Name) {
		slog.Info("Ignoring non-PDF object.", "gcsBucket", e.Bucket, "gcsObject", e.Name)
		return nil
	}
	_, err := f.processObject(ctx, slog.Default(), e.Bucket, e.Name)
	return err
}

// ProcessRequest handles an HTTP extraction request for one object or every
// PDF below a prefix.
func (f *ExtractorFunction) ProcessRequest(ctx context.Context, req *models.ExtractRequest) (*models.ExtractResponse, error) {
	logCtx := slog.With("gcsUri", req.GCSUri, "executionId", req.ExecutionID)
	bucket, object, err := gcp.ParseGCSURI(req.GCSUri)
	if err != nil {
		logCtx.Warn("Rejected request with invalid URI", "error", err)
		return nil, err
	}

	objects := []string{object}
	if object == "" || strings.HasSuffix(object, "/") {
		objects, err = f.listPDFs(ctx, bucket, object)
		if err != nil {
			logCtx.Error("Failed to list source objects", "error", err)
			return nil, err
		}
		logCtx.Info("Found PDFs under prefix.", "fileCount", len(objects))
	}

	res := &models.ExtractResponse{Status: "success", Documents: []models.ExtractedFile{}}
	for _, name := range objects {
		file, err := f.processObject(ctx, logCtx, bucket, name)
		if err != nil {
			return nil, err
		}
		res.Documents = append(res.Documents, *file)
	}
	return res, nil
}

func (f *ExtractorFunction) listPDFs(ctx context.Context, bucket, prefix string) ([]string, error) {
	it := f.storageClient.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gs://%s/%s: %w", bucket, prefix, err)
		}
		names = append(names, attrs.Name)
	}
	return selectPDFs(names), nil
}

// selectPDFs keeps the PDF object names in lexical order.
func selectPDFs(names []string) []string {
	pdfs := []string{}
	for _, name := range names {
		if isPDF(name) {
			pdfs = append(pdfs, name)
		}
	}
	sort.Strings(pdfs)
	return pdfs
}

func (f *ExtractorFunction) processObject(ctx context.Context, logCtx *slog.Logger, bucket, object string) (*models.ExtractedFile, error) {
	logCtx = logCtx.With("gcsBucket", bucket, "gcsObject", object)
	logCtx.Info("Processing new GCS object.")
	file := &models.ExtractedFile{SourceGCSUri: gcp.GCSURI(bucket, object)}

	tempDir, err := os.MkdirTemp("", "pdf-extractor-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	sourcePdfPath := filepath.Join(tempDir, "source.pdf")
	if err := gcp.StreamObjectToFile(ctx, f.storageClient, bucket, object, sourcePdfPath); err != nil {
		logCtx.Error("Failed to download source PDF", "error", err)
		return nil, err
	}

	fileHash, err := calculateFileHash(sourcePdfPath)
	if err != nil {
		logCtx.Error("Failed to calculate file hash", "error", err)
		return nil, fmt.Errorf("failed to calculate file hash: %w", err)
	}
	logCtx = logCtx.With("fileHash", fileHash)

	isDuplicate, docID, err := f.isDuplicate(ctx, fileHash)
	if err != nil {
		logCtx.Error("Failed to check for duplicate", "error", err)
		return nil, err
	}
	if isDuplicate {
		logCtx.Info("Duplicate file detected. Skipping.", "existingDocId", docID)
		file.DocumentID = docID
		file.Duplicate = true
		return file, nil
	}

	docRef, err := f.createInitialDocument(ctx, fileHash, object)
	if err != nil {
		logCtx.Error("Failed to create initial Firestore document", "error", err)
		return nil, err
	}
	logCtx = logCtx.With("documentId", docRef.ID)
	file.DocumentID = docRef.ID
	logCtx.Info("Created master document in Firestore.")

	ex, text, err := f.extract(ctx, logCtx, docRef, sourcePdfPath)
	if err != nil {
		// Error is already logged and handled in extract
		return nil, err
	}
	file.PageCount = ex.PageCount
	file.AnnotatedPages = ex.Result.Pages
	file.AnnotationCount = ex.AnnotationCount
	file.Canceled = ex.Canceled
	file.CoverageDegraded = ex.Degraded

	if err := f.uploadOutputs(ctx, logCtx, docRef, file, text, ex.PageRecords); err != nil {
		return nil, err
	}
	if err := f.writePageRecords(ctx, logCtx, docRef, ex.PageRecords); err != nil {
		return nil, err
	}
	if err := f.finish(ctx, logCtx, docRef, file); err != nil {
		return nil, err
	}
	if err := f.triggerWorkflow(ctx, logCtx, docRef, file); err != nil {
		return nil, err
	}

	logCtx.Info("Extraction complete.", "pageCount", file.PageCount, "annotatedPages", file.AnnotatedPages, "canceled", file.Canceled)
	return file, nil
}

func (f *ExtractorFunction) extract(ctx context.Context, logCtx *slog.Logger, docRef *firestore.DocumentRef, path string) (*pdftext.Extraction, []byte, error) {
	doc, err := pdftext.OpenFile(path)
	if err != nil {
		return nil, nil, f.handleError(ctx, logCtx, docRef, "failed to open PDF", err)
	}

	var text bytes.Buffer
	ex, err := runExtraction(ctx, doc, &text, f.config.ExtractionTimeout, f.config.PageSeparator, logCtx)
	if err != nil {
		return nil, nil, f.handleError(ctx, logCtx, docRef, "failed to extract text and annotations", err)
	}
	if ex.Canceled {
		logCtx.Warn("Extraction stopped early.", "annotatedPages", ex.Result.Pages, "pageCount", ex.PageCount)
	}
	return ex, text.Bytes(), nil
}

// runExtraction walks doc once. Both the timeout and ctx end the walk through
// the gate, so a stopped run keeps every page done so far.
func runExtraction(ctx context.Context, doc *pdftext.Document, w io.Writer, timeout time.Duration, separator string, logger *slog.Logger) (*pdftext.Extraction, error) {
	flag := &stripper.Flag{}
	timer := flag.CancelAfter(timeout)
	defer timer.Stop()
	gate := stripper.AnyGate(flag, stripper.ContextGate(ctx))

	return pdftext.Extract(context.WithoutCancel(ctx), doc, w, gate, logger, pdftext.WithPageSeparator(separator))
}

func (f *ExtractorFunction) uploadOutputs(ctx context.Context, logCtx *slog.Logger, docRef *firestore.DocumentRef, file *models.ExtractedFile, text []byte, pages []models.PageAnnotations) error {
	annotations, err := json.MarshalIndent(pages, "", "  ")
	if err != nil {
		return f.handleError(ctx, logCtx, docRef, "failed to marshal annotations", err)
	}
	textObject := fmt.Sprintf("%s/%s", docRef.ID, textObjectName)
	annotationsObject := fmt.Sprintf("%s/%s", docRef.ID, annotationsObjectName)

	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return f.uploadWithRetry(gctx, textObject, text) })
	eg.Go(func() error { return f.uploadWithRetry(gctx, annotationsObject, annotations) })
	if err := eg.Wait(); err != nil {
		return f.handleError(ctx, logCtx, docRef, "failed to upload extraction output", err)
	}

	file.TextGCSUri = gcp.GCSURI(f.config.OutputBucket, textObject)
	file.AnnotationsGCSUri = gcp.GCSURI(f.config.OutputBucket, annotationsObject)
	logCtx.Info("Uploaded extraction output.", "textGcsUri", file.TextGCSUri, "annotationsGcsUri", file.AnnotationsGCSUri)
	return nil
}

func (f *ExtractorFunction) writePageRecords(ctx context.Context, logCtx *slog.Logger, docRef *firestore.DocumentRef, pages []models.PageAnnotations) error {
	logCtx.Info("Writing page records.", "pageCount", len(pages))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentWrites)

	for _, page := range pages {
		page := page
		eg.Go(func() error {
			if _, err := gcp.PageRef(docRef, page.PageNumber).Set(gctx, page); err != nil {
				return fmt.Errorf("page %d: %w", page.PageNumber, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return f.handleError(ctx, logCtx, docRef, "one or more page records failed to write", err)
	}
	return nil
}

func (f *ExtractorFunction) finish(ctx context.Context, logCtx *slog.Logger, docRef *firestore.DocumentRef, file *models.ExtractedFile) error {
	status := completionStatus(file.Canceled)
	updates := []firestore.Update{
		{Path: "status", Value: status},
		{Path: "pageCount", Value: file.PageCount},
		{Path: "annotatedPages", Value: file.AnnotatedPages},
		{Path: "annotationCount", Value: file.AnnotationCount},
		{Path: "canceled", Value: file.Canceled},
		{Path: "coverageDegraded", Value: file.CoverageDegraded},
		{Path: "textGcsUri", Value: file.TextGCSUri},
		{Path: "annotationsGcsUri", Value: file.AnnotationsGCSUri},
	}
	if _, err := docRef.Update(ctx, updates); err != nil {
		return f.handleError(ctx, logCtx, docRef, "failed to update status to "+status, err)
	}
	return nil
}

// completionStatus is the final status of a document whose extraction returned.
func completionStatus(canceled bool) string {
	if canceled {
		return models.StatusCanceled
	}
	return models.StatusExtracted
}

func (f *ExtractorFunction) isDuplicate(ctx context.Context, fileHash string) (bool, string, error) {
	docs, err := f.firestoreClient.Collection(f.config.CollectionName).Where("fileHash", "==", fileHash).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return false, "", fmt.Errorf("failed to query for duplicates: %w", err)
	}
	if len(docs) > 0 {
		return true, docs[0].Ref.ID, nil
	}
	return false, "", nil
}

func (f *ExtractorFunction) createInitialDocument(ctx context.Context, fileHash, filename string) (*firestore.DocumentRef, error) {
	newDoc := models.Document{
		FileHash:         fileHash,
		OriginalFilename: filename,
		Status:           models.StatusExtracting,
		CreatedAt:        time.Now(),
	}
	docRef, _, err := f.firestoreClient.Collection(f.config.CollectionName).Add(ctx, newDoc)
	if err != nil {
		return nil, fmt.Errorf("failed to create master document: %w", err)
	}
	return docRef, nil
}

func (f *ExtractorFunction) triggerWorkflow(ctx context.Context, logCtx *slog.Logger, docRef *firestore.DocumentRef, file *models.ExtractedFile) error {
	if f.executionsClient == nil {
		return nil
	}
	logCtx.Info("Triggering workflow.")
	payloadBytes, err := json.Marshal(models.WorkflowPayload{
		DocumentID:        docRef.ID,
		PageCount:         file.PageCount,
		TextGCSUri:        file.TextGCSUri,
		AnnotationsGCSUri: file.AnnotationsGCSUri,
	})
	if err != nil {
		return f.handleError(ctx, logCtx, docRef, "failed to marshal workflow payload", err)
	}
	req := &executionspb.CreateExecutionRequest{
		Parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", f.config.ProjectID, f.config.WorkflowLocation, f.config.WorkflowID),
		Execution: &executionspb.Execution{
			Argument: string(payloadBytes),
		},
	}
	execution, err := f.executionsClient.CreateExecution(ctx, req)
	if err != nil {
		return f.handleError(ctx, logCtx, docRef, "failed to trigger workflow execution", err)
	}
	if _, err := docRef.Update(ctx, []firestore.Update{{Path: "workflowExecutionId", Value: execution.GetName()}}); err != nil {
		logCtx.Warn("Failed to record workflow execution", "error", err, "execution", execution.GetName())
	}
	return nil
}

func (f *ExtractorFunction) handleError(ctx context.Context, logCtx *slog.Logger, docRef *firestore.DocumentRef, message string, originalErr error) error {
	logCtx.Error(message, "error", originalErr)
	if err := f.updateStatus(ctx, docRef, models.StatusFailed, fmt.Sprintf("%s: %v", message, originalErr)); err != nil {
		logCtx.Error("CRITICAL: Failed to update Firestore status to FAILED after a processing error.", "updateError", err)
	}
	return fmt.Errorf("%s: %w", message, originalErr)
}

func (f *ExtractorFunction) updateStatus(ctx context.Context, docRef *firestore.DocumentRef, status, errDetails string) error {
	updates := []firestore.Update{
		{Path: "status", Value: status},
	}
	if errDetails != "" {
		updates = append(updates, firestore.Update{Path: "errorDetails", Value: errDetails})
	}
	_, err := docRef.Update(ctx, updates)
	return err
}

func (f *ExtractorFunction) uploadWithRetry(ctx context.Context, destObject string, content []byte) error {
	const maxRetries = 4
	var backoff = 1 * time.Second
	var lastErr error

	bucket := f.storageClient.Bucket(f.config.OutputBucket)
	for i := 0; i < maxRetries; i++ {
		writeCtx, cancel := context.WithTimeout(ctx, time.Second*50)
		err := gcp.SaveToGCSAtomically(writeCtx, bucket, destObject, bytes.NewReader(content))
		cancel()
		if err == nil {
			return nil
		}

		lastErr = err
		slog.Warn(
			"Upload failed, will retry.",
			"gcsObject", destObject,
			"attempt", i+1,
			"maxRetries", maxRetries,
			"backoff", backoff.String(),
			"error", err,
		)

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			slog.Error("Context cancelled during backoff. Aborting retries.", "gcsObject", destObject, "error", ctx.Err())
			return ctx.Err()
		}
	}
	slog.Error("Upload failed after all retries.", "gcsObject", destObject, "error", lastErr)
	return fmt.Errorf("upload for %s failed after all retries: %w", destObject, lastErr)
}

func isPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

func calculateFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
