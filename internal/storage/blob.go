package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Options controls how the blob store client is configured.
type Options struct {
	Endpoint   string
	ProjectID  string
	APIKey     string
	BucketID   string
	HTTPClient *http.Client
}

// BlobStore uploads generated images into the result bucket and derives the
// public view URL for each stored file.
type BlobStore struct {
	endpoint   string
	projectID  string
	apiKey     string
	bucketID   string
	httpClient *http.Client
}

// File identifies one stored object together with its public URL.
type File struct {
	ID      string
	ViewURL string
}

// UploadError reports a non-success response from the storage API. Status
// and body are kept verbatim for diagnostics.
type UploadError struct {
	Status int
	Body   string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("storage upload failed (%d): %s", e.Status, e.Body)
}

// NewBlobStore constructs a blob store client. Callers may provide a nil
// HTTP client; a reusable one with a sensible timeout is created.
func NewBlobStore(opts Options) *BlobStore {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &BlobStore{
		endpoint:   strings.TrimRight(opts.Endpoint, "/"),
		projectID:  opts.ProjectID,
		apiKey:     opts.APIKey,
		bucketID:   opts.BucketID,
		httpClient: client,
	}
}

// Upload stores one image buffer under a freshly generated file id and
// returns the stored file with its public view URL.
func (s *BlobStore) Upload(ctx context.Context, data []byte, ext string) (File, error) {
	fileID := uuid.New().String() + normalizeExt(ext)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("fileId", fileID); err != nil {
		return File{}, fmt.Errorf("write fileId field: %w", err)
	}
	part, err := form.CreateFormFile("file", fileID)
	if err != nil {
		return File{}, fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return File{}, fmt.Errorf("write file part: %w", err)
	}
	if err := form.Close(); err != nil {
		return File{}, fmt.Errorf("finalize form: %w", err)
	}

	target := fmt.Sprintf("%s/storage/buckets/%s/files", s.endpoint, s.bucketID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &body)
	if err != nil {
		return File{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("X-Appwrite-Project", s.projectID)
	req.Header.Set("X-Appwrite-Key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return File{}, fmt.Errorf("storage upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(resp.Body)
		return File{}, &UploadError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return File{ID: fileID, ViewURL: s.FileViewURL(fileID)}, nil
}

// FileViewURL derives the stable public URL of a stored file from the
// endpoint, bucket, file id, and tenant id.
func (s *BlobStore) FileViewURL(fileID string) string {
	return fmt.Sprintf("%s/storage/buckets/%s/files/%s/view?project=%s", s.endpoint, s.bucketID, fileID, s.projectID)
}

func normalizeExt(ext string) string {
	ext = strings.TrimSpace(strings.TrimPrefix(ext, "."))
	if ext == "" {
		ext = "png"
	}
	return "." + ext
}
