package tryon

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Generator is the uniform contract over third-party try-on backends. The
// returned buffers are owned by the caller and never depend on remote URL
// availability after the call returns.
type Generator interface {
	Generate(ctx context.Context, userImageURL, garmentImageURL string) ([][]byte, error)
}

// ErrorKind classifies provider failures so callers can tell a transport
// problem apart from a call that succeeded without usable output.
type ErrorKind string

const (
	// KindTransport covers network failures, non-success provider
	// responses, and remote-reported generation failures.
	KindTransport ErrorKind = "transport"
	// KindEmptyResult means the call succeeded but produced zero usable
	// images. Not worth retrying with the same inputs.
	KindEmptyResult ErrorKind = "empty_result"
	// KindTimeout means the asynchronous variant exhausted its poll budget.
	KindTimeout ErrorKind = "timeout"
)

// ProviderError carries a human-readable cause for a failed generation.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func transportErr(provider, format string, args ...any) *ProviderError {
	return &ProviderError{Provider: provider, Kind: KindTransport, Message: fmt.Sprintf(format, args...)}
}

func emptyResultErr(provider, format string, args ...any) *ProviderError {
	return &ProviderError{Provider: provider, Kind: KindEmptyResult, Message: fmt.Sprintf(format, args...)}
}

func timeoutErr(provider, format string, args ...any) *ProviderError {
	return &ProviderError{Provider: provider, Kind: KindTimeout, Message: fmt.Sprintf(format, args...)}
}

// downloadImage fetches an image URL into an owned buffer and reports the
// normalized MIME type (parameters stripped).
func downloadImage(ctx context.Context, client *http.Client, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create download request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, "", fmt.Errorf("download image: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read image body: %w", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/png"
	}
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	return data, mimeType, nil
}
