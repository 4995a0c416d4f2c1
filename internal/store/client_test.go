package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"tryon/internal/domain"
)

func TestGetTryOnDecodesDocument(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Appwrite-Key"); got != "api-key" {
			t.Fatalf("unexpected key header: %q", got)
		}
		if got := r.Header.Get("X-Appwrite-Project"); got != "project-1" {
			t.Fatalf("unexpected project header: %q", got)
		}
		if r.URL.Path != "/databases/db-1/collections/tryOn/documents/job-1" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"$id":             "job-1",
			"imageUrls":       []string{"https://x/u.jpg"},
			"resultImageUrls": []string{},
			"product":         map[string]any{"$id": "prod-1", "title": "Jacket"},
			"status":          "new",
		})
	}))
	defer ts.Close()

	client := NewClient(Options{Endpoint: ts.URL, ProjectID: "project-1", APIKey: "api-key", DatabaseID: "db-1"})
	job, err := client.GetTryOn(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("GetTryOn error: %v", err)
	}
	if job.ID != "job-1" || job.Status != domain.StatusNew {
		t.Fatalf("job mismatch: %+v", job)
	}
	if job.SourceImageURL() != "https://x/u.jpg" {
		t.Fatalf("source image mismatch: %q", job.SourceImageURL())
	}
	if job.ProductID != "prod-1" {
		t.Fatalf("product ref mismatch: %q", job.ProductID)
	}
}

func TestGetTryOnAcceptsBareProductID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"$id":       "job-2",
			"imageUrls": []string{"https://x/u.jpg"},
			"product":   "prod-9",
			"status":    "new",
		})
	}))
	defer ts.Close()

	client := NewClient(Options{Endpoint: ts.URL, DatabaseID: "db-1"})
	job, err := client.GetTryOn(context.Background(), "job-2")
	if err != nil {
		t.Fatalf("GetTryOn error: %v", err)
	}
	if job.ProductID != "prod-9" {
		t.Fatalf("product ref mismatch: %q", job.ProductID)
	}
}

func TestGetTryOnNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "Document not found"})
	}))
	defer ts.Close()

	client := NewClient(Options{Endpoint: ts.URL, DatabaseID: "db-1"})
	if _, err := client.GetTryOn(context.Background(), "missing"); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetProductCachesLookups(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"$id":     "prod-1",
			"title":   "Jacket",
			"image":   "https://x/g.jpg",
			"gallery": []string{"https://x/g2.jpg"},
		})
	}))
	defer ts.Close()

	client := NewClient(Options{Endpoint: ts.URL, DatabaseID: "db-1"})
	for i := 0; i < 3; i++ {
		product, err := client.GetProduct(context.Background(), "prod-1")
		if err != nil {
			t.Fatalf("GetProduct error: %v", err)
		}
		if product.GarmentImageURL() != "https://x/g.jpg" {
			t.Fatalf("garment image mismatch: %q", product.GarmentImageURL())
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single upstream fetch, got %d", got)
	}
}

func TestUpdateTryOnSendsPatch(t *testing.T) {
	var captured map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"$id": "job-1"})
	}))
	defer ts.Close()

	client := NewClient(Options{Endpoint: ts.URL, DatabaseID: "db-1"})
	err := client.UpdateTryOn(context.Background(), "job-1", TryOnPatch{
		Status:          domain.StatusCompleted,
		ResultImageURLs: []string{"https://x/r1.png", "https://x/r2.png"},
	})
	if err != nil {
		t.Fatalf("UpdateTryOn error: %v", err)
	}

	data, ok := captured["data"].(map[string]any)
	if !ok {
		t.Fatalf("patch missing data envelope: %#v", captured)
	}
	if data["status"] != "completed" {
		t.Fatalf("status mismatch: %#v", data["status"])
	}
	urls, ok := data["resultImageUrls"].([]any)
	if !ok || len(urls) != 2 {
		t.Fatalf("resultImageUrls mismatch: %#v", data["resultImageUrls"])
	}
	if _, present := data["errorMessage"]; present {
		t.Fatalf("unexpected errorMessage in patch: %#v", data)
	}
}
