package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestUploadSendsMultipartForm(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/storage/buckets/bucket-1/files" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Appwrite-Project"); got != "project-1" {
			t.Fatalf("unexpected project header: %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		fileID := r.FormValue("fileId")
		if fileID == "" || !strings.HasSuffix(fileID, ".png") {
			t.Fatalf("unexpected fileId: %q", fileID)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != fileID {
			t.Fatalf("filename %q does not match fileId %q", header.Filename, fileID)
		}
		data, _ := io.ReadAll(file)
		if string(data) != string(payload) {
			t.Fatalf("uploaded bytes mismatch: %v", data)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	store := NewBlobStore(Options{Endpoint: ts.URL, ProjectID: "project-1", APIKey: "k", BucketID: "bucket-1"})
	file, err := store.Upload(context.Background(), payload, "png")
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}
	wantPrefix := ts.URL + "/storage/buckets/bucket-1/files/"
	if !strings.HasPrefix(file.ViewURL, wantPrefix) {
		t.Fatalf("view URL prefix mismatch: %q", file.ViewURL)
	}
	if !strings.HasSuffix(file.ViewURL, "/view?project=project-1") {
		t.Fatalf("view URL suffix mismatch: %q", file.ViewURL)
	}
	if !strings.Contains(file.ViewURL, file.ID) {
		t.Fatalf("view URL %q does not reference file id %q", file.ViewURL, file.ID)
	}
}

func TestUploadFailureCarriesStatusAndBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_, _ = w.Write([]byte(`{"message":"File size exceeds limit"}`))
	}))
	defer ts.Close()

	store := NewBlobStore(Options{Endpoint: ts.URL, BucketID: "bucket-1"})
	_, err := store.Upload(context.Background(), []byte("data"), "png")
	var uploadErr *UploadError
	if !errors.As(err, &uploadErr) {
		t.Fatalf("expected *UploadError, got %v", err)
	}
	if uploadErr.Status != http.StatusRequestEntityTooLarge {
		t.Fatalf("status mismatch: %d", uploadErr.Status)
	}
	if !strings.Contains(uploadErr.Body, "File size exceeds limit") {
		t.Fatalf("body mismatch: %q", uploadErr.Body)
	}
}

func TestNormalizeExt(t *testing.T) {
	if got := normalizeExt(""); got != ".png" {
		t.Fatalf("empty ext: %q", got)
	}
	if got := normalizeExt(".jpg"); got != ".jpg" {
		t.Fatalf("dotted ext: %q", got)
	}
	if got := normalizeExt("webp"); got != ".webp" {
		t.Fatalf("bare ext: %q", got)
	}
}
