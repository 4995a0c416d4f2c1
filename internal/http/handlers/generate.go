package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"tryon/internal/orchestrator"
)

type generateRequest struct {
	JobID string `json:"jobId"`
}

type generateResponse struct {
	OK              bool     `json:"ok"`
	Message         string   `json:"message,omitempty"`
	ResultImageURLs []string `json:"resultImageUrls,omitempty"`
}

// GenerateTryOn is the invocation entry point: it accepts a job reference
// and drives the generation pipeline to a terminal state before answering.
func (a *App) GenerateTryOn(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if r.Body != nil {
		// A malformed body is treated the same as an empty one; the
		// jobId check below produces the client-visible error.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if req.JobID == "" {
		a.json(w, http.StatusBadRequest, generateResponse{OK: false, Message: "Missing jobId"})
		return
	}

	result, err := a.Runner.Run(r.Context(), req.JobID)
	if err != nil {
		status := http.StatusInternalServerError
		var runErr *orchestrator.RunError
		if errors.As(err, &runErr) {
			status = runErr.StatusCode
		}
		a.json(w, status, generateResponse{OK: false, Message: err.Error()})
		return
	}

	a.json(w, http.StatusOK, generateResponse{OK: true, ResultImageURLs: result.ResultImageURLs})
}
