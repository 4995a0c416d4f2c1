package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"tryon/internal/infra"
	"tryon/internal/orchestrator"
)

// JobRunner is the slice of the orchestrator the HTTP layer needs.
type JobRunner interface {
	Run(ctx context.Context, jobID string) (*orchestrator.Result, error)
}

type App struct {
	Runner JobRunner
	Logger infra.Logger
}

func NewApp(runner JobRunner, logger infra.Logger) *App {
	return &App{Runner: runner, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
