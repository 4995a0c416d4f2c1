package tryon

import (
	"fmt"
	"strings"

	"tryon/internal/infra"
)

// New returns the single adapter selected by TRYON_PROVIDER. An unknown
// provider name or a missing API key for the selected provider is a
// configuration error surfaced at startup, never per job.
func New(cfg *infra.Config, logger *infra.Logger) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case geminiName:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required when TRYON_PROVIDER=gemini")
		}
		return NewGemini(GeminiOptions{
			APIKey:  cfg.GeminiAPIKey,
			BaseURL: cfg.GeminiBaseURL,
			Model:   cfg.GeminiModel,
			Logger:  logger,
		}), nil
	case fashnName:
		if cfg.FashnAPIKey == "" {
			return nil, fmt.Errorf("FASHN_API_KEY is required when TRYON_PROVIDER=fashn")
		}
		return NewFashn(FashnOptions{
			APIKey:       cfg.FashnAPIKey,
			BaseURL:      cfg.FashnBaseURL,
			PollInterval: cfg.FashnPollInterval,
			MaxPolls:     cfg.FashnMaxPolls,
			Logger:       logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider %q, must be one of: gemini, fashn", cfg.Provider)
	}
}
