package tryon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tryon/internal/infra"
)

const fashnName = "fashn"

const (
	fashnModelName = "tryon-v1.6"

	defaultFashnPollInterval = 2 * time.Second
	defaultFashnMaxPolls     = 90
)

// FashnOptions controls how the asynchronous job-submission adapter is
// configured. PollInterval and MaxPolls bound the wait for a remote result;
// the defaults give a ceiling of roughly three minutes.
type FashnOptions struct {
	APIKey       string
	BaseURL      string
	PollInterval time.Duration
	MaxPolls     int
	HTTPClient   *http.Client
	Logger       *infra.Logger
}

// Fashn submits a try-on job to the remote API, polls its status until a
// terminal state, then downloads the result URLs into owned buffers. Result
// URLs from the remote side may be ephemeral, so buffers are materialized
// before Generate returns.
type Fashn struct {
	apiKey       string
	baseURL      string
	pollInterval time.Duration
	maxPolls     int
	httpClient   *http.Client
	logger       *infra.Logger
}

type fashnRunRequest struct {
	ModelName string         `json:"model_name"`
	Inputs    fashnRunInputs `json:"inputs"`
}

type fashnRunInputs struct {
	ModelImage   string `json:"model_image"`
	GarmentImage string `json:"garment_image"`
	Category     string `json:"category"`
}

type fashnRunResponse struct {
	ID    string          `json:"id"`
	Error json.RawMessage `json:"error"`
}

type fashnPrediction struct {
	Status string            `json:"status"`
	Error  json.RawMessage   `json:"error"`
	Output []json.RawMessage `json:"output"`
}

// NewFashn constructs the asynchronous job-submission adapter.
func NewFashn(opts FashnOptions) *Fashn {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.fashn.ai/v1"
	}

	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultFashnPollInterval
	}
	maxPolls := opts.MaxPolls
	if maxPolls <= 0 {
		maxPolls = defaultFashnMaxPolls
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Fashn{
		apiKey:       strings.TrimSpace(opts.APIKey),
		baseURL:      baseURL,
		pollInterval: interval,
		maxPolls:     maxPolls,
		httpClient:   client,
		logger:       logger,
	}
}

// Generate submits the job, waits for a terminal remote state, and returns
// the downloaded result images.
func (f *Fashn) Generate(ctx context.Context, userImageURL, garmentImageURL string) ([][]byte, error) {
	predictionID, err := f.submit(ctx, userImageURL, garmentImageURL)
	if err != nil {
		return nil, err
	}
	f.logger.Info().Str("prediction_id", predictionID).Msg("fashn: prediction submitted")

	prediction, err := f.awaitCompletion(ctx, predictionID)
	if err != nil {
		return nil, err
	}

	resultURLs := decodeOutputURLs(prediction.Output)
	if len(resultURLs) == 0 {
		return nil, emptyResultErr(fashnName, "completed but returned no image URLs")
	}

	var images [][]byte
	for idx, resultURL := range resultURLs {
		data, _, err := downloadImage(ctx, f.httpClient, resultURL)
		if err != nil {
			f.logger.Error().Err(err).Int("index", idx+1).Msg("fashn: result download failed")
			continue
		}
		f.logger.Debug().Int("index", idx+1).Int("bytes", len(data)).Msg("fashn: result downloaded")
		images = append(images, data)
	}

	if len(images) == 0 {
		return nil, emptyResultErr(fashnName, "all result image downloads failed")
	}
	return images, nil
}

func (f *Fashn) submit(ctx context.Context, userImageURL, garmentImageURL string) (string, error) {
	payload := fashnRunRequest{
		ModelName: fashnModelName,
		Inputs: fashnRunInputs{
			ModelImage:   userImageURL,
			GarmentImage: garmentImageURL,
			Category:     "auto",
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/run", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.apiKey)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", transportErr(fashnName, "submit request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(resp.Body)
		return "", transportErr(fashnName, "submit failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded fashnRunResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", transportErr(fashnName, "decode submit response: %v", err)
	}
	if msg := decodeRemoteError(decoded.Error); msg != "" {
		return "", transportErr(fashnName, "%s", msg)
	}
	if decoded.ID == "" {
		return "", transportErr(fashnName, "returned no prediction ID")
	}
	return decoded.ID, nil
}

// awaitCompletion polls the status endpoint until the prediction reaches a
// terminal remote state or the poll budget runs out. A transient non-2xx
// status response is logged and consumes one attempt but does not abort.
func (f *Fashn) awaitCompletion(ctx context.Context, predictionID string) (*fashnPrediction, error) {
	var prediction *fashnPrediction

	for i := 0; i < f.maxPolls; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.pollInterval):
		}

		current, ok, err := f.checkStatus(ctx, predictionID, i+1)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		prediction = current

		switch prediction.Status {
		case "completed":
			f.logger.Info().Int("polls", i+1).Msg("fashn: prediction completed")
			return prediction, nil
		case "failed":
			msg := decodeRemoteError(prediction.Error)
			if msg == "" {
				msg = "generation failed"
			}
			return nil, transportErr(fashnName, "%s", msg)
		}
		// "starting", "in_queue", "processing" keep polling.
	}

	return nil, timeoutErr(fashnName, "processing timed out after %d polls", f.maxPolls)
}

func (f *Fashn) checkStatus(ctx context.Context, predictionID string, attempt int) (*fashnPrediction, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/status/"+predictionID, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create status request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+f.apiKey)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, false, transportErr(fashnName, "status request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		f.logger.Warn().Int("attempt", attempt).Int("max", f.maxPolls).Int("status", resp.StatusCode).Msg("fashn: transient status failure, retrying")
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, false, nil
	}

	var prediction fashnPrediction
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return nil, false, transportErr(fashnName, "decode status response: %v", err)
	}
	f.logger.Debug().Int("attempt", attempt).Str("status", prediction.Status).Msg("fashn: poll")
	return &prediction, true, nil
}

// decodeRemoteError accepts either a bare message string or an object with
// a message field.
func decodeRemoteError(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err == nil {
		return msg
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Message
	}
	return string(raw)
}

// decodeOutputURLs accepts output entries that are either bare URL strings
// or objects with a url field, dropping anything unusable.
func decodeOutputURLs(output []json.RawMessage) []string {
	var urls []string
	for _, entry := range output {
		var s string
		if err := json.Unmarshal(entry, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				urls = append(urls, s)
			}
			continue
		}
		var obj struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(entry, &obj); err == nil {
			if u := strings.TrimSpace(obj.URL); u != "" {
				urls = append(urls, u)
			}
		}
	}
	return urls
}

var _ Generator = (*Fashn)(nil)
