package tryon

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tryon/internal/infra"
)

const geminiName = "gemini"

// tryOnInstruction is the fixed prompt sent with both images. The wording
// pins the invariants the composite must keep: same face, body shape, pose,
// and background.
const tryOnInstruction = "You are a virtual try-on assistant. " +
	"The first image is a photo of a person. The second image is a garment. " +
	"Generate a realistic photo of the same person wearing the garment from the second image. " +
	"Keep the person's face, body shape, pose, and background unchanged. " +
	"The garment should fit naturally with correct lighting, wrinkles, and shadows."

// GeminiOptions controls how the synchronous multimodal adapter is configured.
type GeminiOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Gemini performs try-on generation in a single multimodal request: both
// images are downloaded, base64-encoded inline, and the response carries the
// generated images inline as well. No polling is involved.
type Gemini struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

type geminiInlineData struct {
	MimeType string `json:"mime_type,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
	// Some API versions answer with camelCase field names.
	InlineDataCamel *geminiInlineDataCamel `json:"inlineData,omitempty"`
}

type geminiInlineDataCamel struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

// NewGemini constructs the synchronous multimodal adapter.
func NewGemini(opts GeminiOptions) *Gemini {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash-image"
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Gemini{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: client,
		logger:     logger,
	}
}

// Generate downloads both images, sends a single generateContent request,
// and extracts the inline image payloads from the response.
func (g *Gemini) Generate(ctx context.Context, userImageURL, garmentImageURL string) ([][]byte, error) {
	userImg := &geminiInlineData{}
	garmentImg := &geminiInlineData{}

	// The two downloads are independent and read-only.
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return g.fetchInline(egCtx, userImageURL, "user image", userImg)
	})
	eg.Go(func() error {
		return g.fetchInline(egCtx, garmentImageURL, "garment image", garmentImg)
	})
	if err := eg.Wait(); err != nil {
		return nil, transportErr(geminiName, "%v", err)
	}

	payload := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: tryOnInstruction},
				{InlineData: userImg},
				{InlineData: garmentImg},
			},
		}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	target := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", g.apiKey)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, transportErr(geminiName, "generate request failed: %v", err)
	}
	defer resp.Body.Close()

	g.logger.Debug().Int("status", resp.StatusCode).Str("model", g.model).Msg("gemini: generate response")

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(resp.Body)
		return nil, transportErr(geminiName, "API failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, transportErr(geminiName, "decode response: %v", err)
	}

	if len(decoded.Candidates) == 0 {
		return nil, emptyResultErr(geminiName, "returned no candidates")
	}

	var images [][]byte
	for _, part := range decoded.Candidates[0].Content.Parts {
		if part.Text != "" {
			g.logger.Debug().Str("text", part.Text).Msg("gemini: text part")
		}
		encoded := ""
		switch {
		case part.InlineData != nil && part.InlineData.Data != "":
			encoded = part.InlineData.Data
		case part.InlineDataCamel != nil && part.InlineDataCamel.Data != "":
			encoded = part.InlineDataCamel.Data
		}
		if encoded == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			g.logger.Warn().Err(err).Msg("gemini: skipping undecodable inline image")
			continue
		}
		images = append(images, data)
	}

	if len(images) == 0 {
		return nil, emptyResultErr(geminiName, "completed but returned no images")
	}

	g.logger.Info().Int("images", len(images)).Msg("gemini: generation succeeded")
	return images, nil
}

func (g *Gemini) fetchInline(ctx context.Context, imageURL, label string, out *geminiInlineData) error {
	data, mimeType, err := downloadImage(ctx, g.httpClient, imageURL)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	g.logger.Debug().Str("label", label).Int("bytes", len(data)).Str("mime", mimeType).Msg("gemini: downloaded input")
	out.MimeType = mimeType
	out.Data = base64.StdEncoding.EncodeToString(data)
	return nil
}

var _ Generator = (*Gemini)(nil)
