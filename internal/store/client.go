package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"tryon/internal/domain"
	"tryon/internal/infra"
)

const (
	collectionTryOn   = "tryOn"
	collectionProduct = "product"

	defaultProductCacheTTL = 5 * time.Minute
)

// Options controls how the document store client is configured.
type Options struct {
	Endpoint        string
	ProjectID       string
	APIKey          string
	DatabaseID      string
	HTTPClient      *http.Client
	Logger          *infra.Logger
	ProductCacheTTL time.Duration
}

// Client talks to the hosted document store that owns try-on and product
// records. Requests are authenticated with a project id plus API key pair;
// all payloads are plain JSON.
type Client struct {
	endpoint   string
	projectID  string
	apiKey     string
	databaseID string
	httpClient *http.Client
	logger     *infra.Logger
	products   *gocache.Cache
}

// TryOnPatch describes a partial update of a try-on record. Zero-valued
// fields are left untouched.
type TryOnPatch struct {
	Status          domain.Status
	ResultImageURLs []string
	ErrorMessage    string
}

type tryOnDocument struct {
	ID              string          `json:"$id"`
	ImageURLs       []string        `json:"imageUrls"`
	ResultImageURLs []string        `json:"resultImageUrls"`
	Product         json.RawMessage `json:"product"`
	Status          string          `json:"status"`
	ErrorMessage    string          `json:"errorMessage"`
	CreatedAt       time.Time       `json:"$createdAt"`
	UpdatedAt       time.Time       `json:"$updatedAt"`
}

type productDocument struct {
	ID      string   `json:"$id"`
	Title   string   `json:"title"`
	Image   string   `json:"image"`
	Gallery []string `json:"gallery"`
}

type apiError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
}

// NewClient constructs a document store client. Callers may provide a nil
// HTTP client; a reusable one with a sensible timeout is created.
func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	ttl := opts.ProductCacheTTL
	if ttl <= 0 {
		ttl = defaultProductCacheTTL
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		endpoint:   strings.TrimRight(opts.Endpoint, "/"),
		projectID:  opts.ProjectID,
		apiKey:     opts.APIKey,
		databaseID: opts.DatabaseID,
		httpClient: client,
		logger:     logger,
		products:   gocache.New(ttl, 2*ttl),
	}
}

// GetTryOn fetches a try-on record by id.
func (c *Client) GetTryOn(ctx context.Context, id string) (*domain.TryOnJob, error) {
	var doc tryOnDocument
	if err := c.invoke(ctx, http.MethodGet, c.documentPath(collectionTryOn, id), nil, &doc); err != nil {
		return nil, err
	}

	job := &domain.TryOnJob{
		ID:              doc.ID,
		ImageURLs:       doc.ImageURLs,
		ProductID:       decodeProductRef(doc.Product),
		Status:          domain.Status(doc.Status),
		ResultImageURLs: doc.ResultImageURLs,
		ErrorMessage:    doc.ErrorMessage,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}
	return job, nil
}

// GetProduct fetches a product record by id. Products are read-only to this
// service, so lookups are served from a TTL cache when possible.
func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if cached, ok := c.products.Get(id); ok {
		if product, ok := cached.(*domain.Product); ok {
			return product, nil
		}
	}

	var doc productDocument
	if err := c.invoke(ctx, http.MethodGet, c.documentPath(collectionProduct, id), nil, &doc); err != nil {
		return nil, err
	}

	product := &domain.Product{
		ID:      doc.ID,
		Title:   doc.Title,
		Image:   doc.Image,
		Gallery: doc.Gallery,
	}
	c.products.SetDefault(id, product)
	return product, nil
}

// UpdateTryOn applies a partial update to a try-on record.
func (c *Client) UpdateTryOn(ctx context.Context, id string, patch TryOnPatch) error {
	data := map[string]any{}
	if patch.Status != "" {
		data["status"] = string(patch.Status)
	}
	if patch.ResultImageURLs != nil {
		data["resultImageUrls"] = patch.ResultImageURLs
	}
	if patch.ErrorMessage != "" {
		data["errorMessage"] = patch.ErrorMessage
	}
	if len(data) == 0 {
		return nil
	}

	payload := map[string]any{"data": data}
	return c.invoke(ctx, http.MethodPatch, c.documentPath(collectionTryOn, id), payload, nil)
}

func (c *Client) documentPath(collection, id string) string {
	return fmt.Sprintf("/databases/%s/collections/%s/documents/%s", c.databaseID, collection, id)
}

func (c *Client) invoke(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Appwrite-Project", c.projectID)
	req.Header.Set("X-Appwrite-Key", c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("document store: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
			return fmt.Errorf("document store status %d: %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("document store status %d", resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeProductRef accepts either a bare document id or an expanded related
// document and returns the product id.
func decodeProductRef(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var ref struct {
		ID string `json:"$id"`
	}
	if err := json.Unmarshal(raw, &ref); err == nil {
		return ref.ID
	}
	return ""
}
