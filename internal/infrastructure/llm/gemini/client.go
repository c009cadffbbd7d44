// Package gemini implements AI menu extraction over the Gemini
// generateContent API with a multi-model fallback chain.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/anshin-navi/discovery/internal/core/domain"
	"github.com/anshin-navi/discovery/internal/core/masters"
)

const maxImageBytes = 4 << 20

type Client struct {
	baseURL    string
	apiKey     string
	models     []string
	httpClient *http.Client
}

func New(baseURL, apiKey string, models []string) *Client {
	if len(models) == 0 {
		models = []string{"gemini-1.5-flash", "gemini-1.5-flash-8b"}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		models:     models,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) ExtractFromText(ctx context.Context, text string) ([]domain.MenuItem, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	parts := []part{{Text: buildTextPrompt(text)}}
	return c.extractWithFallback(ctx, "extract_text", parts)
}

func (c *Client) ExtractFromImage(ctx context.Context, imageURL string) ([]domain.MenuItem, error) {
	data, mimeType, err := c.fetchImage(ctx, imageURL)
	if err != nil {
		return nil, err
	}
	parts := []part{
		{Text: buildVisionPrompt()},
		{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}},
	}
	items, err := c.extractWithFallback(ctx, "extract_image", parts)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Images = append(items[i].Images, imageURL)
	}
	return items, nil
}

// extractWithFallback tries each configured model in order. An
// authorization failure aborts the whole chain immediately since the
// remaining models would fail the same way. Any other failure,
// including an unparseable response, advances to the next model.
func (c *Client) extractWithFallback(ctx context.Context, operation string, parts []part) ([]domain.MenuItem, error) {
	var lastErr error
	for _, model := range c.models {
		raw, err := c.generateContent(ctx, model, parts)
		if err != nil {
			if domain.IsKind(err, domain.ErrUnauthorized) {
				return nil, err
			}
			lastErr = err
			continue
		}

		items, err := parseMenuItems(raw)
		if err != nil {
			lastErr = domain.WrapError(domain.ErrMalformedResponse, operation+" "+model, err)
			continue
		}
		return items, nil
	}
	return nil, domain.WrapError(domain.ErrTemporary, operation, fmt.Errorf("all models failed: %w", lastErr))
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *Client) generateContent(ctx context.Context, model string, parts []part) (string, error) {
	payload := generateRequest{Contents: []content{{Parts: parts}}}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", domain.WrapError(domain.ErrTemporary, "gemini generate", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", domain.WrapError(domain.ErrUnauthorized, "gemini generate",
			fmt.Errorf("model %s status %s", model, resp.Status))
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		err := fmt.Errorf("model %s status %s: %s", model, resp.Status, strings.TrimSpace(string(msg)))
		return "", domain.WrapError(domain.ErrTemporary, "gemini generate", err)
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", domain.WrapError(domain.ErrMalformedResponse, "gemini generate", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", domain.WrapError(domain.ErrMalformedResponse, "gemini generate",
			fmt.Errorf("model %s returned no candidates", model))
	}

	var sb strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

func (c *Client) fetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", domain.WrapError(domain.ErrInvalidInput, "fetch image", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", domain.WrapError(domain.ErrTemporary, "fetch image", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, "", domain.WrapError(domain.ErrTemporary, "fetch image",
			fmt.Errorf("status %s for %s", resp.Status, imageURL))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", domain.WrapError(domain.ErrTemporary, "fetch image", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return data, mimeType, nil
}

type wireMenuItem struct {
	Name         string   `json:"name"`
	Price        int      `json:"price"`
	Description  string   `json:"description"`
	SafeFrom     []string `json:"safe_from"`
	AllergenInfo string   `json:"allergen_info"`
}

// parseMenuItems decodes the model's JSON array and normalizes the
// allergen vocabulary to canonical categories.
func parseMenuItems(raw string) ([]domain.MenuItem, error) {
	extracted, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	var wire []wireMenuItem
	if err := json.Unmarshal([]byte(extracted), &wire); err != nil {
		// The model sometimes returns a single object for a one-item menu.
		var single wireMenuItem
		if errSingle := json.Unmarshal([]byte(extracted), &single); errSingle != nil {
			return nil, fmt.Errorf("decode menu json: %w", err)
		}
		wire = []wireMenuItem{single}
	}

	items := make([]domain.MenuItem, 0, len(wire))
	for _, w := range wire {
		name := strings.TrimSpace(w.Name)
		if name == "" {
			continue
		}
		item := domain.MenuItem{
			Name:        name,
			Price:       w.Price,
			Description: strings.TrimSpace(w.Description),
			SafeFrom:    normalizeCategories(w.SafeFrom),
		}
		if w.AllergenInfo != "" {
			item.Allergens = masters.MatchCategories(w.AllergenInfo)
		}
		items = append(items, item)
	}
	return items, nil
}

func normalizeCategories(terms []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, term := range terms {
		categories := masters.MatchCategories(term)
		if len(categories) == 0 {
			categories = []string{strings.ToLower(strings.TrimSpace(term))}
		}
		for _, cat := range categories {
			if cat == "" || seen[cat] {
				continue
			}
			seen[cat] = true
			out = append(out, cat)
		}
	}
	return out
}
