package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anshin-navi/discovery/internal/core/domain"
)

func modelResponse(text string) string {
	payload := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func newTestClient(srvURL string, models ...string) *Client {
	return New(srvURL, "test-key", models)
}

func TestExtractFromTextParsesItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Goog-Api-Key"); got != "test-key" {
			t.Errorf("api key header = %q", got)
		}
		if !strings.Contains(r.URL.Path, "gemini-1.5-flash:generateContent") {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(modelResponse("```json\n[{\"name\":\"米粉パンケーキ\",\"price\":1200,\"description\":\"ふわふわ\",\"safe_from\":[\"小麦\",\"乳\"]}]\n```")))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "gemini-1.5-flash")
	items, err := c.ExtractFromText(context.Background(), "メニューページの本文")
	if err != nil {
		t.Fatalf("ExtractFromText: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if items[0].Name != "米粉パンケーキ" || items[0].Price != 1200 {
		t.Errorf("item = %+v", items[0])
	}
	// Japanese allergen names from the model come back as canonical categories.
	want := []string{"wheat", "dairy"}
	if len(items[0].SafeFrom) != 2 || items[0].SafeFrom[0] != want[0] || items[0].SafeFrom[1] != want[1] {
		t.Errorf("SafeFrom = %v, want %v", items[0].SafeFrom, want)
	}
}

func TestExtractFallsBackToNextModel(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		if strings.Contains(r.URL.Path, "model-a") {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(modelResponse(`[{"name":"豆乳プリン","price":450}]`)))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "model-a", "model-b")
	items, err := c.ExtractFromText(context.Background(), "text")
	if err != nil {
		t.Fatalf("ExtractFromText: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("calls = %v, want model-a then model-b", calls)
	}
	if len(items) != 1 || items[0].Name != "豆乳プリン" {
		t.Errorf("items = %+v", items)
	}
}

func TestExtractAuthFailureAbortsChain(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "model-a", "model-b", "model-c")
	_, err := c.ExtractFromText(context.Background(), "text")
	if err == nil {
		t.Fatal("ExtractFromText succeeded, want auth error")
	}
	if !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Errorf("error = %v, want unauthorized kind", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, auth failure must not try remaining models", calls)
	}
}

func TestExtractMalformedResponseAdvancesChain(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Write([]byte(modelResponse("メニューは見つかりませんでした。")))
			return
		}
		w.Write([]byte(modelResponse(`[]`)))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "model-a", "model-b")
	items, err := c.ExtractFromText(context.Background(), "text")
	if err != nil {
		t.Fatalf("ExtractFromText: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want unparseable response to advance the chain", calls)
	}
	if len(items) != 0 {
		t.Errorf("items = %+v, want empty", items)
	}
}

func TestExtractAllModelsFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "model-a", "model-b")
	_, err := c.ExtractFromText(context.Background(), "text")
	if err == nil {
		t.Fatal("ExtractFromText succeeded, want error")
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Errorf("error = %v, want temporary kind after chain exhausted", err)
	}
}

func TestExtractFromImageSendsInlineData(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/photo.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte{0xff, 0xd8, 0xff})
	})
	mux.HandleFunc("/v1beta/", func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		parts := req.Contents[0].Parts
		if len(parts) != 2 || parts[1].InlineData == nil {
			t.Fatalf("parts = %+v, want prompt plus inline image", parts)
		}
		if parts[1].InlineData.MimeType != "image/jpeg" {
			t.Errorf("mime = %q", parts[1].InlineData.MimeType)
		}
		if parts[1].InlineData.Data == "" {
			t.Error("inline data empty")
		}
		w.Write([]byte(modelResponse(`[{"name":"アレルゲン対応カレー","price":900,"allergen_info":"小麦不使用"}]`)))
	})

	c := newTestClient(srv.URL, "gemini-1.5-flash")
	items, err := c.ExtractFromImage(context.Background(), srv.URL+"/photo.jpg")
	if err != nil {
		t.Fatalf("ExtractFromImage: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if len(items[0].Images) != 1 || !strings.HasSuffix(items[0].Images[0], "/photo.jpg") {
		t.Errorf("Images = %v, want the source photo attached", items[0].Images)
	}
	if len(items[0].Allergens) == 0 || items[0].Allergens[0] != "wheat" {
		t.Errorf("Allergens = %v, want wheat from allergen_info", items[0].Allergens)
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"bare array", `[{"name":"a"}]`, `[{"name":"a"}]`, true},
		{"fenced", "```json\n[{\"name\":\"a\"}]\n```", `[{"name":"a"}]`, true},
		{"prose around", `以下が結果です: [{"name":"a"}] 以上です`, `[{"name":"a"}]`, true},
		{"object", `{"name":"a"}`, `{"name":"a"}`, true},
		{"bracket inside string", `[{"name":"味噌[限定]"}]`, `[{"name":"味噌[限定]"}]`, true},
		{"no json", "すみません、メニューが見つかりません", "", false},
		{"empty", "", "", false},
	}
	for _, tc := range cases {
		got, err := extractJSON(tc.raw)
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
			continue
		}
		if !tc.ok {
			if err == nil {
				t.Errorf("%s: got %q, want error", tc.name, got)
			}
			continue
		}
		if got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestParseMenuItemsSkipsNameless(t *testing.T) {
	items, err := parseMenuItems(`[{"name":"","price":100},{"name":"そば","price":800}]`)
	if err != nil {
		t.Fatalf("parseMenuItems: %v", err)
	}
	if len(items) != 1 || items[0].Name != "そば" {
		t.Errorf("items = %+v, want only the named item", items)
	}
}

func TestParseMenuItemsSingleObject(t *testing.T) {
	items, err := parseMenuItems(`{"name":"カレー","price":700}`)
	if err != nil {
		t.Fatalf("parseMenuItems: %v", err)
	}
	if len(items) != 1 || items[0].Name != "カレー" {
		t.Errorf("items = %+v", items)
	}
}
