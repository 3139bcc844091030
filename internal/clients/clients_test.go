package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"parley/internal/align"
	"parley/internal/config"
	"parley/internal/testsupport"
)

func TestConfiguredFlags(t *testing.T) {
	h := NewHTTP(config.Services{EmbeddingURL: "http://localhost:9000/embed"})
	if !h.EmbeddingConfigured() {
		t.Fatal("expected embedding configured")
	}
	if h.TextEmotionConfigured() || h.SpeechEmotionConfigured() || h.KeywordsConfigured() {
		t.Fatal("expected other services unconfigured")
	}
}

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if !reflect.DeepEqual(req.Texts, []string{"hello", "world"}) {
			t.Fatalf("unexpected texts: %v", req.Texts)
		}
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float64{{0.1, 0.2}, {0.3, 0.4}}})
	}))
	defer srv.Close()

	h := NewHTTP(config.Services{EmbeddingURL: srv.URL})
	vecs, err := h.Embed(context.Background(), []string{"hello", "world"})
	if err != nil {
		t.Fatalf("Embed returned error: %v", err)
	}
	if len(vecs) != 2 || vecs[1][0] != 0.3 {
		t.Fatalf("unexpected embeddings: %v", vecs)
	}
}

func TestTextEmotions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(emotionResponse{Emotions: []string{"joy", "anger"}})
	}))
	defer srv.Close()

	h := NewHTTP(config.Services{TextEmotionURL: srv.URL})
	emotions, err := h.TextEmotions(context.Background(), []string{"great!", "terrible!"})
	if err != nil {
		t.Fatalf("TextEmotions returned error: %v", err)
	}
	if !reflect.DeepEqual(emotions, []string{"joy", "anger"}) {
		t.Fatalf("unexpected emotions: %v", emotions)
	}
}

func TestSpeechEmotionsUploadsFileAndSpans(t *testing.T) {
	wavPath := testsupport.WriteWAV(t, t.TempDir(), "audio.wav", 16000, 0.2)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		file.Close()
		if header.Filename != "audio.wav" {
			t.Fatalf("unexpected filename: %q", header.Filename)
		}
		var spans []align.TimeSpan
		if err := json.Unmarshal([]byte(r.FormValue("spans")), &spans); err != nil {
			t.Fatalf("decode spans: %v", err)
		}
		if len(spans) != 2 || spans[1].End != 0.2 {
			t.Fatalf("unexpected spans: %v", spans)
		}
		json.NewEncoder(w).Encode(emotionResponse{Emotions: []string{"neutral", "joy"}})
	}))
	defer srv.Close()

	h := NewHTTP(config.Services{SpeechEmotionURL: srv.URL})
	spans := []align.TimeSpan{{Start: 0, End: 0.1}, {Start: 0.1, End: 0.2}}
	emotions, err := h.SpeechEmotions(context.Background(), wavPath, spans)
	if err != nil {
		t.Fatalf("SpeechEmotions returned error: %v", err)
	}
	if !reflect.DeepEqual(emotions, []string{"neutral", "joy"}) {
		t.Fatalf("unexpected emotions: %v", emotions)
	}
}

func TestKeywordsSendsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req keywordsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.MaxKeywords != 5 {
			t.Fatalf("unexpected max: %d", req.MaxKeywords)
		}
		json.NewEncoder(w).Encode(keywordsResponse{Keywords: [][]string{{"alpha", "beta"}}})
	}))
	defer srv.Close()

	h := NewHTTP(config.Services{KeywordsURL: srv.URL})
	keywords, err := h.Keywords(context.Background(), []string{"alpha beta gamma"}, 5)
	if err != nil {
		t.Fatalf("Keywords returned error: %v", err)
	}
	if len(keywords) != 1 || keywords[0][1] != "beta" {
		t.Fatalf("unexpected keywords: %v", keywords)
	}
}

func TestPostJSONSurfacesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	h := NewHTTP(config.Services{EmbeddingURL: srv.URL})
	if _, err := h.Embed(context.Background(), []string{"x"}); err == nil {
		t.Fatal("expected error from 503 response")
	}
}
