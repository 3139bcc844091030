// Package clients holds the HTTP clients for the enrichment model services.
// Each service is a small JSON-over-HTTP endpoint; an unset URL means the
// corresponding stage is skipped entirely.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"parley/internal/config"
)

const defaultRequestTimeout = 60 * time.Second

// HTTP calls the configured enrichment services.
type HTTP struct {
	c   *http.Client
	cfg config.Services
}

// NewHTTP builds the shared client from service configuration.
func NewHTTP(cfg config.Services) *HTTP {
	timeout := defaultRequestTimeout
	if cfg.RequestTimeoutSeconds > 0 {
		timeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	}
	return &HTTP{
		c:   &http.Client{Timeout: timeout},
		cfg: cfg,
	}
}

// EmbeddingConfigured reports whether the embedding service has a URL.
func (h *HTTP) EmbeddingConfigured() bool { return configured(h.cfg.EmbeddingURL) }

// TextEmotionConfigured reports whether the text emotion service has a URL.
func (h *HTTP) TextEmotionConfigured() bool { return configured(h.cfg.TextEmotionURL) }

// SpeechEmotionConfigured reports whether the speech emotion service has a URL.
func (h *HTTP) SpeechEmotionConfigured() bool { return configured(h.cfg.SpeechEmotionURL) }

// KeywordsConfigured reports whether the keyword service has a URL.
func (h *HTTP) KeywordsConfigured() bool { return configured(h.cfg.KeywordsURL) }

func configured(url string) bool {
	return strings.TrimSpace(url) != ""
}

// postJSON posts the request body as JSON and decodes the response into out.
func (h *HTTP) postJSON(ctx context.Context, name, url string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s encode: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: %s", name, resp.Status, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s decode: %w", name, err)
	}
	return nil
}
