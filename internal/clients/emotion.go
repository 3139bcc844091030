package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"parley/internal/align"
)

type textEmotionRequest struct {
	Texts []string `json:"texts"`
}

type emotionResponse struct {
	Emotions []string `json:"emotions"`
}

// TextEmotions classifies each text and returns one dominant emotion label
// per input.
func (h *HTTP) TextEmotions(ctx context.Context, texts []string) ([]string, error) {
	var out emotionResponse
	if err := h.postJSON(ctx, "text emotion", h.cfg.TextEmotionURL, textEmotionRequest{Texts: texts}, &out); err != nil {
		return nil, err
	}
	return out.Emotions, nil
}

// SpeechEmotions uploads the recording with the segment spans and returns one
// emotion label per span. The service slices the audio itself, so the whole
// file travels once per run.
func (h *HTTP) SpeechEmotions(ctx context.Context, wavPath string, spans []align.TimeSpan) ([]string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	fw, err := w.CreateFormFile("file", filepath.Base(wavPath))
	if err != nil {
		return nil, err
	}
	fd, err := os.Open(wavPath)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	if _, err := io.Copy(fw, fd); err != nil {
		return nil, err
	}

	spanJSON, err := json.Marshal(spans)
	if err != nil {
		return nil, err
	}
	if err := w.WriteField("spans", string(spanJSON)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.cfg.SpeechEmotionURL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("speech emotion %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var out emotionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("speech emotion decode: %w", err)
	}
	return out.Emotions, nil
}
