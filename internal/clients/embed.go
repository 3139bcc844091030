package clients

import "context"

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// Embed returns one embedding vector per input text.
func (h *HTTP) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	var out embedResponse
	if err := h.postJSON(ctx, "embed", h.cfg.EmbeddingURL, embedRequest{Texts: texts}, &out); err != nil {
		return nil, err
	}
	return out.Embeddings, nil
}
