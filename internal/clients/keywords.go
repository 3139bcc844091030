package clients

import "context"

type keywordsRequest struct {
	Texts       []string `json:"texts"`
	MaxKeywords int      `json:"max_keywords"`
}

type keywordsResponse struct {
	Keywords [][]string `json:"keywords"`
}

// Keywords extracts up to max keywords per input text.
func (h *HTTP) Keywords(ctx context.Context, texts []string, max int) ([][]string, error) {
	var out keywordsResponse
	if err := h.postJSON(ctx, "keywords", h.cfg.KeywordsURL, keywordsRequest{Texts: texts, MaxKeywords: max}, &out); err != nil {
		return nil, err
	}
	return out.Keywords, nil
}
