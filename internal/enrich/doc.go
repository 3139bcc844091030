// Package enrich merges the outputs of the independent per-segment stages
// (acoustic features, embeddings, emotions, keywords) onto the aligned
// transcript, one record per segment.
package enrich
