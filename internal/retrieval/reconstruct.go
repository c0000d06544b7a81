// Package retrieval turns a question into ranked, citable chunks.
package retrieval

import (
	"github.com/CloudAIX/healthcare-rag-system/internal/document"
	"github.com/CloudAIX/healthcare-rag-system/internal/vectorstore"
)

// Reconstruct rebuilds a typed chunk from a raw store hit. Missing or
// malformed metadata never fails: see document.ParseMetadata for the
// fallbacks. The hit's distance becomes the score unchanged.
func Reconstruct(hit vectorstore.Hit) document.RetrievedChunk {
	meta := document.ParseMetadata(hit.Metadata)

	id := hit.ID
	if id == "" {
		id = hit.Metadata[document.MetaChunkID]
	}

	return document.RetrievedChunk{
		ID:               id,
		Text:             hit.Text,
		DocumentTitle:    meta.DocumentTitle,
		DocumentFilename: meta.DocumentFilename,
		PageNumbers:      meta.PageNumbers,
		Sections:         meta.Sections,
		ChunkIndex:       meta.ChunkIndex,
		Score:            hit.Distance,
	}
}
