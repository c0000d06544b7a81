package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/CloudAIX/healthcare-rag-system/internal/document"
)

// handleDeleteDocument removes every stored chunk of one source file.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	filename, err := url.PathUnescape(chi.URLParam(r, "filename"))
	if err != nil || filename == "" {
		jsonError(w, "invalid filename", http.StatusBadRequest)
		return
	}

	removed, err := s.deps.Store.DeleteWhere(r.Context(), map[string]string{
		document.MetaDocumentFilename: filename,
	})
	if err != nil {
		s.log.Error("delete failed", "filename", filename, "error", err)
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if removed == 0 {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	s.log.Info("document deleted", "filename", filename, "chunks_deleted", removed)
	writeJSON(w, http.StatusOK, map[string]any{
		"filename":       filename,
		"chunks_deleted": removed,
	})
}
