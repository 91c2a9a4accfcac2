package http

import (
	"fmt"
	"io"
	"net/http"

	"buchhaltung/internal/core"
)

// maxUploadMemory bounds how much of a multipart upload is buffered in RAM.
const maxUploadMemory = 16 << 20

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.writeError(w, r, core.Validationf("invalid multipart form: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, core.Validationf("missing 'file' form field"))
		return
	}
	defer file.Close()

	doc, err := s.ledger.AttachDocument(r.Context(), id, header.Filename, file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleDownloadDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	doc, err := s.repo.GetDocument(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	f, err := s.ledger.OpenDocument(doc.Filename)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.OriginalFilename))
	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, f); err != nil {
		s.logger.ErrorContext(r.Context(), "Document download aborted", "document_id", id, "error", err)
	}
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.ledger.DetachDocument(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
