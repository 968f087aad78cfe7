package server

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonathan/tender-checklist/internal/db"
)

const pdfContentType = "application/pdf"

// parsePathID parses the {id} path parameter as a positive integer.
func parsePathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// handleUploadFile accepts a multipart PDF upload, stores the bytes with the
// model provider and records the metadata. Re-uploading identical content
// returns the existing record instead of creating a duplicate.
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	// Cap the request body; a little slack covers multipart framing
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+(1<<20))

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			s.errorResponse(w, http.StatusRequestEntityTooLarge, "File exceeds maximum upload size")
			return
		}
		s.errorResponse(w, http.StatusBadRequest, "Request must include a 'file' form field")
		return
	}
	defer file.Close()

	if strings.ToLower(filepath.Ext(header.Filename)) != ".pdf" {
		s.errorResponse(w, http.StatusBadRequest, "Only PDF files are supported")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			s.errorResponse(w, http.StatusRequestEntityTooLarge, "File exceeds maximum upload size")
			return
		}
		s.errorResponse(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	if len(data) == 0 {
		s.errorResponse(w, http.StatusBadRequest, "Uploaded file is empty")
		return
	}

	sum := md5.Sum(data)
	hash := hex.EncodeToString(sum[:])

	// Content-level dedup: identical bytes map to one provider upload
	existing, err := s.db.GetFileByHash(r.Context(), hash)
	if err != nil {
		s.dbError(w, err)
		return
	}
	if existing != nil {
		s.jsonResponse(w, http.StatusOK, map[string]any{
			"file":         existing,
			"deduplicated": true,
		})
		return
	}

	ref, err := s.store.Upload(r.Context(), header.Filename, bytes.NewReader(data), pdfContentType)
	if err != nil {
		log.Printf("Provider upload failed for %s: %v", header.Filename, err)
		s.errorResponse(w, http.StatusBadGateway, "File storage error")
		return
	}

	stored, err := s.db.CreateFile(r.Context(), &db.StoredFile{
		DisplayName:      header.Filename,
		StorageReference: ref.Handle,
		StorageURI:       ref.URI,
		FileSize:         int64(len(data)),
		ContentType:      pdfContentType,
		MD5Hash:          hash,
	})
	if err != nil {
		// Don't leave an orphaned provider file behind
		if delErr := s.store.Delete(r.Context(), ref.Handle); delErr != nil {
			log.Printf("Failed to clean up provider file %s: %v", ref.Handle, delErr)
		}
		s.dbError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, map[string]any{
		"file":         stored,
		"deduplicated": false,
	})
}

// handleListFiles lists uploaded files, newest first
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	limit := parseQueryInt(r, "limit", 100, 500)

	files, err := s.db.ListFiles(r.Context(), limit)
	if err != nil {
		s.dbError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"files": files,
		"count": len(files),
	})
}

// handleGetFile retrieves a file record by ID
func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePathID(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid file ID")
		return
	}

	file, err := s.db.GetFile(r.Context(), id)
	if err != nil {
		s.dbError(w, err)
		return
	}
	if file == nil {
		s.errorResponse(w, http.StatusNotFound, "File not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, file)
}

// handleDeleteFile removes a file record and its provider-side copy
func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePathID(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid file ID")
		return
	}

	file, err := s.db.GetFile(r.Context(), id)
	if err != nil {
		s.dbError(w, err)
		return
	}
	if file == nil {
		s.errorResponse(w, http.StatusNotFound, "File not found")
		return
	}

	if err := s.db.DeleteFile(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}

	// Best effort; the provider expires files on its own schedule
	if err := s.store.Delete(r.Context(), file.StorageReference); err != nil {
		log.Printf("Failed to delete provider file %s: %v", file.StorageReference, err)
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"message": "File deleted"})
}
