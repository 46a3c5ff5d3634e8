// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/VA7DBI/scholarAPI/chat"
	"github.com/VA7DBI/scholarAPI/config"
	"github.com/VA7DBI/scholarAPI/document"
	"github.com/VA7DBI/scholarAPI/metrics"
	"github.com/VA7DBI/scholarAPI/middleware"
	"github.com/VA7DBI/scholarAPI/storage"
	"github.com/VA7DBI/scholarAPI/store"
	"github.com/VA7DBI/scholarAPI/vector"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// PaperService handles uploaded papers: blob storage, text extraction,
// embedding, and retrieval. The pipeline collaborators are interfaces;
// this layer only orchestrates them.
type PaperService struct {
	config   *config.Config
	docs     store.DocumentStore
	blobs    storage.Storage
	vectors  vector.Store
	embedder vector.Embedder
	chat     *chat.Service
}

func NewPaperService(cfg *config.Config, docs store.DocumentStore, blobs storage.Storage,
	vectors vector.Store, embedder vector.Embedder, chatService *chat.Service) *PaperService {
	return &PaperService{
		config:   cfg,
		docs:     docs,
		blobs:    blobs,
		vectors:  vectors,
		embedder: embedder,
		chat:     chatService,
	}
}

// DocumentResponse is the upload result returned to the client.
type DocumentResponse struct {
	Document *store.Document `json:"document"`
	Chunks   int             `json:"chunks"`
}

// UpdateRequest carries the editable metadata fields; omitted fields
// keep their stored value.
type UpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// SearchRequest is the semantic search payload.
type SearchRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit"`
}

// MessageRequest is the chat payload.
type MessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// MessageResponse is the chat answer with the passages it was grounded on.
type MessageResponse struct {
	Answer  string          `json:"answer"`
	Sources []vector.Result `json:"sources"`
}

// @Summary     Upload a paper
// @Description Upload a PDF; its text is extracted, embedded, and indexed for search and chat
// @Tags        papers
// @Accept      multipart/form-data
// @Produce     json
// @Param       document formData file true "PDF file"
// @Success     201 {object} DocumentResponse
// @Failure     400 {object} ErrorResponse
// @Failure     413 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Router      /papers/upload [post]
func (s *PaperService) UploadHandler(c *gin.Context) {
	file, err := c.FormFile("document")
	if err != nil {
		metrics.UploadRequests.WithLabelValues("error", "unknown").Inc()
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No document file provided"})
		return
	}

	if file.Size > s.config.Upload.MaxFileSize*1024*1024 {
		metrics.UploadRequests.WithLabelValues("rejected", "unknown").Inc()
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error: fmt.Sprintf("File too large. Maximum size is %dMB", s.config.Upload.MaxFileSize),
		})
		return
	}
	if file.Size < s.config.Upload.MinFileSize {
		metrics.UploadRequests.WithLabelValues("rejected", "unknown").Inc()
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "File too small to be a valid document"})
		return
	}

	// Stage to a temp file so the extractor can seek.
	tmpFile, err := os.CreateTemp("", "upload-*.pdf")
	if err != nil {
		metrics.UploadRequests.WithLabelValues("error", "unknown").Inc()
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to save document"})
		return
	}
	tmpFile.Close()
	defer os.Remove(tmpFile.Name())

	if err := c.SaveUploadedFile(file, tmpFile.Name()); err != nil {
		metrics.UploadRequests.WithLabelValues("error", "unknown").Inc()
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to save document"})
		return
	}

	// Content sniffing, not extension or Content-Type.
	extractor, format, err := document.DetectFormat(tmpFile.Name())
	if err != nil {
		metrics.UploadRequests.WithLabelValues("rejected", "unknown").Inc()
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Only PDF files are supported"})
		return
	}

	timer := prometheus.NewTimer(metrics.UploadDuration.WithLabelValues(format))
	defer timer.ObserveDuration()

	meta, err := extractor.GetMetadata(tmpFile.Name(), file.Size)
	if err != nil {
		metrics.UploadRequests.WithLabelValues("error", format).Inc()
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid or corrupted PDF"})
		return
	}

	extractTimer := prometheus.NewTimer(metrics.ExtractionDuration.WithLabelValues(format))
	text, err := extractor.ExtractText(tmpFile.Name())
	extractTimer.ObserveDuration()
	if err != nil {
		metrics.UploadRequests.WithLabelValues("error", format).Inc()
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to extract document text"})
		return
	}

	userID := c.GetString(middleware.ContextUserID)
	docID := uuid.NewString()

	title := meta.Title
	if title == "" {
		title = file.Filename
	}

	// Blob first. If indexing fails afterwards, the orphaned blob is
	// deleted below; the database row is inserted last.
	blob, err := os.Open(tmpFile.Name())
	if err != nil {
		metrics.UploadRequests.WithLabelValues("error", format).Inc()
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to store document"})
		return
	}
	blobPath, err := s.blobs.Save(c.Request.Context(), docID+".pdf", blob)
	blob.Close()
	if err != nil {
		metrics.UploadRequests.WithLabelValues("error", format).Inc()
		logrus.WithError(err).Error("upload: blob save failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to store document"})
		return
	}

	chunks, err := s.indexDocument(c, docID, userID, file.Filename, title, text)
	if err != nil {
		_ = s.blobs.Delete(c.Request.Context(), blobPath)
		metrics.UploadRequests.WithLabelValues("error", format).Inc()
		logrus.WithError(err).Error("upload: indexing failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to index document"})
		return
	}
	metrics.DocumentChunks.WithLabelValues(format).Observe(float64(chunks))

	doc := &store.Document{
		ID:        docID,
		UserID:    userID,
		Filename:  file.Filename,
		Title:     title,
		FilePath:  blobPath,
		FileSize:  file.Size,
		PageCount: meta.PageCount,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.docs.InsertDocument(c.Request.Context(), doc); err != nil {
		_ = s.blobs.Delete(c.Request.Context(), blobPath)
		_ = s.vectors.DeleteByDocument(c.Request.Context(), docID)
		metrics.UploadRequests.WithLabelValues("error", format).Inc()
		logrus.WithError(err).Error("upload: record insert failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to save document record"})
		return
	}

	metrics.UploadRequests.WithLabelValues("success", format).Inc()
	logrus.WithFields(logrus.Fields{
		"document_id": docID,
		"pages":       meta.PageCount,
		"chunks":      chunks,
	}).Info("document uploaded")

	c.JSON(http.StatusCreated, DocumentResponse{Document: doc, Chunks: chunks})
}

// indexDocument chunks the text, embeds the chunks, and writes them to
// the vector store. Returns the number of chunks indexed.
func (s *PaperService) indexDocument(c *gin.Context, docID, userID, filename, title, text string) (int, error) {
	pieces := document.SplitChunks(text, s.config.Upload.ChunkSize, s.config.Upload.ChunkOverlap)
	if len(pieces) == 0 {
		return 0, nil
	}

	embeddings, err := s.embedder.Embed(c.Request.Context(), pieces)
	if err != nil {
		return 0, err
	}

	chunks := make([]vector.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = vector.Chunk{
			ID:        fmt.Sprintf("%s_chunk_%d", docID, i),
			Content:   piece,
			Embedding: embeddings[i],
			Metadata: map[string]string{
				"document_id": docID,
				"user_id":     userID,
				"filename":    filename,
				"title":       title,
			},
		}
	}

	if err := s.vectors.Add(c.Request.Context(), chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// @Summary     List papers
// @Description List the authenticated user's documents, newest first
// @Tags        papers
// @Produce     json
// @Param       limit  query int false "Page size"  default(100)
// @Param       offset query int false "Page start" default(0)
// @Success     200 {array} store.Document
// @Failure     500 {object} ErrorResponse
// @Router      /papers [get]
func (s *PaperService) ListHandler(c *gin.Context) {
	limit := intQuery(c, "limit", 100)
	offset := intQuery(c, "offset", 0)

	docs, err := s.docs.ListDocumentsByUser(c.Request.Context(), c.GetString(middleware.ContextUserID), limit, offset)
	if err != nil {
		logrus.WithError(err).Error("list documents failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list documents"})
		return
	}
	if docs == nil {
		docs = []*store.Document{}
	}
	c.JSON(http.StatusOK, docs)
}

// @Summary     Get a paper
// @Description Fetch one of the authenticated user's documents
// @Tags        papers
// @Produce     json
// @Param       id path string true "Document ID"
// @Success     200 {object} store.Document
// @Failure     404 {object} ErrorResponse
// @Router      /papers/{id} [get]
func (s *PaperService) GetHandler(c *gin.Context) {
	doc, err := s.docs.GetDocument(c.Request.Context(), c.Param("id"), c.GetString(middleware.ContextUserID))
	if err == store.ErrNotFound {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Document not found"})
		return
	}
	if err != nil {
		logrus.WithError(err).Error("get document failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load document"})
		return
	}
	c.JSON(http.StatusOK, doc)
}

// @Summary     Update a paper
// @Description Change a document's title or description
// @Tags        papers
// @Accept      json
// @Produce     json
// @Param       id     path string        true "Document ID"
// @Param       update body UpdateRequest true "Fields to change"
// @Success     200 {object} store.Document
// @Failure     400 {object} ErrorResponse
// @Failure     404 {object} ErrorResponse
// @Router      /papers/{id} [put]
func (s *PaperService) UpdateHandler(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid update payload"})
		return
	}
	if req.Title == nil && req.Description == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No update fields provided"})
		return
	}

	doc, err := s.docs.UpdateDocument(c.Request.Context(), c.Param("id"),
		c.GetString(middleware.ContextUserID),
		store.DocumentUpdate{Title: req.Title, Description: req.Description})
	if err == store.ErrNotFound {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Document not found"})
		return
	}
	if err != nil {
		logrus.WithError(err).Error("update document failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to update document"})
		return
	}
	c.JSON(http.StatusOK, doc)
}

// @Summary     Keyword search
// @Description Find the user's documents whose title, filename, or description contains the term
// @Tags        papers
// @Produce     json
// @Param       term  path  string true  "Search term"
// @Param       limit query int    false "Result cap" default(50)
// @Success     200 {array} store.Document
// @Failure     500 {object} ErrorResponse
// @Router      /papers/search/{term} [get]
func (s *PaperService) KeywordSearchHandler(c *gin.Context) {
	limit := intQuery(c, "limit", 50)

	docs, err := s.docs.SearchDocuments(c.Request.Context(),
		c.GetString(middleware.ContextUserID), c.Param("term"), limit)
	if err != nil {
		logrus.WithError(err).Error("document search failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Search failed"})
		return
	}
	if docs == nil {
		docs = []*store.Document{}
	}
	c.JSON(http.StatusOK, docs)
}

// @Summary     Delete a paper
// @Description Remove a document's record, blob, and vector chunks
// @Tags        papers
// @Produce     json
// @Param       id path string true "Document ID"
// @Success     200 {object} map[string]string
// @Failure     404 {object} ErrorResponse
// @Router      /papers/{id} [delete]
func (s *PaperService) DeleteHandler(c *gin.Context) {
	id := c.Param("id")
	userID := c.GetString(middleware.ContextUserID)

	doc, err := s.docs.GetDocument(c.Request.Context(), id, userID)
	if err == store.ErrNotFound {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Document not found"})
		return
	}
	if err != nil {
		logrus.WithError(err).Error("delete: lookup failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to delete document"})
		return
	}

	if err := s.docs.DeleteDocument(c.Request.Context(), id, userID); err != nil {
		logrus.WithError(err).Error("delete: record removal failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to delete document"})
		return
	}

	// Blob and chunks are best-effort once the row is gone; stragglers
	// are invisible to list/get and harmless to search.
	if err := s.blobs.Delete(c.Request.Context(), doc.FilePath); err != nil {
		logrus.WithError(err).WithField("document_id", id).Warn("delete: blob removal failed")
	}
	if err := s.vectors.DeleteByDocument(c.Request.Context(), id); err != nil {
		logrus.WithError(err).WithField("document_id", id).Warn("delete: chunk removal failed")
	}

	c.JSON(http.StatusOK, gin.H{"message": "Document deleted"})
}

// @Summary     Semantic search
// @Description Find the user's document chunks closest to a query
// @Tags        chat
// @Accept      json
// @Produce     json
// @Param       search body SearchRequest true "Query"
// @Success     200 {array} vector.Result
// @Failure     400 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Router      /chat/search [post]
func (s *PaperService) SearchHandler(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.ChatRequests.WithLabelValues("search", "error").Inc()
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Query is required"})
		return
	}

	results, err := s.chat.Search(c.Request.Context(), c.GetString(middleware.ContextUserID), req.Query, req.Limit)
	if err != nil {
		metrics.ChatRequests.WithLabelValues("search", "error").Inc()
		logrus.WithError(err).Error("search failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Search failed"})
		return
	}
	if results == nil {
		results = []vector.Result{}
	}

	metrics.ChatRequests.WithLabelValues("search", "success").Inc()
	c.JSON(http.StatusOK, results)
}

// @Summary     Ask about your papers
// @Description Answer a question using retrieved chunks from the user's documents
// @Tags        chat
// @Accept      json
// @Produce     json
// @Param       message body MessageRequest true "Question"
// @Success     200 {object} MessageResponse
// @Failure     400 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Router      /chat/message [post]
func (s *PaperService) MessageHandler(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.ChatRequests.WithLabelValues("message", "error").Inc()
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Message is required"})
		return
	}

	answer, sources, err := s.chat.Answer(c.Request.Context(), c.GetString(middleware.ContextUserID), req.Message)
	if err != nil {
		metrics.ChatRequests.WithLabelValues("message", "error").Inc()
		logrus.WithError(err).Error("chat failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Chat failed"})
		return
	}
	if sources == nil {
		sources = []vector.Result{}
	}

	metrics.ChatRequests.WithLabelValues("message", "success").Inc()
	c.JSON(http.StatusOK, MessageResponse{Answer: answer, Sources: sources})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	value := fallback
	if raw := c.Query(name); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &value); err != nil || value < 0 {
			return fallback
		}
	}
	return value
}
