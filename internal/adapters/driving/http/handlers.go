package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/vectoria-labs/vectoria-core/internal/core/domain"
	"github.com/vectoria-labs/vectoria-core/internal/core/ports/driving"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns the readiness status of the API (checks database and bucket store connections)
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "A backing store is unreachable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "bucket store unreachable")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Search endpoints

// searchRequest represents a similarity search request
// @Description Similarity search request
type searchRequest struct {
	Query      string  `json:"query" example:"how do token buckets refill"`
	Similarity float64 `json:"similarity,omitempty" example:"0.8"`
	Limit      int     `json:"limit,omitempty" example:"10"`
	Offset     int     `json:"offset,omitempty" example:"0"`
	GroupID    *int64  `json:"group_id,omitempty"`
}

// handleSearch godoc
// @Summary      Search documents
// @Description  Rank the caller's documents by semantic closeness to the query. Results are ordered by ascending cosine distance with id as tie-break.
// @Tags         Search
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      searchRequest  true  "Search query"
// @Success      200      {object}  domain.SearchResult
// @Failure      400      {object}  ErrorResponse  "Invalid request, pagination or threshold"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      429      {object}  ErrorResponse  "Rate limited"
// @Failure      500      {object}  ErrorResponse  "Search failed"
// @Router       /search [post]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	opts := domain.SearchOptions{
		Similarity: req.Similarity,
		Limit:      req.Limit,
		Offset:     req.Offset,
	}
	if req.Similarity == 0 {
		// Zero means "not given" on the wire; a literal 0.0 threshold
		// is expressed as any negative value falling back to the default.
		opts.Similarity = -1
	}

	var result *domain.SearchResult
	var err error
	if req.GroupID != nil {
		result, err = s.searchService.SearchByGroup(r.Context(), claims.UserID, *req.GroupID, req.Query, opts)
	} else {
		result, err = s.searchService.Search(r.Context(), claims.UserID, req.Query, opts)
	}
	if err != nil {
		switch err {
		case domain.ErrInvalidPagination, domain.ErrInvalidThreshold, domain.ErrInvalidInput:
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "search failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Document endpoints

// addDocumentRequest represents a document creation request
// @Description Document creation request
type addDocumentRequest struct {
	Content   string            `json:"content" example:"Token buckets refill continuously at a fixed rate."`
	Metadata  map[string]string `json:"metadata,omitempty"`
	GroupName string            `json:"group_name,omitempty" example:"notes"`
}

// handleAddDocument godoc
// @Summary      Add document
// @Description  Embed the content and store document and vector together. A group name is resolved with find-or-create.
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      addDocumentRequest  true  "Document content"
// @Success      201      {object}  domain.Document
// @Failure      400      {object}  ErrorResponse  "Invalid request or empty content"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      503      {object}  ErrorResponse  "Embedding gateway unavailable"
// @Router       /documents [post]
func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req addDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := s.docService.Add(r.Context(), claims.UserID, req.Content, req.Metadata, req.GroupName)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "content is required")
		case errors.Is(err, domain.ErrEmbeddingUnavailable), errors.Is(err, domain.ErrServiceUnavailable):
			writeError(w, http.StatusServiceUnavailable, "embedding service unavailable")
		case errors.Is(err, domain.ErrGroupNameTaken):
			writeError(w, http.StatusConflict, "group name already taken")
		default:
			writeError(w, http.StatusInternalServerError, "failed to add document")
		}
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

// documentListResponse is a paginated document listing
// @Description Paginated document listing
type documentListResponse struct {
	Documents []*domain.Document `json:"documents"`
	Total     int                `json:"total"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

// handleListDocuments godoc
// @Summary      List documents
// @Description  List the caller's documents, newest first, optionally filtered by group
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        limit     query     int  false  "Page size"
// @Param        offset    query     int  false  "Page offset"
// @Param        group_id  query     int  false  "Filter by group"
// @Success      200       {object}  documentListResponse
// @Failure      400       {object}  ErrorResponse  "Invalid pagination"
// @Failure      401       {object}  ErrorResponse  "Unauthorized"
// @Router       /documents [get]
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := queryInt(r, "limit", domain.DefaultSearchLimit)
	offset := queryInt(r, "offset", 0)

	var groupID *int64
	if raw := r.URL.Query().Get("group_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid group_id")
			return
		}
		groupID = &id
	}

	docs, total, err := s.docService.List(r.Context(), claims.UserID, limit, offset, groupID)
	if err != nil {
		switch err {
		case domain.ErrInvalidPagination:
			writeError(w, http.StatusBadRequest, "invalid pagination")
		default:
			writeError(w, http.StatusInternalServerError, "failed to list documents")
		}
		return
	}

	writeJSON(w, http.StatusOK, documentListResponse{
		Documents: docs,
		Total:     total,
		Limit:     limit,
		Offset:    offset,
	})
}

// handleGetDocument godoc
// @Summary      Get document
// @Description  Get one of the caller's documents by ID
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Document ID"
// @Success      200  {object}  domain.Document
// @Failure      400  {object}  ErrorResponse  "Invalid ID"
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Router       /documents/{id} [get]
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	doc, err := s.docService.Get(r.Context(), claims.UserID, id)
	if err != nil {
		switch err {
		case domain.ErrNotFound:
			writeError(w, http.StatusNotFound, "document not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to get document")
		}
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// updateDocumentRequest represents a partial document update
// @Description Partial document update. Omitted fields are left untouched; group_id must be accompanied by move_group.
type updateDocumentRequest struct {
	Content   *string           `json:"content,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	GroupID   *int64            `json:"group_id,omitempty"`
	MoveGroup bool              `json:"move_group,omitempty"`
}

// handleUpdateDocument godoc
// @Summary      Update document
// @Description  Apply a partial update. A content change re-embeds; identical content skips the embedding call.
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                    true  "Document ID"
// @Param        request  body      updateDocumentRequest  true  "Fields to change"
// @Success      200      {object}  domain.Document
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      404      {object}  ErrorResponse  "Document or target group not found"
// @Failure      503      {object}  ErrorResponse  "Embedding gateway unavailable"
// @Router       /documents/{id} [put]
func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	var req updateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := s.docService.Update(r.Context(), claims.UserID, id, driving.UpdateDocumentRequest{
		Content:   req.Content,
		Metadata:  req.Metadata,
		GroupID:   req.GroupID,
		MoveGroup: req.MoveGroup,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "invalid update")
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "document not found")
		case errors.Is(err, domain.ErrEmbeddingUnavailable), errors.Is(err, domain.ErrServiceUnavailable):
			writeError(w, http.StatusServiceUnavailable, "embedding service unavailable")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update document")
		}
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// handleDeleteDocument godoc
// @Summary      Delete document
// @Description  Delete one of the caller's documents
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Document ID"
// @Success      200  {object}  StatusResponse
// @Failure      400  {object}  ErrorResponse  "Invalid ID"
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Router       /documents/{id} [delete]
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	if err := s.docService.Delete(r.Context(), claims.UserID, id); err != nil {
		switch err {
		case domain.ErrNotFound:
			writeError(w, http.StatusNotFound, "document not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to delete document")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// batchDeleteRequest represents a batch document deletion request
// @Description Batch document deletion request
type batchDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// batchDeleteResponse reports how many documents were removed
// @Description Batch deletion outcome
type batchDeleteResponse struct {
	Deleted int `json:"deleted"`
}

// handleBatchDeleteDocuments godoc
// @Summary      Batch delete documents
// @Description  Delete caller-owned documents by ID. IDs owned by other users are silently skipped.
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      batchDeleteRequest  true  "Document IDs"
// @Success      200      {object}  batchDeleteResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request or empty ID list"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Router       /documents/batch-delete [post]
func (s *Server) handleBatchDeleteDocuments(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req batchDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids are required")
		return
	}

	deleted, err := s.docService.DeleteBatch(r.Context(), claims.UserID, req.IDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete documents")
		return
	}

	writeJSON(w, http.StatusOK, batchDeleteResponse{Deleted: deleted})
}

// Group endpoints

// groupRequest carries a group name for creation and rename
// @Description Group name payload
type groupRequest struct {
	Name string `json:"name" example:"notes"`
}

// handleListGroups godoc
// @Summary      List groups
// @Description  List the caller's groups with derived document counts
// @Tags         Groups
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.GroupWithCount
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Router       /groups [get]
func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	groups, err := s.docService.ListGroups(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list groups")
		return
	}

	writeJSON(w, http.StatusOK, groups)
}

// handleCreateGroup godoc
// @Summary      Create group
// @Description  Create a named group. Names are unique per user.
// @Tags         Groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      groupRequest  true  "Group name"
// @Success      201      {object}  domain.DocumentGroup
// @Failure      400      {object}  ErrorResponse  "Invalid or empty name"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      409      {object}  ErrorResponse  "Name already taken"
// @Router       /groups [post]
func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	group, err := s.docService.CreateGroup(r.Context(), claims.UserID, req.Name)
	if err != nil {
		switch err {
		case domain.ErrInvalidInput:
			writeError(w, http.StatusBadRequest, "invalid group name")
		case domain.ErrGroupNameTaken:
			writeError(w, http.StatusConflict, "group name already taken")
		default:
			writeError(w, http.StatusInternalServerError, "failed to create group")
		}
		return
	}

	writeJSON(w, http.StatusCreated, group)
}

// handleRenameGroup godoc
// @Summary      Rename group
// @Description  Rename one of the caller's groups
// @Tags         Groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int           true  "Group ID"
// @Param        request  body      groupRequest  true  "New name"
// @Success      200      {object}  domain.DocumentGroup
// @Failure      400      {object}  ErrorResponse  "Invalid ID or name"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      404      {object}  ErrorResponse  "Group not found"
// @Failure      409      {object}  ErrorResponse  "Name already taken"
// @Router       /groups/{id} [put]
func (s *Server) handleRenameGroup(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}

	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	group, err := s.docService.RenameGroup(r.Context(), claims.UserID, id, req.Name)
	if err != nil {
		switch err {
		case domain.ErrInvalidInput:
			writeError(w, http.StatusBadRequest, "invalid group name")
		case domain.ErrNotFound:
			writeError(w, http.StatusNotFound, "group not found")
		case domain.ErrGroupNameTaken:
			writeError(w, http.StatusConflict, "group name already taken")
		default:
			writeError(w, http.StatusInternalServerError, "failed to rename group")
		}
		return
	}

	writeJSON(w, http.StatusOK, group)
}

// deleteGroupResponse reports the outcome of a group deletion
// @Description Group deletion outcome
type deleteGroupResponse struct {
	Status           string `json:"status" example:"deleted"`
	DocumentsDeleted int    `json:"documents_deleted"`
}

// handleDeleteGroup godoc
// @Summary      Delete group
// @Description  Delete a group. By default member documents are detached; with cascade=true they are deleted too.
// @Tags         Groups
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int   true   "Group ID"
// @Param        cascade  query     bool  false  "Delete member documents as well"
// @Success      200      {object}  deleteGroupResponse
// @Failure      400      {object}  ErrorResponse  "Invalid ID"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      404      {object}  ErrorResponse  "Group not found"
// @Router       /groups/{id} [delete]
func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}

	mode := domain.GroupDeleteDetach
	if r.URL.Query().Get("cascade") == "true" {
		mode = domain.GroupDeleteCascade
	}

	deleted, err := s.docService.DeleteGroup(r.Context(), claims.UserID, id, mode)
	if err != nil {
		switch err {
		case domain.ErrNotFound:
			writeError(w, http.StatusNotFound, "group not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to delete group")
		}
		return
	}

	writeJSON(w, http.StatusOK, deleteGroupResponse{Status: "deleted", DocumentsDeleted: deleted})
}

// assignGroupRequest moves documents between groups
// @Description Group assignment request. A null group_id detaches the documents.
type assignGroupRequest struct {
	GroupID *int64  `json:"group_id"`
	IDs     []int64 `json:"ids"`
}

// assignGroupResponse reports how many documents were moved
// @Description Group assignment outcome
type assignGroupResponse struct {
	Moved int `json:"moved"`
}

// handleAssignToGroup godoc
// @Summary      Assign documents to group
// @Description  Move caller-owned documents into a group, or detach them when group_id is null. Foreign IDs are silently skipped.
// @Tags         Groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      assignGroupRequest  true  "Target group and document IDs"
// @Success      200      {object}  assignGroupResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request or empty ID list"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      404      {object}  ErrorResponse  "Target group not found"
// @Router       /groups/assign [post]
func (s *Server) handleAssignToGroup(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req assignGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids are required")
		return
	}

	moved, err := s.docService.AssignToGroup(r.Context(), claims.UserID, req.GroupID, req.IDs)
	if err != nil {
		switch err {
		case domain.ErrNotFound:
			writeError(w, http.StatusNotFound, "group not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to assign documents")
		}
		return
	}

	writeJSON(w, http.StatusOK, assignGroupResponse{Moved: moved})
}

// handleExportGroup godoc
// @Summary      Export group
// @Description  Bundle a group's documents for download. Vectors are included unless include_vectors=false.
// @Tags         Groups
// @Produce      json
// @Security     BearerAuth
// @Param        id               path      int   true   "Group ID"
// @Param        include_vectors  query     bool  false  "Include embeddings in the bundle (default true)"
// @Success      200              {object}  domain.GroupExport
// @Failure      400              {object}  ErrorResponse  "Invalid ID"
// @Failure      401              {object}  ErrorResponse  "Unauthorized"
// @Failure      404              {object}  ErrorResponse  "Group not found"
// @Router       /groups/{id}/export [get]
func (s *Server) handleExportGroup(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid group id")
		return
	}

	includeVectors := r.URL.Query().Get("include_vectors") != "false"

	bundle, err := s.docService.ExportGroup(r.Context(), claims.UserID, id, includeVectors)
	if err != nil {
		switch err {
		case domain.ErrNotFound:
			writeError(w, http.StatusNotFound, "group not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to export group")
		}
		return
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", bundle.GroupName+".json"))
	writeJSON(w, http.StatusOK, bundle)
}

// importGroupRequest wraps an export bundle for import
// @Description Group import request
type importGroupRequest struct {
	Bundle             *domain.GroupExport `json:"bundle"`
	UseExistingVectors bool                `json:"use_existing_vectors"`
}

// importGroupResponse reports the outcome of a group import
// @Description Group import outcome
type importGroupResponse struct {
	Group    *domain.DocumentGroup `json:"group"`
	Imported int                   `json:"imported"`
	Failed   int                   `json:"failed"`
}

// handleImportGroup godoc
// @Summary      Import group
// @Description  Recreate an exported bundle under a fresh group. A taken name gets a numeric suffix. Documents without vectors are re-embedded.
// @Tags         Groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      importGroupRequest  true  "Export bundle"
// @Success      201      {object}  importGroupResponse
// @Failure      400      {object}  ErrorResponse  "Invalid bundle or unsupported version"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Router       /groups/import [post]
func (s *Server) handleImportGroup(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req importGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	group, imported, failed, err := s.docService.ImportGroup(r.Context(), claims.UserID, req.Bundle, req.UseExistingVectors)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnsupportedExport):
			writeError(w, http.StatusBadRequest, "unsupported export version")
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "invalid bundle")
		case errors.Is(err, domain.ErrGroupNameTaken):
			writeError(w, http.StatusConflict, "group name already taken")
		default:
			writeError(w, http.StatusInternalServerError, "failed to import group")
		}
		return
	}

	writeJSON(w, http.StatusCreated, importGroupResponse{
		Group:    group,
		Imported: imported,
		Failed:   failed,
	})
}

// RAG endpoints

// ragRequest represents a retrieval-augmented generation request
// @Description RAG query request
type ragRequest struct {
	Question     string  `json:"question" example:"How often do buckets refill?"`
	TopK         int     `json:"top_k,omitempty" example:"5"`
	Similarity   float64 `json:"similarity,omitempty" example:"0.8"`
	Temperature  float64 `json:"temperature,omitempty" example:"0.7"`
	MaxTokens    int     `json:"max_tokens,omitempty" example:"1024"`
	GroupID      *int64  `json:"group_id,omitempty"`
	SystemPrompt string  `json:"system_prompt,omitempty"`
	Model        string  `json:"model,omitempty"`
}

func (req *ragRequest) options() domain.RAGOptions {
	opts := domain.RAGOptions{
		TopK:         req.TopK,
		Similarity:   req.Similarity,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
		GroupID:      req.GroupID,
		SystemPrompt: req.SystemPrompt,
		Model:        req.Model,
	}
	if req.Similarity == 0 {
		opts.Similarity = -1
	}
	return opts
}

// handleRAGQuery godoc
// @Summary      RAG query
// @Description  Retrieve context documents and generate a grounded answer. Empty retrieval yields a fixed no-context answer without calling the LLM.
// @Tags         RAG
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      ragRequest  true  "Question"
// @Success      200      {object}  domain.RAGAnswer
// @Failure      400      {object}  ErrorResponse  "Invalid request or empty question"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      429      {object}  ErrorResponse  "Rate limited"
// @Failure      503      {object}  ErrorResponse  "LLM gateway not configured"
// @Router       /rag [post]
func (s *Server) handleRAGQuery(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ragRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := s.chatService.Query(r.Context(), claims.UserID, req.Question, req.options())
	if err != nil {
		switch err {
		case domain.ErrInvalidInput, domain.ErrInvalidThreshold:
			writeError(w, http.StatusBadRequest, err.Error())
		case domain.ErrServiceUnavailable:
			writeError(w, http.StatusServiceUnavailable, "llm service unavailable")
		default:
			writeError(w, http.StatusInternalServerError, "rag query failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

// handleRAGStream godoc
// @Summary      Streaming RAG query
// @Description  Like the RAG query, but the answer is streamed as Server-Sent Events. Each event is a JSON object with content, done and optional error fields; the sources event precedes generation.
// @Tags         RAG
// @Accept       json
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        request  body  ragRequest  true  "Question"
// @Success      200  {string}  string  "SSE stream"
// @Failure      400  {object}  ErrorResponse  "Invalid request or empty question"
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      429  {object}  ErrorResponse  "Rate limited"
// @Failure      503  {object}  ErrorResponse  "LLM gateway not configured"
// @Router       /rag/stream [post]
func (s *Server) handleRAGStream(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ragRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	chunks, sources, err := s.chatService.QueryStream(r.Context(), claims.UserID, req.Question, req.options())
	if err != nil {
		switch err {
		case domain.ErrInvalidInput, domain.ErrInvalidThreshold:
			writeError(w, http.StatusBadRequest, err.Error())
		case domain.ErrServiceUnavailable:
			writeError(w, http.StatusServiceUnavailable, "llm service unavailable")
		default:
			writeError(w, http.StatusInternalServerError, "rag query failed")
		}
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Sources first, so clients can render citations while tokens arrive
	writeSSE(w, map[string]any{"sources": sources})
	flusher.Flush()

	for chunk := range chunks {
		event := map[string]any{}
		if chunk.Content != "" {
			event["content"] = chunk.Content
		}
		if chunk.Err != nil {
			event["error"] = chunk.Err.Error()
			event["done"] = true
		} else if chunk.Done {
			event["done"] = true
		}
		writeSSE(w, event)
		flusher.Flush()
	}
}

// Settings endpoints

// updateSettingsRequest represents a partial settings update
// @Description Partial settings update. Omitted sections are left untouched.
type updateSettingsRequest struct {
	Embedding         *gatewayUpdate `json:"embedding,omitempty"`
	LLM               *gatewayUpdate `json:"llm,omitempty"`
	DefaultSimilarity *float64       `json:"default_similarity,omitempty"`
	SystemPrompt      *string        `json:"system_prompt,omitempty"`
}

// gatewayUpdate configures one AI gateway
// @Description AI gateway configuration
type gatewayUpdate struct {
	Provider string `json:"provider" example:"openai"`
	Model    string `json:"model" example:"text-embedding-3-large"`
	APIKey   string `json:"api_key"`
	BaseURL  string `json:"base_url,omitempty"`
}

// handleGetSettings godoc
// @Summary      Get settings
// @Description  Get the persisted runtime configuration (admin only). API keys are never returned.
// @Tags         Settings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Settings
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      403  {object}  ErrorResponse  "Forbidden - admin only"
// @Router       /settings [get]
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settingsService.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get settings")
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

// handleUpdateSettings godoc
// @Summary      Update settings
// @Description  Persist configuration changes and hot-reload the affected AI gateways (admin only)
// @Tags         Settings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      updateSettingsRequest  true  "Settings changes"
// @Success      200      {object}  domain.Settings
// @Failure      400      {object}  ErrorResponse  "Invalid provider or tunable out of range"
// @Failure      401      {object}  ErrorResponse  "Unauthorized"
// @Failure      403      {object}  ErrorResponse  "Forbidden - admin only"
// @Router       /settings [put]
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	update := driving.UpdateSettingsRequest{
		DefaultSimilarity: req.DefaultSimilarity,
		SystemPrompt:      req.SystemPrompt,
	}
	if req.Embedding != nil {
		update.Embedding = &domain.GatewaySettings{
			Provider: req.Embedding.Provider,
			Model:    req.Embedding.Model,
			APIKey:   req.Embedding.APIKey,
			BaseURL:  req.Embedding.BaseURL,
		}
	}
	if req.LLM != nil {
		update.LLM = &domain.GatewaySettings{
			Provider: req.LLM.Provider,
			Model:    req.LLM.Model,
			APIKey:   req.LLM.APIKey,
			BaseURL:  req.LLM.BaseURL,
		}
	}

	settings, err := s.settingsService.Update(r.Context(), update)
	if err != nil {
		switch err {
		case domain.ErrInvalidInput, domain.ErrInvalidThreshold, domain.ErrInvalidProvider:
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to update settings")
		}
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeSSE(w http.ResponseWriter, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidInput
	}
	return id, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
