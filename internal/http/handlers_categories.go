package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

type categoryJSON struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Icon     string `json:"icon,omitempty"`
	Color    string `json:"color,omitempty"`
	IsSystem bool   `json:"is_system"`
}

func toCategoryJSON(c core.Category) categoryJSON {
	return categoryJSON{
		ID:       c.ID,
		Name:     c.Name,
		Type:     string(c.Type),
		Icon:     c.Icon,
		Color:    c.Color,
		IsSystem: c.IsSystem,
	}
}

type createCategoryRequest struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req createCategoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	c := core.Category{
		UserID: userID,
		Name:   sanitizeInput(req.Name),
		Type:   core.TransactionType(req.Type),
		Icon:   sanitizeInput(req.Icon),
		Color:  sanitizeInput(req.Color),
	}
	created, err := s.svc.Categories.Create(r.Context(), c)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryJSON(created))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	list, err := s.svc.Categories.FindAll(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]categoryJSON, 0, len(list))
	for _, c := range list {
		out = append(out, toCategoryJSON(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	c, err := s.svc.Categories.FindOne(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryJSON(c))
}

type updateCategoryRequest struct {
	Name  *string `json:"name,omitempty"`
	Icon  *string `json:"icon,omitempty"`
	Color *string `json:"color,omitempty"`
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req updateCategoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	patch := services.CategoryPatch{
		Name:  sanitizePtr(req.Name),
		Icon:  sanitizePtr(req.Icon),
		Color: sanitizePtr(req.Color),
	}
	c, err := s.svc.Categories.Update(r.Context(), r.PathValue("id"), userID, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryJSON(c))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	if err := s.svc.Categories.Remove(r.Context(), r.PathValue("id"), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
