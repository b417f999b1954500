package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/avelero/passport-service/internal/auth"
	"github.com/avelero/passport-service/internal/category"
	"github.com/avelero/passport-service/internal/category/dto"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CategoryHandler struct {
	uc     category.UseCase
	logger *zap.Logger
}

func NewCategoryHandler(uc category.UseCase, log *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CategoryHandler) Routes(r chi.Router) {
	r.Route("/v1/categories", func(r chi.Router) {
		r.Get("/", h.listCategories)
		r.Post("/", h.createCategory)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getCategory)
			r.Put("/", h.updateCategory)
			r.Delete("/", h.deleteCategory)
		})
	})
}

type categoryRequest struct {
	ParentID    *string `json:"parent_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	SortOrder   int     `json:"sort_order"`
	IsActive    bool    `json:"is_active"`
}

func (h *CategoryHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	brandID := auth.GetBrandID(r.Context())
	if brandID == "" {
		writeError(w, http.StatusUnauthorized, "missing brand")
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	cat, err := h.uc.CreateCategory(r.Context(), &dto.CreateCategoryInput{
		BrandID:     brandID,
		ParentID:    req.ParentID,
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		h.logger.Error("failed to create category", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, cat)
}

func (h *CategoryHandler) getCategory(w http.ResponseWriter, r *http.Request) {
	cat, err := h.uc.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if cat == nil {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func (h *CategoryHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	brandID := auth.GetBrandID(r.Context())
	if brandID == "" {
		writeError(w, http.StatusUnauthorized, "missing brand")
		return
	}

	q := r.URL.Query()
	filters := &dto.CategoryFilters{
		BrandID:  brandID,
		Page:     intQuery(q.Get("page"), 1),
		PageSize: intQuery(q.Get("page_size"), 50),
	}
	if q.Has("parent_id") {
		parentID := q.Get("parent_id")
		filters.ParentID = &parentID
	}
	if active := q.Get("is_active"); active != "" {
		b := active == "true"
		filters.IsActive = &b
	}

	categories, count, err := h.uc.ListCategories(r.Context(), filters)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"total":      count,
		"page":       filters.Page,
		"page_size":  filters.PageSize,
	})
}

func (h *CategoryHandler) updateCategory(w http.ResponseWriter, r *http.Request) {
	brandID := auth.GetBrandID(r.Context())
	if brandID == "" {
		writeError(w, http.StatusUnauthorized, "missing brand")
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	cat, err := h.uc.UpdateCategory(r.Context(), &dto.UpdateCategoryInput{
		ID:          chi.URLParam(r, "id"),
		BrandID:     brandID,
		ParentID:    req.ParentID,
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		SortOrder:   req.SortOrder,
		IsActive:    req.IsActive,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func (h *CategoryHandler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func intQuery(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return n
	}
	return fallback
}
