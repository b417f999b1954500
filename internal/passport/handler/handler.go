package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/avelero/passport-service/internal/auth"
	"github.com/avelero/passport-service/internal/catalog"
	"github.com/avelero/passport-service/internal/matrix"
	"github.com/avelero/passport-service/internal/passport"
	"github.com/avelero/passport-service/internal/passport/dto"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PassportHandler struct {
	uc        passport.UseCase
	catalogUC catalog.UseCase
	logger    *zap.Logger
}

func NewPassportHandler(uc passport.UseCase, catalogUC catalog.UseCase, log *zap.Logger) *PassportHandler {
	return &PassportHandler{
		uc:        uc,
		catalogUC: catalogUC,
		logger:    log,
	}
}

func (h *PassportHandler) Routes(r chi.Router) {
	r.Route("/v1/passports", func(r chi.Router) {
		r.Get("/", h.listPassports)
		r.Post("/", h.createPassport)
		r.Post("/import", h.importPassports)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getPassport)
			r.Put("/", h.updatePassport)
			r.Delete("/", h.deletePassport)
			r.Get("/matrix", h.getMatrix)
			r.Post("/matrix/sync", h.syncMatrix)
		})
	})
	r.Get("/v1/attributes", h.listAttributes)
}

func (h *PassportHandler) createPassport(w http.ResponseWriter, r *http.Request) {
	brandID := auth.GetBrandID(r.Context())
	if brandID == "" {
		writeError(w, http.StatusUnauthorized, "missing brand")
		return
	}

	var req struct {
		UPID            string `json:"upid"`
		Name            string `json:"name"`
		Description     string `json:"description"`
		CategoryID      string `json:"category_id"`
		Season          string `json:"season"`
		CountryOfOrigin string `json:"country_of_origin"`
		CareNotes       string `json:"care_notes"`
		ImageURL        string `json:"image_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	p, err := h.uc.CreatePassport(r.Context(), &dto.CreatePassportInput{
		BrandID:         brandID,
		UPID:            req.UPID,
		Name:            req.Name,
		Description:     req.Description,
		CategoryID:      req.CategoryID,
		Season:          req.Season,
		CountryOfOrigin: req.CountryOfOrigin,
		CareNotes:       req.CareNotes,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		h.logger.Error("failed to create passport", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// importPassports accepts either a multipart upload under the "file" field
// or a raw CSV body. The whole file is processed; row failures come back in
// the report rather than aborting the import.
func (h *PassportHandler) importPassports(w http.ResponseWriter, r *http.Request) {
	brandID := auth.GetBrandID(r.Context())
	if brandID == "" {
		writeError(w, http.StatusUnauthorized, "missing brand")
		return
	}

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing csv file upload")
			return
		}
		defer file.Close()
		src = file
	}

	report, err := h.uc.ImportPassports(r.Context(), brandID, src)
	if err != nil {
		if errors.Is(err, passport.ErrImportHeader) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("passport import failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *PassportHandler) getPassport(w http.ResponseWriter, r *http.Request) {
	p, err := h.uc.GetPassport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "passport not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PassportHandler) listPassports(w http.ResponseWriter, r *http.Request) {
	brandID := auth.GetBrandID(r.Context())

	q := r.URL.Query()
	filters := &dto.PassportFilters{
		BrandID:     brandID,
		CategoryID:  q.Get("category_id"),
		Status:      q.Get("status"),
		SearchQuery: q.Get("q"),
		SortBy:      q.Get("sort_by"),
		SortOrder:   q.Get("sort_order"),
		Page:        intQuery(q.Get("page"), 1),
		PageSize:    intQuery(q.Get("page_size"), 20),
	}
	if active := q.Get("is_active"); active != "" {
		b := active == "true"
		filters.IsActive = &b
	}

	products, count, err := h.uc.ListPassports(r.Context(), filters)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"passports": products,
		"total":     count,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

func (h *PassportHandler) updatePassport(w http.ResponseWriter, r *http.Request) {
	brandID := auth.GetBrandID(r.Context())
	if brandID == "" {
		writeError(w, http.StatusUnauthorized, "missing brand")
		return
	}

	var req struct {
		UPID            string `json:"upid"`
		Name            string `json:"name"`
		Description     string `json:"description"`
		CategoryID      string `json:"category_id"`
		Season          string `json:"season"`
		CountryOfOrigin string `json:"country_of_origin"`
		CareNotes       string `json:"care_notes"`
		ImageURL        string `json:"image_url"`
		Status          string `json:"status"`
		IsActive        bool   `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	p, err := h.uc.UpdatePassport(r.Context(), &dto.UpdatePassportInput{
		ID:              chi.URLParam(r, "id"),
		BrandID:         brandID,
		UPID:            req.UPID,
		Name:            req.Name,
		Description:     req.Description,
		CategoryID:      req.CategoryID,
		Season:          req.Season,
		CountryOfOrigin: req.CountryOfOrigin,
		CareNotes:       req.CareNotes,
		ImageURL:        req.ImageURL,
		Status:          req.Status,
		IsActive:        req.IsActive,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PassportHandler) deletePassport(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.DeletePassport(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PassportHandler) getMatrix(w http.ResponseWriter, r *http.Request) {
	brandID := auth.GetBrandID(r.Context())
	if brandID == "" {
		writeError(w, http.StatusUnauthorized, "missing brand")
		return
	}

	session, err := h.uc.NewMatrixSession(r.Context(), brandID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	st := session.State()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"dimensions": st.Dimensions,
		"rows":       st.Rows(),
	})
}

// matrixSyncRequest is the client's full matrix state at submit time. It is
// converted into reconciler types once, here at the boundary.
type matrixSyncRequest struct {
	Dimensions []matrix.Dimension             `json:"dimensions"`
	Enabled    []matrix.Key                   `json:"enabled_keys"`
	Metadata   map[matrix.Key]matrix.Meta     `json:"metadata"`
	Collapsed  map[matrix.Key]matrix.Identity `json:"collapsed"`
	Explicit   []matrix.ExplicitVariant       `json:"explicit"`
}

func (h *PassportHandler) syncMatrix(w http.ResponseWriter, r *http.Request) {
	brandID := auth.GetBrandID(r.Context())
	if brandID == "" {
		writeError(w, http.StatusUnauthorized, "missing brand")
		return
	}
	productID := chi.URLParam(r, "id")

	var req matrixSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	session, err := h.uc.NewMatrixSession(r.Context(), brandID, productID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Overlay the client's edited state on the hydrated persisted oracle.
	st := session.State()
	st.Dimensions = req.Dimensions
	st.Enabled = map[matrix.Key]struct{}{}
	for _, k := range req.Enabled {
		st.Enabled[k] = struct{}{}
	}
	st.Metadata = map[matrix.Key]matrix.Meta{}
	for k, m := range req.Metadata {
		st.Metadata[k] = m
	}
	st.Collapsed = map[matrix.Key]matrix.Identity{}
	for k, id := range req.Collapsed {
		st.Collapsed[k] = id
	}
	st.Explicit = req.Explicit

	plan, err := session.Submit(r.Context())
	if err != nil {
		var verr *matrix.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"error":  "validation failed",
				"fields": verr.Fields,
			})
			return
		}
		h.logger.Error("matrix sync failed",
			zap.String("product_id", productID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	st = session.State()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"plan":       plan,
		"dimensions": st.Dimensions,
		"rows":       st.Rows(),
	})
}

func (h *PassportHandler) listAttributes(w http.ResponseWriter, r *http.Request) {
	brandID := auth.GetBrandID(r.Context())
	if brandID == "" {
		writeError(w, http.StatusUnauthorized, "missing brand")
		return
	}

	attrs, err := h.catalogUC.ListAttributes(r.Context(), brandID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"attributes": attrs})
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
