// Package rest provides the HTTP surface of the inventory service.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	serrors "github.com/abgdnv/stocktrack/internal/errors"
	"github.com/abgdnv/stocktrack/internal/service"
	"github.com/abgdnv/stocktrack/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  service.InventoryService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new Handler around the inventory service.
func NewHandler(svc service.InventoryService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  svc,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the inventory service.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/categories", h.Categories)

		r.Route("/items", func(r chi.Router) {
			r.Get("/", h.Items)
			r.Post("/bulk-delete", h.BeginBulkDelete)
			r.Post("/bulk-delete/confirm", h.ConfirmBulkDelete)

			r.Route("/{barcode}", func(r chi.Router) {
				r.Get("/edit", h.BeginEdit)
				r.Put("/", h.UpdateItem)
				r.Delete("/", h.DeleteItem)
			})
		})
	})

	r.Get("/healthz", h.HealthCheck)
}

// itemUpdateDto carries the editable item fields of a save request.
type itemUpdateDto struct {
	Name       string `json:"name"       validate:"required"`
	Quantity   string `json:"quantity"   validate:"required"`
	ExpiryDate string `json:"expiryDate" validate:"required"`
}

// bulkDeleteBeginDto opens a bulk delete for one category.
type bulkDeleteBeginDto struct {
	Category string `json:"category" validate:"required"`
}

// bulkDeleteConfirmDto echoes a confirmation token back to execute it.
type bulkDeleteConfirmDto struct {
	Token        string `json:"token"        validate:"required"`
	Confirmation string `json:"confirmation" validate:"required"`
}

// Categories returns the category names in store order.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	names, err := h.service.Categories(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error loading categories", "error", err)
		web.RespondError(w, mLogger, http.StatusBadGateway, "Failed to load categories")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully loaded categories", "count", len(names))
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]any{"categories": names})
}

// Items returns a fresh snapshot of the items for the category query param.
func (h *Handler) Items(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	category := r.URL.Query().Get("category")
	if category == "" {
		web.RespondError(w, mLogger, http.StatusBadRequest, "category query parameter is required")
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to sync items", "category", category)
	snapshot, err := h.service.ItemsByCategory(r.Context(), category)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error syncing items", "category", category, "error", err)
		web.RespondError(w, mLogger, http.StatusBadGateway, fmt.Sprintf("Failed to fetch items for category %s", category))
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully synced items", "category", category, "count", len(snapshot.Items))
	web.RespondJSON(w, mLogger, http.StatusOK, snapshot)
}

// BeginEdit returns the prefilled edit draft for an item.
func (h *Handler) BeginEdit(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	barcode, ok := h.parseBarcode(w, r, mLogger)
	if !ok {
		return
	}
	draft, err := h.service.BeginEdit(r.Context(), barcode)
	if err != nil {
		if errors.Is(err, serrors.ErrItemNotFound) {
			mLogger.WarnContext(r.Context(), "Item not found for edit", "barcode", barcode)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Item with barcode %s not found", barcode))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error preparing edit", "barcode", barcode, "error", err)
		web.RespondError(w, mLogger, http.StatusBadGateway, fmt.Sprintf("Failed to load item with barcode %s", barcode))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, draft)
}

// UpdateItem saves an edit onto every record matching the barcode.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	barcode, ok := h.parseBarcode(w, r, mLogger)
	if !ok {
		return
	}
	var dto itemUpdateDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.validateStruct(w, r, mLogger, dto) {
		return
	}

	result, err := h.service.UpdateItem(r.Context(), barcode, service.ItemUpdate{
		Name:       dto.Name,
		Quantity:   dto.Quantity,
		ExpiryDate: dto.ExpiryDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, serrors.ErrValidation):
			mLogger.WarnContext(r.Context(), "Update rejected by validation", "barcode", barcode, "error", err)
			web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
		case errors.Is(err, serrors.ErrItemNotFound):
			mLogger.WarnContext(r.Context(), "Item not found for update", "barcode", barcode)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Item with barcode %s not found", barcode))
		default:
			mLogger.ErrorContext(r.Context(), "Error updating item", "barcode", barcode, "error", err)
			web.RespondError(w, mLogger, http.StatusBadGateway, fmt.Sprintf("Failed to update item with barcode %s", barcode))
		}
		return
	}
	mLogger.InfoContext(r.Context(), "Item updated successfully", "barcode", barcode, "records", result.Updated)
	web.RespondJSON(w, mLogger, http.StatusOK, result)
}

// DeleteItem deletes every record matching the barcode.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	barcode, ok := h.parseBarcode(w, r, mLogger)
	if !ok {
		return
	}
	report, err := h.service.DeleteItem(r.Context(), barcode)
	if err != nil {
		if errors.Is(err, serrors.ErrItemNotFound) {
			mLogger.WarnContext(r.Context(), "Item not found for deletion", "barcode", barcode)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Item with barcode %s not found", barcode))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error deleting item", "barcode", barcode, "error", err)
		web.RespondError(w, mLogger, http.StatusBadGateway, fmt.Sprintf("Failed to delete item with barcode %s", barcode))
		return
	}
	mLogger.InfoContext(r.Context(), "Item delete completed", "barcode", barcode, "deleted", report.Deleted, "failed", report.Failed)
	web.RespondJSON(w, mLogger, http.StatusOK, report)
}

// BeginBulkDelete opens a confirmation-gated bulk delete and returns its token.
func (h *Handler) BeginBulkDelete(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto bulkDeleteBeginDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.validateStruct(w, r, mLogger, dto) {
		return
	}

	ticket, err := h.service.BeginBulkDelete(r.Context(), dto.Category)
	if err != nil {
		switch {
		case errors.Is(err, serrors.ErrNoCategories):
			web.RespondError(w, mLogger, http.StatusConflict, "No categories available")
		case errors.Is(err, serrors.ErrNothingToDelete):
			web.RespondError(w, mLogger, http.StatusConflict, fmt.Sprintf("No items to delete for category %s", dto.Category))
		default:
			mLogger.ErrorContext(r.Context(), "Error opening bulk delete", "category", dto.Category, "error", err)
			web.RespondError(w, mLogger, http.StatusBadGateway, "Failed to open bulk delete")
		}
		return
	}
	mLogger.InfoContext(r.Context(), "Bulk delete pending", "category", ticket.Category)
	web.RespondJSON(w, mLogger, http.StatusAccepted, ticket)
}

// ConfirmBulkDelete executes a pending bulk delete when the typed
// confirmation matches its token.
func (h *Handler) ConfirmBulkDelete(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto bulkDeleteConfirmDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !h.validateStruct(w, r, mLogger, dto) {
		return
	}

	report, err := h.service.ConfirmBulkDelete(r.Context(), dto.Token, dto.Confirmation)
	if err != nil {
		if errors.Is(err, serrors.ErrConfirmMismatch) {
			mLogger.WarnContext(r.Context(), "Bulk delete confirmation rejected")
			web.RespondError(w, mLogger, http.StatusConflict, "Incorrect confirmation text, deletion canceled")
			return
		}
		mLogger.ErrorContext(r.Context(), "Error executing bulk delete", "error", err)
		web.RespondError(w, mLogger, http.StatusBadGateway, "Failed to execute bulk delete")
		return
	}
	mLogger.InfoContext(r.Context(), "Bulk delete completed",
		"category", report.Category, "deleted", report.Deleted, "failed", report.Failed)
	web.RespondJSON(w, mLogger, http.StatusOK, report)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// parseBarcode extracts the barcode path parameter.
func (h *Handler) parseBarcode(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (string, bool) {
	barcode := chi.URLParam(r, "barcode")
	if barcode == "" {
		web.RespondError(w, logger, http.StatusBadRequest, "barcode path parameter is required")
		return "", false
	}
	return barcode, true
}

// validateStruct runs struct validation and writes the field errors on failure.
func (h *Handler) validateStruct(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dto any) bool {
	err := h.validate.Struct(dto)
	if err == nil {
		return true
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		errorResponse := make(map[string]string)
		for _, fieldErr := range validationErrors {
			errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
		}
		logger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
		web.RespondJSON(w, logger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
		return false
	}
	logger.ErrorContext(r.Context(), "Error validating request body", "error", err)
	web.RespondError(w, logger, http.StatusBadRequest, "Invalid request body")
	return false
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID, _ := web.GetRequestID(r.Context())
	return h.logger.With("request_id", reqID)
}
