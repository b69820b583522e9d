package billing

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tallybook/tallybook/internal/platform/httpx"
	"github.com/tallybook/tallybook/internal/shared"
)

// Handler exposes invoices and the receipt ledger over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers invoice and receipt routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", h.listInvoices)
		r.Post("/", h.issueInvoice)
		r.Get("/{id}", h.getInvoice)
	})
	r.Route("/receipts", func(r chi.Router) {
		r.Post("/", h.recordReceipt)
		r.Delete("/{id}", h.deleteReceipt)
	})
}

type receiptResponse struct {
	Receipt *Entry       `json:"receipt,omitempty"`
	Invoice *InvoiceView `json:"invoice"`
}

func (h *Handler) issueInvoice(w http.ResponseWriter, r *http.Request) {
	var input IssueInput
	if err := httpx.DecodeAndValidate(r, h.validate, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	view, err := h.service.IssueInvoice(r.Context(), input)
	if err != nil {
		h.fail(w, r, "issue invoice", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, view)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "get invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, err := h.service.ListInvoices(r.Context(), req)
	if err != nil {
		h.fail(w, r, "list invoices", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) recordReceipt(w http.ResponseWriter, r *http.Request) {
	var input ReceiptInput
	if err := httpx.DecodeAndValidate(r, h.validate, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	view, entry, err := h.service.RecordReceipt(r.Context(), input)
	if err != nil {
		h.fail(w, r, "record receipt", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, receiptResponse{Receipt: entry, Invoice: view})
}

func (h *Handler) deleteReceipt(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.DeleteReceipt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "delete receipt", err)
		return
	}
	httpx.JSON(w, http.StatusOK, receiptResponse{Invoice: view})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	level := slog.LevelError
	if shared.IsClientError(err) {
		level = slog.LevelWarn
	}
	h.logger.Log(r.Context(), level, op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func parseListRequest(r *http.Request) (InvoiceListRequest, error) {
	q := r.URL.Query()
	req := InvoiceListRequest{
		Status:    q.Get("status"),
		ContactID: q.Get("idContact"),
	}
	var err error
	if v := q.Get("from"); v != "" {
		if req.From, err = shared.ParseDate(v); err != nil {
			return req, err
		}
	}
	if v := q.Get("to"); v != "" {
		if req.To, err = shared.ParseDate(v); err != nil {
			return req, err
		}
	}
	req.PageNumber, _ = strconv.Atoi(q.Get("pageNumber"))
	req.PageSize, _ = strconv.Atoi(q.Get("pageSize"))
	return req, nil
}
