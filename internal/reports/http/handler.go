package reporthttp

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tallybook/tallybook/internal/platform/httpx"
	"github.com/tallybook/tallybook/internal/reports"
	"github.com/tallybook/tallybook/internal/reports/export"
	"github.com/tallybook/tallybook/internal/shared"
)

// Handler serves report generation, exports and the expense list.
type Handler struct {
	logger   *slog.Logger
	service  *reports.Service
	validate *validator.Validate
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *reports.Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Post("/shifts", h.handleReport(reports.KindShifts))
		r.Post("/kms", h.handleReport(reports.KindKms))
		r.Post("/tax", h.handleReport(reports.KindTax))
		r.Post("/invoices", h.handleReport(reports.KindInvoices))
		r.Post("/incidents", h.handleReport(reports.KindIncidents))
		r.Get("/{kind}/export.csv", h.handleExport(formatCSV))
		r.Get("/{kind}/export.pdf", h.handleExport(formatPDF))
	})
	r.Get("/expenses", h.listExpenses)
}

type format string

const (
	formatCSV format = "csv"
	formatPDF format = "pdf"
)

func (h *Handler) handleReport(kind reports.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reports.Request
		if err := httpx.DecodeAndValidate(r, h.validate, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
		result, err := h.generate(r, kind, req)
		if err != nil {
			h.fail(w, r, kind, err)
			return
		}
		httpx.JSON(w, http.StatusOK, result)
	}
}

func (h *Handler) handleExport(f format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := reports.Kind(chi.URLParam(r, "kind"))
		req, err := parseExportRequest(r)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		result, err := h.generate(r, kind, req)
		if err != nil {
			h.fail(w, r, kind, err)
			return
		}
		table, err := export.Build(kind, req, result)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}

		buf := &bytes.Buffer{}
		contentType := "text/csv"
		if f == formatPDF {
			contentType = "application/pdf"
			err = export.WritePDF(buf, table)
		} else {
			err = export.WriteCSV(buf, table)
		}
		if err != nil {
			h.fail(w, r, kind, err)
			return
		}
		filename := fmt.Sprintf("%s-%s-%s.%s", kind, req.StartDate, req.EndDate, f)
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}

func (h *Handler) generate(r *http.Request, kind reports.Kind, req reports.Request) (any, error) {
	ctx := r.Context()
	switch kind {
	case reports.KindShifts:
		return h.service.ShiftReport(ctx, req)
	case reports.KindKms:
		return h.service.KmReport(ctx, req)
	case reports.KindTax:
		return h.service.TaxReport(ctx, req)
	case reports.KindInvoices:
		return h.service.InvoiceReport(ctx, req)
	case reports.KindIncidents:
		return h.service.IncidentReport(ctx, req)
	default:
		return nil, fmt.Errorf("%w: report %q", shared.ErrNotFound, kind)
	}
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := reports.ExpenseListRequest{
		ContactID:  q.Get("idContact"),
		AssigneeID: q.Get("idAssignee"),
		Type:       q.Get("type"),
		Search:     q.Get("search"),
	}
	var err error
	if v := q.Get("from"); v != "" {
		if req.From, err = shared.ParseDate(v); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	if v := q.Get("to"); v != "" {
		if req.To, err = shared.ParseDate(v); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	req.PageNumber, _ = strconv.Atoi(q.Get("pageNumber"))
	req.PageSize, _ = strconv.Atoi(q.Get("pageSize"))

	page, err := h.service.ListExpenses(r.Context(), req)
	if err != nil {
		h.logger.Error("list expenses", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, kind reports.Kind, err error) {
	if shared.IsClientError(err) {
		h.logger.Warn("report rejected", slog.String("report", string(kind)), slog.Any("error", err))
	} else {
		h.logger.ErrorContext(r.Context(), "report failed", slog.String("report", string(kind)), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func parseExportRequest(r *http.Request) (reports.Request, error) {
	q := r.URL.Query()
	req := reports.Request{
		ContactID:  q.Get("idContact"),
		AssigneeID: q.Get("idAssignee"),
	}
	var err error
	if req.StartDate, err = shared.ParseDate(q.Get("startDate")); err != nil {
		return req, err
	}
	if req.EndDate, err = shared.ParseDate(q.Get("endDate")); err != nil {
		return req, err
	}
	if v := q.Get("limit"); v != "" {
		if req.Limit, err = strconv.Atoi(v); err != nil {
			return req, fmt.Errorf("%w: limit %q", shared.ErrValidation, v)
		}
	}
	return req, nil
}
