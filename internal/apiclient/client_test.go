package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tallybook/tallybook/internal/billing"
	"github.com/tallybook/tallybook/internal/listing"
	"github.com/tallybook/tallybook/internal/platform/httpx"
	"github.com/tallybook/tallybook/internal/reports"
	"github.com/tallybook/tallybook/internal/shared"
)

func march() reports.Request {
	return reports.Request{StartDate: shared.MustParseDate("2024-03-01"), EndDate: shared.MustParseDate("2024-03-31")}
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		check  func(t *testing.T, err error)
	}{
		{http.StatusUnauthorized, func(t *testing.T, err error) { require.ErrorIs(t, err, shared.ErrUnauthorized) }},
		{http.StatusForbidden, func(t *testing.T, err error) { require.ErrorIs(t, err, shared.ErrUnauthorized) }},
		{http.StatusNotFound, func(t *testing.T, err error) { require.ErrorIs(t, err, shared.ErrNotFound) }},
		{http.StatusInternalServerError, func(t *testing.T, err error) {
			var terr *shared.TransportError
			require.ErrorAs(t, err, &terr)
			require.Equal(t, http.StatusInternalServerError, terr.StatusCode)
			require.ErrorIs(t, err, shared.ErrTransport)
			require.Equal(t, "database unavailable", terr.Message)
		}},
		{http.StatusUnprocessableEntity, func(t *testing.T, err error) {
			require.ErrorIs(t, err, shared.ErrTransport)
			require.ErrorIs(t, err, shared.ErrAmountExceedsOutstanding)
		}},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				httpx.Problem(w, tc.status, "Failure", "database unavailable")
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, "", nil).ShiftReport(context.Background(), march())
			tc.check(t, err)
		})
	}
}

func TestNetworkFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, "", nil).KmReport(context.Background(), march())
	var terr *shared.TransportError
	require.ErrorAs(t, err, &terr)
	require.Zero(t, terr.StatusCode)
	require.ErrorIs(t, err, shared.ErrTransport)
}

func TestReportSendsBodyAndToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reports/tax", r.URL.Path)
		require.Equal(t, "Bearer s3cret", r.Header.Get("Authorization"))
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "2024-03-01", req["startDate"])
		require.NotContains(t, req, "idContact")
		httpx.JSON(w, http.StatusOK, reports.TaxReport{Summary: reports.TaxSummary{NetTotalInclGST: decimal.RequireFromString("12.5")}})
	}))
	defer srv.Close()

	req := march()
	req.ContactID = "c1"
	out, err := NewClient(srv.URL, "s3cret", nil).TaxReport(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "12.50", out.Summary.NetTotalInclGST.StringFixed(2))
}

func TestValidationHappensBeforeTransport(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "", nil)
	ctx := context.Background()

	_, err := c.IncidentReport(ctx, reports.Request{StartDate: shared.MustParseDate("2024-04-01"), EndDate: shared.MustParseDate("2024-03-01")})
	require.ErrorIs(t, err, shared.ErrInvalidDateRange)

	_, err = c.RecordReceipt(ctx, billing.ReceiptInput{Kind: billing.EntryPayment, InvoiceID: "i1", AmountInclGST: decimal.Zero})
	require.ErrorIs(t, err, shared.ErrInvalidAmount)

	_, err = c.RecordReceipt(ctx, billing.ReceiptInput{Kind: billing.EntryPayment, InvoiceID: "i1", AmountInclGST: decimal.NewFromInt(-3)})
	require.ErrorIs(t, err, shared.ErrInvalidAmount)

	_, err = c.RecordReceipt(ctx, billing.ReceiptInput{Kind: "refund", InvoiceID: "i1", AmountInclGST: decimal.NewFromInt(3)})
	require.ErrorIs(t, err, shared.ErrValidation)

	require.Zero(t, hits.Load())
}

func TestRecordAndDeleteReceipt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/receipts":
			var in billing.ReceiptInput
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			httpx.JSON(w, http.StatusCreated, ReceiptResult{
				Receipt: &billing.Entry{ID: "r1", InvoiceID: in.InvoiceID, Kind: in.Kind, AmountInclGST: in.AmountInclGST},
				Invoice: &billing.InvoiceView{Status: billing.StatusUnpaid},
			})
		case r.Method == http.MethodDelete && r.URL.Path == "/receipts/r1":
			httpx.JSON(w, http.StatusOK, ReceiptResult{Invoice: &billing.InvoiceView{Status: billing.StatusOverdue}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "", nil)
	ctx := context.Background()

	res, err := c.RecordReceipt(ctx, billing.ReceiptInput{Kind: billing.EntryWriteOff, InvoiceID: "i1", AmountInclGST: decimal.RequireFromString("60")})
	require.NoError(t, err)
	require.Equal(t, "r1", res.Receipt.ID)
	require.Equal(t, "60.00", res.Receipt.AmountInclGST.StringFixed(2))

	view, err := c.DeleteReceipt(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, billing.StatusOverdue, view.Status)

	_, err = c.DeleteReceipt(ctx, "missing")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestFetcherDrivesController(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/invoices", r.URL.Path)
		q := r.URL.Query()
		require.Equal(t, "overdue", q.Get("status"))
		require.Equal(t, "-1", q.Get("idContact"))
		require.False(t, q.Has("from"))
		require.Equal(t, "1", q.Get("pageNumber"))
		httpx.JSON(w, http.StatusOK, shared.Page[billing.InvoiceView]{
			Data: []billing.InvoiceView{{Invoice: billing.Invoice{ID: "i9"}, Status: billing.StatusOverdue}},
			Meta: shared.Meta{Total: 1, PageNumber: 1, PageSize: 20, TotalPages: 1},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil)
	ctrl := listing.NewController[billing.InvoiceView](listing.Invoices, NewFetcher[billing.InvoiceView](c, listing.Invoices), nil)
	require.NoError(t, ctrl.SetFilters(context.Background(), map[string]string{listing.KeyStatus: "overdue"}))

	state := ctrl.State()
	require.Equal(t, 1, state.Total)
	require.Equal(t, "i9", state.Data[0].ID)
}

func TestFetcherFailureKeepsControllerData(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		httpx.JSON(w, http.StatusOK, shared.Page[reports.Expense]{Data: []reports.Expense{{ID: "e1"}}, Meta: shared.Meta{Total: 1}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", nil)
	ctrl := listing.NewController[reports.Expense](listing.Expenses, NewFetcher[reports.Expense](c, listing.Expenses), nil)
	ctx := context.Background()
	require.NoError(t, ctrl.ReloadList(ctx))

	fail.Store(true)
	err := ctrl.SetFilters(ctx, map[string]string{listing.KeyType: "kilometre"})
	require.True(t, errors.Is(err, shared.ErrTransport))
	require.Equal(t, "e1", ctrl.State().Data[0].ID)
}
