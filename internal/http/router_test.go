package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httptransport "ridebook/internal/http"
	"ridebook/internal/modules/booking"
	"ridebook/internal/modules/dispatch"
	"ridebook/internal/modules/ledger"
	"ridebook/internal/types"
)

type stubBooking struct {
	created  booking.CreateCommand
	claimed  booking.ClaimCommand
	filter   booking.ListFilter
	err      error
	awaiting bool
}

func (s *stubBooking) Create(_ context.Context, cmd booking.CreateCommand) (*booking.Created, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = cmd
	return &booking.Created{
		Booking:    &booking.Booking{ID: "bk1", Code: "BKABC", Price: 100_000, Currency: "IDR", Count: cmd.Count},
		Assignment: &booking.Assignment{Awaiting: s.awaiting, Tier: 1, DriverID: "d1", DetailID: "bd1"},
	}, nil
}

func (s *stubBooking) Get(_ context.Context, id types.ID) (*booking.BookingView, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &booking.BookingView{
		Booking: &booking.Booking{ID: id, Code: "BKABC"},
		Details: []booking.Detail{{ID: "bd1", BookingID: id, Status: booking.StatusClaimed}},
		State:   booking.State("CLAIMED"),
	}, nil
}

func (s *stubBooking) Redispatch(context.Context, types.ID) (*booking.Assignment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &booking.Assignment{Awaiting: true}, nil
}

func (s *stubBooking) Claim(_ context.Context, cmd booking.ClaimCommand) (*booking.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.claimed = cmd
	return &booking.Result{DetailID: cmd.DetailID, BookingID: "bk1", Status: booking.StatusClaimed, Delta: -30_000}, nil
}

func (s *stubBooking) Advance(_ context.Context, cmd booking.AdvanceCommand) (*booking.Result, error) {
	return &booking.Result{DetailID: cmd.DetailID, Status: booking.StatusPickingUp}, s.err
}

func (s *stubBooking) Complete(_ context.Context, cmd booking.CompleteCommand) (*booking.Result, error) {
	return &booking.Result{DetailID: cmd.DetailID, Status: booking.StatusCompleted, Royalty: 15_000}, s.err
}

func (s *stubBooking) Cancel(_ context.Context, cmd booking.CancelCommand) (*booking.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &booking.Result{DetailID: cmd.DetailID, Status: booking.StatusCancelled, Delta: 15_000}, nil
}

func (s *stubBooking) ListDetails(_ context.Context, f booking.ListFilter) ([]booking.Detail, error) {
	s.filter = f
	return []booking.Detail{{ID: "bd1", Status: booking.StatusRequested}}, nil
}

type stubWallet struct{}

func (stubWallet) Wallet(_ context.Context, id types.ID, _ int) ([]ledger.WalletEntry, error) {
	return []ledger.WalletEntry{{ID: "w1", DriverID: id, Kind: ledger.KindCommission, Amount: -30_000, BalanceAfter: 20_000}}, nil
}

type stubAwaiting struct{}

func (stubAwaiting) ListAwaiting(context.Context, int) ([]dispatch.Awaiting, error) {
	return []dispatch.Awaiting{{BookingID: "bk9", Since: time.Unix(0, 0).UTC()}}, nil
}

func newRouter(svc *stubBooking) http.Handler {
	return httptransport.NewRouter(httptransport.RouterDeps{
		Booking:  svc,
		Wallet:   stubWallet{},
		Awaiting: stubAwaiting{},
		Gatherer: prometheus.NewRegistry(),
		Log:      zerolog.Nop(),
	})
}

func doRequest(h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestCreateBooking(t *testing.T) {
	svc := &stubBooking{}
	h := newRouter(svc)

	w := doRequest(h, http.MethodPost, "/api/bookings", map[string]any{
		"customer_id": "cust-1",
		"route_type":  "province",
		"pickup_id":   "jakarta",
		"dropoff_id":  "bandung",
		"count":       2,
		"start_at":    "2026-04-02T08:00:00+07:00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, types.ID("cust-1"), svc.created.CustomerID)
	assert.Equal(t, booking.RouteProvince, svc.created.RouteType)

	out := decode(t, w)
	b := out["booking"].(map[string]any)
	assert.Equal(t, "REQUESTED", b["state"])
	assert.Equal(t, float64(100_000), b["price"])
}

func TestCreateBookingAwaitingDriver(t *testing.T) {
	h := newRouter(&stubBooking{awaiting: true})
	w := doRequest(h, http.MethodPost, "/api/bookings", map[string]any{
		"customer_id": "c", "route_type": "airport", "count": 1, "start_at": "2026-04-02T08:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	out := decode(t, w)
	assert.Equal(t, true, out["assignment"].(map[string]any)["awaiting_driver"])
	assert.Equal(t, "AWAITING_DRIVER", out["booking"].(map[string]any)["state"])
}

func TestCreateBookingRejectsMissingFields(t *testing.T) {
	svc := &stubBooking{}
	w := doRequest(newRouter(svc), http.MethodPost, "/api/bookings", map[string]any{"route_type": "airport"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.created.CustomerID)
}

func TestClaimPassesDriverAndReturnsDelta(t *testing.T) {
	svc := &stubBooking{}
	w := doRequest(newRouter(svc), http.MethodPost, "/api/details/bd1/claim", map[string]any{"driver_id": "d1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, booking.ClaimCommand{DetailID: "bd1", DriverID: "d1"}, svc.claimed)

	out := decode(t, w)
	assert.Equal(t, "CLAIMED", out["status"])
	assert.Equal(t, float64(-30_000), out["delta"])
}

func TestLifecycleRoutes(t *testing.T) {
	h := newRouter(&stubBooking{})
	for action, status := range map[string]string{
		"advance":  "PICKING_UP",
		"complete": "COMPLETED",
		"cancel":   "CANCELLED",
	} {
		w := doRequest(h, http.MethodPost, "/api/details/bd1/"+action, map[string]any{"driver_id": "d1"})
		require.Equal(t, http.StatusOK, w.Code, action)
		assert.Equal(t, status, decode(t, w)["status"], action)
	}
}

func TestDriverIDRequired(t *testing.T) {
	w := doRequest(newRouter(&stubBooking{}), http.MethodPost, "/api/details/bd1/claim", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(newRouter(&stubBooking{}), http.MethodPost, "/api/details/bd1/claim", map[string]any{"driver_id": "d 1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{booking.ErrBadRequest, http.StatusBadRequest},
		{booking.ErrDetailNotFound, http.StatusNotFound},
		{booking.ErrInvalidState, http.StatusConflict},
		{ledger.ErrInsufficientBalance, http.StatusConflict},
		{fmt.Errorf("%w: commission_default", types.ErrConfigMissing), http.StatusServiceUnavailable},
		{fmt.Errorf("wrapped: %w", booking.ErrCapacityExceeded), http.StatusConflict},
		{fmt.Errorf("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := doRequest(newRouter(&stubBooking{err: tc.err}), http.MethodPost, "/api/details/bd1/cancel", map[string]any{"driver_id": "d1"})
		assert.Equal(t, tc.code, w.Code, tc.err.Error())
	}
}

func TestGetBookingIncludesDetails(t *testing.T) {
	w := doRequest(newRouter(&stubBooking{}), http.MethodGet, "/api/bookings/bk1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, "CLAIMED", out["state"])
	details := out["details"].([]any)
	require.Len(t, details, 1)
	assert.Equal(t, "CLAIMED", details[0].(map[string]any)["status"])
}

func TestRedispatch(t *testing.T) {
	w := doRequest(newRouter(&stubBooking{}), http.MethodPost, "/api/bookings/bk1/dispatch", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["awaiting_driver"])
}

func TestAdminRoutes(t *testing.T) {
	svc := &stubBooking{}
	h := newRouter(svc)

	w := doRequest(h, http.MethodGet, "/api/admin/details?status=requested&limit=5&offset=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.filter.Status)
	assert.Equal(t, booking.StatusRequested, *svc.filter.Status)
	assert.Equal(t, 5, svc.filter.Limit)
	assert.Equal(t, 10, svc.filter.Offset)

	w = doRequest(h, http.MethodGet, "/api/admin/details?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(h, http.MethodGet, "/api/admin/bookings/awaiting", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["bookings"], 1)
}

func TestWalletAndHealth(t *testing.T) {
	h := newRouter(&stubBooking{})

	w := doRequest(h, http.MethodGet, "/api/drivers/d1/wallet", nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode(t, w)["entries"].([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, "commission", entries[0].(map[string]any)["kind"])

	w = doRequest(h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
