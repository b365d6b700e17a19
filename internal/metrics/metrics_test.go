package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareRecordsRequests(t *testing.T) {
	handler := Middleware("editor-test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	before := testutil.ToFloat64(httpRequests.WithLabelValues("editor-test", "GET", "/brew", "418"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/brew", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("middleware must not alter the response, got %d", rec.Code)
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues("editor-test", "GET", "/brew", "418"))
	if after != before+1 {
		t.Fatalf("expected counter to advance by 1, got %v -> %v", before, after)
	}
}

func TestMiddlewareDefaultsStatusTo200(t *testing.T) {
	handler := Middleware("editor-test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("implicit ok"))
	}))

	before := testutil.ToFloat64(httpRequests.WithLabelValues("editor-test", "GET", "/implicit", "200"))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/implicit", nil))
	after := testutil.ToFloat64(httpRequests.WithLabelValues("editor-test", "GET", "/implicit", "200"))
	if after != before+1 {
		t.Fatalf("expected 200 label for implicit status, got %v -> %v", before, after)
	}
}

func TestRoomAndConnectionGauges(t *testing.T) {
	base := testutil.ToFloat64(roomsActive)
	RoomCreated()
	RoomCreated()
	RoomDestroyed()
	if got := testutil.ToFloat64(roomsActive); got != base+1 {
		t.Fatalf("rooms gauge: expected %v, got %v", base+1, got)
	}
	RoomDestroyed()

	base = testutil.ToFloat64(wsConnections)
	ConnectionOpened()
	if got := testutil.ToFloat64(wsConnections); got != base+1 {
		t.Fatalf("connections gauge: expected %v, got %v", base+1, got)
	}
	ConnectionClosed()
}

func TestHandlerServesExposition(t *testing.T) {
	EventApplied("join-room")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from exposition endpoint, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "editor_ws_events_total") {
		t.Fatalf("expected editor namespace metrics in exposition output")
	}
}

func TestRecorderHijackWithoutHijacker(t *testing.T) {
	rec := &responseRecorder{ResponseWriter: httptest.NewRecorder()}
	if _, _, err := rec.Hijack(); err == nil {
		t.Fatalf("expected error when the underlying writer cannot hijack")
	}
}
