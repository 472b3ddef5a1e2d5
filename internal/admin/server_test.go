package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danmuck/nodelet/internal/testutil/testlog"
)

func testServer(registered bool) *Server {
	return New("nodelet-test", ":0", nil, func() Status {
		return Status{
			NodeID:            "node-000001",
			NodeAddress:       "127.0.0.1",
			SocketPath:        "/tmp/x.sock",
			NodeManagerPort:   4100,
			ObjectManagerPort: 4200,
			Registered:        registered,
			Workers:           2,
		}
	})
}

func TestHealthAlwaysOK(t *testing.T) {
	testlog.Start(t)
	s := testServer(false)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health status=%d", w.Code)
	}
}

func TestReadyReflectsRegistration(t *testing.T) {
	testlog.Start(t)
	s := testServer(false)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("unregistered ready status=%d", w.Code)
	}

	s = testServer(true)
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("registered ready status=%d", w.Code)
	}
}

func TestStatusServesSnapshot(t *testing.T) {
	testlog.Start(t)
	s := testServer(true)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status code=%d", w.Code)
	}
	var st Status
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if st.NodeID != "node-000001" || st.NodeManagerPort != 4100 || st.Workers != 2 {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestMetricsEndpointServesPrometheus(t *testing.T) {
	testlog.Start(t)
	s := testServer(true)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_") {
		t.Fatalf("metrics body missing runtime collectors")
	}
}
