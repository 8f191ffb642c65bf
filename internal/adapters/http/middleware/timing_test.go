package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dq/internal/adapters/http/perf"
)

func statusHandler(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	})
}

// TestTiming_RecordsRouteLabel groups record ids under one route.
func TestTiming_RecordsRouteLabel(t *testing.T) {
	collector := perf.NewCollector(10)
	handler := Timing(collector)(statusHandler(http.StatusOK))

	for _, id := range []string{"41", "42", "65a1f0c2e4b0a1b2c3d4e5f6"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/admin/notices/"+id, nil))
	}

	snap := collector.Snapshot(time.Now().Add(-time.Minute), 10)
	if len(snap.SlowestPaths) != 1 {
		t.Fatalf("SlowestPaths = %+v, want a single route", snap.SlowestPaths)
	}
	got := snap.SlowestPaths[0]
	if got.Path != "GET /api/admin/notices/:id" || got.Count != 3 {
		t.Errorf("stat = %+v, want GET /api/admin/notices/:id x3", got)
	}
	if got.AvgMs < 0 {
		t.Errorf("AvgMs = %v, want >= 0", got.AvgMs)
	}
}

// TestTiming_SkipsAssets leaves stylesheets and icons out of the perf view.
func TestTiming_SkipsAssets(t *testing.T) {
	tests := []struct {
		path    string
		recorded bool
	}{
		{"/site.css", false},
		{"/favicon.ico", false},
		{"/img/Hero.JPG", false},
		{"/donate/winter-relief", true},
		{"/payment/member-success", true},
	}
	for _, tt := range tests {
		collector := perf.NewCollector(10)
		rr := httptest.NewRecorder()
		Timing(collector)(statusHandler(http.StatusOK)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))

		if rr.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", tt.path, rr.Code)
		}
		want := int64(0)
		if tt.recorded {
			want = 1
		}
		if got := collector.TotalRecorded(); got != want {
			t.Errorf("%s: TotalRecorded = %d, want %d", tt.path, got, want)
		}
	}
}

// TestTiming_PassesStatusThrough checks the wrapped writer forwards status codes,
// including the implicit 200 of a bare Write.
func TestTiming_PassesStatusThrough(t *testing.T) {
	collector := perf.NewCollector(10)
	codes := []int{http.StatusBadGateway, http.StatusSeeOther, 0, http.StatusUnauthorized}
	for _, code := range codes {
		var h http.Handler = statusHandler(code)
		want := code
		if code == 0 {
			h = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
			want = http.StatusOK
		}
		rr := httptest.NewRecorder()
		Timing(collector)(h).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/admin/outbox/1/retry", nil))
		if rr.Code != want {
			t.Errorf("status = %d, want %d", rr.Code, want)
		}
	}
	if got := collector.TotalRecorded(); got != int64(len(codes)) {
		t.Errorf("TotalRecorded = %d, want %d", got, len(codes))
	}
}

func TestTiming_NilCollector(t *testing.T) {
	rr := httptest.NewRecorder()
	Timing(nil)(statusHandler(http.StatusNoContent)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rr.Code)
	}
}

// TestTiming_RecordsPanickingHandler still records the request; recovery is
// left to the server.
func TestTiming_RecordsPanickingHandler(t *testing.T) {
	collector := perf.NewCollector(10)
	handler := Timing(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("template exploded")
	}))

	defer func() {
		if recover() == nil {
			t.Fatal("panic was swallowed")
		}
		if collector.TotalRecorded() != 1 {
			t.Errorf("TotalRecorded = %d, want 1", collector.TotalRecorded())
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/dashboard", nil))
}

func BenchmarkTiming(b *testing.B) {
	collector := perf.NewCollector(perf.DefaultRingSize)
	handler := Timing(collector)(statusHandler(http.StatusOK))

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/public/notices", nil))
		}
	})
}
