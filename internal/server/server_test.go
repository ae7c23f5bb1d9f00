package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/panopticlick/Panopticlick-sub001/internal/methodology"
	"github.com/panopticlick/Panopticlick-sub001/internal/model"
	"github.com/panopticlick/Panopticlick-sub001/internal/pipeline"
	"github.com/panopticlick/Panopticlick-sub001/internal/rtb"
)

const validSubmission = `{
  "meta": {"hash": "sha3-256:test", "collectedAt": "2026-03-01T12:00:00Z"},
  "hardware": {"screen": {"width": 1920, "height": 1080, "colorDepth": 24}, "hardwareConcurrency": 8},
  "software": {"platform": "Win32", "language": "en-US", "timezone": "America/New_York"},
  "capabilities": {"canvasHash": "c0ffee"},
  "network": {"secureDNS": true},
  "testResults": {"canvasBlocking": true}
}`

// memoryStore is an in-memory Store.
type memoryStore struct {
	mu      sync.Mutex
	reports map[string]*model.ValuationReport
	saveErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{reports: make(map[string]*model.ValuationReport)}
}

func (m *memoryStore) SaveReport(_ context.Context, report *model.ValuationReport) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	m.reports[report.Meta.ReportID] = report
	return int64(len(m.reports)), nil
}

func (m *memoryStore) GetReportByReportID(_ context.Context, reportID string) (*model.ValuationReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reports[reportID], nil
}

// failingSource is an rtb.Source that always fails.
type failingSource struct{}

func (failingSource) Float64() (float64, error) {
	return 0, errors.New("entropy pool exhausted")
}

func newTestAssembler(opts ...pipeline.Option) *pipeline.Assembler {
	base := []pipeline.Option{
		pipeline.WithLogger(slog.New(slog.DiscardHandler)),
		pipeline.WithSource(rtb.NewSeededSource(1, 2)),
		pipeline.WithIDGenerator(func() (string, error) { return "report-1", nil }),
		pipeline.WithClock(func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }),
	}
	return pipeline.NewAssembler(methodology.Default(), append(base, opts...)...)
}

func newTestServer(t *testing.T, assembler *pipeline.Assembler, opts ...Option) *Server {
	t.Helper()
	opts = append([]Option{WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	s, err := New(assembler, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

func TestNew(t *testing.T) {
	t.Parallel()

	if _, err := New(nil); !errors.Is(err, ErrNoAssembler) {
		t.Errorf("expected ErrNoAssembler, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, newTestAssembler())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestValuation(t *testing.T) {
	t.Parallel()

	t.Run("valid submission returns a report and stores it", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore()
		s := newTestServer(t, newTestAssembler(), WithStore(store))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/valuations", strings.NewReader(validSubmission))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %q", ct)
		}

		var report model.ValuationReport
		if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
			t.Fatalf("failed to decode report: %v", err)
		}
		if report.Meta.PayloadHash != "sha3-256:test" {
			t.Errorf("expected payload hash to be echoed, got %q", report.Meta.PayloadHash)
		}
		if report.Meta.ReportID != "report-1" {
			t.Errorf("expected report-1, got %q", report.Meta.ReportID)
		}
		if report.Entropy.TotalBits <= 0 {
			t.Errorf("expected positive entropy, got %v", report.Entropy.TotalBits)
		}
		// Canvas blocking is confirmed by the test results and is worth 20 points.
		if report.Defenses.Score < 20 {
			t.Errorf("expected canvas blocking to count, got score %d", report.Defenses.Score)
		}
		if _, ok := store.reports["report-1"]; !ok {
			t.Error("expected report to be stored")
		}
	})

	t.Run("store failure does not fail the request", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore()
		store.saveErr = errors.New("disk full")
		s := newTestServer(t, newTestAssembler(), WithStore(store))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/valuations", strings.NewReader(validSubmission))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	tests := []struct {
		name      string
		assembler *pipeline.Assembler
		opts      []Option
		body      string
		wantCode  int
		wantStep  string
	}{
		{
			name:      "malformed JSON",
			assembler: newTestAssembler(),
			body:      `{"meta":`,
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "missing hash",
			assembler: newTestAssembler(),
			body:      `{"meta": {"collectedAt": "2026-03-01T12:00:00Z"}}`,
			wantCode:  http.StatusBadRequest,
			wantStep:  pipeline.StepValidate,
		},
		{
			name:      "hash mismatch",
			assembler: newTestAssembler(pipeline.WithHashVerification(true)),
			body:      validSubmission,
			wantCode:  http.StatusUnprocessableEntity,
			wantStep:  pipeline.StepValidate,
		},
		{
			name:      "body too large",
			assembler: newTestAssembler(),
			opts:      []Option{WithMaxBodySize(16)},
			body:      validSubmission,
			wantCode:  http.StatusRequestEntityTooLarge,
		},
		{
			name:      "random source failure",
			assembler: newTestAssembler(pipeline.WithSource(failingSource{})),
			body:      validSubmission,
			wantCode:  http.StatusInternalServerError,
			wantStep:  pipeline.StepRTB,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestServer(t, tt.assembler, tt.opts...)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/valuations", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			resp := decodeError(t, rec)
			if resp.Error == "" {
				t.Error("expected an error message")
			}
			if resp.Step != tt.wantStep {
				t.Errorf("expected step %q, got %q", tt.wantStep, resp.Step)
			}
		})
	}

	t.Run("GET is not allowed", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, newTestAssembler())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/valuations", nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})
}

func TestGetReport(t *testing.T) {
	t.Parallel()

	t.Run("stored report is returned", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore()
		store.reports["abc"] = &model.ValuationReport{Meta: model.ReportMeta{ReportID: "abc", PayloadHash: "sha3-256:x"}}
		s := newTestServer(t, newTestAssembler(), WithStore(store))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/abc", nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var report model.ValuationReport
		if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
			t.Fatalf("failed to decode report: %v", err)
		}
		if report.Meta.PayloadHash != "sha3-256:x" {
			t.Errorf("unexpected report: %+v", report.Meta)
		}
	})

	t.Run("unknown report is 404", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, newTestAssembler(), WithStore(newMemoryStore()))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/missing", nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("route is absent without a store", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, newTestAssembler())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/abc", nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestListenAndServeShutdown(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, newTestAssembler())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.ListenAndServe(ctx, "127.0.0.1:0", time.Second)
	}()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServeWithConnectionLimit(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, newTestAssembler(), WithMaxConnections(1))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ctx, ln, time.Second)
	}()

	// Sequential requests on a fresh connection each must all succeed
	// under a cap of one.
	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	for i := range 3 {
		resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i, resp.StatusCode)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("server did not shut down")
	}
}
