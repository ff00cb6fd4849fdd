package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sd155/subtasker/internal/llm"
	"github.com/sd155/subtasker/internal/llm/llmtest"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return m, reg
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(reg); err != nil {
		t.Fatalf("first New failed: %v", err)
	}
	if _, err := New(reg); err == nil {
		t.Fatal("second New on the same registry should fail")
	}
}

func TestObserveTurn(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.ObserveTurn("done", time.Second)
	m.ObserveTurn("done", 2*time.Second)
	m.ObserveTurn("error", time.Second)

	if got := testutil.ToFloat64(m.turns.WithLabelValues("done")); got != 2 {
		t.Errorf("turns{done} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.turns.WithLabelValues("error")); got != 1 {
		t.Errorf("turns{error} = %v, want 1", got)
	}
}

func TestSetPendingAndDropped(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.SetPending(3)
	m.IncDroppedEvents()

	if got := testutil.ToFloat64(m.pending); got != 3 {
		t.Errorf("pending = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.droppedEvents); got != 1 {
		t.Errorf("dropped = %v, want 1", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveTurn("done", time.Second)
	m.SetPending(1)
	m.IncDroppedEvents()
	m.ObserveGateway("checker", true, time.Second)

	g := llmtest.NewGateway()
	if m.InstrumentGateway("checker", g) != llm.Gateway(g) {
		t.Error("nil metrics should return the gateway unwrapped")
	}
}

func TestInstrumentGateway(t *testing.T) {
	m, reg := newTestMetrics(t)
	g := m.InstrumentGateway("decomposer", llmtest.NewGateway(llmtest.OK("{}"), llmtest.Fail("boom")))

	if res := g.Send(context.Background(), []llm.Element{llm.UserElement("a")}); !res.IsSuccess() {
		t.Fatal("first call should succeed")
	}
	if res := g.Send(context.Background(), []llm.Element{llm.UserElement("b")}); res.IsSuccess() {
		t.Fatal("second call should fail")
	}

	if n := testutil.CollectAndCount(m.gatewayDuration); n != 2 {
		t.Errorf("gateway series = %d, want 2 (ok and error)", n)
	}
	if n, err := testutil.GatherAndCount(reg, "subtasker_llm_request_duration_seconds"); err != nil || n != 2 {
		t.Errorf("GatherAndCount = %d, %v; want 2, nil", n, err)
	}
}

func TestServe(t *testing.T) {
	m, reg := newTestMetrics(t)
	m.ObserveTurn("query_answered", time.Second)

	srv, err := Serve("127.0.0.1:0", reg, nil)
	if err != nil {
		t.Fatalf("Serve failed: %v", err)
	}
	defer srv.Shutdown(context.Background())

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), `subtasker_chat_turns_total{state="query_answered"} 1`) {
		t.Errorf("metrics output missing turn counter:\n%s", body)
	}
}
