package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDialogObserverCounts(t *testing.T) {
	obs := DialogObserver{}
	before := testutil.ToFloat64(dialogStepsTotal.WithLabelValues("order", "date_selection", "reprompted"))
	obs.Reprompted("order", "date_selection")
	obs.Reprompted("Order", "date_selection")
	if got := testutil.ToFloat64(dialogStepsTotal.WithLabelValues("order", "date_selection", "reprompted")); got != before+2 {
		t.Fatalf("reprompted = %v, want %v", got, before+2)
	}

	completed := testutil.ToFloat64(dialogEventsTotal.WithLabelValues("order", "complete"))
	obs.Completed("order")
	if got := testutil.ToFloat64(dialogEventsTotal.WithLabelValues("order", "complete")); got != completed+1 {
		t.Fatalf("complete = %v", got)
	}
}

func TestIncSent(t *testing.T) {
	ok := testutil.ToFloat64(messagesSentTotal.WithLabelValues("ok"))
	fail := testutil.ToFloat64(messagesSentTotal.WithLabelValues("fail"))
	IncSent(nil)
	IncSent(errors.New("boom"))
	if testutil.ToFloat64(messagesSentTotal.WithLabelValues("ok")) != ok+1 {
		t.Fatal("ok counter not incremented")
	}
	if testutil.ToFloat64(messagesSentTotal.WithLabelValues("fail")) != fail+1 {
		t.Fatal("fail counter not incremented")
	}
}

func TestRouterServesMetricsAndHealth(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(updatesTotal)
	IncUpdate("message", "ok")

	h := Router(reg)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `orderbot_updates_total{kind="message",outcome="ok"}`) {
		t.Fatalf("metrics body missing counter:\n%s", rec.Body.String())
	}
}
