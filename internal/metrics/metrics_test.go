package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.VotesCast.WithLabelValues("Zulu").Inc()
	m.VotesCast.WithLabelValues("Zulu").Inc()
	m.VoteRejections.WithLabelValues("AlreadyVoted").Inc()
	m.RecordHTTPRequest(http.MethodPost, "/api/votes", http.StatusOK, 10*time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(m.VotesCast.WithLabelValues("Zulu")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.VoteRejections.WithLabelValues("AlreadyVoted")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/api/votes", "200")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.Registrations.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.True(t, strings.Contains(body, "eday_ledger_registrations_total 1"), body)
}

func TestNew_IndependentRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	require.NotPanics(t, func() {
		New()
		New()
	})
}
