package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BillsMonitor/internal/domain"
)

func TestObserveCycle(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.ObserveCycle(domain.CycleReport{Listed: 20, New: 3, Failed: 1, Notified: 2, Delivered: 1, SeenTotal: 120}, nil)
	r.ObserveCycle(domain.CycleReport{Listed: 20, New: 1, SeenTotal: 121}, nil)
	r.ObserveCycle(domain.CycleReport{}, errors.New("listing down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.cycles.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cycles.WithLabelValues("error")))
	assert.Equal(t, 40.0, testutil.ToFloat64(r.listed))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.newBills))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.notified))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.delivered))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.detailFailures))
	assert.Equal(t, 121.0, testutil.ToFloat64(r.ledgerSize))
}

func TestNilRecorderIsNoop(t *testing.T) {
	t.Parallel()

	var r *Recorder
	r.ObserveCycle(domain.CycleReport{New: 1}, nil)
}

func TestHandlerExposesSeries(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.ObserveCycle(domain.CycleReport{SeenTotal: 7}, nil)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "billsmonitor_ledger_size 7"), string(body))
}
