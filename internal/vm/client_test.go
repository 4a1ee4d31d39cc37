package vm

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtm0/eos/internal/scan"
)

var recs = []scan.Record{
	{Timestamp: 946684800000, Latitude: 89.5, Longitude: -179.5, Layer: -1, Values: []float64{271.25, 3}},
	{Timestamp: 946684800000, Latitude: -12.3456, Longitude: 45.678, Layer: 2, Values: []float64{0.5, -1}},
}

func TestRecordText(t *testing.T) {
	metrics := []string{"Temperature", "Cloud_Fraction"}
	assert.Equal(t, ""+
		"eos,la=89.50,lo=-179.50 Temperature=271.25,Cloud_Fraction=3 946684800000\n"+
		"eos,la=-12.35,lo=45.68,layer=2 Temperature=0.5,Cloud_Fraction=-1 946684800000\n",
		recsToText(recs, "eos", metrics, recToInfluxDB))
	assert.Equal(t, ""+
		"946684800000,89.50,-179.50,271.25,3\n"+
		"946684800000,-12.35,45.68,2,0.5,-1\n",
		recsToText(recs, "eos", metrics, recToCSV))
}

func TestMetricName(t *testing.T) {
	assert.Equal(t, "Day_CMG_Snow_Cover", MetricName("Day_CMG_Snow_Cover"))
	assert.Equal(t, "Cloud_Fraction_Day", MetricName("Cloud Fraction (Day)"))
}

func TestNewClient(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := NewClient(logger, "http://localhost:8428/write", 1, "eos-x", []string{"a"}, 0)
	require.Error(t, err)
	_, err = NewClient(logger, "http://localhost:8428/nope", 1, "eos", []string{"a"}, 0)
	require.Error(t, err)
	_, err = NewClient(logger, "http://localhost:8428/write", 1, "eos", nil, 0)
	require.Error(t, err)

	c, err := NewClient(logger, "http://localhost:8428/api/v1/import/csv", 1, "eos", []string{"Snow Cover", "QA"}, 0)
	require.NoError(t, err)
	assert.Contains(t, c.insertURL, "format=1%3Atime%3Aunix_ms%2C2%3Alabel%3Ala%2C3%3Alabel%3Alo%2C4%3Ametric%3Aeos_Snow_Cover%2C5%3Ametric%3Aeos_QA")
	assert.Contains(t, c.layeredURL, "format=1%3Atime%3Aunix_ms%2C2%3Alabel%3Ala%2C3%3Alabel%3Alo%2C4%3Alabel%3Alayer%2C5%3Ametric%3Aeos_Snow_Cover%2C6%3Ametric%3Aeos_QA")

	c, err = NewClient(logger, "http://localhost:8428/write", 1, "eos", []string{"a"}, 0)
	require.NoError(t, err)
	assert.Equal(t, c.insertURL, c.layeredURL)
}

func TestInsertRetries(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []string
		fails  = 2
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		defer mu.Unlock()
		bodies = append(bodies, string(b))
		if len(bodies) <= fails {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := NewClient(logger, srv.URL+"/write", 1, "eos", []string{"t", "c"}, 3)
	require.NoError(t, err)
	c.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }

	require.NoError(t, c.Insert(recs))
	require.Len(t, bodies, 3)
	assert.Equal(t, bodies[0], bodies[2])
	assert.True(t, strings.HasPrefix(bodies[2], "eos,la=89.50"))

	fails = 10
	bodies = nil
	err = c.Insert(recs)
	require.ErrorContains(t, err, "unexpected status 503")
	assert.Len(t, bodies, 4)
}

func TestInsertDoesNotRetryRejectedRequests(t *testing.T) {
	for _, tt := range []struct {
		status int
		tries  int
	}{
		{http.StatusBadRequest, 1},
		{http.StatusUnprocessableEntity, 1},
		{http.StatusTooManyRequests, 3},
		{http.StatusInternalServerError, 3},
	} {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var tries atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tries.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			c, err := NewClient(logger, srv.URL+"/write", 1, "eos", []string{"t", "c"}, 2)
			require.NoError(t, err)
			c.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }

			err = c.Insert(recs)
			require.ErrorContains(t, err, fmt.Sprintf("unexpected status %d", tt.status))
			assert.Equal(t, int32(tt.tries), tries.Load())
		})
	}
}

func TestInsertCSVFormatFollowsLayers(t *testing.T) {
	var (
		mu      sync.Mutex
		formats []string
		bodies  []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		defer mu.Unlock()
		formats = append(formats, r.URL.Query().Get("format"))
		bodies = append(bodies, string(b))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := NewClient(logger, srv.URL+"/api/v1/import/csv", 1, "eos", []string{"t", "c"}, 0)
	require.NoError(t, err)

	require.NoError(t, c.Insert(recs[:1]))
	require.NoError(t, c.Insert(recs[1:]))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"1:time:unix_ms,2:label:la,3:label:lo,4:metric:eos_t,5:metric:eos_c",
		"1:time:unix_ms,2:label:la,3:label:lo,4:label:layer,5:metric:eos_t,6:metric:eos_c",
	}, formats)
	assert.Equal(t, []string{
		"946684800000,89.50,-179.50,271.25,3\n",
		"946684800000,-12.35,45.68,2,0.5,-1\n",
	}, bodies)
}
