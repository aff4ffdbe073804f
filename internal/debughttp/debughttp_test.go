package debughttp

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statebridge/core/internal/metrics"
)

func TestHealthzReportsRunningState(t *testing.T) {
	reg := metrics.New()
	running := true
	srv := New("127.0.0.1:0", reg.Gatherer(), func() bool { return running }, nil)

	// http.Server doesn't expose its bound port until Serve is called
	// with a Listener that announces one; use an explicit Listener so
	// the test can dial it.
	ln := mustListen(t)
	srv.http.Addr = ln.Addr().String()
	go srv.http.Serve(ln)
	defer srv.Stop(context.Background())

	waitForServer(t, "http://"+ln.Addr().String()+"/healthz")

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])

	running = false
	resp2, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	var body2 map[string]string
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&body2))
	assert.Equal(t, "not_running", body2["status"])
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	reg := metrics.New()
	reg.ConnectionOpened("server")

	srv := New("127.0.0.1:0", reg.Gatherer(), nil, nil)
	ln := mustListen(t)
	srv.http.Addr = ln.Addr().String()
	go srv.http.Serve(ln)
	defer srv.Stop(context.Background())

	waitForServer(t, "http://"+ln.Addr().String()+"/metrics")

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
