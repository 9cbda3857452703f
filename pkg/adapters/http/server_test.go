package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/deploykit"
	dkhttp "github.com/aretw0/deploykit/pkg/adapters/http"
	"github.com/aretw0/deploykit/pkg/adapters/memory"
	"github.com/aretw0/deploykit/pkg/domain"
	"github.com/aretw0/deploykit/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDeployer(t *testing.T, artifact memory.Program, opts ...memory.ChainOption) *deploykit.Deployer {
	t.Helper()
	d, err := deploykit.New(memory.Simulated(1, opts...), artifact, deploykit.WithPollInterval(time.Millisecond))
	require.NoError(t, err)
	return d
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

// blockFirstSubmit holds the first submission until its context ends.
func blockFirstSubmit(started chan struct{}) memory.ChainOption {
	return memory.WithSubmitHook(func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			return nil
		}
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
}

func TestServer_StateAndInfo(t *testing.T) {
	h := dkhttp.NewHandler(newDeployer(t, memory.Program{1}))

	w := do(t, h, http.MethodGet, "/state")
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[deploykit.Status](t, w)
	assert.Equal(t, domain.StateReady, st.State)

	w = do(t, h, http.MethodGet, "/info")
	require.Equal(t, http.StatusOK, w.Code)
	info := decode[dkhttp.Info](t, w)
	assert.Equal(t, deploykit.Version, info.Version)
	assert.Equal(t, "1.0.0", info.ApiVersion)

	w = do(t, h, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_DeployAndWait(t *testing.T) {
	h := dkhttp.NewHandler(newDeployer(t, memory.Program{1}))

	w := do(t, h, http.MethodPost, "/deploy?wait=true")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode[domain.Outcome](t, w)
	assert.Equal(t, domain.OutcomeSucceeded, out.Status)
	assert.Equal(t, "sim-tx-1", out.TransactionID)
}

func TestServer_OpenAPIDocument(t *testing.T) {
	h := dkhttp.NewHandler(newDeployer(t, memory.Program{1}))

	w := do(t, h, http.MethodGet, "/openapi.yaml")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/yaml", w.Header().Get("Content-Type"))
	for _, id := range []string{"getHealth", "deploy", "pauseDeployment", "subscribeEvents", "getMetrics"} {
		assert.Contains(t, w.Body.String(), `"operationId":"`+id+`"`)
	}

	w = do(t, h, http.MethodGet, "/swagger")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "swagger-ui")
}

func TestServer_DeployRejectsBadWait(t *testing.T) {
	d := newDeployer(t, memory.Program{1})
	h := dkhttp.NewHandler(d)

	w := do(t, h, http.MethodPost, "/deploy?wait=maybe")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "wait")
	assert.Nil(t, d.Status().Last)
}

func TestServer_ConcurrentDeploysStartOnce(t *testing.T) {
	started := make(chan struct{})
	d := newDeployer(t, memory.Program{1}, blockFirstSubmit(started))
	srv := dkhttp.NewServer(d)
	h := srv.Handler()

	const n = 8
	codes := make(chan int, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes <- do(t, h, http.MethodPost, "/deploy").Code
		}()
	}
	wg.Wait()
	close(codes)

	counts := map[int]int{}
	for c := range codes {
		counts[c]++
	}
	assert.Equal(t, 1, counts[http.StatusAccepted])
	assert.Equal(t, n-1, counts[http.StatusConflict])

	<-started
	require.NoError(t, d.Cancel())
	srv.Wait()
	assert.Equal(t, domain.OutcomeCancelled, d.Status().Last.Status)
}

func TestServer_MetricsDisabled(t *testing.T) {
	h := dkhttp.NewHandler(newDeployer(t, memory.Program{1}))

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/metrics").Code)
}

func TestServer_DeployNotBuilt(t *testing.T) {
	h := dkhttp.NewHandler(newDeployer(t, nil))

	w := do(t, h, http.MethodPost, "/deploy")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	out := decode[domain.Outcome](t, w)
	require.NotNil(t, out.Failure)
	assert.Equal(t, domain.KindNotBuilt, out.Failure.Kind)
}

func TestServer_RequestWhenIdle(t *testing.T) {
	h := dkhttp.NewHandler(newDeployer(t, memory.Program{1}))

	for _, path := range []string{"/pause", "/resume", "/cancel"} {
		w := do(t, h, http.MethodPost, path)
		assert.Equal(t, http.StatusConflict, w.Code, path)
	}
}

func TestServer_PauseResumeOverHTTP(t *testing.T) {
	started := make(chan struct{})
	d := newDeployer(t, memory.Program{1}, blockFirstSubmit(started))
	srv := dkhttp.NewServer(d)
	h := srv.Handler()

	w := do(t, h, http.MethodPost, "/deploy")
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	<-started

	w = do(t, h, http.MethodPost, "/deploy")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodPost, "/pause")
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Eventually(t, func() bool { return d.State() == domain.StatePaused }, 2*time.Second, time.Millisecond)

	w = do(t, h, http.MethodPost, "/resume")
	require.Equal(t, http.StatusAccepted, w.Code)
	srv.Wait()

	st := decode[deploykit.Status](t, do(t, h, http.MethodGet, "/state"))
	assert.Equal(t, domain.StateReady, st.State)
	require.NotNil(t, st.Last)
	assert.Equal(t, domain.OutcomeSucceeded, st.Last.Status)
}

func TestServer_CancelOverHTTP(t *testing.T) {
	started := make(chan struct{})
	d := newDeployer(t, memory.Program{1}, blockFirstSubmit(started))
	srv := dkhttp.NewServer(d)
	h := srv.Handler()

	require.Equal(t, http.StatusAccepted, do(t, h, http.MethodPost, "/deploy").Code)
	<-started
	require.Equal(t, http.StatusAccepted, do(t, h, http.MethodPost, "/cancel").Code)
	srv.Wait()

	st := d.Status()
	require.NotNil(t, st.Last)
	assert.Equal(t, domain.OutcomeCancelled, st.Last.Status)
}

func TestServer_Events(t *testing.T) {
	started := make(chan struct{})
	d := newDeployer(t, memory.Program{1}, blockFirstSubmit(started))
	srv := dkhttp.NewServer(d)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 64)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	// waitFor skips lines until one starts with "data: " and contains sub.
	waitFor := func(sub string) {
		t.Helper()
		for {
			select {
			case l, ok := <-lines:
				require.True(t, ok, "stream closed")
				if strings.HasPrefix(l, "data: ") && strings.Contains(l, sub) {
					return
				}
			case <-ctx.Done():
				t.Fatal("timed out waiting for " + sub)
			}
		}
	}

	waitFor("connected")
	waitFor(`"state":"ready"`)

	postResp, err := http.Post(ts.URL+"/deploy", "application/json", nil)
	require.NoError(t, err)
	postResp.Body.Close()
	waitFor(`"state":"loading"`)

	<-started
	require.NoError(t, d.Cancel())
	waitFor(`"state":"paused"`)
	waitFor(`"state":"cancelled"`)
	waitFor(`"state":"ready"`)
	srv.Wait()
}

func TestServer_MetricsAndCORS(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry())
	h := dkhttp.NewHandler(newDeployer(t, memory.Program{1}), dkhttp.WithMetrics(m.Handler()))

	w := do(t, h, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodOptions, "/deploy")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
