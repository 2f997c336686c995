package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discoverydash/internal/metrics"
	"discoverydash/internal/models"
	"discoverydash/internal/projection"
)

type fakeSource struct {
	mu     sync.Mutex
	view   models.View
	uptime []metrics.ServiceUptime
	subs   []chan struct{}
}

func (f *fakeSource) Snapshot() models.View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view
}

func (f *fakeSource) Uptime() []metrics.ServiceUptime {
	return f.uptime
}

func (f *fakeSource) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	f.mu.Lock()
	f.subs = append(f.subs, ch)
	f.mu.Unlock()
	return ch, func() {}
}

func (f *fakeSource) set(view models.View) {
	f.mu.Lock()
	f.view = view
	subs := append([]chan struct{}(nil), f.subs...)
	f.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (f *fakeSource) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func sampleView(name string) models.View {
	return models.View{
		Services: []models.ServiceStatus{{
			Name:           name,
			Host:           "h1",
			Status:         models.StateOnline,
			ResponseTimeMS: models.Int64(123),
			ObservedAtMS:   models.Int64(1_704_067_200_000),
			FetchedAtMS:    models.Int64(1_704_067_200_100),
		}},
		Health:     []models.HealthEntry{{Name: name, Status: models.HealthHealthy}},
		ClockNowMS: 1_704_067_200_600,
	}
}

func newTestServer(t *testing.T, src *fakeSource) *httptest.Server {
	t.Helper()
	s := New(":0", src, Options{Title: "Service Discovery Demo", PushInterval: 10 * time.Millisecond})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestPage(t *testing.T) {
	ts := newTestServer(t, &fakeSource{view: sampleView("service-a")})

	resp, body := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, "Service Discovery Demo")
	assert.Contains(t, body, "ONLINE")
	assert.Contains(t, body, "123 ms")
	assert.Contains(t, body, "service-a: healthy")

	resp, _ = get(t, ts.URL+"/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFragment(t *testing.T) {
	ts := newTestServer(t, &fakeSource{view: sampleView("service-a")})
	_, body := get(t, ts.URL+"/fragment")
	assert.NotContains(t, body, "<html")
	assert.Contains(t, body, "service-a: healthy")
}

func TestViewJSON(t *testing.T) {
	ts := newTestServer(t, &fakeSource{view: sampleView("service-a")})
	resp, body := get(t, ts.URL+"/api/view")
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got struct {
		Title    string `json:"title"`
		Services []struct {
			Name           string `json:"name"`
			Status         string `json:"status"`
			ResponseTimeMS *int64 `json:"response_time_ms"`
			Timestamp      string `json:"timestamp"`
		} `json:"services"`
		Health []models.HealthEntry `json:"health"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, "Service Discovery Demo", got.Title)
	require.Len(t, got.Services, 1)
	assert.Equal(t, "service-a", got.Services[0].Name)
	assert.Equal(t, "online", got.Services[0].Status)
	assert.Equal(t, projection.Format(1_704_067_200_500), got.Services[0].Timestamp)
	require.NotNil(t, got.Services[0].ResponseTimeMS)
	assert.Equal(t, int64(123), *got.Services[0].ResponseTimeMS)
	assert.Len(t, got.Health, 1)
}

func TestUptimeJSON(t *testing.T) {
	ts := newTestServer(t, &fakeSource{})
	_, body := get(t, ts.URL+"/api/uptime")
	assert.Contains(t, body, `"services":[]`)

	ts = newTestServer(t, &fakeSource{uptime: []metrics.ServiceUptime{{Name: "service-a", UptimePercent: 50}}})
	_, body = get(t, ts.URL+"/api/uptime")
	assert.Contains(t, body, `"uptime_percent":50`)
}

func TestLive_PushesOnChange(t *testing.T) {
	src := &fakeSource{view: sampleView("service-a")}
	ts := newTestServer(t, src)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), "service-a: healthy")

	require.Eventually(t, func() bool { return src.subscribers() == 1 }, time.Second, 5*time.Millisecond)
	src.set(sampleView("service-z"))

	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), "service-z: healthy")
}

func TestLive_RejectsForeignOrigin(t *testing.T) {
	ts := newTestServer(t, &fakeSource{})
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	header := http.Header{}
	header.Set("Origin", "http://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
