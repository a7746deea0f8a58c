package homepage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/jonathan/deepdive/internal/config"
	"github.com/jonathan/deepdive/internal/types"
)

func testConfig() *config.Config {
	return &config.Config{
		LookupTimeout:    5 * time.Second,
		RetryMaxAttempts: 3,
		RetryBaseDelay:   time.Millisecond,
	}
}

// hostOf strips the scheme from an httptest server URL so Snapshot can
// rebuild it with the plain-HTTP scheme.
func hostOf(srv *httptest.Server) string {
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestSnapshot_ExtractsTitleAndDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><head>
			<title> Acme Anvils </title>
			<meta name="description" content="Quality anvils since 1949.">
		</head><body></body></html>`))
	}))
	defer srv.Close()

	client := New(testConfig(), zap.NewNop(), WithScheme("http"))
	snapshot := client.Snapshot(context.Background(), hostOf(srv))

	assert.Equal(t, "Acme Anvils", snapshot.Title)
	assert.Equal(t, "Quality anvils since 1949.", snapshot.Description)
}

func TestSnapshot_FallsBackToOpenGraphDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><head>
			<title>Acme</title>
			<meta property="og:description" content="Anvils, delivered.">
		</head></html>`))
	}))
	defer srv.Close()

	client := New(testConfig(), zap.NewNop(), WithScheme("http"))
	snapshot := client.Snapshot(context.Background(), hostOf(srv))

	assert.Equal(t, "Anvils, delivered.", snapshot.Description)
}

func TestSnapshot_EmptyDomainSkipsNetworkCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	client := New(testConfig(), zap.NewNop(), WithScheme("http"))

	assert.Equal(t, types.HomepageSnapshot{}, client.Snapshot(context.Background(), ""))
	assert.Equal(t, types.HomepageSnapshot{}, client.Snapshot(context.Background(), "  "))
	assert.Equal(t, int32(0), calls.Load())
}

func TestSnapshot_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 2 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`<html><head><title>Acme</title></head></html>`))
	}))
	defer srv.Close()

	client := New(testConfig(), zap.NewNop(), WithScheme("http"))
	snapshot := client.Snapshot(context.Background(), hostOf(srv))

	assert.Equal(t, "Acme", snapshot.Title)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSnapshot_PersistentFailureDegradesToNeutral(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	client := New(testConfig(), zap.NewNop(), WithScheme("http"))
	assert.Equal(t, types.HomepageSnapshot{}, client.Snapshot(context.Background(), hostOf(srv)))
}

func TestSnapshot_UnreachableHostDegradesToNeutral(t *testing.T) {
	client := New(testConfig(), zap.NewNop(), WithScheme("http"))
	assert.Equal(t, types.HomepageSnapshot{}, client.Snapshot(context.Background(), "127.0.0.1:1"))
}

func TestParseSnapshot_MissingTags(t *testing.T) {
	snapshot := parseSnapshot(`<html><body><p>hello</p></body></html>`)
	assert.Equal(t, types.HomepageSnapshot{}, snapshot)
}

func TestParseSnapshot_NotHTML(t *testing.T) {
	snapshot := parseSnapshot(`{"this": "is json"}`)
	assert.Empty(t, snapshot.Title)
	assert.Empty(t, snapshot.Description)
}
