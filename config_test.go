package trafficlight_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fujiwara/trafficlight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
light:
  min_interval: 40ms
  max_interval: 60ms
  poll_interval: 1ms
  seed: 42
responder:
  addr: "127.0.0.1:18080"
hooks:
  - name: announce
    phase: green
    command:
      run: "echo green"
  - name: webhook
    timeout: 2s
    http:
      url: "http://127.0.0.1:9999/phase"
      expect_code: "200-299"
  - name: board
    tcp:
      host: 127.0.0.1
      port: "9998"
      send: "${TRAFFICLIGHT_PHASE_TO}\n"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trafficlight.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := trafficlight.LoadConfig(context.Background(), writeConfig(t, testConfig))
	require.NoError(t, err)

	assert.Equal(t, 40*time.Millisecond, cfg.Light.MinInterval)
	assert.Equal(t, 60*time.Millisecond, cfg.Light.MaxInterval)
	assert.Equal(t, time.Millisecond, cfg.Light.PollInterval)
	assert.EqualValues(t, 42, cfg.Light.Seed)
	assert.Equal(t, "127.0.0.1:18080", cfg.Responder.Addr)

	require.Len(t, cfg.Hooks, 3)
	assert.Equal(t, "green", cfg.Hooks[0].Phase)
	assert.Equal(t, "echo green", cfg.Hooks[0].Command.Run)
	assert.Equal(t, trafficlight.DefaultHookTimeout, cfg.Hooks[0].Timeout)
	assert.Equal(t, 2*time.Second, cfg.Hooks[1].Timeout)
	assert.Equal(t, "200-299", cfg.Hooks[1].HTTP.ExpectCode)
	assert.Equal(t, "${TRAFFICLIGHT_PHASE_TO}\n", cfg.Hooks[2].TCP.Send)

	for _, h := range cfg.Hooks {
		_, err := trafficlight.NewHook(h)
		assert.NoError(t, err, h.Name)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := trafficlight.LoadConfig(context.Background(), writeConfig(t, "hooks: []\n"))
	require.NoError(t, err)
	assert.Equal(t, trafficlight.DefaultLightConfig(), cfg.Light)
	assert.Equal(t, trafficlight.DefaultListenAddr, cfg.Responder.Addr)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "interval order",
			body: "light:\n  min_interval: 6s\n  max_interval: 4s\n",
			want: "max_interval",
		},
		{
			name: "unknown phase",
			body: "hooks:\n  - name: x\n    phase: yellow\n    command:\n      run: \"true\"\n",
			want: "unknown phase",
		},
		{
			name: "null hook",
			body: "hooks: [null]\n",
			want: "hooks[0] is empty",
		},
		{
			name: "no hook kind",
			body: "hooks:\n  - name: x\n",
			want: "exactly one of",
		},
		{
			name: "two hook kinds",
			body: "hooks:\n  - name: x\n    command:\n      run: \"true\"\n    tcp:\n      host: localhost\n",
			want: "exactly one of",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := trafficlight.LoadConfig(context.Background(), writeConfig(t, tt.body))
			assert.ErrorIs(t, err, trafficlight.ErrInvalidConfig)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoadConfigHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trafficlight.yaml" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(testConfig))
	}))
	defer srv.Close()

	cfg, err := trafficlight.LoadConfig(context.Background(), srv.URL+"/trafficlight.yaml")
	require.NoError(t, err)
	assert.EqualValues(t, 42, cfg.Light.Seed)

	_, err = trafficlight.LoadConfig(context.Background(), srv.URL+"/missing.yaml")
	assert.ErrorContains(t, err, "404")
}

func TestLoadConfigBadSource(t *testing.T) {
	_, err := trafficlight.LoadConfig(context.Background(), "ftp://example.com/trafficlight.yaml")
	assert.ErrorContains(t, err, "scheme must be")

	_, err = trafficlight.LoadConfig(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
