package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/specialistvlad/nodereg/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const printPackage = `
module "contrib-print" {
  version     = "0.3.0"
  description = "Print nodes"
}

node "print-line" {
  label   = "print line"
  handler = "print"
}

node "print-debug" {
  handler = "print"
}
`

func writePackage(t *testing.T, cfg *Config, name, manifest string) {
	t.Helper()
	dir := filepath.Join(cfg.CatalogDir, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nodes.hcl"), []byte(manifest), 0o644))
}

func send(t *testing.T, srv *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAppServesRegistry(t *testing.T) {
	cfg := TestConfig(t)
	writePackage(t, cfg, "contrib-print", printPackage)
	a, logs := SetupAppTest(t, cfg)

	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	resp := send(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = send(t, srv, http.MethodPost, "/nodes", `{"module":"contrib-print"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mod model.ModuleView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&mod))
	assert.Equal(t, "contrib-print", mod.Name)
	require.Len(t, mod.Nodes, 2)

	_, err := os.Stat(filepath.Join(cfg.InstallDir, "contrib-print", "nodes.hcl"))
	require.NoError(t, err, "package is copied into the install dir")

	resp = send(t, srv, http.MethodPut, "/nodes/contrib-print/print-line", `{"enabled":false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	nt, ok := a.Registry().GetNodeType("contrib-print/print-line")
	require.True(t, ok)
	assert.Equal(t, model.StateDisabled, nt.State())

	resp = send(t, srv, http.MethodPost, "/nodes", `{"module":"missing"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = send(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `nodereg_operations_total{op="install",result="ok"} 1`)
	assert.Contains(t, string(body), "go_goroutines")

	assert.Contains(t, logs.String(), "contrib-print")
}

func TestAppRestoresPersistedState(t *testing.T) {
	cfg := TestConfig(t)
	writePackage(t, cfg, "contrib-print", printPackage)
	ctx := context.Background()

	first, _ := SetupAppTest(t, cfg)
	_, err := first.Registry().InstallModule(ctx, "contrib-print")
	require.NoError(t, err)
	_, err = first.Registry().SetEnabled(ctx, "print-debug", false)
	require.NoError(t, err)
	first.closeStores()

	second, _ := SetupAppTest(t, cfg)
	require.NoError(t, second.Registry().Load(ctx))

	mod, ok := second.Registry().GetModule("contrib-print")
	require.True(t, ok)
	require.Len(t, mod.NodeTypes, 2)
	states := map[string]model.State{}
	for _, nt := range mod.NodeTypes {
		states[nt.Name] = nt.State()
	}
	assert.Equal(t, model.StateDisabled, states["print-debug"])
	assert.Equal(t, model.StateEnabled, states["print-line"])
}

func TestAppReadOnlyRefusesChanges(t *testing.T) {
	cfg := TestConfig(t)
	cfg.ReadOnly = true
	writePackage(t, cfg, "contrib-print", printPackage)
	a, _ := SetupAppTest(t, cfg)

	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	resp := send(t, srv, http.MethodPost, "/nodes", `{"module":"contrib-print"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var payload map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "settings_unavailable", payload["error"])
}

func TestAppLoadPublishesRetainedSummary(t *testing.T) {
	cfg := TestConfig(t)
	a, _ := SetupAppTest(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.notifier.Run(ctx)
	}()

	require.NoError(t, a.Registry().Load(ctx))
	require.Eventually(t, func() bool {
		for _, m := range a.bus.Retained() {
			if m.Topic == "registry/loaded" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestAppRunStopsOnCancel(t *testing.T) {
	cfg := TestConfig(t)
	a, logs := SetupAppTest(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "HTTP server starting")
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Contains(t, logs.String(), "Registry loaded.")
}

func TestShippedCatalogInstalls(t *testing.T) {
	cfg := TestConfig(t)
	catalog, err := filepath.Abs(filepath.Join("..", "..", "catalog"))
	require.NoError(t, err)
	cfg.CatalogDir = catalog
	a, _ := SetupAppTest(t, cfg)

	for _, name := range []string{"contrib-print", "contrib-files"} {
		mod, err := a.Registry().InstallModule(context.Background(), name)
		require.NoError(t, err, name)
		for _, nt := range mod.NodeTypes {
			assert.Equal(t, model.StateEnabled, nt.State(), "%s: %s", nt.ID(), nt.Err())
		}
	}
}
