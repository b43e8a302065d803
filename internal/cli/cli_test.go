package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/booker/internal/config"
	"github.com/sakif/booker/internal/model"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "booker", cmd.Use)

	for _, name := range []string{"serve", "search"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}

	for _, flag := range []string{"config", "env-file", "format"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"search", "x", "--format", "xml", "--env-file", ""})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

// newCatalog serves one volume per query and counts requests.
func newCatalog(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		q := r.URL.Query().Get("q")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{
				"id": q + "-id",
				"volumeInfo": map[string]any{
					"title":   "About " + q,
					"authors": []string{"A. Writer"},
				},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range config.EnvKeys {
		t.Setenv(k, "")
	}
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--env-file", ""))
	err := cmd.Execute()
	return out.String(), err
}

func TestSearch_SingleQuery(t *testing.T) {
	clearEnv(t)
	srv, hits := newCatalog(t)
	t.Setenv("CATALOG_BASE_URL", srv.URL)

	out, err := runCLI(t, "", "search", "dune")
	require.NoError(t, err)
	assert.Equal(t, " 1. About dune by A. Writer [dune-id]\n", out)
	assert.Equal(t, int32(1), hits.Load())
}

func TestSearch_JSON(t *testing.T) {
	clearEnv(t)
	srv, _ := newCatalog(t)
	t.Setenv("CATALOG_BASE_URL", srv.URL)

	out, err := runCLI(t, "", "search", "emma", "--format", "json")
	require.NoError(t, err)

	var books []model.Book
	require.NoError(t, json.Unmarshal([]byte(out), &books))
	require.Len(t, books, 1)
	assert.Equal(t, "emma-id", books[0].GoogleID)
}

func TestSearch_REPLSuppressesRepeats(t *testing.T) {
	clearEnv(t)
	srv, hits := newCatalog(t)
	t.Setenv("CATALOG_BASE_URL", srv.URL)

	out, err := runCLI(t, "dune\ndune\n\n  \nemma\n", "search")
	require.NoError(t, err)

	assert.Equal(t, int32(2), hits.Load())
	assert.Contains(t, out, "About dune")
	assert.Contains(t, out, "About emma")
	assert.Equal(t, 1, strings.Count(out, "skipped: same as last query"))
}

func TestSearch_ProviderFailureInREPL(t *testing.T) {
	clearEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	t.Setenv("CATALOG_BASE_URL", srv.URL)

	out, err := runCLI(t, "dune\n", "search")
	require.NoError(t, err)
	assert.Contains(t, out, "search failed")
}

func TestServe_InvalidConfig(t *testing.T) {
	clearEnv(t)

	_, err := runCLI(t, "", "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sessionSecret")
}

func TestServe_PortFlagIsValidated(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_SECRET", "0123456789abcdef0123456789abcdef")

	_, err := runCLI(t, "", "serve", "--port", "70000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port 70000 out of range")
}

func TestEnvFileLoaded(t *testing.T) {
	clearEnv(t)
	srv, hits := newCatalog(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("CATALOG_BASE_URL="+srv.URL+"\n"), 0o600))
	// godotenv does not override variables that are set, even to "".
	require.NoError(t, os.Unsetenv("CATALOG_BASE_URL"))

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"search", "dune", "--env-file", envFile})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, int32(1), hits.Load())
	assert.Contains(t, out.String(), "About dune")
}
