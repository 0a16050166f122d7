package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--server", server, "--token", "test-token"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestApplicationsListRendersTable(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/v1/applications", r.URL.Path)
		json.NewEncoder(w).Encode([]applicationRow{
			{ID: "a1", Name: "CRM", Enabled: true, HitCount: 5},
			{ID: "a2", Name: "Payroll", Enabled: false},
		})
	}))
	defer srv.Close()

	out, err := runCLI(t, srv.URL, "applications", "list")
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Contains(t, out, "CRM")
	assert.Contains(t, out, "Payroll")
}

func TestApplicationsListShowDisabledFlag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("showDisabled"))
		json.NewEncoder(w).Encode([]applicationRow{})
	}))
	defer srv.Close()

	_, err := runCLI(t, srv.URL, "applications", "list", "--show-disabled")
	require.NoError(t, err)
}

func TestFindReplacePostsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Homer Simpson", body["find"])
		assert.Equal(t, "Marge Simpson", body["replace"])
		assert.Equal(t, "app-1", body["applicationId"])
		json.NewEncoder(w).Encode(map[string]int{"replaced": 3})
	}))
	defer srv.Close()

	out, err := runCLI(t, srv.URL, "find-replace", "Homer Simpson", "Marge Simpson",
		"--application", "app-1")
	require.NoError(t, err)
	assert.Contains(t, out, "replaced 3 entries")
}

func TestCacheClearEscapesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/cache/clear", r.URL.Path)
		assert.Equal(t, "user:x@example.com:responsibilities", r.URL.Query().Get("key"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	out, err := runCLI(t, srv.URL, "cache", "clear", "user:x@example.com:responsibilities")
	require.NoError(t, err)
	assert.Contains(t, out, "cleared")
}

func TestServerErrorsSurfaceMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"error": "only administrators clear cache keys"})
	}))
	defer srv.Close()

	_, err := runCLI(t, srv.URL, "cache", "clear", "applications")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only administrators")
}

func TestMissingServerFlagFails(t *testing.T) {
	root := NewRootCmd()
	root.SetArgs([]string{"--server", "", "applications", "list"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	assert.Error(t, root.Execute())
}
