package cli

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newCRMServer fakes the two API surfaces export touches: entity metadata
// and the data endpoint with a paged result set.
func newCRMServer(t *testing.T) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/EntityDefinitions(LogicalName='contact')":
			w.Write([]byte(`{
				"LogicalName": "contact",
				"EntitySetName": "contacts",
				"PrimaryIdAttribute": "contactid",
				"PrimaryNameAttribute": "fullname"
			}`))
		case strings.HasSuffix(r.URL.Path, "/Attributes"):
			w.Write([]byte(`{"value": [
				{"LogicalName": "contactid", "AttributeType": "Uniqueidentifier", "DisplayName": {}},
				{"LogicalName": "fullname", "AttributeType": "String",
				 "DisplayName": {"UserLocalizedLabel": {"Label": "Full Name"}}}
			]}`))
		case r.URL.Path == "/contacts" && r.URL.Query().Get("page") == "2":
			w.Write([]byte(`{"value": [{"fullname": "Grace Hopper", "contactid": "id-2"}]}`))
		case r.URL.Path == "/contacts":
			fmt.Fprintf(w, `{"value": [{"fullname": "Ada Lovelace", "contactid": "id-1"}],
				"@odata.nextLink": "%s/contacts?page=2"}`, server.URL)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestExportCommandWritesCSV(t *testing.T) {
	server := newCRMServer(t)

	configPath := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("apiUrl: "+server.URL+"\n"), 0644))

	viewPath := filepath.Join(t.TempDir(), "view.xml")
	require.NoError(t, os.WriteFile(viewPath, []byte(
		`<fetch><entity name="contact"><attribute name="fullname" /></entity></fetch>`), 0644))

	outPath := filepath.Join(t.TempDir(), "out.csv")
	stdout, _, err := runCommand(t, "export", viewPath, "--config", configPath, "--out", outPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote 2 record(s)")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t,
		"Full Name,contactid\n"+
			"Ada Lovelace,id-1\n"+
			"Grace Hopper,id-2\n",
		string(data))
}

func TestExportCommandStdout(t *testing.T) {
	server := newCRMServer(t)

	configPath := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("apiUrl: "+server.URL+"\n"), 0644))

	viewPath := filepath.Join(t.TempDir(), "view.xml")
	require.NoError(t, os.WriteFile(viewPath, []byte(
		`<fetch><entity name="contact"><attribute name="fullname" /></entity></fetch>`), 0644))

	stdout, _, err := runCommand(t, "export", viewPath, "--config", configPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "Full Name,contactid\n"), "CSV goes to stdout without a summary line")
}

func TestExportCommandRequiresAPIURL(t *testing.T) {
	viewPath := filepath.Join(t.TempDir(), "view.xml")
	require.NoError(t, os.WriteFile(viewPath, []byte(
		`<fetch><entity name="contact" /></fetch>`), 0644))

	configPath := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("maxPages: 5\n"), 0644))

	_, _, err := runCommand(t, "export", viewPath, "--config", configPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExportCommandQueryFailure(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/EntityDefinitions(LogicalName='contact')":
			w.Write([]byte(`{"LogicalName": "contact", "EntitySetName": "contacts",
				"PrimaryIdAttribute": "contactid", "PrimaryNameAttribute": "fullname"}`))
		case strings.HasSuffix(r.URL.Path, "/Attributes"):
			w.Write([]byte(`{"value": [{"LogicalName": "fullname", "AttributeType": "String", "DisplayName": {}}]}`))
		default:
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error": {"message": "no license"}}`))
		}
	}))
	defer server.Close()

	configPath := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("apiUrl: "+server.URL+"\n"), 0644))

	viewPath := filepath.Join(t.TempDir(), "view.xml")
	require.NoError(t, os.WriteFile(viewPath, []byte(
		`<fetch><entity name="contact"><attribute name="fullname" /></entity></fetch>`), 0644))

	_, _, err := runCommand(t, "export", viewPath, "--config", configPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
