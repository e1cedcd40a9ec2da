package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

const testToken = "00cli-test-token"

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

func subcommandNames(cmd *cobra.Command) []string {
	names := make([]string, 0, len(cmd.Commands()))
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}

	return names
}

// resetViper clears the global configuration after the test.
func resetViper(t *testing.T) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)
}

// seenRequest is one request received by the test org.
type seenRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Body   map[string]interface{}
}

type testOrg struct {
	*httptest.Server

	mu       sync.Mutex
	requests []seenRequest
}

func (o *testOrg) seen() []seenRequest {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]seenRequest(nil), o.requests...)
}

// startOrg serves routes keyed by "METHOD /path" and points the CLI
// configuration at the server.
func startOrg(t *testing.T, output string, routes map[string]http.HandlerFunc) *testOrg {
	t.Helper()
	resetViper(t)

	org := &testOrg{}
	org.Server = httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(request.Body).Decode(&body)

		org.mu.Lock()
		org.requests = append(org.requests, seenRequest{
			Method: request.Method,
			Path:   request.URL.Path,
			Query:  request.URL.Query(),
			Body:   body,
		})
		org.mu.Unlock()

		if request.Header.Get("Authorization") != "SSWS "+testToken {
			writer.WriteHeader(http.StatusUnauthorized)

			return
		}

		handler, ok := routes[request.Method+" "+request.URL.Path]
		if !ok {
			writer.Header().Set("Content-Type", "application/json")
			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte(`{"errorCode":"E0000007","errorSummary":"Not found"}`))

			return
		}

		handler(writer, request)
	}))
	t.Cleanup(org.Close)

	viper.Set(keyOrgURL, org.URL)
	viper.Set(keyAPIToken, testToken)
	viper.Set(keyAllowCustomDomain, true)
	viper.Set(keyOutput, output)

	return org
}

func respondJSON(body string) http.HandlerFunc {
	return func(writer http.ResponseWriter, _ *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(body))
	}
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func decodeOutput(t *testing.T, output string, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(output), target), output)
}
