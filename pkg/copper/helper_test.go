package copper_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/copperhq/copper-client/pkg/copper"
)

// newTestClient starts a server for handler and returns a client pointed at
// it.
func newTestClient(t *testing.T, handler http.Handler) *copper.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := copper.New(&copper.Config{
		Endpoint: server.URL,
		Email:    "user@example.com",
		Token:    "test-token",
	})
	require.NoError(t, err)

	return client
}

// writeJSON encodes v to the response.
func writeJSON(t *testing.T, writer http.ResponseWriter, v any) {
	t.Helper()

	err := json.NewEncoder(writer).Encode(v)
	require.NoError(t, err)
}

// decodeBody decodes a request body into a map.
func decodeBody(t *testing.T, request *http.Request) map[string]any {
	t.Helper()

	var body map[string]any

	err := json.NewDecoder(request.Body).Decode(&body)
	require.NoError(t, err)

	return body
}
