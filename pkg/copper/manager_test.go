package copper_test

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copperhq/copper-client/pkg/copper"
)

func TestListOnlyManager_All(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, http.MethodGet, request.Method)
		assert.Equal(t, "/v1/users", request.URL.Path)

		writeJSON(t, writer, []map[string]any{
			{"id": 1, "name": "Grace Hopper", "email": "grace@example.com"},
			{"id": 2, "name": "Ada Lovelace", "email": "ada@example.com"},
		})
	}))

	users, err := client.Users().All().All(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "grace@example.com", users[0].Email())
}

func TestListOnlyManager_GetUsesIndex(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		requests.Add(1)
		writeJSON(t, writer, []map[string]any{
			{"id": 1, "name": "Grace Hopper", "email": "grace@example.com"},
		})
	}))

	ctx := context.Background()

	user, err := client.Users().Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", user.Name())
	assert.Equal(t, int64(1), requests.Load())

	// Second hit is served from the index.
	_, err = client.Users().Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), requests.Load())
}

func TestListOnlyManager_GetMissForcesOneRefresh(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		requests.Add(1)
		writeJSON(t, writer, []map[string]any{
			{"id": 1, "name": "Grace Hopper", "email": "grace@example.com"},
		})
	}))

	ctx := context.Background()

	_, err := client.Users().Get(ctx, 1)
	require.NoError(t, err)

	_, err = client.Users().Get(ctx, 99)
	require.ErrorIs(t, err, copper.ErrRecordNotFound)

	// The initial listing plus exactly one forced refresh for the miss.
	assert.Equal(t, int64(2), requests.Load())
}

func TestListOnlyManager_SectionedListing(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/v1/activity_types", request.URL.Path)

		writeJSON(t, writer, map[string]any{
			"user": []map[string]any{
				{"id": 10, "category": "user", "name": "Demo"},
			},
			"system": []map[string]any{
				{"id": 1, "category": "system", "name": "Property Changed"},
			},
		})
	}))

	kinds, err := client.ActivityTypes().All().All(context.Background())
	require.NoError(t, err)
	require.Len(t, kinds, 2)

	// User section first, then system.
	assert.Equal(t, "user", kinds[0].Category())
	assert.Equal(t, "system", kinds[1].Category())
}

func TestPeopleManager_FindByEmail(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, http.MethodPost, request.Method)
		assert.Equal(t, "/v1/people/fetch_by_email", request.URL.Path)

		body := decodeBody(t, request)
		assert.Equal(t, "ada@example.com", body["email"])

		writeJSON(t, writer, map[string]any{"id": 42, "name": "Ada Lovelace"})
	}))

	person, err := client.People().FindByEmail(context.Background(), "  ada@example.com ")
	require.NoError(t, err)
	assert.Equal(t, int64(42), person.ID())
}

func TestManager_Use(t *testing.T) {
	t.Parallel()

	primary := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(t, writer, map[string]any{"id": 1, "name": "primary person"})
	}))

	secondary := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(t, writer, map[string]any{"id": 1, "name": "secondary person"})
	}))

	registry := copper.NewRegistry()
	require.NoError(t, registry.Register(copper.DefaultConnection, primary))
	require.NoError(t, registry.Register("secondary", secondary))

	manager, err := primary.People().Use("secondary")
	require.NoError(t, err)

	person, err := manager.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "secondary person", person.Name())
}

func TestManager_UseWithoutRegistry(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
	}))

	_, err := client.People().Use("other")
	require.ErrorIs(t, err, copper.ErrNoRegistry)
}
