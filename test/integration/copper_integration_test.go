// Package integration holds tests that exercise the client against a real
// Copper account. They are skipped unless COPPER_API_TOKEN and
// COPPER_USER_EMAIL are set.
package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copperhq/copper-client/pkg/copper"
)

func integrationClient(t *testing.T) *copper.Client {
	t.Helper()

	token := os.Getenv("COPPER_API_TOKEN")
	email := os.Getenv("COPPER_USER_EMAIL")

	if token == "" || email == "" {
		t.Skip("COPPER_API_TOKEN and COPPER_USER_EMAIL not set, skipping integration tests")
	}

	client, err := copper.New(&copper.Config{
		Email:    email,
		Token:    token,
		Endpoint: os.Getenv("COPPER_API_ENDPOINT"),
	})
	require.NoError(t, err)

	return client
}

func TestIntegration_ListUsers(t *testing.T) {
	client := integrationClient(t)

	users, err := client.Users().All().All(context.Background())
	require.NoError(t, err)

	// Every account has at least its owner.
	require.NotEmpty(t, users)
	assert.NotEmpty(t, users[0].Email())
}

func TestIntegration_ListActivityTypes(t *testing.T) {
	client := integrationClient(t)

	kinds, err := client.ActivityTypes().All().All(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, kinds)

	for _, kind := range kinds {
		assert.Contains(t, []string{"user", "system"}, kind.Category())
	}
}

func TestIntegration_PersonLifecycle(t *testing.T) {
	client := integrationClient(t)
	ctx := context.Background()

	name := fmt.Sprintf("integration test %d", time.Now().UnixNano())

	person, err := copper.NewPerson(client, copper.Values{"name": name})
	require.NoError(t, err)
	require.NoError(t, person.Create(ctx))

	defer func() {
		_ = person.Delete(ctx)
	}()

	require.NotZero(t, person.ID())

	fetched, err := client.People().Get(ctx, person.ID())
	require.NoError(t, err)
	assert.Equal(t, name, fetched.Name())

	require.NoError(t, person.Set("title", "integration"))
	require.NoError(t, person.Update(ctx))

	fetched, err = client.People().Get(ctx, person.ID())
	require.NoError(t, err)

	title, ok := fetched.Str("title")
	require.True(t, ok)
	assert.Equal(t, "integration", title)

	require.NoError(t, person.Delete(ctx))

	_, err = client.People().Get(ctx, person.ID())
	assert.True(t, copper.IsNotFound(err))
}

func TestIntegration_Search(t *testing.T) {
	client := integrationClient(t)

	people, err := client.People().All().Slice(context.Background(), 0, 5)
	require.NoError(t, err)

	for _, person := range people {
		assert.NotZero(t, person.ID())
	}
}
