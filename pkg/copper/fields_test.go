package copper_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copperhq/copper-client/pkg/copper"
)

func TestUnixField_RoundTrip(t *testing.T) {
	t.Parallel()

	field := copper.UnixField()
	ctx := context.Background()

	loaded, err := field.Load(ctx, nil, float64(1483988969))
	require.NoError(t, err)

	stamp, ok := loaded.(time.Time)
	require.True(t, ok)
	assert.Equal(t, time.Unix(1483988969, 0).UTC(), stamp)

	dumped, err := field.Dump(stamp)
	require.NoError(t, err)
	assert.Equal(t, int64(1483988969), dumped)
}

func TestUnixField_Malformed(t *testing.T) {
	t.Parallel()

	field := copper.UnixField()

	_, err := field.Load(context.Background(), nil, "not a timestamp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed timestamp")
}

func TestEmailField_TrimsWhitespace(t *testing.T) {
	t.Parallel()

	field := copper.EmailField()

	loaded, err := field.Load(context.Background(), nil, "  user@example.com \n")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", loaded)
}

func TestEmailField_Invalid(t *testing.T) {
	t.Parallel()

	field := copper.EmailField()

	for _, bad := range []string{"not-an-email", "two words@example.com", "user@nodot"} {
		_, err := field.Load(context.Background(), nil, bad)
		require.Error(t, err, "expected %q to be rejected", bad)
	}
}

func TestURLField(t *testing.T) {
	t.Parallel()

	field := copper.URLField()
	ctx := context.Background()

	loaded, err := field.Load(ctx, nil, "https://example.com/x")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/x", loaded)

	_, err = field.Load(ctx, nil, "example.com/no-scheme")
	require.Error(t, err)
}

func TestIntegerField_AcceptsIntegralFloats(t *testing.T) {
	t.Parallel()

	field := copper.IntegerField()
	ctx := context.Background()

	loaded, err := field.Load(ctx, nil, float64(42))
	require.NoError(t, err)
	assert.Equal(t, int64(42), loaded)

	_, err = field.Load(ctx, nil, 42.5)
	require.Error(t, err)
}

func TestBoundedFloatField(t *testing.T) {
	t.Parallel()

	field := copper.BoundedFloatField(0, 100)
	ctx := context.Background()

	loaded, err := field.Load(ctx, nil, 99.5)
	require.NoError(t, err)
	assert.InDelta(t, 99.5, loaded, 0.0001)

	_, err = field.Load(ctx, nil, float64(101))
	require.Error(t, err)
}

func TestStringField_NullHandling(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	strict := copper.StringField()
	_, err := strict.Load(ctx, nil, nil)
	require.ErrorIs(t, err, copper.ErrNullNotAllowed)

	nullable := copper.StringField(copper.AllowNull())
	loaded, err := nullable.Load(ctx, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestIdentifierField_Placeholder(t *testing.T) {
	t.Parallel()

	field := copper.IdentifierField(false)

	loaded, err := field.Load(context.Background(), nil, map[string]any{
		"type": "project",
		"id":   float64(9),
	})
	require.NoError(t, err)

	placeholder, ok := loaded.(*copper.Placeholder)
	require.True(t, ok)
	assert.Equal(t, "project", placeholder.Tag)
	assert.Equal(t, int64(9), placeholder.ID)
	assert.Equal(t, "project 9", placeholder.String())
}

func TestIdentifierField_NullType(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	raw := map[string]any{"type": nil, "id": nil}

	nullable := copper.IdentifierField(false, copper.AllowNull())
	loaded, err := nullable.Load(ctx, nil, raw)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	strict := copper.IdentifierField(false)
	_, err = strict.Load(ctx, nil, raw)
	require.ErrorIs(t, err, copper.ErrNullNotAllowed)
}

func TestIdentifierField_UnknownTag(t *testing.T) {
	t.Parallel()

	field := copper.IdentifierField(false)

	_, err := field.Load(context.Background(), nil, map[string]any{
		"type": "starship",
		"id":   float64(1),
	})
	require.ErrorIs(t, err, copper.ErrUnknownIdentifierType)
}

func TestIdentifierField_DumpNull(t *testing.T) {
	t.Parallel()

	nullable := copper.IdentifierField(false, copper.AllowNull())
	dumped, err := nullable.Dump(nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"type": nil, "id": nil}, dumped)

	strict := copper.IdentifierField(false)
	_, err = strict.Dump(nil)
	require.ErrorIs(t, err, copper.ErrNullNotAllowed)
}

func TestIdentifierField_DumpPlaceholder(t *testing.T) {
	t.Parallel()

	field := copper.IdentifierField(false)

	dumped, err := field.Dump(&copper.Placeholder{Tag: "task", ID: 3})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"type": "task", "id": int64(3)}, dumped)
}

func TestIdentifierOf_UnknownTag(t *testing.T) {
	t.Parallel()

	_, err := copper.IdentifierOf(&copper.Placeholder{Tag: "starship", ID: 1})
	require.ErrorIs(t, err, copper.ErrUnknownIdentifierType)
}
