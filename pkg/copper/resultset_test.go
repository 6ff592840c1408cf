package copper_test

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copperhq/copper-client/pkg/copper"
)

// searchServer serves a fixed number of person rows through the paginated
// search endpoint and counts requests.
func searchServer(t *testing.T, total int, requests *atomic.Int64) *copper.Client {
	t.Helper()

	return newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		requests.Add(1)

		assert.Equal(t, http.MethodPost, request.Method)
		assert.Equal(t, "/v1/people/search", request.URL.Path)

		body := decodeBody(t, request)
		assert.InDelta(t, copper.StandardPageSize, body["page_size"], 0)

		page := int(body["page_number"].(float64))
		start := (page - 1) * copper.StandardPageSize

		rows := []map[string]any{}

		for i := start; i < total && i < start+copper.StandardPageSize; i++ {
			rows = append(rows, map[string]any{
				"id":   i + 1,
				"name": fmt.Sprintf("person %d", i+1),
			})
		}

		writeJSON(t, writer, rows)
	}))
}

func TestResultSet_SliceFetchesEveryPage(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64

	client := searchServer(t, 1000, &requests)

	people, err := client.People().All().Slice(context.Background(), 0, 1000)
	require.NoError(t, err)
	require.Len(t, people, 1000)

	assert.Equal(t, "person 1", people[0].Name())
	assert.Equal(t, "person 1000", people[999].Name())

	// Exactly the ten pages covering the slice; the empty page that would
	// signal exhaustion is never needed.
	assert.Equal(t, int64(10), requests.Load())
}

func TestResultSet_AtFetchesOnlyNeededPages(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64

	client := searchServer(t, 1000, &requests)

	person, err := client.People().All().At(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "person 6", person.Name())
	assert.Equal(t, int64(1), requests.Load())
}

func TestResultSet_ShortPageEndsIteration(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64

	client := searchServer(t, 150, &requests)

	people, err := client.People().All().All(context.Background())
	require.NoError(t, err)
	assert.Len(t, people, 150)

	// The second page is short, so no third request is made.
	assert.Equal(t, int64(2), requests.Load())
}

func TestResultSet_Memoized(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64

	client := searchServer(t, 150, &requests)
	results := client.People().All()
	ctx := context.Background()

	_, err := results.All(ctx)
	require.NoError(t, err)

	_, err = results.All(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), requests.Load(), "a drained result set must not refetch")
}

func TestResultSet_IndexErrors(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64

	client := searchServer(t, 3, &requests)
	results := client.People().All()
	ctx := context.Background()

	_, err := results.At(ctx, -1)
	require.ErrorIs(t, err, copper.ErrNegativeIndex)

	_, err = results.Slice(ctx, -1, 2)
	require.ErrorIs(t, err, copper.ErrNegativeIndex)

	_, err = results.At(ctx, 3)
	require.ErrorIs(t, err, copper.ErrIndexOutOfRange)
}

func TestResultSet_SliceClamps(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64

	client := searchServer(t, 3, &requests)
	ctx := context.Background()

	people, err := client.People().All().Slice(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, people, 2)

	people, err = client.People().All().SliceFrom(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, people)
}

func TestResultSet_FilterMerge(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64

	client := searchServer(t, 0, &requests)

	base := client.People().Filter(copper.Values{"country": "GB"})
	narrowed := base.Filter(copper.Values{"city": "London"})
	overridden := narrowed.Filter(copper.Values{"country": "US"})

	assert.Equal(t, copper.Values{"country": "GB"}, base.Params())
	assert.Equal(t, copper.Values{"country": "GB", "city": "London"}, narrowed.Params())
	assert.Equal(t, copper.Values{"country": "US", "city": "London"}, overridden.Params())
}

func TestResultSet_OrderBy(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64

	client := searchServer(t, 0, &requests)

	ascending, err := client.People().OrderBy("name")
	require.NoError(t, err)
	assert.Equal(t, "name", ascending.SortBy())
	assert.Equal(t, "asc", ascending.SortDirection())

	descending, err := ascending.OrderBy("-date_modified")
	require.NoError(t, err)
	assert.Equal(t, "date_modified", descending.SortBy())
	assert.Equal(t, "desc", descending.SortDirection())

	// The original is untouched.
	assert.Equal(t, "name", ascending.SortBy())

	_, err = client.People().OrderBy("shoe_size")
	require.ErrorIs(t, err, copper.ErrNotOrderable)
	assert.Contains(t, err.Error(), "name")
}

func TestResultSet_SortParamsOnWire(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		body := decodeBody(t, request)
		assert.Equal(t, "London", body["city"])
		assert.Equal(t, "name", body["sort_by"])
		assert.Equal(t, "desc", body["sort_direction"])

		writeJSON(t, writer, []map[string]any{})
	}))

	results, err := client.People().Filter(copper.Values{"city": "London"}).OrderBy("-name")
	require.NoError(t, err)

	people, err := results.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, people)
}

func TestResultSet_StoreInvalid(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(t, writer, []map[string]any{
			{"id": 1, "name": "valid person"},
			{"id": 2, "name": 7},
		})
	}))

	var invalid []copper.RowError

	people, err := client.People().All().StoreInvalid(&invalid).All(context.Background())
	require.NoError(t, err)

	require.Len(t, people, 1)
	assert.Equal(t, "valid person", people[0].Name())

	require.Len(t, invalid, 1)
	assert.True(t, copper.IsValidation(invalid[0].Err))
	assert.InDelta(t, 2, invalid[0].Raw["id"], 0)
}

func TestResultSet_InvalidRowFailsWithoutSink(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(t, writer, []map[string]any{
			{"id": 2, "name": 7},
		})
	}))

	_, err := client.People().All().All(context.Background())
	require.Error(t, err)
	assert.True(t, copper.IsValidation(err))
}

func TestResultSet_Iterator(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64

	client := searchServer(t, 3, &requests)

	iterator := client.People().All().Iterator(context.Background())

	var names []string

	for iterator.HasNext() {
		person, err := iterator.Next()
		require.NoError(t, err)

		names = append(names, person.Name())
	}

	require.NoError(t, iterator.Err())
	assert.Equal(t, []string{"person 1", "person 2", "person 3"}, names)
}

func TestResultSet_ForEach(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64

	client := searchServer(t, 5, &requests)

	count := 0
	err := client.People().All().ForEach(context.Background(), func(person *copper.Person) error {
		count++

		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}
