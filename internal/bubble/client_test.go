package bubble

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetwise/sheetmigrate/internal/config"
)

const testBaseURL = "https://app.example.com/version-live"

func newTestClient(t *testing.T, maxRetries int) *Client {
	t.Helper()

	client, err := NewClient(config.SourceConfig{
		BaseURL:        testBaseURL,
		APIToken:       "test-token",
		Timeout:        5 * time.Second,
		MaxRetries:     maxRetries,
		RetryBaseDelay: time.Millisecond,
		PageDelay:      0,
	}, nil)
	require.NoError(t, err)

	httpmock.ActivateNonDefault(client.httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)

	return client
}

func listBody(cursor int, remaining int, ids ...string) map[string]interface{} {
	results := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		results = append(results, map[string]interface{}{
			"_id":          id,
			"Created Date": "2023-04-01T10:00:00Z",
		})
	}
	return map[string]interface{}{
		"response": map[string]interface{}{
			"cursor":    cursor,
			"results":   results,
			"count":     len(ids),
			"remaining": remaining,
		},
	}
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(config.SourceConfig{APIToken: "t"}, nil)
	assert.Error(t, err, "missing base URL should fail")

	_, err = NewClient(config.SourceConfig{BaseURL: testBaseURL}, nil)
	assert.Error(t, err, "missing API token should fail")
}

func TestList(t *testing.T) {
	client := newTestClient(t, 0)

	var gotAuth string
	httpmock.RegisterResponder("GET", testBaseURL+"/api/1.1/obj/user",
		func(req *http.Request) (*http.Response, error) {
			gotAuth = req.Header.Get("Authorization")
			assert.Equal(t, "0", req.URL.Query().Get("cursor"))
			assert.Equal(t, "100", req.URL.Query().Get("limit"))
			return httpmock.NewJsonResponse(200, listBody(0, 2, "u1", "u2"))
		})

	page, err := client.List(context.Background(), "user", 0, 100, nil)
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, 2, page.Count)
	assert.Equal(t, 2, page.Remaining)
	assert.Equal(t, 4, page.Total())
	assert.Equal(t, "u1", page.Results[0].ID())
}

func TestList_ConstraintsEncoded(t *testing.T) {
	client := newTestClient(t, 0)

	httpmock.RegisterResponder("GET", testBaseURL+"/api/1.1/obj/sheet",
		func(req *http.Request) (*http.Response, error) {
			raw := req.URL.Query().Get("constraints")
			assert.JSONEq(t, `[{"key":"archived","constraint_type":"equals","value":false}]`, raw)
			return httpmock.NewJsonResponse(200, listBody(0, 0))
		})

	_, err := client.List(context.Background(), "sheet", 0, 100, []Constraint{
		{Key: "archived", ConstraintType: "equals", Value: false},
	})
	require.NoError(t, err)
}

func TestList_ClientErrorNotRetried(t *testing.T) {
	client := newTestClient(t, 5)

	httpmock.RegisterResponder("GET", testBaseURL+"/api/1.1/obj/user",
		httpmock.NewStringResponder(400, `{"statusCode":400,"message":"bad constraint"}`))

	_, err := client.List(context.Background(), "user", 0, 100, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 400")
	assert.Contains(t, err.Error(), "bad constraint")
	assert.Equal(t, 1, httpmock.GetTotalCallCount(), "4xx responses must not be retried")
}

func TestGet_RetriesThenSucceeds(t *testing.T) {
	client := newTestClient(t, 5)

	calls := 0
	httpmock.RegisterResponder("GET", testBaseURL+"/api/1.1/obj/user",
		func(req *http.Request) (*http.Response, error) {
			calls++
			if calls <= 2 {
				return httpmock.NewStringResponse(429, "rate limited"), nil
			}
			return httpmock.NewJsonResponse(200, listBody(0, 0, "u1"))
		})

	page, err := client.List(context.Background(), "user", 0, 100, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Count)
	assert.Equal(t, 3, calls)
}

func TestGet_RetriesExhausted(t *testing.T) {
	client := newTestClient(t, 2)
	client.retryBaseDelay = 20 * time.Millisecond

	var attempts []time.Time
	httpmock.RegisterResponder("GET", testBaseURL+"/api/1.1/obj/user",
		func(req *http.Request) (*http.Response, error) {
			attempts = append(attempts, time.Now())
			return httpmock.NewStringResponse(503, "unavailable"), nil
		})

	_, err := client.List(context.Background(), "user", 0, 100, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRetriesExhausted), "expected ErrRetriesExhausted, got %v", err)
	assert.Contains(t, err.Error(), "last status 503")

	// Initial attempt plus maxRetries retries, the delay before each retry
	// doubling from the base.
	require.Len(t, attempts, 3)
	firstWait := attempts[1].Sub(attempts[0])
	secondWait := attempts[2].Sub(attempts[1])
	assert.GreaterOrEqual(t, firstWait, 20*time.Millisecond)
	assert.GreaterOrEqual(t, secondWait, 40*time.Millisecond)
	assert.Greater(t, secondWait, firstWait, "backoff delays should increase")
}

func TestGet_ContextCancelledDuringBackoff(t *testing.T) {
	client := newTestClient(t, 5)
	client.retryBaseDelay = time.Minute

	httpmock.RegisterResponder("GET", testBaseURL+"/api/1.1/obj/user",
		httpmock.NewStringResponder(429, "rate limited"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.List(ctx, "user", 0, 100, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "expected deadline error, got %v", err)
}

func TestGetByID(t *testing.T) {
	client := newTestClient(t, 0)

	httpmock.RegisterResponder("GET", testBaseURL+"/api/1.1/obj/user/u1",
		httpmock.NewJsonResponderOrPanic(200, map[string]interface{}{
			"response": map[string]interface{}{"_id": "u1", "email": "a@example.com"},
		}))

	rec, err := client.GetByID(context.Background(), "user", "u1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "u1", rec.ID())
	assert.Equal(t, "a@example.com", rec.String("email"))
}

func TestGetByID_NotFound(t *testing.T) {
	client := newTestClient(t, 0)

	httpmock.RegisterResponder("GET", testBaseURL+"/api/1.1/obj/user/gone",
		httpmock.NewStringResponder(404, `{"statusCode":404}`))

	rec, err := client.GetByID(context.Background(), "user", "gone")
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestGetByID_NullResponse(t *testing.T) {
	client := newTestClient(t, 0)

	httpmock.RegisterResponder("GET", testBaseURL+"/api/1.1/obj/user/deleted",
		httpmock.NewStringResponder(200, `{"response":null}`))

	rec, err := client.GetByID(context.Background(), "user", "deleted")
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestCountAll(t *testing.T) {
	client := newTestClient(t, 0)

	httpmock.RegisterResponder("GET", testBaseURL+"/api/1.1/obj/response",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "1", req.URL.Query().Get("limit"))
			return httpmock.NewJsonResponse(200, listBody(0, 341, "r1"))
		})

	total, err := client.CountAll(context.Background(), "response")
	require.NoError(t, err)
	assert.Equal(t, 342, total)
}

func TestPager_WalksWholeCollection(t *testing.T) {
	client := newTestClient(t, 0)

	// 250 records, batch size 100: pages of 100, 100, 50.
	const total = 250
	httpmock.RegisterResponder("GET", testBaseURL+"/api/1.1/obj/answer",
		func(req *http.Request) (*http.Response, error) {
			var cursor, limit int
			fmt.Sscanf(req.URL.Query().Get("cursor"), "%d", &cursor)
			fmt.Sscanf(req.URL.Query().Get("limit"), "%d", &limit)

			count := limit
			if cursor+count > total {
				count = total - cursor
			}
			ids := make([]string, count)
			for i := range ids {
				ids[i] = fmt.Sprintf("a%d", cursor+i)
			}
			return httpmock.NewJsonResponse(200, listBody(cursor, total-cursor-count, ids...))
		})

	pager := client.Iterate("answer", 100)

	var seen []string
	for {
		records, err := pager.Next(context.Background())
		require.NoError(t, err)
		if records == nil {
			break
		}
		for _, rec := range records {
			seen = append(seen, rec.ID())
		}
	}

	require.Len(t, seen, total)
	assert.Equal(t, "a0", seen[0])
	assert.Equal(t, "a249", seen[total-1])
	assert.Equal(t, total, pager.Total())
	assert.Equal(t, 3, httpmock.GetTotalCallCount())
}

func TestPager_EmptyCollection(t *testing.T) {
	client := newTestClient(t, 0)

	httpmock.RegisterResponder("GET", testBaseURL+"/api/1.1/obj/tag",
		httpmock.NewJsonResponderOrPanic(200, listBody(0, 0)))

	pager := client.Iterate("tag", 100)

	records, err := pager.Next(context.Background())
	require.NoError(t, err)
	assert.Nil(t, records)
	assert.Equal(t, 0, pager.Total())

	// Exhausted pagers stay exhausted without issuing more requests.
	records, err = pager.Next(context.Background())
	require.NoError(t, err)
	assert.Nil(t, records)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestIterate_ClampsBatchSize(t *testing.T) {
	client := newTestClient(t, 0)

	pager := client.Iterate("user", 0)
	assert.Equal(t, config.MaxPageSize, pager.limit)

	pager = client.Iterate("user", 500)
	assert.Equal(t, config.MaxPageSize, pager.limit)

	pager = client.Iterate("user", 25)
	assert.Equal(t, 25, pager.limit)
}
