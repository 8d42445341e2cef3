package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreero0/nestsync-timeline/internal/core/model"
)

func TestFetchRecordsDecodesPage(t *testing.T) {
	var gotRequest *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequest = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"records": [
				{"id": "r1", "loggedAt": "2024-01-15T09:00:00Z", "kind": "diaper_change", "actorName": "Alice", "quantity": 2.0},
				{"id": "r2", "loggedAt": "2024-01-15T08:00:00Z", "kind": "wipe_use"}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-token", 5*time.Second)
	records, err := client.FetchRecords(context.Background(), Query{
		ChildID:  "child-1",
		Kind:     "diaper_change",
		DaysBack: 30,
		Limit:    25,
		Offset:   50,
	})
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "r1", records[0].ID)
	assert.Equal(t, "Alice", records[0].ActorName)
	require.NotNil(t, records[0].Quantity)
	assert.Equal(t, 2.0, *records[0].Quantity)
	assert.Equal(t, "wipe_use", records[1].Kind)

	require.NotNil(t, gotRequest)
	assert.Equal(t, "/records", gotRequest.URL.Path)
	params := gotRequest.URL.Query()
	assert.Equal(t, "child-1", params.Get("childId"))
	assert.Equal(t, "diaper_change", params.Get("kind"))
	assert.Equal(t, "30", params.Get("daysBack"))
	assert.Equal(t, "25", params.Get("limit"))
	assert.Equal(t, "50", params.Get("offset"))
	assert.Equal(t, "Bearer secret-token", gotRequest.Header.Get("Authorization"))
	assert.NotEmpty(t, gotRequest.Header.Get("X-Request-Id"))
}

func TestFetchRecordsRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"records": [{"id": "r1", "loggedAt": "2024-01-15T09:00:00Z"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	records, err := client.FetchRecords(context.Background(), Query{ChildID: "child-1", Limit: 25})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchRecordsHonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"records": []}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	start := time.Now()
	_, err := client.FetchRecords(context.Background(), Query{ChildID: "child-1", Limit: 25})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Less(t, time.Since(start), 500*time.Millisecond, "Retry-After overrides the exponential delay")
}

func TestFetchRecordsExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "still down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	_, err := client.FetchRecords(context.Background(), Query{ChildID: "child-1", Limit: 25})
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())

	var netErr *model.NetworkError
	require.True(t, errors.As(err, &netErr))
	var apiErr *APIError
	require.True(t, errors.As(netErr.Err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
}

func TestFetchRecordsClientErrorDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "no such child", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	_, err := client.FetchRecords(context.Background(), Query{ChildID: "missing", Limit: 25})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var netErr *model.NetworkError
	assert.True(t, errors.As(err, &netErr))
}

func TestFetchRecordsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{"records": []}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 50*time.Millisecond)
	_, err := client.FetchRecords(context.Background(), Query{ChildID: "child-1", Limit: 25})
	require.Error(t, err)

	var timeoutErr *model.TimeoutError
	assert.True(t, errors.As(err, &timeoutErr))
}

func TestFetchRecordsMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"records": [`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)
	_, err := client.FetchRecords(context.Background(), Query{ChildID: "child-1", Limit: 25})
	require.Error(t, err)

	var netErr *model.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, "decode response", netErr.Op)
}
