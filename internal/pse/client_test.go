package pse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name         string
		template     string
		businessDate string
		want         string
	}{
		{
			name:         "json api template",
			template:     "https://api.example.com/api/pk5l-wp?$filter=business_date eq '{business_date}'",
			businessDate: "2026-01-15",
			want:         "https://api.example.com/api/pk5l-wp?$filter=business_date eq '2026-01-15'",
		},
		{
			name:         "compact date template",
			template:     "https://example.com/report_{business_date_compact}.csv",
			businessDate: "2026-01-15",
			want:         "https://example.com/report_20260115.csv",
		},
		{
			name:         "no placeholder",
			template:     "https://example.com/latest",
			businessDate: "2026-01-15",
			want:         "https://example.com/latest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildURL(tt.template, tt.businessDate))
		})
	}
}

func TestClient_FetchDay(t *testing.T) {
	body := `{"value":[{"business_date":"2026-01-15"}]}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2026-01-15", r.URL.Query().Get("date"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	client := &Client{httpClient: server.Client()}

	payload, err := client.FetchDay(context.Background(), server.URL+"?date={business_date}", "2026-01-15")
	require.NoError(t, err)
	assert.Equal(t, []byte(body), payload.Body)
	assert.Equal(t, server.URL+"?date=2026-01-15", payload.URL)
	assert.WithinDuration(t, time.Now().UTC(), payload.RetrievedAt, 5*time.Second)
}

func TestClient_FetchDayStatuses(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    error
	}{
		{name: "not found", statusCode: http.StatusNotFound, wantErr: ErrNotFound},
		{name: "rate limited", statusCode: http.StatusTooManyRequests, wantErr: ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			client := &Client{httpClient: server.Client()}

			_, err := client.FetchDay(context.Background(), server.URL, "2026-01-15")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_FetchDayRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"value":[]}`))
	}))
	defer server.Close()

	client := &Client{httpClient: server.Client()}

	payload, err := client.FetchDay(context.Background(), server.URL, "2026-01-15")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.NotEmpty(t, payload.Body)
}

func TestClient_FetchDayDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := &Client{httpClient: server.Client()}

	_, err := client.FetchDay(context.Background(), server.URL, "2026-01-15")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_FetchDayContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := &Client{httpClient: server.Client()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The first attempt fails with a 500; the retry backoff must observe the
	// cancelled context instead of sleeping.
	_, err := client.FetchDay(ctx, server.URL, "2026-01-15")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateRetryDelay(t *testing.T) {
	assert.Equal(t, 2*time.Second, calculateRetryDelay(1))
	assert.Equal(t, 4*time.Second, calculateRetryDelay(2))
	assert.Equal(t, maxRetryDelay, calculateRetryDelay(20))
}
