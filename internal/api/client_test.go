package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wellmeet/internal/config"
	"wellmeet/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.UpstreamConfig{
		BaseURL:  baseURL,
		APIKey:   "key",
		APIExtra: "extra",
		MemberID: "7",
	}, nil)
}

func TestClient_RecommendPreservesOrder(t *testing.T) {
	var gotQuery, gotMember, gotKey string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/recommend", r.URL.Path)
		gotMember = r.URL.Query().Get("memberId")
		gotKey = r.Header.Get("x-api-key")

		var body recommendRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotQuery = body.Query

		writeJSON(w, http.StatusOK, []models.Candidate{
			{ID: "9", Name: "C"}, {ID: "1", Name: "A"}, {ID: "5", Name: "B"},
		})
	}))
	defer ts.Close()

	got, err := newTestClient(ts.URL).Recommend(context.Background(), "조용한 데이트 장소")
	require.NoError(t, err)

	assert.Equal(t, "조용한 데이트 장소", gotQuery)
	assert.Equal(t, "7", gotMember)
	assert.Equal(t, "key", gotKey)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"9", "1", "5"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestClient_ErrorTaxonomy(t *testing.T) {
	t.Run("non-2xx is a service error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusBadGateway, "upstream down")
		}))
		defer ts.Close()

		_, err := newTestClient(ts.URL).Recommend(context.Background(), "q")
		require.Error(t, err)
		assert.True(t, IsServiceError(err))
		assert.False(t, IsTransportError(err))
		assert.Equal(t, http.StatusBadGateway, StatusCode(err))
	})

	t.Run("malformed body is a service error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("{not json"))
		}))
		defer ts.Close()

		_, err := newTestClient(ts.URL).Recommend(context.Background(), "q")
		require.Error(t, err)
		assert.True(t, IsServiceError(err))
	})

	t.Run("unreachable host is a transport error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := ts.URL
		ts.Close()

		_, err := newTestClient(url).Recommend(context.Background(), "q")
		require.Error(t, err)
		assert.True(t, IsTransportError(err))
		assert.False(t, IsServiceError(err))
	})
}

func TestClient_RecommendCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(w, http.StatusOK, []models.Candidate{{ID: "1"}})
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)
	c.UseRedisCache(rdb, time.Minute)

	for i := 0; i < 3; i++ {
		got, err := c.Recommend(context.Background(), "가족 모임")
		require.NoError(t, err)
		require.Len(t, got, 1)
	}
	assert.Equal(t, 1, calls)
}

func TestClient_RecommendCacheKeysAndEmptyResults(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	queries := []string{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body recommendRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		queries = append(queries, body.Query)
		if body.Query == "없는 조건" {
			writeJSON(w, http.StatusOK, []models.Candidate{})
			return
		}
		writeJSON(w, http.StatusOK, []models.Candidate{{ID: "1"}})
	}))
	defer ts.Close()

	c := newTestClient(ts.URL)
	c.UseRedisCache(rdb, time.Minute)
	ctx := context.Background()

	_, err := c.Recommend(ctx, "가족 모임")
	require.NoError(t, err)
	_, err = c.Recommend(ctx, " 가족 모임 ")
	require.NoError(t, err)
	assert.Equal(t, []string{"가족 모임", " 가족 모임 "}, queries, "queries differing in whitespace are sent separately")

	for i := 0; i < 2; i++ {
		got, err := c.Recommend(ctx, "없는 조건")
		require.NoError(t, err)
		assert.Empty(t, got)
	}
	assert.Len(t, queries, 4, "empty results are not cached")
	assert.False(t, mr.Exists("recommend:"+hashQuery("없는 조건")))
	assert.True(t, mr.Exists("recommend:"+hashQuery(" 가족 모임 ")))
}

func TestClient_StatusUpdateBody(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/reservation/12", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, models.BookingRecord{ID: "12", Status: models.StatusCancelled})
	}))
	defer ts.Close()

	rec, err := newTestClient(ts.URL).UpdateReservationStatus(context.Background(), "12", models.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, rec.Status)
	assert.Equal(t, map[string]any{"status": "cancelled"}, body)
}
