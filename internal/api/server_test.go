package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"wellmeet/internal/config"
	"wellmeet/internal/database"
	"wellmeet/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRecommender struct {
	out []models.Candidate
}

func (s stubRecommender) Recommend(ctx context.Context, query string) ([]models.Candidate, error) {
	return s.out, nil
}

func newTestServer(t *testing.T, cfg config.ServerConfig) (*httptest.Server, *database.DB) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	srv := NewServer(cfg, db, stubRecommender{out: []models.Candidate{{ID: "1", Name: "라비올로"}}}, &logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, db
}

func TestServer_ReservationRoundTrip(t *testing.T) {
	ts, _ := newTestServer(t, config.ServerConfig{})
	c := newTestClient(ts.URL)
	ctx := context.Background()

	rec, err := c.CreateReservation(ctx, models.ReservationRequest{
		RestaurantID: "1", RestaurantName: "라비올로",
		Date: "2026-10-20", Time: "12:00", PartySize: 2, Adults: 2, EstimatedCost: 300000,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, rec.Status)
	assert.NotEmpty(t, rec.ConfirmationNumber)

	got, err := c.GetReservation(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ConfirmationNumber, got.ConfirmationNumber)

	modified, err := c.UpdateReservation(ctx, rec.ID, models.ReservationRequest{
		RestaurantID: "1", Date: "2026-10-21", Time: "18:00", PartySize: 3, Adults: 2, Children: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, rec.ID, modified.ID)
	assert.Equal(t, "18:00", modified.Time)
	assert.Equal(t, models.StatusPending, modified.Status)

	cancelled, err := c.UpdateReservationStatus(ctx, rec.ID, models.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	list, err := c.ListReservations(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	notifications, err := c.ListNotifications(ctx)
	require.NoError(t, err)
	assert.Len(t, notifications, 2)

	require.NoError(t, c.MarkNotificationRead(ctx, notifications[0].ID))
	require.NoError(t, c.MarkAllNotificationsRead(ctx))
}

func TestServer_NotFoundAndValidation(t *testing.T) {
	ts, _ := newTestServer(t, config.ServerConfig{})
	c := newTestClient(ts.URL)

	_, err := c.GetReservation(context.Background(), "404")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, StatusCode(err))

	_, err = c.CreateReservation(context.Background(), models.ReservationRequest{RestaurantID: "1"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))

	_, err = c.UpdateReservationStatus(context.Background(), "1", "lost")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
}

func TestServer_Recommend(t *testing.T) {
	ts, _ := newTestServer(t, config.ServerConfig{})

	got, err := newTestClient(ts.URL).Recommend(context.Background(), "데이트")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "라비올로", got[0].Name)
}

func TestServer_Auth(t *testing.T) {
	ts, _ := newTestServer(t, config.ServerConfig{
		APIKeys: []config.APIClientKey{{Name: "bot", Key: "key", Extra: "extra"}},
	})

	_, err := newTestClient(ts.URL).ListReservations(context.Background())
	assert.NoError(t, err)

	bad := NewClient(config.UpstreamConfig{BaseURL: ts.URL, APIKey: "wrong", APIExtra: "extra"}, nil)
	_, err = bad.ListReservations(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_RateLimit(t *testing.T) {
	ts, _ := newTestServer(t, config.ServerConfig{RPS: 0.001, Burst: 1})
	c := newTestClient(ts.URL)

	_, err := c.ListReservations(context.Background())
	require.NoError(t, err)

	_, err = c.ListReservations(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, StatusCode(err))
}

func TestServer_RejectsMismatchedParty(t *testing.T) {
	ts, db := newTestServer(t, config.ServerConfig{})
	c := newTestClient(ts.URL)

	_, err := c.CreateReservation(context.Background(), models.ReservationRequest{
		RestaurantID: "1", Date: "2026-10-20", Time: "12:00", PartySize: 9, Adults: 1, EstimatedCost: 1,
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))

	_, err = c.CreateReservation(context.Background(), models.ReservationRequest{
		RestaurantID: "1", Date: "2026-10-20", Time: "12:00", PartySize: 1, Adults: 0, Children: 1,
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))

	list, err := db.ListReservations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)

	rec, err := c.CreateReservation(context.Background(), models.ReservationRequest{
		RestaurantID: "1", Date: "2026-10-20", Time: "12:00", PartySize: 1, Adults: 1, EstimatedCost: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(150000), rec.EstimatedCost)
}

func TestServer_TerminalReservationConflicts(t *testing.T) {
	ts, _ := newTestServer(t, config.ServerConfig{})
	c := newTestClient(ts.URL)
	ctx := context.Background()

	rec, err := c.CreateReservation(ctx, models.ReservationRequest{
		RestaurantID: "1", Date: "2026-10-20", Time: "12:00", PartySize: 2, Adults: 2,
	})
	require.NoError(t, err)

	_, err = c.UpdateReservationStatus(ctx, rec.ID, models.StatusCancelled)
	require.NoError(t, err)

	_, err = c.UpdateReservationStatus(ctx, rec.ID, models.StatusPending)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, StatusCode(err))

	_, err = c.UpdateReservation(ctx, rec.ID, models.ReservationRequest{
		RestaurantID: "1", Date: "2026-10-21", Time: "18:00", PartySize: 2, Adults: 2,
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, StatusCode(err))

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/reservation/"+rec.ID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	got, err := c.GetReservation(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
}
