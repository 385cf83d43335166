package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"wellmeet/internal/domain"
	"wellmeet/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bridges(t *testing.T) map[string]domain.QuickReservationBridge {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return map[string]domain.QuickReservationBridge{
		"memory": NewMemoryQuickReservationStore(time.Hour),
		"redis":  NewRedisQuickReservationStore(client, time.Hour),
	}
}

func TestQuickReservation_TakeOnce(t *testing.T) {
	ctx := context.Background()
	payload := models.QuickReservationPayload{RestaurantID: "1", Date: "2026-10-20", Time: "18:00", PartySizeBucket: "2명"}

	for name, bridge := range bridges(t) {
		t.Run(name, func(t *testing.T) {
			got, err := bridge.Take(ctx, 1)
			require.NoError(t, err)
			assert.Nil(t, got)

			require.NoError(t, bridge.Offer(ctx, 1, payload))

			got, err = bridge.Take(ctx, 1)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, payload, *got)

			got, err = bridge.Take(ctx, 1)
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestQuickReservation_LatestOfferWins(t *testing.T) {
	ctx := context.Background()

	for name, bridge := range bridges(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, bridge.Offer(ctx, 2, models.QuickReservationPayload{Time: "12:00"}))
			require.NoError(t, bridge.Offer(ctx, 2, models.QuickReservationPayload{Time: "19:00"}))

			got, err := bridge.Take(ctx, 2)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "19:00", got.Time)
		})
	}
}

func TestQuickReservation_ConcurrentTake(t *testing.T) {
	ctx := context.Background()

	for name, bridge := range bridges(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, bridge.Offer(ctx, 3, models.QuickReservationPayload{Date: "2026-10-20"}))

			const readers = 8
			var wg sync.WaitGroup
			results := make(chan bool, readers)
			for i := 0; i < readers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					got, err := bridge.Take(ctx, 3)
					results <- err == nil && got != nil
				}()
			}
			wg.Wait()
			close(results)

			taken := 0
			for ok := range results {
				if ok {
					taken++
				}
			}
			assert.Equal(t, 1, taken)
		})
	}
}

func TestMemoryQuickReservation_Expired(t *testing.T) {
	store := NewMemoryQuickReservationStore(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, store.Offer(ctx, 4, models.QuickReservationPayload{Date: "2026-10-20"}))
	time.Sleep(20 * time.Millisecond)

	got, err := store.Take(ctx, 4)
	require.NoError(t, err)
	assert.Nil(t, got)
}
