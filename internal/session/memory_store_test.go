package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridecast/ridecast/internal/assessment"
	"github.com/ridecast/ridecast/internal/session"
)

func TestMemoryStoreCreateAssignsID(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)

	sess := &session.Session{
		Messages: []session.ChatMessage{{Role: "user", Content: "hi"}},
	}
	require.NoError(t, store.Create(context.Background(), sess))
	assert.NotEmpty(t, sess.ID)
	assert.False(t, sess.CreatedAt.IsZero())

	got, err := store.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "hi", got.Messages[0].Content)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)

	_, err := store.Get(context.Background(), "nope")
	require.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := session.NewMemoryStore(30*time.Minute, session.WithClock(clock))

	sess := &session.Session{}
	require.NoError(t, store.Create(context.Background(), sess))

	now = now.Add(29 * time.Minute)
	_, err := store.Get(context.Background(), sess.ID)
	require.NoError(t, err)

	// The read above slid the expiry forward.
	now = now.Add(29 * time.Minute)
	_, err = store.Get(context.Background(), sess.ID)
	require.NoError(t, err)

	now = now.Add(31 * time.Minute)
	_, err = store.Get(context.Background(), sess.ID)
	require.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestMemoryStoreUpdate(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)

	sess := &session.Session{}
	require.NoError(t, store.Create(context.Background(), sess))

	wind := 18.0
	sess.Preferences = assessment.RiderPreferences{MaxWindMPH: &wind}
	sess.Messages = append(sess.Messages, session.ChatMessage{Role: "user", Content: "windy?"})
	require.NoError(t, store.Update(context.Background(), sess))

	got, err := store.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Preferences.MaxWindMPH)
	assert.InDelta(t, 18.0, *got.Preferences.MaxWindMPH, 1e-9)
	assert.Len(t, got.Messages, 1)
}

func TestMemoryStoreUpdateMissing(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	err := store.Update(context.Background(), &session.Session{ID: "ghost"})
	require.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)

	sess := &session.Session{}
	require.NoError(t, store.Create(context.Background(), sess))
	require.NoError(t, store.Delete(context.Background(), sess.ID))

	_, err := store.Get(context.Background(), sess.ID)
	require.ErrorIs(t, err, session.ErrSessionNotFound)

	// Deleting again is not an error.
	require.NoError(t, store.Delete(context.Background(), sess.ID))
}

func TestMemoryStoreIsolation(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)

	sess := &session.Session{Messages: []session.ChatMessage{{Role: "user", Content: "a"}}}
	require.NoError(t, store.Create(context.Background(), sess))

	got, err := store.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	got.Messages[0].Content = "mutated"

	again, err := store.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", again.Messages[0].Content)
}

func TestCachedConditionsFresh(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	var nilCached *session.CachedConditions
	assert.False(t, nilCached.Fresh(15*time.Minute, now))

	cached := &session.CachedConditions{FetchedAt: now.Add(-10 * time.Minute)}
	assert.False(t, cached.Fresh(15*time.Minute, now), "nil data is never fresh")
}
