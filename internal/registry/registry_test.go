package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/viewvista/stream-service/internal/domain"
)

func TestCreateAndGet(t *testing.T) {
	r := New()
	now := time.Now()

	room, err := r.Create("r1", "Alice", domain.VisibilityPublic, 2, 1.0, now)
	require.NoError(t, err)
	require.Equal(t, "r1", room.ID)
	require.Equal(t, domain.RoomStateLive, room.State)
	require.Equal(t, now.Add(2*time.Minute), room.EndsAt)

	got, err := r.Get("r1")
	require.NoError(t, err)
	require.Equal(t, room, got)
}

func TestCreateValidation(t *testing.T) {
	r := New()
	now := time.Now()

	cases := []struct {
		name       string
		id         string
		by         string
		visibility domain.Visibility
		minutes    int
		price      float64
	}{
		{"empty id", "", "Alice", domain.VisibilityPublic, 2, 1.0},
		{"empty broadcaster", "r1", "", domain.VisibilityPublic, 2, 1.0},
		{"zero duration", "r1", "Alice", domain.VisibilityPublic, 0, 1.0},
		{"negative price", "r1", "Alice", domain.VisibilityPublic, 2, -0.5},
		{"zero price", "r1", "Alice", domain.VisibilityPublic, 2, 0},
		{"bad visibility", "r1", "Alice", "friends-only", 2, 1.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Create(tc.id, tc.by, tc.visibility, tc.minutes, tc.price, now)
			require.ErrorIs(t, err, domain.ErrInvalidParams)
		})
	}
}

func TestDuplicateRoomLeavesExistingUntouched(t *testing.T) {
	r := New()
	now := time.Now()

	first, err := r.Create("r1", "Alice", domain.VisibilityPublic, 2, 1.0, now)
	require.NoError(t, err)

	_, err = r.Create("r1", "Mallory", domain.VisibilityPrivate, 99, 9.99, now.Add(time.Hour))
	require.ErrorIs(t, err, domain.ErrDuplicateRoom)

	got, err := r.Get("r1")
	require.NoError(t, err)
	require.Equal(t, first, got)
}

func TestRemoveFreesID(t *testing.T) {
	r := New()
	now := time.Now()

	_, err := r.Create("r1", "Alice", domain.VisibilityPublic, 2, 1.0, now)
	require.NoError(t, err)

	r.Remove("r1")
	_, err = r.Get("r1")
	require.ErrorIs(t, err, domain.ErrRoomNotFound)

	// ID is reusable after removal.
	_, err = r.Create("r1", "Bob", domain.VisibilityPublic, 1, 0.5, now)
	require.NoError(t, err)

	// Removing twice is a no-op.
	r.Remove("r1")
	r.Remove("r1")
}

func TestListVisible(t *testing.T) {
	r := New()
	now := time.Now()

	_, err := r.Create("pub1", "Alice", domain.VisibilityPublic, 2, 1.0, now)
	require.NoError(t, err)
	_, err = r.Create("priv", "Bob", domain.VisibilityPrivate, 2, 1.0, now.Add(time.Second))
	require.NoError(t, err)
	_, err = r.Create("pub2", "Carol", domain.VisibilityPublic, 5, 2.5, now.Add(2*time.Second))
	require.NoError(t, err)

	rooms := r.ListVisible(domain.VisibilityPublic)
	require.Len(t, rooms, 2)
	require.Equal(t, "pub1", rooms[0].ID)
	require.Equal(t, "pub2", rooms[1].ID)

	// Paused rooms stay listed, ended ones disappear.
	require.NoError(t, r.SetState("pub1", domain.RoomStatePaused))
	require.NoError(t, r.SetState("pub2", domain.RoomStateEnded))

	rooms = r.ListVisible(domain.VisibilityPublic)
	require.Len(t, rooms, 1)
	require.Equal(t, "pub1", rooms[0].ID)
}

func TestSnapshotsAreImmutable(t *testing.T) {
	r := New()
	now := time.Now()

	_, err := r.Create("r1", "Alice", domain.VisibilityPublic, 2, 1.0, now)
	require.NoError(t, err)

	snap, err := r.Get("r1")
	require.NoError(t, err)
	snap.State = domain.RoomStateEnded
	snap.PricePerMinute = 100

	got, err := r.Get("r1")
	require.NoError(t, err)
	require.Equal(t, domain.RoomStateLive, got.State)
	require.Equal(t, 1.0, got.PricePerMinute)
}
