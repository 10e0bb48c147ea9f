package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

func TestCreateSessionComputesEndAndRejectsOverlap(t *testing.T) {
	f := newFixture(t, nil)
	room := f.room(t, 19, false)
	movie := f.movie(t, 128)

	row := f.session(t, room.ID, movie.ID, "2025-05-23T18:30:00.000Z", 550)
	assert.Equal(t, time.Date(2025, 5, 23, 21, 8, 0, 0, time.UTC), row.EndsAt)
	assert.Equal(t, time.Date(2025, 5, 23, 18, 30, 0, 0, time.UTC), row.StartsAt)
	assert.Equal(t, 19, row.Available)

	other := f.movie(t, 90)
	_, err := f.scheduler.Create(context.Background(), CreateSessionInput{
		RoomID: room.ID, MovieID: other.ID, Start: "2025-05-23T19:00:00.000Z", Price: 550,
	})
	require.ErrorIs(t, err, ErrRoomConflict)
	assert.Equal(t, KindSchedulingConflict, KindOf(err))

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, row.ID, se.SessionID)
}

func TestCreateSessionMovieConflictAcrossRooms(t *testing.T) {
	f := newFixture(t, nil)
	a := f.room(t, 20, false)
	b := f.room(t, 20, false)
	movie := f.movie(t, 100)

	f.session(t, a.ID, movie.ID, "2030-01-10T18:00:00Z", 900)
	_, err := f.scheduler.Create(context.Background(), CreateSessionInput{
		RoomID: b.ID, MovieID: movie.ID, Start: "2030-01-10T19:00:00Z", Price: 900,
	})
	require.ErrorIs(t, err, ErrMovieConflict)
}

func TestCreateSessionBackToBackConflicts(t *testing.T) {
	f := newFixture(t, nil)
	room := f.room(t, 20, false)
	movie := f.movie(t, 90)
	first := f.session(t, room.ID, movie.ID, "2030-01-10T18:00:00Z", 900)

	// the next one starts exactly when the first window closes
	_, err := f.scheduler.Create(context.Background(), CreateSessionInput{
		RoomID: room.ID, MovieID: f.movie(t, 90).ID, Start: first.EndsAt.Format(time.RFC3339), Price: 900,
	})
	require.ErrorIs(t, err, ErrRoomConflict)

	// one minute later is fine
	f.session(t, room.ID, f.movie(t, 90).ID, first.EndsAt.Add(time.Minute).Format(time.RFC3339), 900)
}

func TestCreateSessionRejections(t *testing.T) {
	f := newFixture(t, nil)
	room := f.room(t, 20, false)
	closed := f.room(t, 20, true)
	movie := f.movie(t, 90)
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateSessionInput
		want *Error
	}{
		{"maintenance", CreateSessionInput{RoomID: closed.ID, MovieID: movie.ID, Start: "2030-01-01T10:00:00Z", Price: 500}, ErrRoomUnavailable},
		{"unknown room", CreateSessionInput{RoomID: "nope", MovieID: movie.ID, Start: "2030-01-01T10:00:00Z", Price: 500}, ErrRoomNotFound},
		{"unknown movie", CreateSessionInput{RoomID: room.ID, MovieID: "nope", Start: "2030-01-01T10:00:00Z", Price: 500}, ErrMovieNotFound},
		{"bad timestamp", CreateSessionInput{RoomID: room.ID, MovieID: movie.ID, Start: "tomorrow", Price: 500}, ErrInvalidTimestamp},
		{"zero price", CreateSessionInput{RoomID: room.ID, MovieID: movie.ID, Start: "2030-01-01T10:00:00Z", Price: 0}, ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.scheduler.Create(ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestParseStartNormalizesToUTC(t *testing.T) {
	got, err := ParseStart("2030-03-01T20:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 3, 1, 18, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestUpdateSession(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	room := f.room(t, 20, false)
	movie := f.movie(t, 90)
	first := f.session(t, room.ID, movie.ID, "2030-01-10T10:00:00Z", 900)
	second := f.session(t, room.ID, f.movie(t, 90).ID, "2030-01-10T18:00:00Z", 900)

	t.Run("price only", func(t *testing.T) {
		price := model.Money(1250)
		row, err := f.scheduler.Update(ctx, first.ID, UpdateSessionInput{Price: &price})
		require.NoError(t, err)
		assert.Equal(t, price, row.Price)
		assert.Equal(t, first.EndsAt, row.EndsAt)
	})

	t.Run("start into another window", func(t *testing.T) {
		start := "2030-01-10T18:30:00Z"
		_, err := f.scheduler.Update(ctx, first.ID, UpdateSessionInput{Start: &start})
		require.ErrorIs(t, err, ErrRoomConflict)
	})

	t.Run("session does not conflict with itself", func(t *testing.T) {
		start := "2030-01-10T10:30:00Z"
		row, err := f.scheduler.Update(ctx, first.ID, UpdateSessionInput{Start: &start})
		require.NoError(t, err)
		assert.Equal(t, time.Date(2030, 1, 10, 12, 30, 0, 0, time.UTC), row.EndsAt)
	})

	t.Run("longer movie recomputes end", func(t *testing.T) {
		long := f.movie(t, 200)
		row, err := f.scheduler.Update(ctx, first.ID, UpdateSessionInput{MovieID: &long.ID})
		require.NoError(t, err)
		assert.Equal(t, long.ID, row.MovieID)
		assert.Equal(t, row.StartsAt.Add(230*time.Minute), row.EndsAt)
	})

	t.Run("move to maintenance room", func(t *testing.T) {
		closed := f.room(t, 20, true)
		_, err := f.scheduler.Update(ctx, second.ID, UpdateSessionInput{RoomID: &closed.ID})
		require.ErrorIs(t, err, ErrRoomUnavailable)
	})

	t.Run("reschedule in maintenance room", func(t *testing.T) {
		rm := f.room(t, 20, false)
		row := f.session(t, rm.ID, f.movie(t, 90).ID, "2030-01-11T10:00:00Z", 900)
		on := true
		_, err := f.catalog.UpdateRoom(ctx, rm.ID, RoomPatch{Maintenance: &on})
		require.NoError(t, err)

		start := "2030-01-12T10:00:00Z"
		_, err = f.scheduler.Update(ctx, row.ID, UpdateSessionInput{Start: &start})
		require.ErrorIs(t, err, ErrRoomUnavailable)

		got, err := f.scheduler.Get(ctx, row.ID)
		require.NoError(t, err)
		assert.Equal(t, row.StartsAt, got.StartsAt)

		price := model.Money(1100)
		_, err = f.scheduler.Update(ctx, row.ID, UpdateSessionInput{Price: &price})
		require.NoError(t, err)
	})

	t.Run("move to a room smaller than tickets sold", func(t *testing.T) {
		big := f.room(t, 30, false)
		row := f.session(t, big.ID, f.movie(t, 90).ID, "2030-02-01T10:00:00Z", 100)
		for i := 0; i < 16; i++ {
			_, err := f.settlement.Buy(ctx, BuyInput{SessionID: row.ID, UserID: f.user(t, 100).ID})
			require.NoError(t, err)
		}
		small := f.room(t, 15, false)
		_, err := f.scheduler.Update(ctx, row.ID, UpdateSessionInput{RoomID: &small.ID})
		require.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unknown session", func(t *testing.T) {
		price := model.Money(100)
		_, err := f.scheduler.Update(ctx, "missing", UpdateSessionInput{Price: &price})
		require.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestListSessionsHidesMaintenanceRooms(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	open := f.room(t, 20, false)
	closed := f.room(t, 20, false)
	f.session(t, open.ID, f.movie(t, 90).ID, futureStart(3, 10), 900)
	f.session(t, closed.ID, f.movie(t, 90).ID, futureStart(3, 10), 900)

	on := true
	_, err := f.catalog.UpdateRoom(ctx, closed.ID, RoomPatch{Maintenance: &on})
	require.NoError(t, err)

	rows, total, err := f.scheduler.List(ctx, repository.SessionSearchQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, open.ID, rows[0].RoomID)

	_, total, err = f.scheduler.List(ctx, repository.SessionSearchQuery{IncludeMaintenance: true})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestDeleteSessionWithTickets(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	row := f.session(t, f.room(t, 20, false).ID, f.movie(t, 90).ID, futureStart(1, 12), 500)
	u := f.user(t, 1000)

	_, err := f.settlement.Buy(ctx, BuyInput{SessionID: row.ID, UserID: u.ID})
	require.NoError(t, err)
	require.ErrorIs(t, f.scheduler.Delete(ctx, row.ID), ErrSessionHasTickets)

	empty := f.session(t, f.room(t, 20, false).ID, f.movie(t, 90).ID, futureStart(2, 12), 500)
	require.NoError(t, f.scheduler.Delete(ctx, empty.ID))
	_, err = f.scheduler.Get(ctx, empty.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestWindowOverlapsIsInclusiveAndSymmetric(t *testing.T) {
	base := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	a := Window{Start: base, End: base.Add(2 * time.Hour)}
	cases := []struct {
		name string
		b    Window
		want bool
	}{
		{"inside", Window{base.Add(30 * time.Minute), base.Add(time.Hour)}, true},
		{"covering", Window{base.Add(-time.Hour), base.Add(3 * time.Hour)}, true},
		{"touching end", Window{base.Add(2 * time.Hour), base.Add(3 * time.Hour)}, true},
		{"touching start", Window{base.Add(-time.Hour), base}, true},
		{"after", Window{base.Add(2*time.Hour + time.Second), base.Add(3 * time.Hour)}, false},
		{"before", Window{base.Add(-2 * time.Hour), base.Add(-time.Second)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, a.Overlaps(tc.b))
			assert.Equal(t, tc.want, tc.b.Overlaps(a))
		})
	}
}
