package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/database/dbtest"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/queue"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

// fixture wires every service against a fresh SQLite database.
type fixture struct {
	db           *database.DB
	rooms        *repository.RoomRepo
	movies       *repository.MovieRepo
	sessions     *repository.SessionRepo
	users        *repository.UserRepo
	transactions *repository.TransactionRepo
	supertickets *repository.SuperticketRepo
	tickets      *repository.TicketRepo

	catalog    *Catalog
	scheduler  *Scheduler
	accounts   *Users
	ledger     *Ledger
	settlement *Settlement
}

func newFixture(t *testing.T, events EventPublisher) *fixture {
	t.Helper()
	db := dbtest.New(t)
	f := &fixture{
		db:           db,
		rooms:        repository.NewRoomRepo(db),
		movies:       repository.NewMovieRepo(db),
		sessions:     repository.NewSessionRepo(db),
		users:        repository.NewUserRepo(db),
		transactions: repository.NewTransactionRepo(db),
		supertickets: repository.NewSuperticketRepo(db),
		tickets:      repository.NewTicketRepo(db),
	}
	f.catalog = NewCatalog(db, f.rooms, f.movies)
	f.scheduler = NewScheduler(db, f.rooms, f.movies, f.sessions)
	f.accounts = NewUsers(f.users, f.sessions, bcrypt.MinCost)
	f.ledger = NewLedger(db, f.users, f.transactions, f.supertickets, SuperticketOffer{Price: 4000, Uses: 10})
	f.settlement = NewSettlement(db, f.rooms, f.sessions, f.tickets, f.supertickets, f.users, f.ledger, events)
	return f
}

var seq int

func (f *fixture) room(t *testing.T, capacity int, maintenance bool) *model.Room {
	t.Helper()
	seq++
	rm := &model.Room{Name: fmt.Sprintf("Room %d", seq), Capacity: capacity, Type: "2D", Maintenance: maintenance}
	require.NoError(t, f.rooms.Create(context.Background(), rm))
	return rm
}

func (f *fixture) movie(t *testing.T, duration int) *model.Movie {
	t.Helper()
	seq++
	m := &model.Movie{Name: fmt.Sprintf("Movie %d", seq), Duration: duration}
	require.NoError(t, f.movies.Create(context.Background(), m))
	return m
}

func (f *fixture) user(t *testing.T, balance model.Money) *model.User {
	t.Helper()
	seq++
	u, err := f.accounts.Register(context.Background(), RegisterInput{
		Name:     "Doe",
		Forname:  "Jo",
		Email:    fmt.Sprintf("user%d@example.com", seq),
		Password: "password123",
	})
	require.NoError(t, err)
	if balance > 0 {
		_, err := f.ledger.Deposit(context.Background(), u.ID, balance)
		require.NoError(t, err)
		u.Balance = balance
	}
	return u
}

func (f *fixture) session(t *testing.T, roomID, movieID, start string, price model.Money) *repository.SessionRow {
	t.Helper()
	row, err := f.scheduler.Create(context.Background(), CreateSessionInput{RoomID: roomID, MovieID: movieID, Start: start, Price: price})
	require.NoError(t, err)
	return row
}

func (f *fixture) balance(t *testing.T, userID string) model.Money {
	t.Helper()
	u, err := f.users.GetByID(context.Background(), userID)
	require.NoError(t, err)
	return u.Balance
}

// futureStart returns an RFC 3339 timestamp days ahead at the given hour.
func futureStart(days, hour int) string {
	d := time.Now().UTC().AddDate(0, 0, days)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, time.UTC).Format(time.RFC3339)
}

type publisherMock struct{ mock.Mock }

func (m *publisherMock) PublishTicketPurchased(ctx context.Context, ev queue.TicketPurchasedEvent) error {
	return m.Called(ctx, ev).Error(0)
}
