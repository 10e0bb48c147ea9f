package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/queue"
)

func TestBuyWithCash(t *testing.T) {
	pub := &publisherMock{}
	f := newFixture(t, pub)
	ctx := context.Background()
	room := f.room(t, 19, false)
	movie := f.movie(t, 128)
	row := f.session(t, room.ID, movie.ID, futureStart(5, 18), 550)
	u := f.user(t, 100000)

	pub.On("PublishTicketPurchased", mock.Anything, mock.MatchedBy(func(ev queue.TicketPurchasedEvent) bool {
		return ev.SessionID == row.ID && ev.UserID == u.ID && ev.Amount == 550 && !ev.Superticket && ev.MovieName == movie.Name
	})).Return(nil).Once()

	p, err := f.settlement.Buy(ctx, BuyInput{SessionID: row.ID, UserID: u.ID})
	require.NoError(t, err)

	assert.Equal(t, model.TxTicket, p.Transaction.Type)
	assert.Equal(t, model.Money(-550), p.Transaction.Amount)
	assert.Equal(t, model.Money(99450), p.Transaction.Balance)
	assert.Equal(t, "994.5", p.Transaction.Balance.String())
	assert.Equal(t, p.Transaction.ID, p.Ticket.TransactionID)
	assert.Nil(t, p.Ticket.SuperticketID)
	assert.Nil(t, p.RemainingUses)
	assert.Equal(t, 1, p.Session.TicketsSold)
	assert.Equal(t, 18, p.Session.Available)
	assert.Equal(t, model.Money(99450), f.balance(t, u.ID))

	history, err := f.ledger.History(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, history, 2) // deposit + ticket
	assert.Equal(t, model.TxTicket, history[1].Type)

	pub.AssertExpectations(t)
}

func TestBuyWithSuperticket(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	row := f.session(t, f.room(t, 20, false).ID, f.movie(t, 90).ID, futureStart(5, 18), 550)
	u := f.user(t, 5000)

	st, err := f.ledger.BuySuperticket(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, st.RemainingUses)
	cash := f.balance(t, u.ID)
	assert.Equal(t, model.Money(1000), cash)

	p, err := f.settlement.Buy(ctx, BuyInput{SessionID: row.ID, UserID: u.ID, UseSuperticket: true})
	require.NoError(t, err)
	require.NotNil(t, p.RemainingUses)
	assert.Equal(t, 9, *p.RemainingUses)
	assert.Equal(t, model.Money(0), p.Transaction.Amount)
	assert.Equal(t, cash, p.Transaction.Balance)
	require.NotNil(t, p.Ticket.SuperticketID)
	assert.Equal(t, st.ID, *p.Ticket.SuperticketID)

	assert.Equal(t, cash, f.balance(t, u.ID))
	got, err := f.ledger.Superticket(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, got.RemainingUses)
}

func TestBuySuperticketTopsUp(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	u := f.user(t, 10000)

	first, err := f.ledger.BuySuperticket(ctx, u.ID)
	require.NoError(t, err)
	second, err := f.ledger.BuySuperticket(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 20, second.RemainingUses)
	assert.Equal(t, model.Money(2000), f.balance(t, u.ID))

	poor := f.user(t, 100)
	_, err = f.ledger.BuySuperticket(ctx, poor.ID)
	require.ErrorIs(t, err, ErrPurchaseNotAffordable)
	_, err = f.ledger.Superticket(ctx, poor.ID)
	require.ErrorIs(t, err, ErrSuperticketNotFound)
}

func TestBuyRejections(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	row := f.session(t, f.room(t, 20, false).ID, f.movie(t, 90).ID, futureStart(5, 18), 550)
	rich := f.user(t, 10000)
	poor := f.user(t, 500)

	t.Run("unknown session", func(t *testing.T) {
		_, err := f.settlement.Buy(ctx, BuyInput{SessionID: "missing", UserID: rich.ID})
		require.ErrorIs(t, err, ErrSessionNotFound)
	})
	t.Run("unknown user", func(t *testing.T) {
		_, err := f.settlement.Buy(ctx, BuyInput{SessionID: row.ID, UserID: "missing"})
		require.ErrorIs(t, err, ErrUserNotFound)
	})
	t.Run("not affordable", func(t *testing.T) {
		_, err := f.settlement.Buy(ctx, BuyInput{SessionID: row.ID, UserID: poor.ID})
		require.ErrorIs(t, err, ErrPurchaseNotAffordable)
		assert.Equal(t, KindForbidden, KindOf(err))
		assert.Equal(t, model.Money(500), f.balance(t, poor.ID))
	})
	t.Run("no superticket", func(t *testing.T) {
		_, err := f.settlement.Buy(ctx, BuyInput{SessionID: row.ID, UserID: rich.ID, UseSuperticket: true})
		require.ErrorIs(t, err, ErrSuperticketNotFound)
	})
	t.Run("duplicate", func(t *testing.T) {
		_, err := f.settlement.Buy(ctx, BuyInput{SessionID: row.ID, UserID: rich.ID})
		require.NoError(t, err)
		_, err = f.settlement.Buy(ctx, BuyInput{SessionID: row.ID, UserID: rich.ID})
		require.ErrorIs(t, err, ErrTicketExists)
		assert.Equal(t, model.Money(9450), f.balance(t, rich.ID))

		got, err := f.scheduler.Get(ctx, row.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.TicketsSold)
	})
	t.Run("maintenance", func(t *testing.T) {
		on := true
		_, err := f.catalog.UpdateRoom(ctx, row.RoomID, RoomPatch{Maintenance: &on})
		require.NoError(t, err)
		_, err = f.settlement.Buy(ctx, BuyInput{SessionID: row.ID, UserID: poor.ID})
		require.ErrorIs(t, err, ErrRoomUnavailable)
	})
}

func TestBuyNoUsesRemaining(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	u := f.user(t, 4000)
	_, err := f.ledger.BuySuperticket(ctx, u.ID)
	require.NoError(t, err)

	room := f.room(t, 20, false)
	for i := 0; i < 10; i++ {
		row := f.session(t, room.ID, f.movie(t, 60).ID, futureStart(i+1, 10), 500)
		_, err := f.settlement.Buy(ctx, BuyInput{SessionID: row.ID, UserID: u.ID, UseSuperticket: true})
		require.NoError(t, err)
	}
	row := f.session(t, room.ID, f.movie(t, 60).ID, futureStart(20, 10), 500)
	_, err = f.settlement.Buy(ctx, BuyInput{SessionID: row.ID, UserID: u.ID, UseSuperticket: true})
	require.ErrorIs(t, err, ErrNoUsesRemaining)

	tickets, err := f.settlement.Tickets(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, tickets, 10)
}

func TestBuyCapacity(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	row := f.session(t, f.room(t, 3, false).ID, f.movie(t, 90).ID, futureStart(5, 18), 100)

	for i := 0; i < 3; i++ {
		_, err := f.settlement.Buy(ctx, BuyInput{SessionID: row.ID, UserID: f.user(t, 1000).ID})
		require.NoError(t, err)
	}
	late := f.user(t, 1000)
	_, err := f.settlement.Buy(ctx, BuyInput{SessionID: row.ID, UserID: late.ID})
	require.ErrorIs(t, err, ErrRoomFull)
	assert.Equal(t, KindCapacityExceeded, KindOf(err))
	assert.Equal(t, model.Money(1000), f.balance(t, late.ID))

	got, err := f.scheduler.Get(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.TicketsSold)
	assert.Equal(t, 0, got.Available)
}

func TestBuyConcurrentNeverOversells(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	row := f.session(t, f.room(t, 5, false).ID, f.movie(t, 90).ID, futureStart(5, 18), 100)

	buyers := make([]string, 12)
	for i := range buyers {
		buyers[i] = f.user(t, 1000).ID
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		full int
	)
	for _, id := range buyers {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.settlement.Buy(ctx, BuyInput{SessionID: row.ID, UserID: id})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrRoomFull):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, 7, full)
	got, err := f.scheduler.Get(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.TicketsSold)
}

func TestBuyPublishFailureKeepsPurchase(t *testing.T) {
	pub := &publisherMock{}
	f := newFixture(t, pub)
	ctx := context.Background()
	row := f.session(t, f.room(t, 20, false).ID, f.movie(t, 90).ID, futureStart(5, 18), 100)
	u := f.user(t, 1000)

	pub.On("PublishTicketPurchased", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()
	_, err := f.settlement.Buy(ctx, BuyInput{SessionID: row.ID, UserID: u.ID})
	require.NoError(t, err)
	assert.Equal(t, model.Money(900), f.balance(t, u.ID))
	pub.AssertExpectations(t)
}

func TestDeleteUserReleasesSeats(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	row := f.session(t, f.room(t, 20, false).ID, f.movie(t, 90).ID, futureStart(5, 18), 100)
	u := f.user(t, 1000)
	_, err := f.settlement.Buy(ctx, BuyInput{SessionID: row.ID, UserID: u.ID})
	require.NoError(t, err)

	require.NoError(t, f.accounts.Delete(ctx, u.ID))
	got, err := f.scheduler.Get(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.TicketsSold)
	require.ErrorIs(t, f.accounts.Delete(ctx, u.ID), ErrUserNotFound)
}
