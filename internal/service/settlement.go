package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/queue"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

// EventPublisher receives purchase notifications after commit.
type EventPublisher interface {
	PublishTicketPurchased(ctx context.Context, ev queue.TicketPurchasedEvent) error
}

// BuyInput identifies the purchase. UseSuperticket redeems one use of
// the user's superticket instead of paying cash.
type BuyInput struct {
	SessionID      string
	UserID         string
	UseSuperticket bool
}

// Purchase is the issued ticket with its session and ledger entry.
type Purchase struct {
	Ticket      model.Ticket
	Transaction model.Transaction
	Session     repository.SessionRow
	// RemainingUses is set when a superticket was redeemed.
	RemainingUses *int
}

// Settlement sells session tickets.
type Settlement struct {
	db           *database.DB
	rooms        *repository.RoomRepo
	sessions     *repository.SessionRepo
	tickets      *repository.TicketRepo
	supertickets *repository.SuperticketRepo
	users        *repository.UserRepo
	ledger       *Ledger
	events       EventPublisher
}

func NewSettlement(db *database.DB, rooms *repository.RoomRepo, sessions *repository.SessionRepo, tickets *repository.TicketRepo,
	supertickets *repository.SuperticketRepo, users *repository.UserRepo, ledger *Ledger, events EventPublisher) *Settlement {
	return &Settlement{
		db:           db,
		rooms:        rooms,
		sessions:     sessions,
		tickets:      tickets,
		supertickets: supertickets,
		users:        users,
		ledger:       ledger,
		events:       events,
	}
}

// Buy issues one ticket for in.UserID. The checks run in this order:
// capacity, duplicate, superticket eligibility, affordability. The
// whole purchase is one database transaction, and each guard that
// protects shared state (seat count, remaining uses, balance, the
// user/session pair) is a conditional write or a key constraint, so
// concurrent buyers cannot oversell a session or overdraw a wallet. A
// rejected purchase leaves no trace.
func (s *Settlement) Buy(ctx context.Context, in BuyInput) (*Purchase, error) {
	p := &Purchase{}
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		// session before room, the order Scheduler.Update locks them in
		if _, err := s.sessions.LockTx(ctx, tx, in.SessionID); err != nil {
			return fromRepo(err)
		}
		row, err := s.sessions.GetRowTx(ctx, tx, in.SessionID)
		if err != nil {
			return fromRepo(err)
		}
		room, err := s.rooms.ShareLockTx(ctx, tx, row.RoomID)
		if err != nil {
			return fromRepo(err)
		}
		if room.Maintenance {
			return ErrRoomUnavailable
		}
		user, err := s.users.GetByIDTx(ctx, tx, in.UserID)
		if err != nil {
			return fromRepo(err)
		}

		// capacity
		reserved, err := s.sessions.ReserveSeatTx(ctx, tx, row.ID)
		if err != nil {
			return err
		}
		if !reserved {
			return ErrRoomFull
		}

		// duplicate
		exists, err := s.tickets.ExistsTx(ctx, tx, user.ID, row.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrTicketExists
		}

		ticket := model.Ticket{UserID: user.ID, SessionID: row.ID}
		var entry *model.Transaction
		if in.UseSuperticket {
			st, err := s.supertickets.GetByUserTx(ctx, tx, user.ID)
			if err != nil {
				return fromRepo(err)
			}
			if st.RemainingUses <= 0 {
				return ErrNoUsesRemaining
			}
			if entry, err = s.ledger.Apply(ctx, tx, user.ID, model.TxTicket, 0); err != nil {
				return err
			}
			ok, err := s.supertickets.ConsumeUseTx(ctx, tx, st.ID)
			if err != nil {
				return err
			}
			if !ok {
				return ErrNoUsesRemaining
			}
			left := st.RemainingUses - 1
			p.RemainingUses = &left
			ticket.SuperticketID = &st.ID
		} else {
			if user.Balance < row.Price {
				return ErrPurchaseNotAffordable
			}
			if entry, err = s.ledger.Apply(ctx, tx, user.ID, model.TxTicket, -row.Price); err != nil {
				return err
			}
		}

		ticket.TransactionID = entry.ID
		if err := s.tickets.CreateTx(ctx, tx, &ticket); err != nil {
			return fromRepo(err)
		}
		row.TicketsSold++
		row.Available--
		p.Ticket = ticket
		p.Transaction = *entry
		p.Session = *row
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrRoomFull) || errors.Is(err, ErrTicketExists) {
			log.WithFields(log.Fields{"session_id": in.SessionID, "user_id": in.UserID}).Debug(err.Error())
		}
		return nil, err
	}

	log.WithFields(log.Fields{
		"session_id":  p.Session.ID,
		"user_id":     in.UserID,
		"superticket": in.UseSuperticket,
		"amount":      p.Transaction.Amount,
	}).Info("ticket purchased")
	s.publish(ctx, p)
	return p, nil
}

// publish is best effort: the purchase is already committed.
func (s *Settlement) publish(ctx context.Context, p *Purchase) {
	if s.events == nil {
		return
	}
	ev := queue.TicketPurchasedEvent{
		UserID:        p.Ticket.UserID,
		SessionID:     p.Session.ID,
		TransactionID: p.Transaction.ID,
		RoomName:      p.Session.RoomName,
		MovieName:     p.Session.MovieName,
		StartsAt:      p.Session.StartsAt.Format(time.RFC3339),
		Amount:        -p.Transaction.Amount,
		Superticket:   p.Ticket.SuperticketID != nil,
		PurchasedAt:   p.Ticket.CreatedAt.Format(time.RFC3339),
	}
	if err := s.events.PublishTicketPurchased(ctx, ev); err != nil {
		log.WithError(err).WithField("session_id", p.Session.ID).Warn("publish ticket.purchased failed")
	}
}

// Tickets lists the tickets held by a user.
func (s *Settlement) Tickets(ctx context.Context, userID string) ([]repository.TicketDetail, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, fromRepo(err)
	}
	return s.tickets.ListByUser(ctx, userID)
}
