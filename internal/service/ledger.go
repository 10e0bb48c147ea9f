package service

import (
	"context"
	"database/sql"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

// Ledger is the only writer of user balances. Each balance change is
// paired with an append-only transaction row in the same database
// transaction, and the row records the balance right after the change.
type Ledger struct {
	db           *database.DB
	users        *repository.UserRepo
	transactions *repository.TransactionRepo
	supertickets *repository.SuperticketRepo

	superticketPrice model.Money
	superticketUses  int
}

// SuperticketOffer is the price and size of a superticket bundle.
type SuperticketOffer struct {
	Price model.Money
	Uses  int
}

func NewLedger(db *database.DB, users *repository.UserRepo, transactions *repository.TransactionRepo, supertickets *repository.SuperticketRepo, offer SuperticketOffer) *Ledger {
	return &Ledger{
		db:               db,
		users:            users,
		transactions:     transactions,
		supertickets:     supertickets,
		superticketPrice: offer.Price,
		superticketUses:  offer.Uses,
	}
}

// Apply adds delta to the user's balance inside tx and appends the
// matching ledger entry. The balance may never drop below zero: a
// WITHDRAW that would do so fails with INSUFFICIENT_BALANCE and a
// purchase with PURCHASE_NOT_AFFORDABLE. Nothing is written on failure.
func (l *Ledger) Apply(ctx context.Context, tx *sql.Tx, userID string, typ model.TransactionType, delta model.Money) (*model.Transaction, error) {
	ok, err := l.users.AdjustBalanceTx(ctx, tx, userID, delta, true)
	if err != nil {
		return nil, err
	}
	if !ok {
		// either the user is gone or the guard refused the debit
		if _, err := l.users.BalanceTx(ctx, tx, userID); err != nil {
			return nil, fromRepo(err)
		}
		if typ == model.TxWithdraw {
			return nil, ErrInsufficientBalance
		}
		return nil, ErrPurchaseNotAffordable
	}
	balance, err := l.users.BalanceTx(ctx, tx, userID)
	if err != nil {
		return nil, fromRepo(err)
	}
	t := &model.Transaction{UserID: userID, Type: typ, Amount: delta, Balance: balance}
	if err := l.transactions.CreateTx(ctx, tx, t); err != nil {
		return nil, err
	}
	return t, nil
}

const minTransactAmount model.Money = 100

// Transact runs a DEPOSIT or WITHDRAW of amount in its own transaction.
// amount is the unsigned value requested by the user and must be at
// least one currency unit.
func (l *Ledger) Transact(ctx context.Context, userID string, typ model.TransactionType, amount model.Money) (*model.Transaction, error) {
	if amount < minTransactAmount {
		return nil, ErrInvalidAmount
	}
	var delta model.Money
	switch typ {
	case model.TxDeposit:
		delta = amount
	case model.TxWithdraw:
		delta = -amount
	default:
		return nil, Invalid("type must be DEPOSIT or WITHDRAW")
	}
	var t *model.Transaction
	err := l.db.InTx(ctx, func(tx *sql.Tx) error {
		var err error
		t, err = l.Apply(ctx, tx, userID, typ, delta)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"user_id": userID, "type": typ, "amount": t.Amount, "balance": t.Balance}).Info("wallet updated")
	return t, nil
}

// Deposit credits amount to the user's wallet.
func (l *Ledger) Deposit(ctx context.Context, userID string, amount model.Money) (*model.Transaction, error) {
	return l.Transact(ctx, userID, model.TxDeposit, amount)
}

// Withdraw debits amount from the user's wallet.
func (l *Ledger) Withdraw(ctx context.Context, userID string, amount model.Money) (*model.Transaction, error) {
	return l.Transact(ctx, userID, model.TxWithdraw, amount)
}

// History returns the user's ledger entries in the order applied.
func (l *Ledger) History(ctx context.Context, userID string) ([]model.Transaction, error) {
	if _, err := l.users.GetByID(ctx, userID); err != nil {
		return nil, fromRepo(err)
	}
	return l.transactions.ListByUser(ctx, userID)
}

// ListAll returns every ledger entry.
func (l *Ledger) ListAll(ctx context.Context) ([]model.Transaction, error) {
	return l.transactions.List(ctx)
}

// Verification is the outcome of replaying a user's ledger.
type Verification struct {
	UserID   string      `json:"user_id"`
	Entries  int         `json:"entries"`
	Balance  model.Money `json:"balance"`
	Replayed model.Money `json:"replayed"`
	// Mismatch names the first entry whose snapshot disagrees with the
	// running total, if any.
	Mismatch   string `json:"mismatch,omitempty"`
	Consistent bool   `json:"consistent"`
}

// Verify folds the user's entries from a zero opening balance and checks
// every stored snapshot and the current balance against the running sum.
func (l *Ledger) Verify(ctx context.Context, userID string) (*Verification, error) {
	v := &Verification{UserID: userID}
	err := l.db.InTx(ctx, func(tx *sql.Tx) error {
		u, err := l.users.GetByIDTx(ctx, tx, userID)
		if err != nil {
			return fromRepo(err)
		}
		entries, err := l.transactions.ListByUserTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		v.Balance = u.Balance
		v.Entries = len(entries)
		for _, t := range entries {
			v.Replayed += t.Amount
			if t.Balance != v.Replayed && v.Mismatch == "" {
				v.Mismatch = t.ID
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	v.Consistent = v.Mismatch == "" && v.Replayed == v.Balance
	if !v.Consistent {
		log.WithFields(log.Fields{"user_id": userID, "balance": v.Balance, "replayed": v.Replayed, "mismatch": v.Mismatch}).Warn("ledger replay disagrees with balance")
	}
	return v, nil
}

// BuySuperticket charges the superticket price and grants its uses. A
// user holding a superticket gets the uses added to it.
func (l *Ledger) BuySuperticket(ctx context.Context, userID string) (*model.Superticket, error) {
	var st *model.Superticket
	err := l.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := l.users.GetByIDTx(ctx, tx, userID); err != nil {
			return fromRepo(err)
		}
		t, err := l.Apply(ctx, tx, userID, model.TxSuperticket, -l.superticketPrice)
		if err != nil {
			return err
		}
		st, err = l.supertickets.GetByUserTx(ctx, tx, userID)
		switch {
		case errors.Is(err, repository.ErrSuperticketNotFound):
			st = &model.Superticket{UserID: userID, RemainingUses: l.superticketUses, TransactionID: t.ID}
			return l.supertickets.CreateTx(ctx, tx, st)
		case err != nil:
			return err
		}
		if err := l.supertickets.AddUsesTx(ctx, tx, st.ID, l.superticketUses, t.ID); err != nil {
			return err
		}
		st, err = l.supertickets.GetByUserTx(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"user_id": userID, "remaining_uses": st.RemainingUses}).Info("superticket purchased")
	return st, nil
}

// Superticket returns the user's superticket.
func (l *Ledger) Superticket(ctx context.Context, userID string) (*model.Superticket, error) {
	st, err := l.supertickets.GetByUser(ctx, userID)
	if err != nil {
		return nil, fromRepo(err)
	}
	return st, nil
}
