package model

import "time"

// TransactionType enumerates ledger entry kinds.
type TransactionType string

const (
	TxWithdraw    TransactionType = "WITHDRAW"
	TxDeposit     TransactionType = "DEPOSIT"
	TxTicket      TransactionType = "TICKET"
	TxSuperticket TransactionType = "SUPERTICKET"
)

// Transaction is an append-only ledger entry. Amount is the signed cash
// delta applied to the user's balance (negative when money leaves the
// wallet, zero for a superticket redemption) and Balance is the balance
// right after it was applied.
type Transaction struct {
	ID        string          // transactions.id
	UserID    string          // transactions.user_id
	Type      TransactionType // transactions.type
	Amount    Money           // transactions.amount_cents
	Balance   Money           // transactions.balance_cents
	CreatedAt time.Time       // transactions.created_at
}

// Superticket is a prepaid bundle of ticket redemptions. A user holds at
// most one; buying again adds uses to the existing record.
type Superticket struct {
	ID            string    // supertickets.id
	UserID        string    // supertickets.user_id
	RemainingUses int       // supertickets.remaining_uses
	TransactionID string    // supertickets.transaction_id (latest purchase)
	CreatedAt     time.Time // supertickets.created_at
	UpdatedAt     time.Time // supertickets.updated_at
}

// Ticket binds one user to one session.
type Ticket struct {
	UserID        string    // tickets.user_id
	SessionID     string    // tickets.session_id
	TransactionID string    // tickets.transaction_id
	SuperticketID *string   // tickets.superticket_id (nullable)
	CreatedAt     time.Time // tickets.created_at
}
