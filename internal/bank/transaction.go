package bank

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType names the business reason for a money movement.
type TransactionType string

const (
	TypeTransfer    TransactionType = "TRANSFER"
	TypeCardPayment TransactionType = "CARD_PAYMENT"
	TypeWithdrawal  TransactionType = "WITHDRAWAL"
	TypeDeposit     TransactionType = "DEPOSIT"
	TypeFee         TransactionType = "FEE"
)

// TransactionState is the lifecycle of a transaction. PENDING is the sole
// initial state; COMPLETED, FAILED and REVERSED are terminal for forward
// flow. Compensation for a reversed movement is a separate transaction,
// never a state loop.
type TransactionState string

const (
	StatePending   TransactionState = "PENDING"
	StateCompleted TransactionState = "COMPLETED"
	StateFailed    TransactionState = "FAILED"
	StateReversed  TransactionState = "REVERSED"
)

// Transaction is the immutable record of one money movement. Only the
// state field mutates, and only forward through the state machine.
// Exactly one of recipient or merchant is set, selected by type.
type Transaction struct {
	id        string
	createdAt time.Time
	txType    TransactionType
	amount    decimal.Decimal
	currency  string
	note      string
	sender    *Account
	recipient *Account
	merchant  *Institute

	mu    sync.Mutex
	state TransactionState
}

// NewTransfer records a movement between two accounts.
func NewTransfer(id string, createdAt time.Time, sender, recipient *Account, currency string, amount decimal.Decimal, note string) (*Transaction, error) {
	if sender == nil || recipient == nil {
		return nil, fmt.Errorf("transfer endpoints: %w", ErrNotFound)
	}
	return newTransaction(id, createdAt, TypeTransfer, sender, recipient, nil, currency, amount, note)
}

// NewPayment records a card payment from an account to a merchant.
func NewPayment(id string, createdAt time.Time, sender *Account, merchant *Institute, currency string, amount decimal.Decimal, note string) (*Transaction, error) {
	if sender == nil || merchant == nil {
		return nil, fmt.Errorf("payment endpoints: %w", ErrNotFound)
	}
	return newTransaction(id, createdAt, TypeCardPayment, sender, nil, merchant, currency, amount, note)
}

// NewCashFlow records a single-sided movement: DEPOSIT, WITHDRAWAL or FEE.
func NewCashFlow(id string, createdAt time.Time, txType TransactionType, account *Account, currency string, amount decimal.Decimal, note string) (*Transaction, error) {
	switch txType {
	case TypeDeposit, TypeWithdrawal, TypeFee:
	default:
		return nil, fmt.Errorf("cash flow type %q: %w", txType, ErrInvalidTransition)
	}
	if account == nil {
		return nil, fmt.Errorf("cash flow account: %w", ErrNotFound)
	}
	return newTransaction(id, createdAt, txType, account, nil, nil, currency, amount, note)
}

func newTransaction(id string, createdAt time.Time, txType TransactionType, sender, recipient *Account, merchant *Institute, currency string, amount decimal.Decimal, note string) (*Transaction, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("transaction amount %s: %w", amount, ErrInvalidAmount)
	}
	return &Transaction{
		id:        id,
		createdAt: createdAt,
		txType:    txType,
		amount:    amount,
		currency:  currency,
		note:      note,
		sender:    sender,
		recipient: recipient,
		merchant:  merchant,
		state:     StatePending,
	}, nil
}

func (t *Transaction) ID() string               { return t.id }
func (t *Transaction) CreatedAt() time.Time     { return t.createdAt }
func (t *Transaction) Type() TransactionType    { return t.txType }
func (t *Transaction) Amount() decimal.Decimal  { return t.amount }
func (t *Transaction) Currency() string         { return t.currency }
func (t *Transaction) Note() string             { return t.note }
func (t *Transaction) Sender() *Account         { return t.sender }
func (t *Transaction) Recipient() *Account      { return t.recipient }
func (t *Transaction) Merchant() *Institute     { return t.merchant }

func (t *Transaction) State() TransactionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Complete marks the movement durably recorded on both sides.
func (t *Transaction) Complete() error { return t.transition(StateCompleted) }

// Fail marks a movement that could not be applied. Balances are untouched
// by a failed transaction; the record is kept for audit.
func (t *Transaction) Fail() error { return t.transition(StateFailed) }

// Reverse administratively reverses a completed movement.
func (t *Transaction) Reverse() error { return t.transition(StateReversed) }

// transition enforces the monotonic machine: PENDING -> {COMPLETED,
// FAILED}, COMPLETED -> REVERSED. No transition leaves a terminal state.
func (t *Transaction) transition(next TransactionState) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case t.state == StatePending && (next == StateCompleted || next == StateFailed):
	case t.state == StateCompleted && next == StateReversed:
	default:
		return fmt.Errorf("%s -> %s: %w", t.state, next, ErrInvalidTransition)
	}
	t.state = next
	return nil
}

func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction %s [%s] %s %s (%s)", t.id, t.txType, t.currency, t.amount, t.State())
}
