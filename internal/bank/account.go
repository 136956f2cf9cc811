package bank

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// Account holds a currency-denominated balance. The balance field is the
// single write path for money: every mutation goes through the methods
// below, all of which run under the account's own lock. This lock is the
// per-account mutual exclusion the engine relies on for atomicity.
type Account struct {
	id       string
	name     string
	currency string
	ownerID  string

	mu      sync.Mutex
	balance decimal.Decimal
	cards   []Card

	history *TransactionHistory
}

// NewAccount creates an account with a zero balance.
func NewAccount(id, name, currency, ownerID string) *Account {
	a := &Account{
		id:       id,
		name:     name,
		currency: currency,
		ownerID:  ownerID,
		balance:  decimal.Zero,
	}
	a.history = newHistory(a)
	return a
}

// NewAccountWithBalance creates an account with an explicit starting balance.
func NewAccountWithBalance(id, name, currency string, balance decimal.Decimal, ownerID string) (*Account, error) {
	if balance.IsNegative() {
		return nil, fmt.Errorf("initial balance %s: %w", balance, ErrInvalidAmount)
	}
	a := NewAccount(id, name, currency, ownerID)
	a.balance = balance
	return a, nil
}

func (a *Account) ID() string       { return a.id }
func (a *Account) Name() string     { return a.name }
func (a *Account) Currency() string { return a.currency }
func (a *Account) OwnerID() string  { return a.ownerID }

// History returns the append-only record of transactions this account sent.
func (a *Account) History() *TransactionHistory { return a.history }

// Balance returns the current balance.
func (a *Account) Balance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// Same reports entity identity: two accounts are the same iff their ids
// match, regardless of mutable state.
func (a *Account) Same(other *Account) bool {
	return other != nil && a.id == other.id
}

// Deposit adds amount to the balance. A zero deposit is accepted; this
// asymmetry with ReceiveMoney is deliberate and part of the contract.
func (a *Account) Deposit(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("deposit %s: %w", amount, ErrInvalidAmount)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balance = a.balance.Add(amount)
	return nil
}

// Withdraw removes amount from the balance. It returns false without
// mutating when the balance is too low. A zero withdrawal trivially
// succeeds as a no-op.
func (a *Account) Withdraw(amount decimal.Decimal) (bool, error) {
	if amount.IsNegative() {
		return false, fmt.Errorf("withdraw %s: %w", amount, ErrInvalidAmount)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.debitLocked(amount), nil
}

// ReceiveMoney credits the receiving side of a transfer. Unlike Deposit
// the amount must be strictly positive.
func (a *Account) ReceiveMoney(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("receive %s: %w", amount, ErrInvalidAmount)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balance = a.balance.Add(amount)
	return nil
}

// TransferMoney moves amount from this account to another. Both account
// locks are taken in ascending-id order so concurrent opposing transfers
// cannot deadlock, and both legs apply atomically: a third reader never
// observes the debit without the credit. If the withdrawal leg fails the
// target is never touched.
func (a *Account) TransferMoney(to *Account, amount decimal.Decimal) error {
	if to == nil {
		return fmt.Errorf("transfer target: %w", ErrNotFound)
	}
	if a.Same(to) {
		return ErrSameAccount
	}
	if amount.IsNegative() {
		return fmt.Errorf("transfer %s: %w", amount, ErrInvalidAmount)
	}
	if amount.IsZero() {
		// No-op success, consistent with Withdraw.
		return nil
	}

	first, second := a, to
	if to.id < a.id {
		first, second = to, a
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if !a.debitLocked(amount) {
		return ErrInsufficientFunds
	}
	to.balance = to.balance.Add(amount)
	return nil
}

// AddCard links a card to this account. Linking an already linked card is
// a no-op success.
func (a *Account) AddCard(c Card) bool {
	if c == nil {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.holdsCardLocked(c) {
		return true
	}
	a.cards = append(a.cards, c)
	return true
}

// RemoveCard unlinks a card. Returns false if the card is nil or not linked.
func (a *Account) RemoveCard(c Card) bool {
	if c == nil {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, held := range a.cards {
		if held.Number() == c.Number() {
			a.cards = append(a.cards[:i], a.cards[i+1:]...)
			return true
		}
	}
	return false
}

// Cards returns a copy of the linked card list in insertion order.
func (a *Account) Cards() []Card {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Card, len(a.cards))
	copy(out, a.cards)
	return out
}

// PayCard authorizes a payment through a card linked to this account.
// The card's spending policy decides; on success the card draw and the
// account balance move in lock-step under the same lock, on any failure
// nothing mutates.
func (a *Account) PayCard(c Card, amount decimal.Decimal) error {
	if c == nil || c.base().account != a {
		return ErrCardNotLinked
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.holdsCardLocked(c) {
		return ErrCardNotLinked
	}
	return c.authorizeLocked(c.base().now(), amount)
}

// debitLocked is the only subtraction path for the balance; it refuses to
// overdraw. Callers hold a.mu.
func (a *Account) debitLocked(amount decimal.Decimal) bool {
	if amount.GreaterThan(a.balance) {
		return false
	}
	a.balance = a.balance.Sub(amount)
	return true
}

func (a *Account) holdsCardLocked(c Card) bool {
	for _, held := range a.cards {
		if held.Number() == c.Number() {
			return true
		}
	}
	return false
}

func (a *Account) String() string {
	return fmt.Sprintf("Account %s (%s) %s %s", a.id, a.name, a.currency, a.Balance())
}
