package bank

import (
	"sync"
	"time"
)

// TransactionHistory is an append-only, insertion-ordered view over the
// transactions one account has sent. Views derive read-only slices and
// never mutate the underlying transactions.
type TransactionHistory struct {
	account *Account

	mu      sync.RWMutex
	entries []*Transaction
}

func newHistory(account *Account) *TransactionHistory {
	return &TransactionHistory{account: account}
}

func (h *TransactionHistory) Account() *Account { return h.account }

// Append records a transaction sent by the owning account. Transactions
// sent from other accounts are rejected.
func (h *TransactionHistory) Append(tx *Transaction) error {
	if tx == nil {
		return ErrNotFound
	}
	if tx.Sender() == nil || !h.account.Same(tx.Sender()) {
		return ErrSameAccount
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, tx)
	return nil
}

func (h *TransactionHistory) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// At returns the transaction at index in insertion order.
func (h *TransactionHistory) At(index int) (*Transaction, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if index < 0 || index >= len(h.entries) {
		return nil, false
	}
	return h.entries[index], true
}

// Latest returns the most recently appended transaction, or nil when the
// history is empty.
func (h *TransactionHistory) Latest() *Transaction {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.entries) == 0 {
		return nil
	}
	return h.entries[len(h.entries)-1]
}

// All returns a copy of the full history in insertion order.
func (h *TransactionHistory) All() []*Transaction {
	return h.Filter(func(*Transaction) bool { return true })
}

// Between returns transactions created within [start, end], inclusive.
func (h *TransactionHistory) Between(start, end time.Time) []*Transaction {
	return h.Filter(func(tx *Transaction) bool {
		ts := tx.CreatedAt()
		return !ts.Before(start) && !ts.After(end)
	})
}

// ByState returns transactions currently in the given state.
func (h *TransactionHistory) ByState(state TransactionState) []*Transaction {
	return h.Filter(func(tx *Transaction) bool { return tx.State() == state })
}

// ByMerchant returns card payments made to the given institute.
func (h *TransactionHistory) ByMerchant(merchant *Institute) []*Transaction {
	return h.Filter(func(tx *Transaction) bool {
		return tx.Type() == TypeCardPayment && tx.Merchant() != nil && tx.Merchant().Same(merchant)
	})
}

// WithNote returns transactions carrying a non-empty note.
func (h *TransactionHistory) WithNote() []*Transaction {
	return h.Filter(func(tx *Transaction) bool { return tx.Note() != "" })
}

// Filter returns transactions matching an arbitrary predicate.
func (h *TransactionHistory) Filter(keep func(*Transaction) bool) []*Transaction {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Transaction, 0, len(h.entries))
	for _, tx := range h.entries {
		if keep(tx) {
			out = append(out, tx)
		}
	}
	return out
}
