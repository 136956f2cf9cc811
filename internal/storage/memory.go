// Package storage provides the repository collaborators: a mutex-guarded
// in-memory store and a SQLite transaction journal. The stores are plain
// single-entity maps; cross-entity atomicity lives in the engine, not here.
package storage

import (
	"fmt"
	"sync"

	"bankcore/internal/bank"
)

// Memory is the in-memory entity store. Secondary indexes keep the lookup
// paths the HTTP layer needs cheap: email to user, owner to accounts,
// account to cards.
type Memory struct {
	mu        sync.RWMutex
	users     map[string]*bank.User
	accounts  map[string]*bank.Account
	cards     map[string]bank.Card // key: card number
	merchants map[string]*bank.Institute
	txns      map[string]*bank.Transaction

	emailIndex   map[string]string   // email -> user id
	accountIndex map[string][]string // user id -> account ids
	cardIndex    map[string][]string // account id -> card numbers
}

func NewMemory() *Memory {
	return &Memory{
		users:        make(map[string]*bank.User),
		accounts:     make(map[string]*bank.Account),
		cards:        make(map[string]bank.Card),
		merchants:    make(map[string]*bank.Institute),
		txns:         make(map[string]*bank.Transaction),
		emailIndex:   make(map[string]string),
		accountIndex: make(map[string][]string),
		cardIndex:    make(map[string][]string),
	}
}

// Typed repository views. Each satisfies the matching interface in
// internal/bank.

func (m *Memory) Users() bank.UserRepository               { return userRepo{m} }
func (m *Memory) Accounts() bank.AccountRepository         { return accountRepo{m} }
func (m *Memory) Cards() bank.CardRepository               { return cardRepo{m} }
func (m *Memory) Institutes() bank.InstituteRepository     { return instituteRepo{m} }
func (m *Memory) Transactions() bank.TransactionRepository { return txnRepo{m} }

type userRepo struct{ m *Memory }

func (r userRepo) Save(u *bank.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if ownerID, taken := r.m.emailIndex[u.Email()]; taken && ownerID != u.ID() {
		return fmt.Errorf("email %q already registered", u.Email())
	}
	r.m.users[u.ID()] = u
	r.m.emailIndex[u.Email()] = u.ID()
	return nil
}

func (r userRepo) FindByID(id string) (*bank.User, bool) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	u, ok := r.m.users[id]
	return u, ok
}

func (r userRepo) FindByEmail(email string) (*bank.User, bool) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	id, ok := r.m.emailIndex[email]
	if !ok {
		return nil, false
	}
	u, ok := r.m.users[id]
	return u, ok
}

func (r userRepo) Exists(id string) bool {
	_, ok := r.FindByID(id)
	return ok
}

type accountRepo struct{ m *Memory }

func (r accountRepo) Save(a *bank.Account) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, known := r.m.accounts[a.ID()]; !known {
		r.m.accountIndex[a.OwnerID()] = append(r.m.accountIndex[a.OwnerID()], a.ID())
	}
	r.m.accounts[a.ID()] = a
	return nil
}

func (r accountRepo) FindByID(id string) (*bank.Account, bool) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	a, ok := r.m.accounts[id]
	return a, ok
}

func (r accountRepo) Exists(id string) bool {
	_, ok := r.FindByID(id)
	return ok
}

type cardRepo struct{ m *Memory }

func (r cardRepo) Save(c bank.Card) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if held, taken := r.m.cards[c.Number()]; taken && held != c {
		// Card numbers are unique system-wide.
		return fmt.Errorf("card number %s already issued", c.MaskedNumber())
	}
	if _, known := r.m.cards[c.Number()]; !known {
		if acct := c.Account(); acct != nil {
			r.m.cardIndex[acct.ID()] = append(r.m.cardIndex[acct.ID()], c.Number())
		}
	}
	r.m.cards[c.Number()] = c
	return nil
}

func (r cardRepo) FindByNumber(number string) (bank.Card, bool) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	c, ok := r.m.cards[number]
	return c, ok
}

func (r cardRepo) Exists(number string) bool {
	_, ok := r.FindByNumber(number)
	return ok
}

type instituteRepo struct{ m *Memory }

func (r instituteRepo) Save(in *bank.Institute) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.merchants[in.ID()] = in
	return nil
}

func (r instituteRepo) FindByID(id string) (*bank.Institute, bool) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	in, ok := r.m.merchants[id]
	return in, ok
}

func (r instituteRepo) Exists(id string) bool {
	_, ok := r.FindByID(id)
	return ok
}

type txnRepo struct{ m *Memory }

func (r txnRepo) Save(tx *bank.Transaction) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.txns[tx.ID()] = tx
	return nil
}

func (r txnRepo) FindByID(id string) (*bank.Transaction, bool) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	tx, ok := r.m.txns[id]
	return tx, ok
}

func (r txnRepo) Exists(id string) bool {
	_, ok := r.FindByID(id)
	return ok
}

// AccountsByUser returns the accounts owned by a user in creation order.
func (m *Memory) AccountsByUser(userID string) []*bank.Account {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.accountIndex[userID]
	out := make([]*bank.Account, 0, len(ids))
	for _, id := range ids {
		if a, ok := m.accounts[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

// CardsByAccount returns the cards issued for an account in issue order.
func (m *Memory) CardsByAccount(accountID string) []bank.Card {
	m.mu.RLock()
	defer m.mu.RUnlock()
	numbers := m.cardIndex[accountID]
	out := make([]bank.Card, 0, len(numbers))
	for _, number := range numbers {
		if c, ok := m.cards[number]; ok {
			out = append(out, c)
		}
	}
	return out
}

// ListInstitutes returns all known institutes.
func (m *Memory) ListInstitutes() []*bank.Institute {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*bank.Institute, 0, len(m.merchants))
	for _, in := range m.merchants {
		out = append(out, in)
	}
	return out
}
