package bank

import "time"

// Clock supplies the current time. Injected so tests can control
// transaction timestamps and card expiry evaluation.
type Clock func() time.Time

// IDSource supplies unique identifiers for new entities. The engine
// never generates IDs itself.
type IDSource interface {
	NextID() string
}

// Repository collaborators are durable, consistent single-entity stores.
// They provide no multi-entity transactions; cross-entity atomicity is
// the engine's job, guaranteed by per-account locking.

type AccountRepository interface {
	Save(a *Account) error
	FindByID(id string) (*Account, bool)
	Exists(id string) bool
}

type CardRepository interface {
	Save(c Card) error
	FindByNumber(number string) (Card, bool)
	Exists(number string) bool
}

type TransactionRepository interface {
	Save(tx *Transaction) error
	FindByID(id string) (*Transaction, bool)
	Exists(id string) bool
}

type InstituteRepository interface {
	Save(in *Institute) error
	FindByID(id string) (*Institute, bool)
	Exists(id string) bool
}

type UserRepository interface {
	Save(u *User) error
	FindByID(id string) (*User, bool)
	FindByEmail(email string) (*User, bool)
	Exists(id string) bool
}
