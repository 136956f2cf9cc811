package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"bankcore/internal/bank"
)

// Fixed-width timestamps so lexicographic ORDER BY is chronological.
const journalTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Journal is the durable audit log of every transaction the engine
// produced, failed ones included. It is a write-behind record, not the
// system of record: balances and locks live in the core.
type Journal struct {
	db *sql.DB
}

// JournalEntry is one journaled transaction row. Amounts travel as exact
// decimal strings, never floats.
type JournalEntry struct {
	ID         string
	CreatedAt  time.Time
	Type       bank.TransactionType
	State      bank.TransactionState
	Amount     decimal.Decimal
	Currency   string
	Note       string
	SenderID   string
	ReceiverID string
	MerchantID string
}

func journalMigrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			id          TEXT PRIMARY KEY,
			created_at  TEXT NOT NULL,
			type        TEXT NOT NULL,
			state       TEXT NOT NULL,
			amount      TEXT NOT NULL,
			currency    TEXT NOT NULL,
			note        TEXT NOT NULL DEFAULT '',
			sender_id   TEXT NOT NULL,
			receiver_id TEXT,
			merchant_id TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_sender ON transactions(sender_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_created ON transactions(created_at)`,
	}
}

// OpenJournal opens (or creates) the journal database at path and applies
// the schema. Use ":memory:" for a throwaway journal.
func OpenJournal(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	for _, stmt := range journalMigrations() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate journal: %w", err)
		}
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error { return j.db.Close() }

// Record appends a transaction to the journal. Re-recording the same id
// updates the state, so a PENDING row settles into its terminal state.
func (j *Journal) Record(tx *bank.Transaction) error {
	var receiverID, merchantID sql.NullString
	if r := tx.Recipient(); r != nil {
		receiverID = sql.NullString{String: r.ID(), Valid: true}
	}
	if m := tx.Merchant(); m != nil {
		merchantID = sql.NullString{String: m.ID(), Valid: true}
	}
	_, err := j.db.Exec(`
		INSERT INTO transactions (id, created_at, type, state, amount, currency, note, sender_id, receiver_id, merchant_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET state = excluded.state
	`, tx.ID(), tx.CreatedAt().UTC().Format(journalTimeLayout), string(tx.Type()), string(tx.State()),
		tx.Amount().String(), tx.Currency(), tx.Note(), tx.Sender().ID(), receiverID, merchantID)
	if err != nil {
		return fmt.Errorf("record transaction %s: %w", tx.ID(), err)
	}
	return nil
}

// ByAccount returns journaled transactions sent by the account, newest
// first.
func (j *Journal) ByAccount(accountID string) ([]JournalEntry, error) {
	return j.query(`
		SELECT id, created_at, type, state, amount, currency, note, sender_id, receiver_id, merchant_id
		FROM transactions WHERE sender_id = ? ORDER BY created_at DESC
	`, accountID)
}

// Between returns journaled transactions created within [start, end].
func (j *Journal) Between(start, end time.Time) ([]JournalEntry, error) {
	return j.query(`
		SELECT id, created_at, type, state, amount, currency, note, sender_id, receiver_id, merchant_id
		FROM transactions WHERE created_at >= ? AND created_at <= ? ORDER BY created_at
	`, start.UTC().Format(journalTimeLayout), end.UTC().Format(journalTimeLayout))
}

func (j *Journal) query(q string, args ...any) ([]JournalEntry, error) {
	rows, err := j.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var out []JournalEntry
	for rows.Next() {
		var (
			e          JournalEntry
			createdAt  string
			amount     string
			receiverID sql.NullString
			merchantID sql.NullString
		)
		if err := rows.Scan(&e.ID, &createdAt, (*string)(&e.Type), (*string)(&e.State),
			&amount, &e.Currency, &e.Note, &e.SenderID, &receiverID, &merchantID); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		if e.CreatedAt, err = time.Parse(journalTimeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse journal timestamp: %w", err)
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse journal amount: %w", err)
		}
		e.ReceiverID = receiverID.String
		e.MerchantID = merchantID.String
		out = append(out, e)
	}
	return out, rows.Err()
}
