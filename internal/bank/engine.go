package bank

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Engine orchestrates money movement: it resolves references through the
// repository collaborators, performs the balance mutation through Account
// and Card primitives, then records the outcome as a Transaction. Input
// violations (bad amount, unknown entity, currency mismatch) fail fast
// with no record; a movement the ledger refused (insufficient funds, card
// denial) is recorded as a FAILED transaction for audit, with balances
// untouched.
type Engine struct {
	accounts  AccountRepository
	cards     CardRepository
	merchants InstituteRepository
	txns      TransactionRepository
	ids       IDSource
	clock     Clock
}

func NewEngine(accounts AccountRepository, cards CardRepository, merchants InstituteRepository, txns TransactionRepository, ids IDSource, clock Clock) *Engine {
	if clock == nil {
		clock = time.Now
	}
	return &Engine{
		accounts:  accounts,
		cards:     cards,
		merchants: merchants,
		txns:      txns,
		ids:       ids,
		clock:     clock,
	}
}

// Transfer moves amount between two accounts. Both legs apply atomically;
// on insufficient funds the returned transaction is FAILED and the error
// is ErrInsufficientFunds.
func (e *Engine) Transfer(senderID, receiverID, currency string, amount decimal.Decimal, note string) (*Transaction, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("transfer %s: %w", amount, ErrInvalidAmount)
	}
	sender, ok := e.accounts.FindByID(senderID)
	if !ok {
		return nil, fmt.Errorf("sender %s: %w", senderID, ErrNotFound)
	}
	receiver, ok := e.accounts.FindByID(receiverID)
	if !ok {
		return nil, fmt.Errorf("receiver %s: %w", receiverID, ErrNotFound)
	}
	if sender.Same(receiver) {
		return nil, ErrSameAccount
	}
	if sender.Currency() != currency || receiver.Currency() != currency {
		return nil, fmt.Errorf("%s vs %s/%s: %w", currency, sender.Currency(), receiver.Currency(), ErrCurrencyMismatch)
	}

	outcome := sender.TransferMoney(receiver, amount)
	if outcome != nil && !errors.Is(outcome, ErrInsufficientFunds) {
		return nil, outcome
	}

	tx, err := NewTransfer(e.ids.NextID(), e.clock(), sender, receiver, currency, amount, note)
	if err != nil {
		return nil, err
	}
	if outcome == nil {
		if err := e.accounts.Save(sender); err != nil {
			return nil, err
		}
		if err := e.accounts.Save(receiver); err != nil {
			return nil, err
		}
	}
	return e.record(tx, outcome)
}

// Payment authorizes a card payment to a merchant. The card was resolved
// upstream by number; its linked account is the paying side.
func (e *Engine) Payment(cardNumber, merchantID, currency string, amount decimal.Decimal, note string) (*Transaction, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("payment %s: %w", amount, ErrInvalidAmount)
	}
	card, ok := e.cards.FindByNumber(cardNumber)
	if !ok {
		return nil, fmt.Errorf("card: %w", ErrNotFound)
	}
	account := card.Account()
	if account == nil {
		return nil, ErrCardNotLinked
	}
	merchant, ok := e.merchants.FindByID(merchantID)
	if !ok {
		return nil, fmt.Errorf("merchant %s: %w", merchantID, ErrNotFound)
	}
	if account.Currency() != currency {
		return nil, fmt.Errorf("%s vs %s: %w", currency, account.Currency(), ErrCurrencyMismatch)
	}

	outcome := account.PayCard(card, amount)
	if outcome != nil && !deniedByPolicy(outcome) {
		return nil, outcome
	}

	tx, err := NewPayment(e.ids.NextID(), e.clock(), account, merchant, currency, amount, note)
	if err != nil {
		return nil, err
	}
	if outcome == nil {
		if err := e.accounts.Save(account); err != nil {
			return nil, err
		}
		if err := e.cards.Save(card); err != nil {
			return nil, err
		}
	}
	return e.record(tx, outcome)
}

// Deposit credits cash into an account and records a DEPOSIT transaction.
func (e *Engine) Deposit(accountID, currency string, amount decimal.Decimal, note string) (*Transaction, error) {
	account, err := e.resolveCashFlow(accountID, currency)
	if err != nil {
		return nil, err
	}
	if err := account.Deposit(amount); err != nil {
		return nil, err
	}
	if err := e.accounts.Save(account); err != nil {
		return nil, err
	}
	tx, err := NewCashFlow(e.ids.NextID(), e.clock(), TypeDeposit, account, currency, amount, note)
	if err != nil {
		return nil, err
	}
	return e.record(tx, nil)
}

// Withdraw debits cash from an account. An overdraw attempt is recorded
// as a FAILED WITHDRAWAL.
func (e *Engine) Withdraw(accountID, currency string, amount decimal.Decimal, note string) (*Transaction, error) {
	return e.debitFlow(TypeWithdrawal, accountID, currency, amount, note)
}

// Fee charges a fee against an account, recorded as a FEE transaction.
func (e *Engine) Fee(accountID, currency string, amount decimal.Decimal, note string) (*Transaction, error) {
	return e.debitFlow(TypeFee, accountID, currency, amount, note)
}

func (e *Engine) debitFlow(txType TransactionType, accountID, currency string, amount decimal.Decimal, note string) (*Transaction, error) {
	account, err := e.resolveCashFlow(accountID, currency)
	if err != nil {
		return nil, err
	}
	ok, err := account.Withdraw(amount)
	if err != nil {
		return nil, err
	}
	var outcome error
	if !ok {
		outcome = ErrInsufficientFunds
	} else if err := e.accounts.Save(account); err != nil {
		return nil, err
	}
	tx, err := NewCashFlow(e.ids.NextID(), e.clock(), txType, account, currency, amount, note)
	if err != nil {
		return nil, err
	}
	return e.record(tx, outcome)
}

func (e *Engine) resolveCashFlow(accountID, currency string) (*Account, error) {
	account, ok := e.accounts.FindByID(accountID)
	if !ok {
		return nil, fmt.Errorf("account %s: %w", accountID, ErrNotFound)
	}
	if account.Currency() != currency {
		return nil, fmt.Errorf("%s vs %s: %w", currency, account.Currency(), ErrCurrencyMismatch)
	}
	return account, nil
}

// record settles the transaction state from the movement outcome, persists
// it and appends it to the sender's history. The original denial travels
// back to the caller alongside the FAILED record.
func (e *Engine) record(tx *Transaction, outcome error) (*Transaction, error) {
	if outcome == nil {
		if err := tx.Complete(); err != nil {
			return nil, err
		}
	} else {
		if err := tx.Fail(); err != nil {
			return nil, err
		}
	}
	if err := e.txns.Save(tx); err != nil {
		return tx, err
	}
	if err := tx.Sender().History().Append(tx); err != nil {
		return tx, err
	}
	return tx, outcome
}

// deniedByPolicy separates authorization denials, which still produce a
// FAILED record, from programming or plumbing errors, which do not.
func deniedByPolicy(err error) bool {
	return errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrCardLimitExceeded) ||
		errors.Is(err, ErrCardAlreadyUsed) ||
		errors.Is(err, ErrCardExpired)
}
