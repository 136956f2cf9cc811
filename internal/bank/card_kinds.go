package bank

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CreditCard draws against a credit line instead of the daily budget.
// The predicate is the credit limit, not the account balance, but the
// debit leg still goes through the account's guarded write path, which
// refuses to overdraw.
type CreditCard struct {
	cardBase
	creditLimit decimal.Decimal
	creditUsed  decimal.Decimal
}

func NewCreditCard(number string, expiry time.Time, cvv string, account *Account, creditLimit decimal.Decimal) (*CreditCard, error) {
	base, err := newCardBase(number, expiry, cvv, account)
	if err != nil {
		return nil, err
	}
	if !creditLimit.IsPositive() {
		return nil, fmt.Errorf("credit limit %s: %w", creditLimit, ErrInvalidAmount)
	}
	return &CreditCard{
		cardBase:    base,
		creditLimit: creditLimit,
		creditUsed:  decimal.Zero,
	}, nil
}

func (c *CreditCard) Kind() CardKind { return KindCredit }

func (c *CreditCard) CreditLimit() decimal.Decimal { return c.creditLimit }

func (c *CreditCard) CreditUsed() decimal.Decimal {
	if c.account != nil {
		c.account.mu.Lock()
		defer c.account.mu.Unlock()
	}
	return c.creditUsed
}

func (c *CreditCard) AuthorizePayment(amount decimal.Decimal) error {
	return authorize(c, amount)
}

func (c *CreditCard) authorizeLocked(now time.Time, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("authorize %s: %w", amount, ErrInvalidAmount)
	}
	if !c.usable(now) {
		return ErrCardExpired
	}
	if c.creditUsed.Add(amount).GreaterThan(c.creditLimit) {
		return ErrCardLimitExceeded
	}
	if !c.account.debitLocked(amount) {
		return ErrInsufficientFunds
	}
	c.creditUsed = c.creditUsed.Add(amount)
	return nil
}

func (c *CreditCard) base() *cardBase { return &c.cardBase }

// DebitCard draws against the account balance within a per-day budget and
// a per-day use count. Counters roll over when the clock enters a new
// calendar day.
type DebitCard struct {
	cardBase
	dailyLimit decimal.Decimal
	dailySpent decimal.Decimal
	dailyUsed  int
	dailyUses  int
	day        time.Time
}

func NewDebitCard(number string, expiry time.Time, cvv string, account *Account, dailyLimit decimal.Decimal, dailyUses int) (*DebitCard, error) {
	base, err := newCardBase(number, expiry, cvv, account)
	if err != nil {
		return nil, err
	}
	if !dailyLimit.IsPositive() {
		return nil, fmt.Errorf("daily limit %s: %w", dailyLimit, ErrInvalidAmount)
	}
	if dailyUses < 0 || dailyUses > 30 {
		return nil, fmt.Errorf("daily uses %d out of range: %w", dailyUses, ErrInvalidAmount)
	}
	return &DebitCard{
		cardBase:   base,
		dailyLimit: dailyLimit,
		dailySpent: decimal.Zero,
		dailyUses:  dailyUses,
	}, nil
}

func (c *DebitCard) Kind() CardKind { return KindDebit }

func (c *DebitCard) DailyLimit() decimal.Decimal { return c.dailyLimit }
func (c *DebitCard) DailyUses() int              { return c.dailyUses }

func (c *DebitCard) DailySpent() decimal.Decimal {
	if c.account != nil {
		c.account.mu.Lock()
		defer c.account.mu.Unlock()
	}
	return c.dailySpent
}

func (c *DebitCard) DailyUsed() int {
	if c.account != nil {
		c.account.mu.Lock()
		defer c.account.mu.Unlock()
	}
	return c.dailyUsed
}

func (c *DebitCard) AuthorizePayment(amount decimal.Decimal) error {
	return authorize(c, amount)
}

func (c *DebitCard) authorizeLocked(now time.Time, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("authorize %s: %w", amount, ErrInvalidAmount)
	}
	if !c.usable(now) {
		return ErrCardExpired
	}
	c.rollDayLocked(now)
	if c.dailySpent.Add(amount).GreaterThan(c.dailyLimit) {
		return ErrCardLimitExceeded
	}
	if c.dailyUsed >= c.dailyUses {
		return ErrCardLimitExceeded
	}
	if !c.account.debitLocked(amount) {
		return ErrInsufficientFunds
	}
	c.dailySpent = c.dailySpent.Add(amount)
	c.dailyUsed++
	return nil
}

// rollDayLocked resets the daily counters on the first authorization of a
// new calendar day.
func (c *DebitCard) rollDayLocked(now time.Time) {
	today := now.Truncate(24 * time.Hour)
	if !today.Equal(c.day) {
		c.day = today
		c.dailySpent = decimal.Zero
		c.dailyUsed = 0
	}
}

func (c *DebitCard) base() *cardBase { return &c.cardBase }

// OneTimeCard authorizes exactly one payment, bounded by the account
// balance and a maximum draw, then is spent forever.
type OneTimeCard struct {
	cardBase
	maxDraw decimal.Decimal
	used    bool
}

func NewOneTimeCard(number string, expiry time.Time, cvv string, account *Account, maxDraw decimal.Decimal) (*OneTimeCard, error) {
	base, err := newCardBase(number, expiry, cvv, account)
	if err != nil {
		return nil, err
	}
	if !maxDraw.IsPositive() {
		return nil, fmt.Errorf("max draw %s: %w", maxDraw, ErrInvalidAmount)
	}
	return &OneTimeCard{
		cardBase: base,
		maxDraw:  maxDraw,
	}, nil
}

func (c *OneTimeCard) Kind() CardKind { return KindOneTime }

func (c *OneTimeCard) MaxDraw() decimal.Decimal { return c.maxDraw }

func (c *OneTimeCard) Used() bool {
	if c.account != nil {
		c.account.mu.Lock()
		defer c.account.mu.Unlock()
	}
	return c.used
}

func (c *OneTimeCard) AuthorizePayment(amount decimal.Decimal) error {
	return authorize(c, amount)
}

func (c *OneTimeCard) authorizeLocked(now time.Time, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("authorize %s: %w", amount, ErrInvalidAmount)
	}
	if c.used {
		return ErrCardAlreadyUsed
	}
	if !c.usable(now) {
		return ErrCardExpired
	}
	if amount.GreaterThan(c.maxDraw) {
		return ErrCardLimitExceeded
	}
	if !c.account.debitLocked(amount) {
		return ErrInsufficientFunds
	}
	c.used = true // irreversible
	return nil
}

func (c *OneTimeCard) base() *cardBase { return &c.cardBase }
