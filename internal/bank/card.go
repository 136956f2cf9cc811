package bank

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// CardKind tags the closed set of card variants.
type CardKind string

const (
	KindCredit  CardKind = "CREDIT"
	KindDebit   CardKind = "DEBIT"
	KindOneTime CardKind = "ONE_TIME"
)

var (
	pinPattern        = regexp.MustCompile(`^\d{3,6}$`)
	cardNumberPattern = regexp.MustCompile(`^\d{16}$`)
)

// ValidPIN reports whether pin is 3 to 6 digits.
func ValidPIN(pin string) bool { return pinPattern.MatchString(pin) }

// ValidCardNumber reports whether number is exactly 16 digits.
func ValidCardNumber(number string) bool { return cardNumberPattern.MatchString(number) }

// Card is the common contract of the three variants. AuthorizePayment is
// all-or-nothing: on failure neither the card draw nor the account balance
// changes, on success both change together under the account's lock.
type Card interface {
	Number() string
	MaskedNumber() string
	ExpiryDate() time.Time
	CVV() string
	Kind() CardKind
	Account() *Account
	SetPIN(pin string) error
	CheckPIN(pin string) bool
	SetClock(clock Clock)
	AuthorizePayment(amount decimal.Decimal) error

	// authorizeLocked runs the variant's spending policy with the account
	// lock held. Unexported on purpose: it closes the variant set and keeps
	// outside packages on the locking public path.
	authorizeLocked(now time.Time, amount decimal.Decimal) error
	base() *cardBase
}

// cardBase carries the state shared by every variant. Variant draw state
// is guarded by the owning account's lock, since an authorization always
// ends in a balance write on that account.
type cardBase struct {
	number  string
	expiry  time.Time
	cvv     string
	pin     string
	account *Account
	clock   Clock
}

func newCardBase(number string, expiry time.Time, cvv string, account *Account) (cardBase, error) {
	if !ValidCardNumber(number) {
		return cardBase{}, fmt.Errorf("card number %q: %w", number, ErrInvalidCardNumber)
	}
	return cardBase{
		number:  number,
		expiry:  expiry,
		cvv:     cvv,
		account: account,
	}, nil
}

func (b *cardBase) Number() string        { return b.number }
func (b *cardBase) ExpiryDate() time.Time { return b.expiry }
func (b *cardBase) CVV() string           { return b.cvv }
func (b *cardBase) Account() *Account     { return b.account }

// MaskedNumber hides all but the last four digits. Anything leaving the
// core shows this form, never the raw number.
func (b *cardBase) MaskedNumber() string {
	return "**** **** **** " + b.number[len(b.number)-4:]
}

// SetPIN validates the 3-6 digit format at assignment time. On a bad PIN
// the existing one is left unchanged.
func (b *cardBase) SetPIN(pin string) error {
	if !ValidPIN(pin) {
		return ErrInvalidPIN
	}
	b.pin = pin
	return nil
}

func (b *cardBase) CheckPIN(pin string) bool {
	return b.pin != "" && b.pin == pin
}

// SetClock overrides the expiry evaluation clock. Tests use this to pin
// time; production cards run on the wall clock.
func (b *cardBase) SetClock(clock Clock) { b.clock = clock }

func (b *cardBase) now() time.Time {
	if b.clock != nil {
		return b.clock()
	}
	return time.Now()
}

// usable reports whether the card is strictly before its expiry date.
func (b *cardBase) usable(now time.Time) bool {
	return now.Before(b.expiry)
}

// authorize is the shared public entry: it takes the account lock, then
// dispatches to the variant policy.
func authorize(c Card, amount decimal.Decimal) error {
	b := c.base()
	if b.account == nil {
		return ErrCardNotLinked
	}
	b.account.mu.Lock()
	defer b.account.mu.Unlock()
	return c.authorizeLocked(b.now(), amount)
}
