// Package ident supplies identifiers for new entities: opaque uuids for
// the core, bank-shaped account and card numbers for display.
package ident

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Source implements bank.IDSource on top of uuid.
type Source struct{}

func (Source) NextID() string { return NewID() }

func NewID() string {
	return uuid.NewString()
}

// AccountNumber returns a 20-digit account number in the retail 40817810
// prefix range.
func AccountNumber() string {
	n, _ := rand.Int(rand.Reader, big.NewInt(1000000000000))
	return fmt.Sprintf("40817810%012d", n.Int64())
}

// CardNumber returns a 16-digit card number in the 4xxx range.
func CardNumber() string {
	n1, _ := rand.Int(rand.Reader, big.NewInt(900))
	n2, _ := rand.Int(rand.Reader, big.NewInt(10000))
	n3, _ := rand.Int(rand.Reader, big.NewInt(10000))
	n4, _ := rand.Int(rand.Reader, big.NewInt(10000))
	return fmt.Sprintf("4%03d%04d%04d%04d", n1.Int64()+100, n2.Int64(), n3.Int64(), n4.Int64())
}

// CVV returns a 3-digit verification value.
func CVV() string {
	n, _ := rand.Int(rand.Reader, big.NewInt(900))
	return fmt.Sprintf("%03d", n.Int64()+100)
}

// CardExpiry returns the end of the expiry month four years out from now.
func CardExpiry(now time.Time) time.Time {
	exp := now.AddDate(4, 0, 0)
	firstOfMonth := time.Date(exp.Year(), exp.Month(), 1, 0, 0, 0, 0, time.UTC)
	return firstOfMonth.AddDate(0, 1, 0)
}
