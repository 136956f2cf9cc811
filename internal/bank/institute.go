package bank

import "fmt"

// InstituteType classifies a counterparty.
type InstituteType string

const (
	InstituteBank       InstituteType = "BANK"
	InstituteMerchant   InstituteType = "MERCHANT"
	InstituteGovernment InstituteType = "GOVERNMENT"
	InstituteUtility    InstituteType = "UTILITY"
)

// Institute is a merchant or bank-like counterparty in a card payment.
// It never holds a balance and is immutable after creation.
type Institute struct {
	id   string
	name string
	kind InstituteType
}

func NewInstitute(id, name string, kind InstituteType) *Institute {
	return &Institute{id: id, name: name, kind: kind}
}

func (i *Institute) ID() string          { return i.id }
func (i *Institute) Name() string        { return i.name }
func (i *Institute) Kind() InstituteType { return i.kind }

// Same reports entity identity by id.
func (i *Institute) Same(other *Institute) bool {
	return other != nil && i.id == other.id
}

func (i *Institute) String() string {
	return fmt.Sprintf("Institute %s (%s, %s)", i.id, i.name, i.kind)
}
