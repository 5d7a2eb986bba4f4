package accounts

import "time"

// Class numbers the seven chart of accounts groups.
type Class int

const (
	ClassEquity      Class = 1
	ClassFixedAssets Class = 2
	ClassInventory   Class = 3
	ClassThirdParty  Class = 4
	ClassFinancial   Class = 5
	ClassExpense     Class = 6
	ClassIncome      Class = 7
)

// Valid reports whether the class is one of the seven groups.
func (c Class) Valid() bool { return c >= ClassEquity && c <= ClassIncome }

// NormalSide tells on which side an account balance naturally sits.
type NormalSide string

const (
	NormalDebit  NormalSide = "DEBIT"
	NormalCredit NormalSide = "CREDIT"
)

// Account models a chart of accounts node. Codes are organisation-scoped and
// accounts are seeded once; deletion is refused while entry lines reference them.
type Account struct {
	ID         int64
	Code       string
	Name       string
	Class      Class
	NormalSide NormalSide
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Postable reports whether lines may be posted against the account.
func (a Account) Postable() bool { return a.IsActive }

// ClassOf derives the account class from the leading digit of a code.
// Returns 0 for codes outside the seven classes.
func ClassOf(code string) Class {
	if code == "" {
		return 0
	}
	c := Class(code[0] - '0')
	if !c.Valid() {
		return 0
	}
	return c
}

// DefaultNormalSide returns the conventional side for a class. Credit-normal
// sub-accounts inside classes 1-5 (suppliers, VAT collected, equity) override
// this per account at seed time.
func DefaultNormalSide(c Class) NormalSide {
	switch c {
	case ClassEquity, ClassIncome:
		return NormalCredit
	default:
		return NormalDebit
	}
}
