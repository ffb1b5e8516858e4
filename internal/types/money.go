// README: Common money and identifier value objects used across modules.
package types

import "github.com/google/uuid"

type ID string

// Money amounts are integer minor units of Currency.
type Money struct {
	Amount   int64
	Currency string
}

const DefaultCurrency = "IDR"

func NewID() ID {
	return ID(uuid.NewString())
}

func (id ID) Empty() bool { return id == "" }

func (id ID) String() string { return string(id) }
