package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Client is the directory view of a bank client. The ledger only needs
// existence, identity and owned accounts.
type Client struct {
	ID         string
	Name       string
	AccountIDs []string
}

// OwnsAccount reports whether accountID belongs to the client.
func (c *Client) OwnsAccount(accountID string) bool {
	for _, id := range c.AccountIDs {
		if id == accountID {
			return true
		}
	}
	return false
}

// Account is a client account as seen by the ledger. ID is the account
// identifier, typically an IBAN.
type Account struct {
	ID        string
	ClientID  string
	Currency  string
	Balance   decimal.Decimal
	Version   int64
	UpdatedAt time.Time
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}
