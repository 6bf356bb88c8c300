// Package customer defines the canonical customer row and the normalization
// from raw API records into it.
package customer

import "database/sql"

// Record is the canonical unit of reconciliation: one row in the
// mercately_customers table. The external id is the natural key; everything
// else is nullable because the API omits or mistypes fields freely.
type Record struct {
	ID                  string
	FirstName           sql.NullString
	LastName            sql.NullString
	Phone               sql.NullString
	Email               sql.NullString
	City                sql.NullString
	CampaignID          sql.NullInt64
	Agent               sql.NullInt64
	CreationDate        sql.NullTime
	SentAt              sql.NullTime
	DeliveredAt         sql.NullTime
	ReadAt              sql.NullTime
	LastChatInteraction sql.NullTime
	Tags                sql.NullString
	CustomFields        sql.NullString
	CustomerAddresses   sql.NullString
	// WhatsappOptIn is tri-state: true, false, or unknown (invalid).
	WhatsappOptIn sql.NullBool
}
