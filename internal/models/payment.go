package models

import "time"

// PaypalBookingTransaction maps a generated invoice id to a booking for
// gateway reconciliation. Append-only: once TransactionID is set the row is
// never mutated.
type PaypalBookingTransaction struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	InvoiceID     string  `gorm:"uniqueIndex;not null" json:"invoice_id"`
	BookingID     uint    `gorm:"not null" json:"booking_id"`
	TransactionID *string `gorm:"uniqueIndex" json:"transaction_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	Booking *Booking `gorm:"foreignKey:BookingID" json:"-"`
}

// PaypalBlockTransaction is the block-level counterpart.
type PaypalBlockTransaction struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	InvoiceID     string  `gorm:"uniqueIndex;not null" json:"invoice_id"`
	BlockID       uint    `gorm:"not null" json:"block_id"`
	TransactionID *string `gorm:"uniqueIndex" json:"transaction_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	Block *Block `gorm:"foreignKey:BlockID" json:"-"`
}
