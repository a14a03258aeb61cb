package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PhoneStatus is the resale state of a serialized used device.
type PhoneStatus string

const (
	PhoneInStock  PhoneStatus = "in_stock"
	PhoneSold     PhoneStatus = "sold"
	PhoneReturned PhoneStatus = "returned"
)

func (s PhoneStatus) Valid() bool {
	switch s {
	case PhoneInStock, PhoneSold, PhoneReturned:
		return true
	}
	return false
}

// ParsePhoneStatus rejects anything outside the closed set.
func ParsePhoneStatus(s string) (PhoneStatus, error) {
	st := PhoneStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: phone status %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// Phone is one used handset unit held for resale, identified by its IMEI.
type Phone struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	IMEI          string          `gorm:"column:imei;uniqueIndex;not null"`
	Brand         string          `gorm:"not null"`
	Model         string          `gorm:"not null"`
	Storage       string
	Color         string
	Condition     string
	PurchasePrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	SellingPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Status        PhoneStatus     `gorm:"type:varchar(20);not null;default:'in_stock'"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (p *Phone) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = PhoneInStock
	}
	return nil
}
