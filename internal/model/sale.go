package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SaleStatus: sales are written as Completed; Cancelled exists for data
// imported from other tools and is never set by this service.
type SaleStatus string

const (
	SaleCompleted SaleStatus = "Completed"
	SaleCancelled SaleStatus = "Cancelled"
)

// Sale is an immutable checkout header. Items and the payment are written in
// the same transaction as the header.
type Sale struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TaxPrimary    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TaxSecondary  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	FinalTotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentMethod string          `gorm:"type:varchar(30);not null"`
	Status        SaleStatus      `gorm:"type:varchar(20);not null;default:'Completed';index"`
	ClientID      *uuid.UUID      `gorm:"type:uuid;index"`
	CreatedAt     time.Time

	Items    []SaleItem `gorm:"foreignKey:SaleID"`
	Payments []Payment  `gorm:"foreignKey:SaleID"`
	Client   *Client    `gorm:"foreignKey:ClientID"`
}

func (s *Sale) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = SaleCompleted
	}
	return nil
}

// SaleItem is one checkout line: a product, a phone, a repair balance, or a
// free-text manual entry. Line keeps the request order.
type SaleItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SaleID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Line       int             `gorm:"not null;default:0"`
	ProductID  *uuid.UUID      `gorm:"type:uuid;index"`
	PhoneID    *uuid.UUID      `gorm:"type:uuid;index"`
	RepairID   *uuid.UUID      `gorm:"type:uuid;index"`
	IsManual   bool            `gorm:"not null;default:false"`
	ManualName *string
	Quantity   int             `gorm:"not null"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Product *Product `gorm:"foreignKey:ProductID"`
	Phone   *Phone   `gorm:"foreignKey:PhoneID"`
}

func (i *SaleItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// LineTotal is UnitPrice × Quantity.
func (i SaleItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Payment is append-only. Exactly one of SaleID and RepairID is set; repair
// payments are deposits taken at intake.
type Payment struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SaleID    *uuid.UUID      `gorm:"type:uuid;index"`
	RepairID  *uuid.UUID      `gorm:"type:uuid;index"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Method    string          `gorm:"type:varchar(30);not null"`
	CreatedAt time.Time
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
