package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog part or accessory. StockQuantity is owned by the
// inventory ledger and is never written by CRUD paths.
type Product struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name          string          `gorm:"index;not null"`
	SKU           string          `gorm:"column:sku;uniqueIndex;not null"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	StockQuantity int             `gorm:"not null;default:0"`
	MinStockAlert int             `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// StockMovement is an immutable audit row written for every ledger adjustment.
// Delta is positive for stock coming in and negative for stock going out.
type StockMovement struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ProductID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Kind        string     `gorm:"type:varchar(30);not null"`
	Delta       int        `gorm:"not null"`
	StockBefore int        `gorm:"not null"`
	StockAfter  int        `gorm:"not null"`
	ReferenceID *uuid.UUID `gorm:"type:uuid;index"` // sale or repair that caused it
	CreatedAt   time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// Movement kinds.
const (
	MovementSale              = "sale"
	MovementRepairConsumption = "repair_consumption"
	MovementRepairSettlement  = "repair_settlement"
)

func (m *StockMovement) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
