package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RepairStatus is the closed set of repair ticket states. The stored values
// are the shop's own labels and are part of the HTTP contract.
type RepairStatus string

const (
	RepairReceived      RepairStatus = "reçue"
	RepairInProgress    RepairStatus = "en_cours"
	RepairAwaitingParts RepairStatus = "en_attente_pieces"
	RepairRepaired      RepairStatus = "réparée"
	RepairCollected     RepairStatus = "payée_collectée"
	RepairCancelled     RepairStatus = "annulé"
)

// RepairStatuses lists every state in intake-to-collection order.
var RepairStatuses = []RepairStatus{
	RepairReceived,
	RepairInProgress,
	RepairAwaitingParts,
	RepairRepaired,
	RepairCollected,
	RepairCancelled,
}

// IsConsumed reports whether a repair in this state has used its parts.
// Stock is decremented when a repair crosses from a non-consumed state into a
// consumed one. Unknown values are never consumed.
func (s RepairStatus) IsConsumed() bool {
	switch s {
	case RepairRepaired, RepairCollected:
		return true
	case RepairReceived, RepairInProgress, RepairAwaitingParts, RepairCancelled:
		return false
	default:
		return false
	}
}

func (s RepairStatus) Valid() bool {
	switch s {
	case RepairReceived, RepairInProgress, RepairAwaitingParts,
		RepairRepaired, RepairCollected, RepairCancelled:
		return true
	}
	return false
}

// ParseRepairStatus maps a wire value to a RepairStatus. Typos fail here
// instead of silently bypassing the consumption guard.
func ParseRepairStatus(s string) (RepairStatus, error) {
	st := RepairStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: repair status %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// CrossesIntoConsumed is the consumption guard edge: true only when moving
// from a non-consumed state into a consumed one.
func CrossesIntoConsumed(from, to RepairStatus) bool {
	return to.IsConsumed() && !from.IsConsumed()
}

// Repair is a service ticket for a customer device.
// PartsListSnapshot is a display-only copy of part names; RepairPart rows are
// what stock consumption is computed from.
type Repair struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ClientID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	DeviceBrand       string
	DeviceModel       string
	IssueDescription  string
	Status            RepairStatus    `gorm:"type:varchar(30);not null;default:'reçue';index"`
	CostEstimate      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	DepositPaid       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	WarrantyDays      int             `gorm:"not null;default:0"`
	PartsListSnapshot []string        `gorm:"type:text;serializer:json"`
	Notes             *string
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Client *Client      `gorm:"foreignKey:ClientID"`
	Parts  []RepairPart `gorm:"foreignKey:RepairID"`
}

func (r *Repair) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = RepairReceived
	}
	return nil
}

// RepairPart commits Quantity units of a product to a repair.
type RepairPart struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	RepairID  uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity  int       `gorm:"not null;default:1"`
	CreatedAt time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (p *RepairPart) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Quantity <= 0 {
		p.Quantity = 1
	}
	return nil
}

// Units returns the recorded quantity, defaulting to one.
func (p RepairPart) Units() int {
	if p.Quantity <= 0 {
		return 1
	}
	return p.Quantity
}
