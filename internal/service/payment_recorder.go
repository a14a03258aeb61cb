package service

import (
	"fmt"
	"strings"

	"repairpos/internal/model"
	"repairpos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentRecorder appends payment rows. Payments are never updated or deleted.
type PaymentRecorder interface {
	RecordPaymentTx(tx *gorm.DB, saleID uuid.UUID, amount decimal.Decimal, method string) (*model.Payment, error)
	// RecordDepositTx records money taken at repair intake, before any sale exists.
	RecordDepositTx(tx *gorm.DB, repairID uuid.UUID, amount decimal.Decimal, method string) (*model.Payment, error)
}

type paymentRecorder struct {
	repo repository.PaymentRepository
}

func NewPaymentRecorder(repo repository.PaymentRepository) PaymentRecorder {
	return &paymentRecorder{repo: repo}
}

func (r *paymentRecorder) RecordPaymentTx(tx *gorm.DB, saleID uuid.UUID, amount decimal.Decimal, method string) (*model.Payment, error) {
	if saleID == uuid.Nil {
		return nil, fmt.Errorf("%w: payment without sale", model.ErrValidation)
	}
	return r.record(tx, &model.Payment{SaleID: &saleID, Amount: amount, Method: method})
}

func (r *paymentRecorder) RecordDepositTx(tx *gorm.DB, repairID uuid.UUID, amount decimal.Decimal, method string) (*model.Payment, error) {
	if repairID == uuid.Nil {
		return nil, fmt.Errorf("%w: deposit without repair", model.ErrValidation)
	}
	return r.record(tx, &model.Payment{RepairID: &repairID, Amount: amount, Method: method})
}

func (r *paymentRecorder) record(tx *gorm.DB, p *model.Payment) (*model.Payment, error) {
	if strings.TrimSpace(p.Method) == "" {
		return nil, fmt.Errorf("%w: payment method is required", model.ErrValidation)
	}
	if err := r.repo.CreateTx(tx, p); err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}
	return p, nil
}
