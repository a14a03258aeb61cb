package repository

import (
	"context"

	"repairpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentRepository is append-only: there is no update or delete.
type PaymentRepository interface {
	CreateTx(tx *gorm.DB, p *model.Payment) error
	ListBySale(ctx context.Context, saleID uuid.UUID) ([]model.Payment, error)
	ListByRepair(ctx context.Context, repairID uuid.UUID) ([]model.Payment, error)
}

type paymentRepo struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) PaymentRepository { return &paymentRepo{db: db} }

func (r *paymentRepo) CreateTx(tx *gorm.DB, p *model.Payment) error {
	return tx.Create(p).Error
}

func (r *paymentRepo) ListBySale(ctx context.Context, saleID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	err := r.db.WithContext(ctx).Where("sale_id = ?", saleID).Order("created_at ASC").Find(&payments).Error
	return payments, err
}

func (r *paymentRepo) ListByRepair(ctx context.Context, repairID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	err := r.db.WithContext(ctx).Where("repair_id = ?", repairID).Order("created_at ASC").Find(&payments).Error
	return payments, err
}
