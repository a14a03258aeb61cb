package repository

import (
	"context"

	"repairpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PhoneRepository interface {
	Create(ctx context.Context, p *model.Phone) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Phone, error)
	// UpdateStatusTx overwrites the status unconditionally.
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status model.PhoneStatus) error
}

type phoneRepo struct{ db *gorm.DB }

func NewPhoneRepository(db *gorm.DB) PhoneRepository { return &phoneRepo{db: db} }

func (r *phoneRepo) Create(ctx context.Context, p *model.Phone) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *phoneRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Phone, error) {
	var p model.Phone
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err, model.ErrPhoneNotFound)
	}
	return &p, nil
}

func (r *phoneRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status model.PhoneStatus) error {
	res := tx.Model(&model.Phone{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrPhoneNotFound
	}
	return nil
}
