package repository

import (
	"context"

	"repairpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RepairRepository persists repairs and their part associations. Status and
// parts are written only by the repair service.
type RepairRepository interface {
	CreateTx(tx *gorm.DB, r *model.Repair) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Repair, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Repair, error)
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status model.RepairStatus) error
	// UpdateFieldsTx writes only the named columns of upd.
	UpdateFieldsTx(tx *gorm.DB, id uuid.UUID, upd *model.Repair, columns []string) error

	ListPartsTx(tx *gorm.DB, repairID uuid.UUID) ([]model.RepairPart, error)
	// ReplacePartsTx deletes every part row of the repair and inserts parts.
	ReplacePartsTx(tx *gorm.DB, repairID uuid.UUID, parts []model.RepairPart) error
}

type repairRepo struct{ db *gorm.DB }

func NewRepairRepository(db *gorm.DB) RepairRepository { return &repairRepo{db: db} }

func (r *repairRepo) CreateTx(tx *gorm.DB, rep *model.Repair) error {
	return tx.Omit(clause.Associations).Create(rep).Error
}

// FindByID loads the repair joined with its client and parts.
func (r *repairRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Repair, error) {
	var rep model.Repair
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Parts", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Parts.Product").
		Where("id = ?", id).
		First(&rep).Error
	if err != nil {
		return nil, notFound(err, model.ErrRepairNotFound)
	}
	return &rep, nil
}

// FindByIDTx reads the bare row inside a transaction. On postgres the row is
// locked FOR UPDATE so the status read and write are not interleaved.
func (r *repairRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Repair, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var rep model.Repair
	if err := q.Where("id = ?", id).First(&rep).Error; err != nil {
		return nil, notFound(err, model.ErrRepairNotFound)
	}
	return &rep, nil
}

func (r *repairRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status model.RepairStatus) error {
	res := tx.Model(&model.Repair{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrRepairNotFound
	}
	return nil
}

func (r *repairRepo) UpdateFieldsTx(tx *gorm.DB, id uuid.UUID, upd *model.Repair, columns []string) error {
	if len(columns) == 0 {
		return nil
	}
	res := tx.Model(&model.Repair{}).Where("id = ?", id).Select(columns).Updates(upd)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrRepairNotFound
	}
	return nil
}

func (r *repairRepo) ListPartsTx(tx *gorm.DB, repairID uuid.UUID) ([]model.RepairPart, error) {
	var parts []model.RepairPart
	err := tx.Where("repair_id = ?", repairID).Order("created_at ASC").Find(&parts).Error
	return parts, err
}

func (r *repairRepo) ReplacePartsTx(tx *gorm.DB, repairID uuid.UUID, parts []model.RepairPart) error {
	if err := tx.Where("repair_id = ?", repairID).Delete(&model.RepairPart{}).Error; err != nil {
		return err
	}
	if len(parts) == 0 {
		return nil
	}
	for i := range parts {
		parts[i].RepairID = repairID
	}
	return tx.Omit(clause.Associations).Create(&parts).Error
}
