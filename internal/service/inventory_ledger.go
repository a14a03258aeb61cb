package service

import (
	"context"
	"fmt"

	"repairpos/internal/dto"
	"repairpos/internal/model"
	"repairpos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// InventoryLedger is the only writer of products.stock_quantity and
// phones.status. Callers hand it the transaction they are running in.
type InventoryLedger interface {
	// AdjustStockTx applies stock_quantity += delta without clamping at zero
	// and records a StockMovement. A negative result is logged, not rejected.
	AdjustStockTx(tx *gorm.DB, productID uuid.UUID, delta int, kind string, ref *uuid.UUID) error
	// SetPhoneStatusTx overwrites the phone status unconditionally.
	SetPhoneStatusTx(tx *gorm.DB, phoneID uuid.UUID, status model.PhoneStatus) error

	LowStock(ctx context.Context) ([]dto.LowStockResponse, error)
	ListMovements(ctx context.Context, filter dto.MovementFilter) (*dto.MovementListResponse, error)
}

type inventoryLedger struct {
	products  repository.ProductRepository
	phones    repository.PhoneRepository
	movements repository.StockMovementRepository
}

func NewInventoryLedger(
	products repository.ProductRepository,
	phones repository.PhoneRepository,
	movements repository.StockMovementRepository,
) InventoryLedger {
	return &inventoryLedger{products: products, phones: phones, movements: movements}
}

func (l *inventoryLedger) AdjustStockTx(tx *gorm.DB, productID uuid.UUID, delta int, kind string, ref *uuid.UUID) error {
	if err := l.products.UpdateStockTx(tx, productID, delta); err != nil {
		return fmt.Errorf("adjust stock of %s: %w", productID, err)
	}
	p, err := l.products.FindByIDTx(tx, productID)
	if err != nil {
		return err
	}

	mov := &model.StockMovement{
		ProductID:   productID,
		Kind:        kind,
		Delta:       delta,
		StockBefore: p.StockQuantity - delta,
		StockAfter:  p.StockQuantity,
		ReferenceID: ref,
	}
	if err := l.movements.CreateTx(tx, mov); err != nil {
		return err
	}

	if p.StockQuantity < 0 {
		log.Warn().
			Str("product_id", productID.String()).
			Str("sku", p.SKU).
			Int("stock", p.StockQuantity).
			Str("kind", kind).
			Msg("inventory: stock went negative")
	}
	return nil
}

func (l *inventoryLedger) SetPhoneStatusTx(tx *gorm.DB, phoneID uuid.UUID, status model.PhoneStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: phone status %q", model.ErrInvalidStatus, status)
	}
	if err := l.phones.UpdateStatusTx(tx, phoneID, status); err != nil {
		return fmt.Errorf("set phone %s %s: %w", phoneID, status, err)
	}
	return nil
}

func (l *inventoryLedger) LowStock(ctx context.Context) ([]dto.LowStockResponse, error) {
	products, err := l.products.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Map(products, func(p model.Product, _ int) dto.LowStockResponse {
		return dto.LowStockResponse{
			ProductID:     p.ID.String(),
			Name:          p.Name,
			SKU:           p.SKU,
			StockQuantity: p.StockQuantity,
			MinStockAlert: p.MinStockAlert,
		}
	}), nil
}

func (l *inventoryLedger) ListMovements(ctx context.Context, filter dto.MovementFilter) (*dto.MovementListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 100
	}
	repoFilter := repository.StockMovementFilter{Kind: filter.Kind, Page: filter.Page, Limit: filter.Limit}
	if filter.ProductID != "" {
		pid, err := uuid.Parse(filter.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: product_id: %v", model.ErrValidation, err)
		}
		repoFilter.ProductID = &pid
	}

	movements, total, err := l.movements.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	return &dto.MovementListResponse{
		Data:  lo.Map(movements, func(m model.StockMovement, _ int) dto.MovementResponse { return movementToResponse(&m) }),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func movementToResponse(m *model.StockMovement) dto.MovementResponse {
	resp := dto.MovementResponse{
		ID:          m.ID.String(),
		ProductID:   m.ProductID.String(),
		Kind:        m.Kind,
		Delta:       m.Delta,
		StockBefore: m.StockBefore,
		StockAfter:  m.StockAfter,
		CreatedAt:   m.CreatedAt.Format(timeLayout),
	}
	if m.Product != nil {
		resp.Product = m.Product.Name
	}
	if m.ReferenceID != nil {
		ref := m.ReferenceID.String()
		resp.ReferenceID = &ref
	}
	return resp
}
