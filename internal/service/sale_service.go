package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"repairpos/internal/dto"
	"repairpos/internal/model"
	"repairpos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const timeLayout = time.RFC3339

type SaleService interface {
	// CreateSale writes the header, every item with its inventory side
	// effect, and one payment for the final total, all or nothing.
	CreateSale(ctx context.Context, req dto.CreateSaleRequest) (*dto.SaleResponse, error)
	GetSale(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error)
	ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)
}

type saleService struct {
	tx       repository.TxRunner
	sales    repository.SaleRepository
	clients  repository.ClientRepository
	ledger   InventoryLedger
	repairs  RepairSettler
	payments PaymentRecorder
	notifier RepairNotifier
}

func NewSaleService(
	tx repository.TxRunner,
	sales repository.SaleRepository,
	clients repository.ClientRepository,
	ledger InventoryLedger,
	repairs RepairSettler,
	payments PaymentRecorder,
	notifier RepairNotifier,
) SaleService {
	return &saleService{
		tx:       tx,
		sales:    sales,
		clients:  clients,
		ledger:   ledger,
		repairs:  repairs,
		payments: payments,
		notifier: notifier,
	}
}

type itemKind int

const (
	itemManual itemKind = iota
	itemProduct
	itemPhone
	itemRepair
)

type saleLine struct {
	kind itemKind
	ref  uuid.UUID
	row  model.SaleItem
}

func (s *saleService) CreateSale(ctx context.Context, req dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	lines, err := parseSaleLines(req.Items)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return nil, fmt.Errorf("%w: payment_method is required", model.ErrValidation)
	}
	for _, amt := range []decimal.Decimal{req.TotalAmount, req.TaxPrimary, req.TaxSecondary, req.FinalTotal} {
		if amt.IsNegative() {
			return nil, fmt.Errorf("%w: amounts must not be negative", model.ErrValidation)
		}
	}

	sale := &model.Sale{
		TotalAmount:   req.TotalAmount,
		TaxPrimary:    req.TaxPrimary,
		TaxSecondary:  req.TaxSecondary,
		FinalTotal:    req.FinalTotal,
		PaymentMethod: req.PaymentMethod,
		Status:        model.SaleCompleted,
	}
	if req.ClientID != nil && *req.ClientID != "" {
		cid, err := uuid.Parse(*req.ClientID)
		if err != nil {
			return nil, fmt.Errorf("%w: client_id: %v", model.ErrValidation, err)
		}
		if _, err := s.clients.FindByID(ctx, cid); err != nil {
			return nil, err
		}
		sale.ClientID = &cid
	}

	var settled []uuid.UUID
	err = s.tx.WithTransaction(ctx, func(tx *gorm.DB) error {
		settled = settled[:0]
		if err := s.sales.CreateTx(tx, sale); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}

		for i := range lines {
			ln := &lines[i]
			ln.row.SaleID = sale.ID
			ln.row.Line = i
			if err := s.sales.CreateItemTx(tx, &ln.row); err != nil {
				return fmt.Errorf("create sale item %d: %w", i+1, err)
			}

			switch ln.kind {
			case itemProduct:
				if err := s.ledger.AdjustStockTx(tx, ln.ref, -ln.row.Quantity, model.MovementSale, &sale.ID); err != nil {
					return err
				}
			case itemPhone:
				if err := s.ledger.SetPhoneStatusTx(tx, ln.ref, model.PhoneSold); err != nil {
					return err
				}
			case itemRepair:
				prev, err := s.repairs.SettleTx(ctx, tx, ln.ref)
				if err != nil {
					return err
				}
				if prev != model.RepairCollected {
					settled = append(settled, ln.ref)
				}
			}
		}

		_, err := s.payments.RecordPaymentTx(tx, sale.ID, sale.FinalTotal, sale.PaymentMethod)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("sale_id", sale.ID.String()).
		Str("final_total", sale.FinalTotal.StringFixed(2)).
		Int("items", len(lines)).
		Msg("sale completed")
	for _, id := range settled {
		notifyRepair(ctx, s.notifier, id, model.RepairCollected)
	}

	return s.GetSale(ctx, sale.ID)
}

func (s *saleService) GetSale(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.sales.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := saleToResponse(sale)
	return &resp, nil
}

func (s *saleService) ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	repoFilter := repository.SaleListFilter{Status: filter.Status, Page: filter.Page, Limit: filter.Limit}
	if filter.Date != "" {
		day, err := time.ParseInLocation(time.DateOnly, filter.Date, time.Local)
		if err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", model.ErrValidation)
		}
		next := day.AddDate(0, 0, 1)
		repoFilter.From, repoFilter.To = &day, &next
	}

	sales, total, err := s.sales.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	return &dto.SaleListResponse{
		Data:  lo.Map(sales, func(v model.Sale, _ int) dto.SaleResponse { return saleToResponse(&v) }),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// parseSaleLines checks every item before any row is written: a manual line
// carries a name and no reference, any other line exactly one reference.
func parseSaleLines(items []dto.SaleItemRequest) ([]saleLine, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: a sale needs at least one item", model.ErrValidation)
	}

	lines := make([]saleLine, 0, len(items))
	for i, it := range items {
		n := i + 1
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: item %d: quantity must be at least 1", model.ErrValidation, n)
		}
		if it.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: item %d: unit_price must not be negative", model.ErrValidation, n)
		}

		refs := lo.Filter([]*string{it.ProductID, it.PhoneID, it.RepairID}, func(p *string, _ int) bool {
			return p != nil && *p != ""
		})
		ln := saleLine{row: model.SaleItem{Quantity: it.Quantity, UnitPrice: it.UnitPrice, IsManual: it.IsManual}}

		if it.IsManual {
			if len(refs) != 0 {
				return nil, fmt.Errorf("%w: item %d: manual items cannot reference stock", model.ErrValidation, n)
			}
			if it.ManualName == nil || strings.TrimSpace(*it.ManualName) == "" {
				return nil, fmt.Errorf("%w: item %d: manual_name is required", model.ErrValidation, n)
			}
			name := strings.TrimSpace(*it.ManualName)
			ln.kind = itemManual
			ln.row.ManualName = &name
			lines = append(lines, ln)
			continue
		}

		if len(refs) != 1 {
			return nil, fmt.Errorf("%w: item %d: exactly one of product_id, phone_id, repair_id is required", model.ErrValidation, n)
		}
		id, err := uuid.Parse(*refs[0])
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", model.ErrValidation, n, err)
		}
		ln.ref = id
		switch {
		case it.ProductID != nil && *it.ProductID != "":
			ln.kind = itemProduct
			ln.row.ProductID = &id
		case it.PhoneID != nil && *it.PhoneID != "":
			ln.kind = itemPhone
			ln.row.PhoneID = &id
		default:
			ln.kind = itemRepair
			ln.row.RepairID = &id
		}
		lines = append(lines, ln)
	}
	return lines, nil
}

func saleToResponse(s *model.Sale) dto.SaleResponse {
	resp := dto.SaleResponse{
		ID:            s.ID.String(),
		TotalAmount:   s.TotalAmount,
		TaxPrimary:    s.TaxPrimary,
		TaxSecondary:  s.TaxSecondary,
		FinalTotal:    s.FinalTotal,
		PaymentMethod: s.PaymentMethod,
		Status:        string(s.Status),
		ClientID:      uuidString(s.ClientID),
		CreatedAt:     s.CreatedAt.Format(timeLayout),
	}
	resp.Items = lo.Map(s.Items, func(it model.SaleItem, _ int) dto.SaleItemResponse {
		return dto.SaleItemResponse{
			ID:        it.ID.String(),
			ProductID: uuidString(it.ProductID),
			PhoneID:   uuidString(it.PhoneID),
			RepairID:  uuidString(it.RepairID),
			IsManual:  it.IsManual,
			Name:      itemName(&it),
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal(),
		}
	})
	resp.Payments = lo.Map(s.Payments, func(p model.Payment, _ int) dto.PaymentResponse {
		return dto.PaymentResponse{
			ID:        p.ID.String(),
			Amount:    p.Amount,
			Method:    p.Method,
			CreatedAt: p.CreatedAt.Format(timeLayout),
		}
	})
	return resp
}

func itemName(it *model.SaleItem) string {
	switch {
	case it.ManualName != nil:
		return *it.ManualName
	case it.Product != nil:
		return it.Product.Name
	case it.Phone != nil:
		return strings.TrimSpace(it.Phone.Brand + " " + it.Phone.Model)
	case it.RepairID != nil:
		return "Repair " + it.RepairID.String()[:8]
	}
	return ""
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
