package service

import (
	"context"
	"fmt"
	"strings"

	"repairpos/internal/dto"
	"repairpos/internal/model"
	"repairpos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

const defaultDepositMethod = "Cash"

type RepairService interface {
	CreateRepair(ctx context.Context, req dto.CreateRepairRequest) (*dto.RepairResponse, error)
	GetRepair(ctx context.Context, id uuid.UUID) (*dto.RepairResponse, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*dto.RepairResponse, error)
	UpdateRepair(ctx context.Context, id uuid.UUID, req dto.UpdateRepairRequest) (*dto.RepairResponse, error)
	RepairSettler
}

// RepairSettler is the slice of the repair service the checkout needs.
type RepairSettler interface {
	// SettleTx marks the repair payée_collectée and decrements every part by
	// its recorded quantity, whatever the previous status was. It returns the
	// status the repair had before settlement.
	SettleTx(ctx context.Context, tx *gorm.DB, repairID uuid.UUID) (model.RepairStatus, error)
}

type repairService struct {
	tx       repository.TxRunner
	repairs  repository.RepairRepository
	clients  repository.ClientRepository
	products repository.ProductRepository
	ledger   InventoryLedger
	payments PaymentRecorder
	notifier RepairNotifier
}

func NewRepairService(
	tx repository.TxRunner,
	repairs repository.RepairRepository,
	clients repository.ClientRepository,
	products repository.ProductRepository,
	ledger InventoryLedger,
	payments PaymentRecorder,
	notifier RepairNotifier,
) RepairService {
	return &repairService{
		tx:       tx,
		repairs:  repairs,
		clients:  clients,
		products: products,
		ledger:   ledger,
		payments: payments,
		notifier: notifier,
	}
}

func (s *repairService) CreateRepair(ctx context.Context, req dto.CreateRepairRequest) (*dto.RepairResponse, error) {
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("%w: client_id: %v", model.ErrValidation, err)
	}
	status := model.RepairReceived
	if req.Status != "" {
		if status, err = model.ParseRepairStatus(req.Status); err != nil {
			return nil, err
		}
	}
	if req.CostEstimate.IsNegative() || req.DepositPaid.IsNegative() {
		return nil, fmt.Errorf("%w: amounts must not be negative", model.ErrValidation)
	}
	partIDs, err := parseUUIDs("parts", req.Parts)
	if err != nil {
		return nil, err
	}
	if _, err := s.clients.FindByID(ctx, clientID); err != nil {
		return nil, err
	}

	rep := &model.Repair{
		ClientID:          clientID,
		DeviceBrand:       strings.TrimSpace(req.DeviceBrand),
		DeviceModel:       strings.TrimSpace(req.DeviceModel),
		IssueDescription:  req.IssueDescription,
		Status:            status,
		CostEstimate:      req.CostEstimate,
		DepositPaid:       req.DepositPaid,
		WarrantyDays:      req.WarrantyDays,
		PartsListSnapshot: req.PartsList,
		Notes:             req.Notes,
	}

	err = s.tx.WithTransaction(ctx, func(tx *gorm.DB) error {
		parts, names, err := s.resolvePartsTx(tx, partIDs)
		if err != nil {
			return err
		}
		if rep.PartsListSnapshot == nil {
			rep.PartsListSnapshot = names
		}
		if err := s.repairs.CreateTx(tx, rep); err != nil {
			return fmt.Errorf("create repair: %w", err)
		}
		if err := s.repairs.ReplacePartsTx(tx, rep.ID, parts); err != nil {
			return fmt.Errorf("create repair parts: %w", err)
		}
		if rep.DepositPaid.IsPositive() {
			method := lo.Ternary(req.DepositMethod != "", req.DepositMethod, defaultDepositMethod)
			if _, err := s.payments.RecordDepositTx(tx, rep.ID, rep.DepositPaid, method); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("repair_id", rep.ID.String()).Int("parts", len(partIDs)).Msg("repair received")
	notifyRepair(ctx, s.notifier, rep.ID, rep.Status)
	return s.GetRepair(ctx, rep.ID)
}

func (s *repairService) GetRepair(ctx context.Context, id uuid.UUID) (*dto.RepairResponse, error) {
	rep, err := s.repairs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := repairToResponse(rep)
	return &resp, nil
}

func (s *repairService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*dto.RepairResponse, error) {
	to, err := model.ParseRepairStatus(status)
	if err != nil {
		return nil, err
	}

	var from model.RepairStatus
	err = s.tx.WithTransaction(ctx, func(tx *gorm.DB) error {
		rep, err := s.repairs.FindByIDTx(tx, id)
		if err != nil {
			return err
		}
		from = rep.Status
		return s.transitionTx(tx, rep, to)
	})
	if err != nil {
		return nil, err
	}

	if from != to {
		notifyRepair(ctx, s.notifier, id, to)
	}
	return s.GetRepair(ctx, id)
}

func (s *repairService) UpdateRepair(ctx context.Context, id uuid.UUID, req dto.UpdateRepairRequest) (*dto.RepairResponse, error) {
	var to *model.RepairStatus
	if req.Status != nil {
		st, err := model.ParseRepairStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		to = &st
	}
	if req.CostEstimate != nil && req.CostEstimate.IsNegative() {
		return nil, fmt.Errorf("%w: cost_estimate must not be negative", model.ErrValidation)
	}
	var partIDs []uuid.UUID
	if req.Parts != nil {
		ids, err := parseUUIDs("parts", *req.Parts)
		if err != nil {
			return nil, err
		}
		partIDs = ids
	}

	var from model.RepairStatus
	err := s.tx.WithTransaction(ctx, func(tx *gorm.DB) error {
		rep, err := s.repairs.FindByIDTx(tx, id)
		if err != nil {
			return err
		}
		from = rep.Status

		upd, columns := coalesceRepair(req)
		if req.Parts != nil {
			parts, names, err := s.resolvePartsTx(tx, partIDs)
			if err != nil {
				return err
			}
			if err := s.repairs.ReplacePartsTx(tx, id, parts); err != nil {
				return fmt.Errorf("replace repair parts: %w", err)
			}
			if req.PartsList == nil {
				upd.PartsListSnapshot = names
				columns = append(columns, "parts_list_snapshot")
			}
		}

		if to != nil {
			if err := s.transitionTx(tx, rep, *to); err != nil {
				return err
			}
		}
		return s.repairs.UpdateFieldsTx(tx, id, upd, columns)
	})
	if err != nil {
		return nil, err
	}

	if to != nil && *to != from {
		notifyRepair(ctx, s.notifier, id, *to)
	}
	return s.GetRepair(ctx, id)
}

func (s *repairService) SettleTx(_ context.Context, tx *gorm.DB, repairID uuid.UUID) (model.RepairStatus, error) {
	rep, err := s.repairs.FindByIDTx(tx, repairID)
	if err != nil {
		return "", err
	}
	if err := s.repairs.UpdateStatusTx(tx, repairID, model.RepairCollected); err != nil {
		return "", err
	}
	parts, err := s.repairs.ListPartsTx(tx, repairID)
	if err != nil {
		return "", err
	}
	for _, p := range parts {
		if err := s.ledger.AdjustStockTx(tx, p.ProductID, -p.Units(), model.MovementRepairSettlement, &repairID); err != nil {
			return "", err
		}
	}
	return rep.Status, nil
}

// transitionTx writes the new status and, when the repair crosses from a
// non-consumed into a consumed state, takes one unit of each linked part.
// réparée -> en_cours -> réparée takes the parts a second time.
func (s *repairService) transitionTx(tx *gorm.DB, rep *model.Repair, to model.RepairStatus) error {
	if model.CrossesIntoConsumed(rep.Status, to) {
		parts, err := s.repairs.ListPartsTx(tx, rep.ID)
		if err != nil {
			return err
		}
		for _, p := range parts {
			if err := s.ledger.AdjustStockTx(tx, p.ProductID, -1, model.MovementRepairConsumption, &rep.ID); err != nil {
				return err
			}
		}
		log.Info().
			Str("repair_id", rep.ID.String()).
			Str("from", string(rep.Status)).
			Str("to", string(to)).
			Int("parts", len(parts)).
			Msg("repair parts consumed")
	}
	if err := s.repairs.UpdateStatusTx(tx, rep.ID, to); err != nil {
		return err
	}
	rep.Status = to
	return nil
}

// resolvePartsTx checks every product exists and returns one RepairPart per
// id in request order, plus the product names for the display snapshot.
func (s *repairService) resolvePartsTx(tx *gorm.DB, ids []uuid.UUID) ([]model.RepairPart, []string, error) {
	if len(ids) == 0 {
		return nil, []string{}, nil
	}
	products, err := s.products.FindByIDsTx(tx, lo.Uniq(ids))
	if err != nil {
		return nil, nil, err
	}
	byID := lo.KeyBy(products, func(p model.Product) uuid.UUID { return p.ID })

	parts := make([]model.RepairPart, 0, len(ids))
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return nil, nil, fmt.Errorf("%w: part %s", model.ErrProductNotFound, id)
		}
		parts = append(parts, model.RepairPart{ProductID: id, Quantity: 1})
		names = append(names, p.Name)
	}
	return parts, names, nil
}

// coalesceRepair copies the non-nil scalar fields of req and names the
// columns to write. Status and parts are handled separately.
func coalesceRepair(req dto.UpdateRepairRequest) (*model.Repair, []string) {
	upd := &model.Repair{}
	var columns []string
	if req.DeviceBrand != nil {
		upd.DeviceBrand = strings.TrimSpace(*req.DeviceBrand)
		columns = append(columns, "device_brand")
	}
	if req.DeviceModel != nil {
		upd.DeviceModel = strings.TrimSpace(*req.DeviceModel)
		columns = append(columns, "device_model")
	}
	if req.IssueDescription != nil {
		upd.IssueDescription = *req.IssueDescription
		columns = append(columns, "issue_description")
	}
	if req.CostEstimate != nil {
		upd.CostEstimate = *req.CostEstimate
		columns = append(columns, "cost_estimate")
	}
	if req.WarrantyDays != nil {
		upd.WarrantyDays = *req.WarrantyDays
		columns = append(columns, "warranty_days")
	}
	if req.Notes != nil {
		upd.Notes = req.Notes
		columns = append(columns, "notes")
	}
	if req.PartsList != nil {
		upd.PartsListSnapshot = *req.PartsList
		columns = append(columns, "parts_list_snapshot")
	}
	return upd, columns
}

func parseUUIDs(field string, raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for i, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %s[%d]: %v", model.ErrValidation, field, i, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func repairToResponse(r *model.Repair) dto.RepairResponse {
	resp := dto.RepairResponse{
		ID:                r.ID.String(),
		ClientID:          r.ClientID.String(),
		DeviceBrand:       r.DeviceBrand,
		DeviceModel:       r.DeviceModel,
		IssueDescription:  r.IssueDescription,
		Status:            string(r.Status),
		CostEstimate:      r.CostEstimate,
		DepositPaid:       r.DepositPaid,
		WarrantyDays:      r.WarrantyDays,
		PartsListSnapshot: lo.Ternary(r.PartsListSnapshot != nil, r.PartsListSnapshot, []string{}),
		Notes:             r.Notes,
		CreatedAt:         r.CreatedAt.Format(timeLayout),
		UpdatedAt:         r.UpdatedAt.Format(timeLayout),
	}
	if r.Client != nil {
		resp.Client = &dto.ClientSummary{
			ID:    r.Client.ID.String(),
			Name:  r.Client.Name,
			Phone: r.Client.Phone,
			Email: r.Client.Email,
		}
	}
	resp.Parts = lo.Map(r.Parts, func(p model.RepairPart, _ int) dto.RepairPartResponse {
		part := dto.RepairPartResponse{ProductID: p.ProductID.String(), Quantity: p.Units()}
		if p.Product != nil {
			part.Name = p.Product.Name
		}
		return part
	})
	return resp
}
