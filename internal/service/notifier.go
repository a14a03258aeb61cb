package service

import (
	"context"

	"repairpos/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RepairNotifier receives repair status changes after the transaction that
// made them has committed. Implementations must not block on delivery.
type RepairNotifier interface {
	RepairStatusChanged(ctx context.Context, repairID uuid.UUID, status model.RepairStatus) error
}

// LogNotifier only logs; used when notifications are disabled.
type LogNotifier struct{}

func (LogNotifier) RepairStatusChanged(_ context.Context, repairID uuid.UUID, status model.RepairStatus) error {
	log.Info().Str("repair_id", repairID.String()).Str("status", string(status)).Msg("notifications disabled: repair status changed")
	return nil
}

// notifyRepair is best-effort: failures are logged and never returned.
func notifyRepair(ctx context.Context, n RepairNotifier, repairID uuid.UUID, status model.RepairStatus) {
	if n == nil {
		return
	}
	if err := n.RepairStatusChanged(ctx, repairID, status); err != nil {
		log.Warn().Err(err).
			Str("repair_id", repairID.String()).
			Str("status", string(status)).
			Msg("repair notification dropped")
	}
}
