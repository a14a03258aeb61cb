package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"repairpos/internal/infra"
	"repairpos/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const smsAttempts = 3

type RepairStatusPayload struct {
	RepairID string `json:"repair_id"`
	Status   string `json:"status"`
}

// SMSSender is satisfied by *infra.SMSClient.
type SMSSender interface {
	Send(ctx context.Context, to, text, ref string) (string, error)
}

// RepairLoader is the read side the worker needs; repository.RepairRepository
// satisfies it.
type RepairLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Repair, error)
}

type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, payload EmailJobPayload) error
}

// NotificationWorker tells the customer about a repair status change by SMS
// and, when the client has an address, by email.
type NotificationWorker struct {
	repairs  RepairLoader
	sms      SMSSender
	cb       *infra.CircuitBreaker
	emails   EmailEnqueuer
	shopName string
}

func NewNotificationWorker(repairs RepairLoader, sms SMSSender, cb *infra.CircuitBreaker, emails EmailEnqueuer, shopName string) *NotificationWorker {
	return &NotificationWorker{repairs: repairs, sms: sms, cb: cb, emails: emails, shopName: shopName}
}

func (w *NotificationWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload RepairStatusPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("notification_worker: invalid payload: %w", err)
	}
	repairID, err := uuid.Parse(payload.RepairID)
	if err != nil {
		return fmt.Errorf("notification_worker: invalid repair_id %q", payload.RepairID)
	}
	status, err := model.ParseRepairStatus(payload.Status)
	if err != nil {
		return fmt.Errorf("notification_worker: %w", err)
	}

	rep, err := w.repairs.FindByID(ctx, repairID)
	if err != nil {
		if errors.Is(err, model.ErrRepairNotFound) {
			log.Warn().Str("repair_id", payload.RepairID).Msg("notification_worker: repair gone, skipping")
			return nil
		}
		return err
	}

	text := RepairMessage(w.shopName, rep, status)
	if text == "" || rep.Client == nil {
		return nil
	}

	if rep.Client.Email != nil && *rep.Client.Email != "" && w.emails != nil {
		mail := EmailJobPayload{
			ToEmail: *rep.Client.Email,
			Subject: fmt.Sprintf("%s - %s %s", w.shopName, rep.DeviceBrand, rep.DeviceModel),
			Body:    text,
		}
		if err := w.emails.EnqueueEmail(ctx, mail); err != nil {
			log.Warn().Err(err).Str("repair_id", payload.RepairID).Msg("notification_worker: failed to enqueue email")
		}
	}

	phone := strings.TrimSpace(rep.Client.Phone)
	if phone == "" {
		log.Warn().Str("repair_id", payload.RepairID).Msg("notification_worker: client has no phone, sms skipped")
		return nil
	}

	var msgID string
	err = withRetry(ctx, smsAttempts, func(attempt int) error {
		return w.cb.Execute(func() error {
			id, err := w.sms.Send(ctx, phone, text, rep.ID.String())
			if err != nil {
				log.Warn().Err(err).Int("attempt", attempt+1).Str("repair_id", payload.RepairID).Msg("notification_worker: sms attempt failed")
				return err
			}
			msgID = id
			return nil
		})
	}, infra.ErrSMSRejected, infra.ErrCircuitOpen)
	if err != nil {
		return fmt.Errorf("notification_worker: sms for repair %s: %w", payload.RepairID, err)
	}

	log.Info().Str("repair_id", payload.RepairID).Str("status", payload.Status).Str("message_id", msgID).Msg("notification_worker: sms sent")
	return nil
}

// RepairMessage renders the customer text for status. Statuses the customer
// is not told about return "".
func RepairMessage(shop string, r *model.Repair, status model.RepairStatus) string {
	device := strings.TrimSpace(r.DeviceBrand + " " + r.DeviceModel)
	if device == "" {
		device = "appareil"
	}
	ref := strings.ToUpper(r.ID.String()[:8])

	switch status {
	case model.RepairReceived:
		return fmt.Sprintf("%s: nous avons bien reçu votre %s (réf. %s). Devis estimé: %s €.",
			shop, device, ref, r.CostEstimate.StringFixed(2))
	case model.RepairRepaired:
		return fmt.Sprintf("%s: votre %s est réparé et prêt à être retiré (réf. %s). Reste à payer: %s €.",
			shop, device, ref, r.CostEstimate.Sub(r.DepositPaid).StringFixed(2))
	case model.RepairCollected:
		if r.WarrantyDays > 0 {
			return fmt.Sprintf("%s: merci ! Votre %s est garanti %d jours (réf. %s).", shop, device, r.WarrantyDays, ref)
		}
		return fmt.Sprintf("%s: merci pour votre visite ! (réf. %s)", shop, ref)
	case model.RepairCancelled:
		return fmt.Sprintf("%s: la réparation de votre %s (réf. %s) a été annulée. Contactez-nous pour le retrait.", shop, device, ref)
	}
	return ""
}
