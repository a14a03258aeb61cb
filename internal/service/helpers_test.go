package service_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"repairpos/internal/dto"
	"repairpos/internal/infra"
	"repairpos/internal/model"
	"repairpos/internal/repository"
	"repairpos/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// recordingNotifier captures repair events instead of queueing them.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
}

type notification struct {
	RepairID uuid.UUID
	Status   model.RepairStatus
}

func (n *recordingNotifier) RepairStatusChanged(_ context.Context, id uuid.UUID, st model.RepairStatus) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{RepairID: id, Status: st})
	return nil
}

func (n *recordingNotifier) statuses(id uuid.UUID) []model.RepairStatus {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []model.RepairStatus
	for _, e := range n.events {
		if e.RepairID == id {
			out = append(out, e.Status)
		}
	}
	return out
}

// failingPayments fails every write, to exercise rollback.
type failingPayments struct{}

func (failingPayments) RecordPaymentTx(*gorm.DB, uuid.UUID, decimal.Decimal, string) (*model.Payment, error) {
	return nil, fmt.Errorf("payments table unavailable")
}

func (failingPayments) RecordDepositTx(*gorm.DB, uuid.UUID, decimal.Decimal, string) (*model.Payment, error) {
	return nil, fmt.Errorf("payments table unavailable")
}

type testEnv struct {
	db       *gorm.DB
	products repository.ProductRepository
	phones   repository.PhoneRepository
	clients  repository.ClientRepository
	ledger   service.InventoryLedger
	repairs  service.RepairService
	sales    service.SaleService
	notifier *recordingNotifier
}

type envOption func(*envConfig)

type envConfig struct{ payments service.PaymentRecorder }

func withPayments(p service.PaymentRecorder) envOption {
	return func(c *envConfig) { c.payments = p }
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := infra.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	db := newTestDB(t)

	products := repository.NewProductRepository(db)
	phones := repository.NewPhoneRepository(db)
	clients := repository.NewClientRepository(db)
	tx := repository.NewTxRunner(db, nil)

	ledger := service.NewInventoryLedger(products, phones, repository.NewStockMovementRepository(db))
	cfg := envConfig{payments: service.NewPaymentRecorder(repository.NewPaymentRepository(db))}
	for _, o := range opts {
		o(&cfg)
	}
	notifier := &recordingNotifier{}

	repairs := service.NewRepairService(tx, repository.NewRepairRepository(db), clients, products, ledger, cfg.payments, notifier)
	sales := service.NewSaleService(tx, repository.NewSaleRepository(db), clients, ledger, repairs, cfg.payments, notifier)

	return &testEnv{
		db:       db,
		products: products,
		phones:   phones,
		clients:  clients,
		ledger:   ledger,
		repairs:  repairs,
		sales:    sales,
		notifier: notifier,
	}
}

func (e *testEnv) seedProduct(t *testing.T, stock, minAlert int) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:          gofakeit.ProductName(),
		SKU:           gofakeit.UUID(),
		Price:         decimal.NewFromFloat(gofakeit.Price(5, 50)).Round(2),
		StockQuantity: stock,
		MinStockAlert: minAlert,
	}
	require.NoError(t, e.products.Create(context.Background(), p))
	return p
}

func (e *testEnv) seedPhone(t *testing.T, status model.PhoneStatus) *model.Phone {
	t.Helper()
	ph := &model.Phone{
		IMEI:         gofakeit.DigitN(15),
		Brand:        "Samsung",
		Model:        "Galaxy S21",
		SellingPrice: decimal.NewFromInt(320),
		Status:       status,
	}
	require.NoError(t, e.phones.Create(context.Background(), ph))
	return ph
}

func (e *testEnv) seedClient(t *testing.T) *model.Client {
	t.Helper()
	c := &model.Client{Name: gofakeit.Name(), Phone: gofakeit.Phone()}
	require.NoError(t, e.clients.Create(context.Background(), c))
	return c
}

// seedRepair opens a repair through the service with one RepairPart per id.
func (e *testEnv) seedRepair(t *testing.T, parts ...uuid.UUID) *dto.RepairResponse {
	t.Helper()
	client := e.seedClient(t)
	ids := make([]string, len(parts))
	for i, p := range parts {
		ids[i] = p.String()
	}
	rep, err := e.repairs.CreateRepair(context.Background(), dto.CreateRepairRequest{
		ClientID:     client.ID.String(),
		DeviceBrand:  "Apple",
		DeviceModel:  "iPhone 12",
		CostEstimate: decimal.NewFromInt(120),
		Parts:        ids,
	})
	require.NoError(t, err)
	return rep
}

func (e *testEnv) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	p, err := e.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.StockQuantity
}

func (e *testEnv) count(t *testing.T, m any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(m).Count(&n).Error)
	return n
}

func strPtr(s string) *string { return &s }

func productLine(p *model.Product, qty int) dto.SaleItemRequest {
	return dto.SaleItemRequest{ProductID: strPtr(p.ID.String()), Quantity: qty, UnitPrice: p.Price}
}
