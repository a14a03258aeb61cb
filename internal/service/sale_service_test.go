package service_test

import (
	"context"
	"testing"
	"time"

	"repairpos/internal/dto"
	"repairpos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saleRequest(items ...dto.SaleItemRequest) dto.CreateSaleRequest {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return dto.CreateSaleRequest{
		TotalAmount:   total,
		FinalTotal:    total,
		PaymentMethod: "Cash",
		Items:         items,
	}
}

func TestCreateSale_ProductDecrementsStockAndRecordsPayment(t *testing.T) {
	env := newEnv(t)
	p := env.seedProduct(t, 10, 2)

	req := saleRequest(productLine(p, 3))
	req.TaxPrimary = decimal.RequireFromString("1.50")
	req.FinalTotal = req.TotalAmount.Add(req.TaxPrimary)

	resp, err := env.sales.CreateSale(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 7, env.stock(t, p.ID))
	assert.Equal(t, string(model.SaleCompleted), resp.Status)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, p.Name, resp.Items[0].Name)
	require.Len(t, resp.Payments, 1)
	assert.True(t, resp.Payments[0].Amount.Equal(req.FinalTotal), "payment %s != final %s", resp.Payments[0].Amount, req.FinalTotal)
	assert.Equal(t, "Cash", resp.Payments[0].Method)

	movements, err := env.ledger.ListMovements(context.Background(), dto.MovementFilter{ProductID: p.ID.String()})
	require.NoError(t, err)
	require.Len(t, movements.Data, 1)
	assert.Equal(t, -3, movements.Data[0].Delta)
	assert.Equal(t, 10, movements.Data[0].StockBefore)
	assert.Equal(t, 7, movements.Data[0].StockAfter)
	assert.Equal(t, model.MovementSale, movements.Data[0].Kind)
}

func TestCreateSale_AllowsNegativeStock(t *testing.T) {
	env := newEnv(t)
	p := env.seedProduct(t, 1, 0)

	_, err := env.sales.CreateSale(context.Background(), saleRequest(productLine(p, 3)))
	require.NoError(t, err)
	assert.Equal(t, -2, env.stock(t, p.ID))

	alerts, err := env.ledger.LowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, -2, alerts[0].StockQuantity)
}

func TestCreateSale_PhoneMarkedSold(t *testing.T) {
	env := newEnv(t)
	ph := env.seedPhone(t, model.PhoneInStock)

	resp, err := env.sales.CreateSale(context.Background(), saleRequest(dto.SaleItemRequest{
		PhoneID: strPtr(ph.ID.String()), Quantity: 1, UnitPrice: ph.SellingPrice,
	}))
	require.NoError(t, err)
	assert.Equal(t, "Samsung Galaxy S21", resp.Items[0].Name)

	got, err := env.phones.FindByID(context.Background(), ph.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PhoneSold, got.Status)
}

func TestCreateSale_AlreadySoldPhoneIsNotAnError(t *testing.T) {
	env := newEnv(t)
	ph := env.seedPhone(t, model.PhoneSold)

	_, err := env.sales.CreateSale(context.Background(), saleRequest(dto.SaleItemRequest{
		PhoneID: strPtr(ph.ID.String()), Quantity: 1, UnitPrice: ph.SellingPrice,
	}))
	require.NoError(t, err)

	got, err := env.phones.FindByID(context.Background(), ph.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PhoneSold, got.Status)
}

func TestCreateSale_RepairIsSettledAndPartsForceConsumed(t *testing.T) {
	env := newEnv(t)
	screen := env.seedProduct(t, 5, 1)
	rep := env.seedRepair(t, screen.ID)
	repairID := uuid.MustParse(rep.ID)

	_, err := env.sales.CreateSale(context.Background(), saleRequest(dto.SaleItemRequest{
		RepairID: strPtr(rep.ID), Quantity: 1, UnitPrice: decimal.NewFromInt(120),
	}))
	require.NoError(t, err)

	got, err := env.repairs.GetRepair(context.Background(), repairID)
	require.NoError(t, err)
	assert.Equal(t, string(model.RepairCollected), got.Status)
	assert.Equal(t, 4, env.stock(t, screen.ID))
	assert.Equal(t, []model.RepairStatus{model.RepairReceived, model.RepairCollected}, env.notifier.statuses(repairID))
}

func TestCreateSale_RepairAlreadyRepairedIsConsumedAgain(t *testing.T) {
	env := newEnv(t)
	battery := env.seedProduct(t, 5, 1)
	rep := env.seedRepair(t, battery.ID)
	repairID := uuid.MustParse(rep.ID)

	_, err := env.repairs.UpdateStatus(context.Background(), repairID, string(model.RepairRepaired))
	require.NoError(t, err)
	assert.Equal(t, 4, env.stock(t, battery.ID))

	_, err = env.sales.CreateSale(context.Background(), saleRequest(dto.SaleItemRequest{
		RepairID: strPtr(rep.ID), Quantity: 1, UnitPrice: decimal.NewFromInt(120),
	}))
	require.NoError(t, err)
	assert.Equal(t, 3, env.stock(t, battery.ID))
}

func TestCreateSale_ManualItemTouchesNoStock(t *testing.T) {
	env := newEnv(t)
	p := env.seedProduct(t, 4, 0)

	resp, err := env.sales.CreateSale(context.Background(), saleRequest(dto.SaleItemRequest{
		IsManual: true, ManualName: strPtr("Diagnostic fee"), Quantity: 1, UnitPrice: decimal.NewFromInt(15),
	}))
	require.NoError(t, err)
	assert.Equal(t, "Diagnostic fee", resp.Items[0].Name)
	assert.True(t, resp.Items[0].IsManual)
	assert.Equal(t, 4, env.stock(t, p.ID))
	assert.Zero(t, env.count(t, &model.StockMovement{}))
}

func TestCreateSale_MixedCartKeepsItemOrder(t *testing.T) {
	env := newEnv(t)
	case1 := env.seedProduct(t, 10, 0)
	ph := env.seedPhone(t, model.PhoneInStock)
	rep := env.seedRepair(t)

	resp, err := env.sales.CreateSale(context.Background(), saleRequest(
		dto.SaleItemRequest{RepairID: strPtr(rep.ID), Quantity: 1, UnitPrice: decimal.NewFromInt(80)},
		productLine(case1, 2),
		dto.SaleItemRequest{IsManual: true, ManualName: strPtr("Screen protector fitting"), Quantity: 1, UnitPrice: decimal.NewFromInt(5)},
		dto.SaleItemRequest{PhoneID: strPtr(ph.ID.String()), Quantity: 1, UnitPrice: ph.SellingPrice},
	))
	require.NoError(t, err)
	require.Len(t, resp.Items, 4)
	assert.Equal(t, rep.ID, *resp.Items[0].RepairID)
	assert.Equal(t, case1.ID.String(), *resp.Items[1].ProductID)
	assert.True(t, resp.Items[2].IsManual)
	assert.Equal(t, ph.ID.String(), *resp.Items[3].PhoneID)
	assert.True(t, resp.Items[1].LineTotal.Equal(case1.Price.Mul(decimal.NewFromInt(2))))
}

func TestCreateSale_Validation(t *testing.T) {
	env := newEnv(t)
	p := env.seedProduct(t, 5, 0)
	pid := strPtr(p.ID.String())

	cases := map[string]dto.CreateSaleRequest{
		"no items":      saleRequest(),
		"zero quantity": saleRequest(dto.SaleItemRequest{ProductID: pid, Quantity: 0, UnitPrice: p.Price}),
		"negative price": saleRequest(dto.SaleItemRequest{
			ProductID: pid, Quantity: 1, UnitPrice: decimal.NewFromInt(-1),
		}),
		"no reference": saleRequest(dto.SaleItemRequest{Quantity: 1, UnitPrice: p.Price}),
		"two references": saleRequest(dto.SaleItemRequest{
			ProductID: pid, PhoneID: strPtr(uuid.NewString()), Quantity: 1, UnitPrice: p.Price,
		}),
		"manual with reference": saleRequest(dto.SaleItemRequest{
			IsManual: true, ManualName: strPtr("x"), ProductID: pid, Quantity: 1, UnitPrice: p.Price,
		}),
		"manual without name": saleRequest(dto.SaleItemRequest{IsManual: true, Quantity: 1, UnitPrice: p.Price}),
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := env.sales.CreateSale(context.Background(), req)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}

	noMethod := saleRequest(productLine(p, 1))
	noMethod.PaymentMethod = " "
	_, err := env.sales.CreateSale(context.Background(), noMethod)
	assert.ErrorIs(t, err, model.ErrValidation)

	assert.Equal(t, 5, env.stock(t, p.ID))
	assert.Zero(t, env.count(t, &model.Sale{}))
}

func TestCreateSale_MissingReferenceRollsBackEverything(t *testing.T) {
	env := newEnv(t)
	p := env.seedProduct(t, 10, 0)
	ph := env.seedPhone(t, model.PhoneInStock)

	_, err := env.sales.CreateSale(context.Background(), saleRequest(
		productLine(p, 2),
		dto.SaleItemRequest{PhoneID: strPtr(ph.ID.String()), Quantity: 1, UnitPrice: ph.SellingPrice},
		dto.SaleItemRequest{ProductID: strPtr(uuid.NewString()), Quantity: 1, UnitPrice: decimal.NewFromInt(3)},
	))
	require.ErrorIs(t, err, model.ErrProductNotFound)

	assert.Equal(t, 10, env.stock(t, p.ID))
	got, err := env.phones.FindByID(context.Background(), ph.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PhoneInStock, got.Status)
	assert.Zero(t, env.count(t, &model.Sale{}))
	assert.Zero(t, env.count(t, &model.SaleItem{}))
	assert.Zero(t, env.count(t, &model.Payment{}))
	assert.Zero(t, env.count(t, &model.StockMovement{}))
}

func TestCreateSale_PaymentFailureRollsBackEverything(t *testing.T) {
	env := newEnv(t, withPayments(failingPayments{}))
	part := env.seedProduct(t, 6, 0)
	rep := env.seedRepair(t, part.ID)

	_, err := env.sales.CreateSale(context.Background(), saleRequest(
		productLine(part, 1),
		dto.SaleItemRequest{RepairID: strPtr(rep.ID), Quantity: 1, UnitPrice: decimal.NewFromInt(90)},
	))
	require.Error(t, err)

	assert.Equal(t, 6, env.stock(t, part.ID))
	got, err := env.repairs.GetRepair(context.Background(), uuid.MustParse(rep.ID))
	require.NoError(t, err)
	assert.Equal(t, string(model.RepairReceived), got.Status)
	assert.Zero(t, env.count(t, &model.Sale{}))
	assert.Zero(t, env.count(t, &model.SaleItem{}))
	// only the intake notification: nothing is sent for a rolled back sale
	assert.Equal(t, []model.RepairStatus{model.RepairReceived}, env.notifier.statuses(uuid.MustParse(rep.ID)))
}

func TestCreateSale_UnknownClient(t *testing.T) {
	env := newEnv(t)
	p := env.seedProduct(t, 2, 0)

	req := saleRequest(productLine(p, 1))
	req.ClientID = strPtr(uuid.NewString())
	_, err := env.sales.CreateSale(context.Background(), req)
	assert.ErrorIs(t, err, model.ErrClientNotFound)
}

func TestGetSale_NotFound(t *testing.T) {
	env := newEnv(t)
	_, err := env.sales.GetSale(context.Background(), uuid.New())
	assert.ErrorIs(t, err, model.ErrSaleNotFound)
}

func TestListSales_FiltersByDayAndPaginates(t *testing.T) {
	env := newEnv(t)
	p := env.seedProduct(t, 50, 0)
	for i := 0; i < 3; i++ {
		_, err := env.sales.CreateSale(context.Background(), saleRequest(productLine(p, 1)))
		require.NoError(t, err)
	}

	today := time.Now().Format(time.DateOnly)
	page, err := env.sales.ListSales(context.Background(), dto.SaleFilter{Date: today, Status: "Completed", Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Len(t, page.Data, 2)

	other, err := env.sales.ListSales(context.Background(), dto.SaleFilter{Date: "2001-01-01", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, other.Total)

	cancelled, err := env.sales.ListSales(context.Background(), dto.SaleFilter{Status: "Cancelled", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, cancelled.Total)

	_, err = env.sales.ListSales(context.Background(), dto.SaleFilter{Date: "17/10/2026"})
	assert.ErrorIs(t, err, model.ErrValidation)
}
