package transfer_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storelink/transfer-api/internal/application/dto"
	"github.com/storelink/transfer-api/internal/application/transfer"
	"github.com/storelink/transfer-api/internal/domain"
	"github.com/storelink/transfer-api/internal/domain/entity"
)

type fakeStoreRepo struct {
	stores []*entity.Store
}

func (r *fakeStoreRepo) GetByID(ctx context.Context, id string) (*entity.Store, error) {
	for _, s := range r.stores {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeStoreRepo) GetByExternalCode(ctx context.Context, code string) (*entity.Store, error) {
	for _, s := range r.stores {
		if s.BYDCostCenter == code {
			return s, nil
		}
	}
	for _, s := range r.stores {
		if s.ICGCode == code {
			return s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeStoreRepo) List(ctx context.Context) ([]*entity.Store, error) {
	return r.stores, nil
}

func (r *fakeStoreRepo) Upsert(ctx context.Context, store *entity.Store) error {
	r.stores = append(r.stores, store)
	return nil
}

func validPayload() dto.ByDSalesOrder {
	return dto.ByDSalesOrder{
		ObjectID:           "00163E0E22D6",
		ID:                 59461,
		TotalNetAmount:     dec("1200.00"),
		LastChangeDateTime: "/Date(1754006400000)/",
		SellerParty:        &dto.ByDParty{PartyID: "CC-SRC"},
		BuyerParty:         &dto.ByDParty{PartyID: "CC-DST"},
		Items: []dto.ByDOrderItem{
			{ObjectID: "L1", ProductID: "P-100", Description: "Rice 1kg", Quantity: dec("100"), ListUnitPriceAmount: dec("10.00"), QuantityUnitCodeText: "Each"},
			{ObjectID: "L2", ProductID: "P-200", Description: "Oil 1L", Quantity: dec("50"), ListUnitPriceAmount: dec("4.00"), QuantityUnitCodeText: "Each"},
		},
	}
}

func newImportFixture() (*transfer.ImportUseCase, *memStore) {
	store := newMemStore()
	stores := &fakeStoreRepo{stores: []*entity.Store{
		{ID: srcStoreID, Name: "Central", BYDCostCenter: "CC-SRC", ICGCode: "WH-SRC"},
		{ID: dstStoreID, Name: "Branch", BYDCostCenter: "CC-DST", ICGCode: "WH-DST"},
	}}
	uc := transfer.NewImportUseCase(store, &memOrderRepo{s: store}, stores, func() time.Time {
		return time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	})
	return uc, store
}

func TestImportSalesOrder_CreatesOrderWithLines(t *testing.T) {
	uc, store := newImportFixture()

	order, err := uc.ImportSalesOrder(context.Background(), validPayload())
	require.NoError(t, err)
	assert.Equal(t, int64(59461), order.OrderNumber)
	assert.Equal(t, srcStoreID, order.SourceStoreID)
	assert.Equal(t, dstStoreID, order.DestinationStoreID)
	assert.Equal(t, entity.DeliveryNotDelivered, order.DeliveryStatus)
	assert.Equal(t, time.UnixMilli(1754006400000).UTC(), order.OrderDate, "order date comes from /Date(ms)/")
	require.Len(t, order.LineItems, 2)
	assert.Equal(t, "Rice 1kg", order.LineItems[0].ProductName)
	assert.True(t, order.LineItems[0].IssuedQty.IsZero())
	require.Contains(t, store.orders, int64(59461))
}

func TestImportSalesOrder_ReimportRefreshesHeaderOnly(t *testing.T) {
	uc, store := newImportFixture()
	ctx := context.Background()

	_, err := uc.ImportSalesOrder(ctx, validPayload())
	require.NoError(t, err)

	// Local workflow state on the lines must survive an ERP refresh.
	store.orders[59461].LineItems[0].IssuedQty = dec("60")

	updated := validPayload()
	updated.TotalNetAmount = dec("1300.00")
	updated.LastChangeDateTime = "2026-08-20T09:30:00Z"
	updated.Items = updated.Items[:1] // a shrunk ERP line set is ignored

	order, err := uc.ImportSalesOrder(ctx, updated)
	require.NoError(t, err)
	assert.True(t, order.TotalNetAmount.Equal(dec("1300.00")))

	stored := store.orders[59461]
	assert.True(t, stored.TotalNetAmount.Equal(dec("1300.00")))
	assert.Equal(t, time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC), stored.OrderDate)
	require.Len(t, stored.LineItems, 2, "the imported line set is immutable")
	assert.True(t, stored.LineItems[0].IssuedQty.Equal(dec("60")))
}

func TestImportSalesOrder_UnknownPartyRejected(t *testing.T) {
	uc, _ := newImportFixture()

	payload := validPayload()
	payload.SellerParty = &dto.ByDParty{PartyID: "CC-UNKNOWN"}

	_, err := uc.ImportSalesOrder(context.Background(), payload)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "SellerParty", vErr.Fields[0].Field)
}

func TestImportSalesOrder_SameStoreRejected(t *testing.T) {
	uc, _ := newImportFixture()

	payload := validPayload()
	payload.BuyerParty = &dto.ByDParty{PartyID: "CC-SRC"}

	_, err := uc.ImportSalesOrder(context.Background(), payload)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "source and destination")
}

func TestImportSalesOrder_ValidationAccumulatesFields(t *testing.T) {
	uc, store := newImportFixture()

	payload := dto.ByDSalesOrder{
		ID:             0,
		TotalNetAmount: decimal.Zero,
		Items: []dto.ByDOrderItem{
			{ObjectID: "", ProductID: "P-1", Quantity: dec("0"), ListUnitPriceAmount: dec("1.00")},
		},
	}
	_, err := uc.ImportSalesOrder(context.Background(), payload)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)

	fields := make(map[string]int)
	for _, f := range vErr.Fields {
		fields[f.Field] = f.Line
	}
	assert.Contains(t, fields, "ObjectID")
	assert.Contains(t, fields, "ID")
	assert.Contains(t, fields, "TotalNetAmount")
	assert.Contains(t, fields, "SellerParty")
	assert.Contains(t, fields, "BuyerParty")
	assert.Equal(t, 1, fields["Quantity"], "line errors carry the 1-based line index")
	assert.Empty(t, store.orders)
}

func TestImportSalesOrder_FallsBackToNowWithoutDates(t *testing.T) {
	uc, _ := newImportFixture()

	payload := validPayload()
	payload.LastChangeDateTime = ""
	payload.CreationDateTime = "not-a-date"

	order, err := uc.ImportSalesOrder(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC), order.OrderDate)
}
