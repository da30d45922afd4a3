package transfer

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storelink/transfer-api/internal/application/dto"
	"github.com/storelink/transfer-api/internal/domain"
	"github.com/storelink/transfer-api/internal/domain/entity"
	"github.com/storelink/transfer-api/internal/domain/repository"
	domtransfer "github.com/storelink/transfer-api/internal/domain/transfer"
)

// ImportUseCase writes ERP-originated sales orders into the ledger.
// Create/update only: the core never deletes orders, and the immutable line
// set of an existing order is left untouched (only ERP-owned header fields
// are refreshed).
type ImportUseCase struct {
	txRunner  TxRunner
	orderRepo repository.SalesOrderRepository
	storeRepo repository.StoreRepository
	now       func() time.Time
}

// NewImportUseCase builds the ERP import use case. now is injectable for
// tests; pass nil for time.Now.
func NewImportUseCase(txRunner TxRunner, orderRepo repository.SalesOrderRepository, storeRepo repository.StoreRepository, now func() time.Time) *ImportUseCase {
	if now == nil {
		now = time.Now
	}
	return &ImportUseCase{txRunner: txRunner, orderRepo: orderRepo, storeRepo: storeRepo, now: now}
}

// ImportSalesOrder validates a ByD payload and creates the order, or
// refreshes the header of an already-imported one. Returns the stored order.
func (uc *ImportUseCase) ImportSalesOrder(ctx context.Context, payload dto.ByDSalesOrder) (*entity.SalesOrder, error) {
	if err := validateByDPayload(payload); err != nil {
		return nil, err
	}

	source, err := uc.storeRepo.GetByExternalCode(ctx, payload.SellerParty.PartyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewFieldValidationError("SellerParty", "no store found for party "+payload.SellerParty.PartyID)
		}
		return nil, err
	}
	dest, err := uc.storeRepo.GetByExternalCode(ctx, payload.BuyerParty.PartyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewFieldValidationError("BuyerParty", "no store found for party "+payload.BuyerParty.PartyID)
		}
		return nil, err
	}
	if source.ID == dest.ID {
		return nil, domain.NewValidationError("source and destination stores cannot be the same")
	}

	orderDate := uc.orderDate(payload)

	existing, err := uc.orderRepo.GetByObjectID(ctx, payload.ObjectID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		existing.TotalNetAmount = payload.TotalNetAmount
		existing.OrderDate = orderDate
		if err := uc.orderRepo.UpdateHeader(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	order := &entity.SalesOrder{
		ID:                 uuid.New().String(),
		ObjectID:           payload.ObjectID,
		OrderNumber:        payload.ID,
		SourceStoreID:      source.ID,
		DestinationStoreID: dest.ID,
		OrderDate:          orderDate,
		TotalNetAmount:     payload.TotalNetAmount,
		DeliveryStatus:     entity.DeliveryNotDelivered,
	}
	for _, item := range payload.Items {
		order.LineItems = append(order.LineItems, entity.SalesOrderLineItem{
			ID:            uuid.New().String(),
			SalesOrderID:  order.ID,
			ObjectID:      item.ObjectID,
			ProductID:     item.ProductID,
			ProductName:   item.Description,
			Quantity:      item.Quantity,
			UnitPrice:     item.ListUnitPriceAmount,
			UnitOfMeasure: item.QuantityUnitCodeText,
			IssuedQty:     decimal.Zero,
		})
	}
	err = uc.txRunner.Run(ctx, func(
		orderRepo repository.SalesOrderRepository,
		_ repository.GoodsIssueRepository,
		_ repository.TransferReceiptRepository,
	) error {
		return orderRepo.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (uc *ImportUseCase) orderDate(payload dto.ByDSalesOrder) time.Time {
	if t, ok := parseByDTime(payload.LastChangeDateTime); ok {
		return t
	}
	if t, ok := parseByDTime(payload.CreationDateTime); ok {
		return t
	}
	return uc.now()
}

func validateByDPayload(payload dto.ByDSalesOrder) error {
	var fields []domain.FieldError
	if payload.ObjectID == "" {
		fields = append(fields, domain.FieldError{Field: "ObjectID", Message: "ObjectID is required"})
	}
	if payload.ID <= 0 {
		fields = append(fields, domain.FieldError{Field: "ID", Message: "ID must be a positive integer"})
	}
	if !payload.TotalNetAmount.GreaterThan(decimal.Zero) {
		fields = append(fields, domain.FieldError{Field: "TotalNetAmount", Message: "TotalNetAmount must be greater than 0"})
	}
	if payload.SellerParty == nil || payload.SellerParty.PartyID == "" {
		fields = append(fields, domain.FieldError{Field: "SellerParty", Message: "SellerParty PartyID is required"})
	}
	if payload.BuyerParty == nil || payload.BuyerParty.PartyID == "" {
		fields = append(fields, domain.FieldError{Field: "BuyerParty", Message: "BuyerParty PartyID is required"})
	}
	if len(payload.Items) == 0 {
		fields = append(fields, domain.FieldError{Field: "Item", Message: "sales order must contain at least one line item"})
	}
	for i, item := range payload.Items {
		if item.ObjectID == "" {
			fields = append(fields, domain.FieldError{Line: i + 1, Field: "ObjectID", Message: "ObjectID is required"})
		}
		if item.ProductID == "" {
			fields = append(fields, domain.FieldError{Line: i + 1, Field: "ProductID", Message: "ProductID is required"})
		}
		if !domtransfer.ValidQuantity(item.Quantity) {
			fields = append(fields, domain.FieldError{Line: i + 1, Field: "Quantity", Message: "Quantity must be greater than 0 with at most 3 decimal places"})
		}
		if !item.ListUnitPriceAmount.GreaterThan(decimal.Zero) {
			fields = append(fields, domain.FieldError{Line: i + 1, Field: "ListUnitPriceAmount", Message: "ListUnitPriceAmount must be greater than 0"})
		}
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Message: "sales order validation failed", Fields: fields}
	}
	return nil
}

// bydDatePattern matches the OData epoch-milliseconds date form /Date(…)/.
var bydDatePattern = regexp.MustCompile(`^/Date\((\d+)\)/$`)

// parseByDTime accepts the ByD OData /Date(ms)/ form and RFC 3339.
func parseByDTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if m := bydDatePattern.FindStringSubmatch(s); m != nil {
		ms, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).UTC(), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
