package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/storelink/transfer-api/internal/domain/entity"
	"github.com/storelink/transfer-api/internal/domain/repository"
)

// CreateGoodsIssueRequest input to create a goods issue note against a sales
// order. Quantities are validated again in the use case against the order's
// outstanding quantities.
type CreateGoodsIssueRequest struct {
	LineItems []IssueLineRequest `json:"line_items" validate:"required,min=1,dive"`
}

// IssueLineRequest one issued line, keyed by the order line's ByD ObjectID.
type IssueLineRequest struct {
	OrderLineObjectID string          `json:"order_line_object_id" validate:"required"`
	Quantity          decimal.Decimal `json:"quantity" validate:"required"`
}

// CreateTransferReceiptRequest input to create a transfer receipt against a
// goods issue note.
type CreateTransferReceiptRequest struct {
	LineItems []ReceiptLineRequest `json:"line_items" validate:"required,min=1,dive"`
}

// ReceiptLineRequest one received line, keyed by the issue line ID.
type ReceiptLineRequest struct {
	IssueLineID string          `json:"issue_line_id" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity" validate:"required"`
}

// SalesOrderResponse output for a sales order with its lines.
type SalesOrderResponse struct {
	OrderNumber        int64               `json:"order_number"`
	ObjectID           string              `json:"object_id"`
	SourceStoreID      string              `json:"source_store_id"`
	DestinationStoreID string              `json:"destination_store_id"`
	OrderDate          time.Time           `json:"order_date"`
	TotalNetAmount     decimal.Decimal     `json:"total_net_amount"`
	DeliveryStatus     string              `json:"delivery_status"`
	LineItems          []OrderLineResponse `json:"line_items"`
}

// OrderLineResponse one order line with its issued/outstanding position.
type OrderLineResponse struct {
	ID            string          `json:"id"`
	ObjectID      string          `json:"object_id"`
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	UnitOfMeasure string          `json:"unit_of_measure,omitempty"`
	IssuedQty     decimal.Decimal `json:"issued_quantity"`
	Outstanding   decimal.Decimal `json:"outstanding_quantity"`
}

// GoodsIssueResponse output for a goods issue note.
type GoodsIssueResponse struct {
	IssueNumber   int64               `json:"issue_number"`
	OrderNumber   int64               `json:"order_number"`
	SourceStoreID string              `json:"source_store_id"`
	CreatedBy     string              `json:"created_by"`
	CreatedAt     time.Time           `json:"created_at"`
	PostedToICG   bool                `json:"posted_to_icg"`
	PostedToSAP   bool                `json:"posted_to_sap"`
	TotalQuantity decimal.Decimal     `json:"total_quantity"`
	TotalValue    decimal.Decimal     `json:"total_value"`
	LineItems     []IssueLineResponse `json:"line_items"`
}

// IssueLineResponse one issued line with its received position.
type IssueLineResponse struct {
	ID          string          `json:"id"`
	OrderLineID string          `json:"order_line_id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity_issued"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Value       decimal.Decimal `json:"value_issued"`
	ReceivedQty decimal.Decimal `json:"received_quantity"`
	Receivable  decimal.Decimal `json:"receivable_quantity"`
}

// TransferReceiptResponse output for a transfer receipt note.
type TransferReceiptResponse struct {
	ReceiptNumber      int64                 `json:"receipt_number"`
	IssueNumber        int64                 `json:"issue_number"`
	DestinationStoreID string                `json:"destination_store_id"`
	CreatedBy          string                `json:"created_by"`
	CreatedAt          time.Time             `json:"created_at"`
	PostedToICG        bool                  `json:"posted_to_icg"`
	TotalQuantity      decimal.Decimal       `json:"total_quantity"`
	TotalValue         decimal.Decimal       `json:"total_value"`
	LineItems          []ReceiptLineResponse `json:"line_items"`
}

// ReceiptLineResponse one received line.
type ReceiptLineResponse struct {
	ID          string          `json:"id"`
	IssueLineID string          `json:"issue_line_id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity_received"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Value       decimal.Decimal `json:"value_received"`
}

// TransferSummaryResponse per-store transfer aggregates.
type TransferSummaryResponse struct {
	StoreID            string          `json:"store_id"`
	StoreName          string          `json:"store_name"`
	OutboundOrders     int64           `json:"outbound_orders"`
	InboundOrders      int64           `json:"inbound_orders"`
	PendingIssues      int64           `json:"pending_issues"`
	PendingReceipts    int64           `json:"pending_receipts"`
	TotalValueIssued   decimal.Decimal `json:"total_value_issued"`
	TotalValueReceived decimal.Decimal `json:"total_value_received"`
}

// ToSalesOrderResponse maps a sales order entity to its response form.
func ToSalesOrderResponse(order *entity.SalesOrder) SalesOrderResponse {
	resp := SalesOrderResponse{
		OrderNumber:        order.OrderNumber,
		ObjectID:           order.ObjectID,
		SourceStoreID:      order.SourceStoreID,
		DestinationStoreID: order.DestinationStoreID,
		OrderDate:          order.OrderDate,
		TotalNetAmount:     order.TotalNetAmount,
		DeliveryStatus:     order.DeliveryStatus,
		LineItems:          make([]OrderLineResponse, 0, len(order.LineItems)),
	}
	for _, li := range order.LineItems {
		resp.LineItems = append(resp.LineItems, OrderLineResponse{
			ID:            li.ID,
			ObjectID:      li.ObjectID,
			ProductID:     li.ProductID,
			ProductName:   li.ProductName,
			Quantity:      li.Quantity,
			UnitPrice:     li.UnitPrice,
			UnitOfMeasure: li.UnitOfMeasure,
			IssuedQty:     li.IssuedQty,
			Outstanding:   li.Outstanding(),
		})
	}
	return resp
}

// ToGoodsIssueResponse maps a goods issue note to its response form.
func ToGoodsIssueResponse(note *entity.GoodsIssueNote) GoodsIssueResponse {
	resp := GoodsIssueResponse{
		IssueNumber:   note.IssueNumber,
		OrderNumber:   note.OrderNumber,
		SourceStoreID: note.SourceStoreID,
		CreatedBy:     note.CreatedBy,
		CreatedAt:     note.CreatedAt,
		PostedToICG:   note.PostedToICG,
		PostedToSAP:   note.PostedToSAP,
		TotalQuantity: note.TotalQuantityIssued(),
		TotalValue:    note.TotalValueIssued(),
		LineItems:     make([]IssueLineResponse, 0, len(note.LineItems)),
	}
	for _, li := range note.LineItems {
		resp.LineItems = append(resp.LineItems, IssueLineResponse{
			ID:          li.ID,
			OrderLineID: li.OrderLineID,
			ProductID:   li.ProductID,
			ProductName: li.ProductName,
			Quantity:    li.QuantityIssued,
			UnitPrice:   li.UnitPrice,
			Value:       li.ValueIssued,
			ReceivedQty: li.ReceivedQty,
			Receivable:  li.Receivable(),
		})
	}
	return resp
}

// ToTransferReceiptResponse maps a transfer receipt note to its response form.
func ToTransferReceiptResponse(note *entity.TransferReceiptNote) TransferReceiptResponse {
	resp := TransferReceiptResponse{
		ReceiptNumber:      note.ReceiptNumber,
		IssueNumber:        note.IssueNumber,
		DestinationStoreID: note.DestinationStoreID,
		CreatedBy:          note.CreatedBy,
		CreatedAt:          note.CreatedAt,
		PostedToICG:        note.PostedToICG,
		TotalQuantity:      note.TotalQuantityReceived(),
		TotalValue:         note.TotalValueReceived(),
		LineItems:          make([]ReceiptLineResponse, 0, len(note.LineItems)),
	}
	for _, li := range note.LineItems {
		resp.LineItems = append(resp.LineItems, ReceiptLineResponse{
			ID:          li.ID,
			IssueLineID: li.IssueLineID,
			ProductID:   li.ProductID,
			ProductName: li.ProductName,
			Quantity:    li.QuantityReceived,
			UnitPrice:   li.UnitPrice,
			Value:       li.ValueReceived,
		})
	}
	return resp
}

// ToTransferSummaryResponse maps the summary projection rows.
func ToTransferSummaryResponse(rows []repository.StoreTransferSummary) []TransferSummaryResponse {
	out := make([]TransferSummaryResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, TransferSummaryResponse{
			StoreID:            r.StoreID,
			StoreName:          r.StoreName,
			OutboundOrders:     r.OutboundOrders,
			InboundOrders:      r.InboundOrders,
			PendingIssues:      r.PendingIssues,
			PendingReceipts:    r.PendingReceipts,
			TotalValueIssued:   r.TotalValueIssued,
			TotalValueReceived: r.TotalValueReceived,
		})
	}
	return out
}
