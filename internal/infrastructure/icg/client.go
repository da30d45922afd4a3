package icg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	syncapp "github.com/storelink/transfer-api/internal/application/sync"
	"github.com/storelink/transfer-api/internal/domain/entity"
	"github.com/storelink/transfer-api/internal/domain/repository"
	"github.com/storelink/transfer-api/pkg/config"
	"github.com/storelink/transfer-api/pkg/logger"
)

const stockMovementPath = "/api/FoodConcept/StockMovement"

var _ syncapp.Target = (*Client)(nil)

// Client posts inventory movements to the ICG point-of-sale backend. A goods
// issue decreases stock at the source warehouse; a transfer receipt increases
// it at the destination warehouse.
type Client struct {
	http      *http.Client
	baseURL   string
	apiKey    string
	storeRepo repository.StoreRepository
	log       *logger.Logger
}

// NewClient builds the ICG client.
func NewClient(cfg config.ICGConfig, storeRepo repository.StoreRepository, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		storeRepo: storeRepo,
		log:       log,
	}
}

// System identifies this target on sync events.
func (c *Client) System() string { return entity.TargetICG }

// stockMovement is the request body for the StockMovement endpoint.
type stockMovement struct {
	Reference   string              `json:"reference"`
	WarehouseID string              `json:"warehouseId"`
	Operation   string              `json:"operation"` // DECREASE or INCREASE
	Items       []stockMovementItem `json:"items"`
}

type stockMovementItem struct {
	ProductID string          `json:"productId"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// PostGoodsIssue decreases stock at the source store's ICG warehouse.
func (c *Client) PostGoodsIssue(ctx context.Context, note *entity.GoodsIssueNote) syncapp.Result {
	store, err := c.storeRepo.GetByID(ctx, note.SourceStoreID)
	if err != nil {
		return syncapp.Result{Outcome: syncapp.OutcomeTransient, Detail: "resolve source store: " + err.Error()}
	}
	movement := stockMovement{
		Reference:   fmt.Sprintf("GI-%d", note.IssueNumber),
		WarehouseID: store.ICGWarehouse,
		Operation:   "DECREASE",
	}
	for _, li := range note.LineItems {
		movement.Items = append(movement.Items, stockMovementItem{ProductID: li.ProductID, Quantity: li.QuantityIssued})
	}
	return c.post(ctx, movement)
}

// PostTransferReceipt increases stock at the destination store's ICG warehouse.
func (c *Client) PostTransferReceipt(ctx context.Context, note *entity.TransferReceiptNote) syncapp.Result {
	store, err := c.storeRepo.GetByID(ctx, note.DestinationStoreID)
	if err != nil {
		return syncapp.Result{Outcome: syncapp.OutcomeTransient, Detail: "resolve destination store: " + err.Error()}
	}
	movement := stockMovement{
		Reference:   fmt.Sprintf("TR-%d", note.ReceiptNumber),
		WarehouseID: store.ICGWarehouse,
		Operation:   "INCREASE",
	}
	for _, li := range note.LineItems {
		movement.Items = append(movement.Items, stockMovementItem{ProductID: li.ProductID, Quantity: li.QuantityReceived})
	}
	return c.post(ctx, movement)
}

func (c *Client) post(ctx context.Context, movement stockMovement) syncapp.Result {
	body, err := json.Marshal(movement)
	if err != nil {
		return syncapp.Result{Outcome: syncapp.OutcomeTerminal, Detail: "encode movement: " + err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+stockMovementPath, bytes.NewReader(body))
	if err != nil {
		return syncapp.Result{Outcome: syncapp.OutcomeTerminal, Detail: "build request: " + err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug().Str("reference", movement.Reference).Str("operation", movement.Operation).Msg("posting stock movement to ICG")
	resp, err := c.http.Do(req)
	if err != nil {
		return syncapp.Result{Outcome: syncapp.OutcomeTransient, Detail: "post stock movement: " + err.Error()}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK, resp.StatusCode == http.StatusCreated:
		return syncapp.Result{Outcome: syncapp.OutcomeAck}
	case resp.StatusCode == http.StatusConflict:
		// The movement reference already exists: an earlier attempt landed.
		return syncapp.Result{Outcome: syncapp.OutcomeAck}
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return syncapp.Result{Outcome: syncapp.OutcomeTransient, Detail: fmt.Sprintf("status %d", resp.StatusCode)}
	default:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return syncapp.Result{Outcome: syncapp.OutcomeTerminal, Detail: fmt.Sprintf("status %d: %s", resp.StatusCode, raw)}
	}
}
