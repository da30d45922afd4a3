package byd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/storelink/transfer-api/internal/application/dto"
	syncapp "github.com/storelink/transfer-api/internal/application/sync"
	"github.com/storelink/transfer-api/internal/domain"
	"github.com/storelink/transfer-api/internal/domain/entity"
	"github.com/storelink/transfer-api/internal/domain/repository"
	"github.com/storelink/transfer-api/pkg/config"
	"github.com/storelink/transfer-api/pkg/logger"
)

const (
	salesOrderPath    = "/sap/byd/odata/cust/v1/khsalesorder/SalesOrderCollection"
	goodsMovementPath = "/sap/bc/srt/scs/sap/inventoryprocessinggoodsandac3"

	// SAP inventory movement direction codes.
	directionOutbound = "1"
	directionInbound  = "2"
)

var _ syncapp.Target = (*Client)(nil)

// Client talks to SAP Business ByDesign: OData for reading sales orders and
// the goods movement SOAP service for posting inventory confirmations.
type Client struct {
	http      *http.Client
	baseURL   string
	user      string
	password  string
	storeRepo repository.StoreRepository
	log       *logger.Logger
}

// NewClient builds the ByD client.
func NewClient(cfg config.BYDConfig, storeRepo repository.StoreRepository, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		baseURL:   cfg.BaseURL,
		user:      cfg.User,
		password:  cfg.Password,
		storeRepo: storeRepo,
		log:       log,
	}
}

// System identifies this target on sync events.
func (c *Client) System() string { return entity.TargetSAPByD }

// FetchSalesOrder reads one sales order (with parties and items) from the
// OData collection by its human-readable ID.
func (c *Client) FetchSalesOrder(ctx context.Context, orderID int64) (*dto.ByDSalesOrder, error) {
	query := url.Values{}
	query.Set("$format", "json")
	query.Set("$expand", "SellerParty,BuyerParty,Item")
	query.Set("$filter", fmt.Sprintf("ID eq '%d'", orderID))
	reqURL := c.baseURL + salesOrderPath + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build sales order request: %w", err)
	}
	req.SetBasicAuth(c.user, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sales order %d: %w", orderID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch sales order %d: status %d", orderID, resp.StatusCode)
	}

	var payload struct {
		D struct {
			Results []dto.ByDSalesOrder `json:"results"`
		} `json:"d"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode sales order %d: %w", orderID, err)
	}
	if len(payload.D.Results) == 0 {
		return nil, fmt.Errorf("sales order %d: %w", orderID, domain.ErrNotFound)
	}
	return &payload.D.Results[0], nil
}

// PostGoodsIssue posts the outbound goods movement for the source store's
// cost center.
func (c *Client) PostGoodsIssue(ctx context.Context, note *entity.GoodsIssueNote) syncapp.Result {
	store, err := c.storeRepo.GetByID(ctx, note.SourceStoreID)
	if err != nil {
		return syncapp.Result{Outcome: syncapp.OutcomeTransient, Detail: "resolve source store: " + err.Error()}
	}
	externalID := "GI-" + strconv.FormatInt(note.IssueNumber, 10)
	items := make([]movementItem, 0, len(note.LineItems))
	for i, li := range note.LineItems {
		items = append(items, movementItem{
			ExternalItemID: fmt.Sprintf("%s-%d", externalID, i+1),
			MaterialID:     li.ProductID,
			Quantity:       li.QuantityIssued.String(),
		})
	}
	return c.postGoodsMovement(ctx, externalID, store.BYDCostCenter, directionOutbound, note.CreatedAt, items)
}

// PostTransferReceipt posts the inbound confirmation at the destination cost
// center and lets ByD recompute the order's delivery progress.
func (c *Client) PostTransferReceipt(ctx context.Context, note *entity.TransferReceiptNote) syncapp.Result {
	store, err := c.storeRepo.GetByID(ctx, note.DestinationStoreID)
	if err != nil {
		return syncapp.Result{Outcome: syncapp.OutcomeTransient, Detail: "resolve destination store: " + err.Error()}
	}
	externalID := "TR-" + strconv.FormatInt(note.ReceiptNumber, 10)
	items := make([]movementItem, 0, len(note.LineItems))
	for i, li := range note.LineItems {
		items = append(items, movementItem{
			ExternalItemID: fmt.Sprintf("%s-%d", externalID, i+1),
			MaterialID:     li.ProductID,
			Quantity:       li.QuantityReceived.String(),
		})
	}
	return c.postGoodsMovement(ctx, externalID, store.BYDCostCenter, directionInbound, note.CreatedAt, items)
}

type movementItem struct {
	ExternalItemID string
	MaterialID     string
	Quantity       string
}

// postGoodsMovement sends one goods-and-activity confirmation through the
// SOAP goods movement service and classifies the response.
func (c *Client) postGoodsMovement(ctx context.Context, externalID, costCenterID, directionCode string, txTime time.Time, items []movementItem) syncapp.Result {
	body := buildGoodsMovementEnvelope(externalID, costCenterID, directionCode, txTime, items)
	payload, err := body.WriteToString()
	if err != nil {
		return syncapp.Result{Outcome: syncapp.OutcomeTerminal, Detail: "build envelope: " + err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+goodsMovementPath, strings.NewReader(payload))
	if err != nil {
		return syncapp.Result{Outcome: syncapp.OutcomeTerminal, Detail: "build request: " + err.Error()}
	}
	req.SetBasicAuth(c.user, c.password)
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", "")

	c.log.Debug().Str("external_id", externalID).Str("direction", directionCode).Int("items", len(items)).Msg("posting goods movement to ByD")
	resp, err := c.http.Do(req)
	if err != nil {
		return syncapp.Result{Outcome: syncapp.OutcomeTransient, Detail: "post goods movement: " + err.Error()}
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusTooManyRequests:
		return syncapp.Result{Outcome: syncapp.OutcomeTransient, Detail: fmt.Sprintf("status %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		// Credentials are fixable without touching the document; keep retrying
		// so the event survives a credential rotation.
		return syncapp.Result{Outcome: syncapp.OutcomeTransient, Detail: fmt.Sprintf("status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted:
		return syncapp.Result{Outcome: syncapp.OutcomeTerminal, Detail: fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(string(raw), 500))}
	}

	if notes := parseLogNotes(raw); len(notes) > 0 {
		return syncapp.Result{Outcome: syncapp.OutcomeTerminal, Detail: "rejected by ByD: " + joinNotes(notes)}
	}
	return syncapp.Result{Outcome: syncapp.OutcomeAck}
}

// buildGoodsMovementEnvelope renders the SOAP body for
// DoGoodsConsumptionForCostCenter.
func buildGoodsMovementEnvelope(externalID, costCenterID, directionCode string, txTime time.Time, items []movementItem) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	envelope := doc.CreateElement("soapenv:Envelope")
	envelope.CreateAttr("xmlns:soapenv", "http://schemas.xmlsoap.org/soap/envelope/")
	envelope.CreateAttr("xmlns:glob", "http://sap.com/xi/SAPGlobal20/Global")
	envelope.CreateElement("soapenv:Header")
	bodyEl := envelope.CreateElement("soapenv:Body")

	reqEl := bodyEl.CreateElement("glob:GoodsAndActivityConfirmationGoodsMovementRequest")
	conf := reqEl.CreateElement("GoodsAndActivityConfirmation")
	conf.CreateElement("ExternalID").SetText(externalID)
	conf.CreateElement("SiteID").SetText(costCenterID)
	conf.CreateElement("InventoryMovementDirectionCode").SetText(directionCode)
	conf.CreateElement("TransactionDateTime").SetText(txTime.UTC().Format(time.RFC3339))
	conf.CreateElement("CostCenterID").SetText(costCenterID)

	for _, item := range items {
		itemEl := conf.CreateElement("InventoryChangeItemGoodsConsumptionInformationForCostCenter")
		itemEl.CreateElement("ExternalItemID").SetText(item.ExternalItemID)
		itemEl.CreateElement("MaterialInternalID").SetText(item.MaterialID)
		itemEl.CreateElement("InventoryRestrictedUseIndicator").SetText("false")
		itemEl.CreateElement("LogisticsAreaID").SetText(costCenterID)
		qtyEl := itemEl.CreateElement("InventoryItemChangeQuantity")
		qtyEl.CreateElement("Quantity").SetText(item.Quantity)
	}
	return doc
}

// parseLogNotes extracts Log/Item/Note texts from the SOAP response; a
// non-empty log means ByD rejected the confirmation.
func parseLogNotes(raw []byte) []string {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil
	}
	var notes []string
	for _, el := range doc.FindElements("//Log/Item/Note") {
		if text := el.Text(); text != "" {
			notes = append(notes, text)
		}
	}
	return notes
}

func joinNotes(notes []string) string {
	return truncate(strings.Join(notes, "; "), 500)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
