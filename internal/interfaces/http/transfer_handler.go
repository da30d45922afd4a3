package http

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/storelink/transfer-api/internal/application/dto"
	"github.com/storelink/transfer-api/internal/application/transfer"
	"github.com/storelink/transfer-api/internal/domain/entity"
	"github.com/storelink/transfer-api/internal/domain/repository"
)

// OrderFetcher reads a sales order from the ERP for on-demand import.
type OrderFetcher interface {
	FetchSalesOrder(ctx context.Context, orderID int64) (*dto.ByDSalesOrder, error)
}

// IssueNotePDFGenerator renders the printable goods issue note.
type IssueNotePDFGenerator interface {
	GenerateIssueNotePDF(ctx context.Context, note *entity.GoodsIssueNote, order *entity.SalesOrder, source, destination *entity.Store) ([]byte, error)
}

// TransferHandler handles the transfer workflow endpoints (protected).
type TransferHandler struct {
	engine    *transfer.Engine
	queries   *transfer.Queries
	importUC  *transfer.ImportUseCase
	fetcher   OrderFetcher
	storeRepo repository.StoreRepository
	pdf       IssueNotePDFGenerator
}

// NewTransferHandler builds the handler.
func NewTransferHandler(
	engine *transfer.Engine,
	queries *transfer.Queries,
	importUC *transfer.ImportUseCase,
	fetcher OrderFetcher,
	storeRepo repository.StoreRepository,
	pdf IssueNotePDFGenerator,
) *TransferHandler {
	return &TransferHandler{
		engine:    engine,
		queries:   queries,
		importUC:  importUC,
		fetcher:   fetcher,
		storeRepo: storeRepo,
		pdf:       pdf,
	}
}

// ListOrders godoc
// @Summary      List sales orders touching the user's stores
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.SalesOrderResponse
// @Router       /api/transfers/orders [get]
func (h *TransferHandler) ListOrders(c *fiber.Ctx) error {
	orders, err := h.queries.ListSalesOrders(c.Context(), GetUserID(c))
	if err != nil {
		return fail(c, err)
	}
	out := make([]dto.SalesOrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, dto.ToSalesOrderResponse(o))
	}
	return c.JSON(out)
}

// PendingIssues godoc
// @Summary      Sales orders awaiting goods issue at the user's stores
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.SalesOrderResponse
// @Router       /api/transfers/orders/pending [get]
func (h *TransferHandler) PendingIssues(c *fiber.Ctx) error {
	orders, err := h.queries.PendingIssues(c.Context(), GetUserID(c))
	if err != nil {
		return fail(c, err)
	}
	out := make([]dto.SalesOrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, dto.ToSalesOrderResponse(o))
	}
	return c.JSON(out)
}

// GetOrder godoc
// @Summary      Get one sales order with its lines
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        orderNumber  path  int  true  "ERP sales order number"
// @Success      200  {object}  dto.SalesOrderResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/orders/{orderNumber} [get]
func (h *TransferHandler) GetOrder(c *fiber.Ctx) error {
	orderNumber, ok := pathNumber(c, "orderNumber")
	if !ok {
		return nil
	}
	order, err := h.queries.GetSalesOrder(c.Context(), GetUserID(c), orderNumber)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.ToSalesOrderResponse(order))
}

// ImportOrder godoc
// @Summary      Import (or refresh) a sales order from the ERP
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        orderNumber  path  int  true  "ERP sales order number"
// @Success      201  {object}  dto.SalesOrderResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/orders/{orderNumber}/import [post]
func (h *TransferHandler) ImportOrder(c *fiber.Ctx) error {
	orderNumber, ok := pathNumber(c, "orderNumber")
	if !ok {
		return nil
	}
	payload, err := h.fetcher.FetchSalesOrder(c.Context(), orderNumber)
	if err != nil {
		return fail(c, err)
	}
	order, err := h.importUC.ImportSalesOrder(c.Context(), *payload)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToSalesOrderResponse(order))
}

// CreateIssue godoc
// @Summary      Issue goods against a sales order
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        orderNumber  path  int                          true  "ERP sales order number"
// @Param        body         body  dto.CreateGoodsIssueRequest  true  "line items to issue"
// @Success      201  {object}  dto.GoodsIssueResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/orders/{orderNumber}/issues [post]
func (h *TransferHandler) CreateIssue(c *fiber.Ctx) error {
	orderNumber, ok := pathNumber(c, "orderNumber")
	if !ok {
		return nil
	}
	var in dto.CreateGoodsIssueRequest
	if !parseAndValidate(c, &in) {
		return nil
	}
	lines := make([]transfer.IssueLine, 0, len(in.LineItems))
	for _, li := range in.LineItems {
		lines = append(lines, transfer.IssueLine{OrderLineObjectID: li.OrderLineObjectID, Quantity: li.Quantity})
	}
	note, err := h.engine.IssueGoods(c.Context(), GetUserID(c), orderNumber, lines)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToGoodsIssueResponse(note))
}

// GetIssue godoc
// @Summary      Get one goods issue note
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        issueNumber  path  int  true  "goods issue number"
// @Success      200  {object}  dto.GoodsIssueResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/issues/{issueNumber} [get]
func (h *TransferHandler) GetIssue(c *fiber.Ctx) error {
	issueNumber, ok := pathNumber(c, "issueNumber")
	if !ok {
		return nil
	}
	note, err := h.queries.GetGoodsIssue(c.Context(), GetUserID(c), issueNumber)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.ToGoodsIssueResponse(note))
}

// IssuePDF godoc
// @Summary      Download the printable goods issue note
// @Tags         transfers
// @Security     Bearer
// @Produce      application/pdf
// @Param        issueNumber  path  int  true  "goods issue number"
// @Success      200  {file}    binary
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/issues/{issueNumber}/pdf [get]
func (h *TransferHandler) IssuePDF(c *fiber.Ctx) error {
	issueNumber, ok := pathNumber(c, "issueNumber")
	if !ok {
		return nil
	}
	userID := GetUserID(c)
	note, err := h.queries.GetGoodsIssue(c.Context(), userID, issueNumber)
	if err != nil {
		return fail(c, err)
	}
	order, err := h.queries.GetSalesOrder(c.Context(), userID, note.OrderNumber)
	if err != nil {
		return fail(c, err)
	}
	source, err := h.storeRepo.GetByID(c.Context(), order.SourceStoreID)
	if err != nil {
		return fail(c, err)
	}
	destination, err := h.storeRepo.GetByID(c.Context(), order.DestinationStoreID)
	if err != nil {
		return fail(c, err)
	}
	pdfBytes, err := h.pdf.GenerateIssueNotePDF(c.Context(), note, order, source, destination)
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="goods-issue-`+strconv.FormatInt(issueNumber, 10)+`.pdf"`)
	return c.Send(pdfBytes)
}

// PendingReceipts godoc
// @Summary      Goods issue notes awaiting receipt at the user's stores
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.GoodsIssueResponse
// @Router       /api/transfers/receipts/pending [get]
func (h *TransferHandler) PendingReceipts(c *fiber.Ctx) error {
	notes, err := h.queries.PendingReceipts(c.Context(), GetUserID(c))
	if err != nil {
		return fail(c, err)
	}
	out := make([]dto.GoodsIssueResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, dto.ToGoodsIssueResponse(n))
	}
	return c.JSON(out)
}

// CreateReceipt godoc
// @Summary      Receive goods against a goods issue note
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        issueNumber  path  int                              true  "goods issue number"
// @Param        body         body  dto.CreateTransferReceiptRequest true  "line items to receive"
// @Success      201  {object}  dto.TransferReceiptResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/issues/{issueNumber}/receipts [post]
func (h *TransferHandler) CreateReceipt(c *fiber.Ctx) error {
	issueNumber, ok := pathNumber(c, "issueNumber")
	if !ok {
		return nil
	}
	var in dto.CreateTransferReceiptRequest
	if !parseAndValidate(c, &in) {
		return nil
	}
	lines := make([]transfer.ReceiptLine, 0, len(in.LineItems))
	for _, li := range in.LineItems {
		lines = append(lines, transfer.ReceiptLine{IssueLineID: li.IssueLineID, Quantity: li.Quantity})
	}
	note, err := h.engine.ReceiveGoods(c.Context(), GetUserID(c), issueNumber, lines)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToTransferReceiptResponse(note))
}

// GetReceipt godoc
// @Summary      Get one transfer receipt note
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        receiptNumber  path  int  true  "transfer receipt number"
// @Success      200  {object}  dto.TransferReceiptResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/receipts/{receiptNumber} [get]
func (h *TransferHandler) GetReceipt(c *fiber.Ctx) error {
	receiptNumber, ok := pathNumber(c, "receiptNumber")
	if !ok {
		return nil
	}
	note, err := h.queries.GetTransferReceipt(c.Context(), GetUserID(c), receiptNumber)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.ToTransferReceiptResponse(note))
}

// Summary godoc
// @Summary      Per-store transfer aggregates for the user's stores
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.TransferSummaryResponse
// @Router       /api/transfers/summary [get]
func (h *TransferHandler) Summary(c *fiber.Ctx) error {
	rows, err := h.queries.TransferSummary(c.Context(), GetUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.ToTransferSummaryResponse(rows))
}

// pathNumber parses a positive int64 path parameter. On failure the 400
// response is written and false is returned.
func pathNumber(c *fiber.Ctx, name string) (int64, bool) {
	n, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || n <= 0 {
		_ = c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: name + " must be a positive integer"})
		return 0, false
	}
	return n, true
}
