package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/storelink/transfer-api/internal/domain"
	"github.com/storelink/transfer-api/internal/domain/entity"
	"github.com/storelink/transfer-api/internal/domain/repository"
)

var _ repository.TransferReceiptRepository = (*TransferReceiptRepo)(nil)

// TransferReceiptRepo PostgreSQL adapter (usable with pool or tx).
type TransferReceiptRepo struct {
	q Querier
}

// NewTransferReceiptRepository builds the adapter. Pass a pool or tx (Querier).
func NewTransferReceiptRepository(q Querier) *TransferReceiptRepo {
	return &TransferReceiptRepo{q: q}
}

const transferReceiptColumns = `id, receipt_number, goods_issue_id, issue_number, destination_store_id, created_by, created_at, posted_to_icg`

// GetByReceiptNumber loads a receipt note with its line items.
func (r *TransferReceiptRepo) GetByReceiptNumber(ctx context.Context, receiptNumber int64) (*entity.TransferReceiptNote, error) {
	query := `SELECT ` + transferReceiptColumns + ` FROM transfer_receipts WHERE receipt_number = $1`
	var n entity.TransferReceiptNote
	err := r.q.QueryRow(ctx, query, receiptNumber).Scan(
		&n.ID, &n.ReceiptNumber, &n.GoodsIssueID, &n.IssueNumber, &n.DestinationStoreID,
		&n.CreatedBy, &n.CreatedAt, &n.PostedToICG,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("transfer receipt: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get transfer receipt: %w", err)
	}
	if err := r.loadLines(ctx, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *TransferReceiptRepo) loadLines(ctx context.Context, n *entity.TransferReceiptNote) error {
	query := `
		SELECT id, transfer_receipt_id, issue_line_id, product_id, product_name, quantity_received, unit_price, value_received
		FROM transfer_receipt_lines WHERE transfer_receipt_id = $1 ORDER BY product_id`
	rows, err := r.q.Query(ctx, query, n.ID)
	if err != nil {
		return fmt.Errorf("load receipt lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var li entity.TransferReceiptLineItem
		if err := rows.Scan(&li.ID, &li.TransferReceiptID, &li.IssueLineID, &li.ProductID,
			&li.ProductName, &li.QuantityReceived, &li.UnitPrice, &li.ValueReceived); err != nil {
			return fmt.Errorf("scan receipt line: %w", err)
		}
		n.LineItems = append(n.LineItems, li)
	}
	return rows.Err()
}

// NextReceiptNumber allocates the next number from the receipt sequence.
func (r *TransferReceiptRepo) NextReceiptNumber(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT nextval('transfer_receipt_number_seq')`).Scan(&n); err != nil {
		return 0, fmt.Errorf("next receipt number: %w", err)
	}
	return n, nil
}

// Create persists the note and its lines.
func (r *TransferReceiptRepo) Create(ctx context.Context, note *entity.TransferReceiptNote) error {
	query := `
		INSERT INTO transfer_receipts (id, receipt_number, goods_issue_id, issue_number, destination_store_id, created_by, created_at, posted_to_icg)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		note.ID, note.ReceiptNumber, note.GoodsIssueID, note.IssueNumber, note.DestinationStoreID,
		note.CreatedBy, note.CreatedAt, note.PostedToICG,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("transfer receipt %d: %w", note.ReceiptNumber, domain.ErrDuplicate)
		}
		return fmt.Errorf("create transfer receipt: %w", err)
	}
	lineQuery := `
		INSERT INTO transfer_receipt_lines (id, transfer_receipt_id, issue_line_id, product_id, product_name, quantity_received, unit_price, value_received)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, li := range note.LineItems {
		_, err := r.q.Exec(ctx, lineQuery,
			li.ID, note.ID, li.IssueLineID, li.ProductID, li.ProductName,
			li.QuantityReceived, li.UnitPrice, li.ValueReceived,
		)
		if err != nil {
			return fmt.Errorf("create transfer receipt line: %w", err)
		}
	}
	return nil
}

// ListByGoodsIssue returns every receipt of one issue note, oldest first.
func (r *TransferReceiptRepo) ListByGoodsIssue(ctx context.Context, goodsIssueID string) ([]*entity.TransferReceiptNote, error) {
	query := `SELECT ` + transferReceiptColumns + ` FROM transfer_receipts WHERE goods_issue_id = $1 ORDER BY receipt_number`
	rows, err := r.q.Query(ctx, query, goodsIssueID)
	if err != nil {
		return nil, fmt.Errorf("list transfer receipts: %w", err)
	}
	defer rows.Close()
	var list []*entity.TransferReceiptNote
	for rows.Next() {
		var n entity.TransferReceiptNote
		if err := rows.Scan(&n.ID, &n.ReceiptNumber, &n.GoodsIssueID, &n.IssueNumber,
			&n.DestinationStoreID, &n.CreatedBy, &n.CreatedAt, &n.PostedToICG); err != nil {
			return nil, fmt.Errorf("scan transfer receipt: %w", err)
		}
		list = append(list, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, n := range list {
		if err := r.loadLines(ctx, n); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// SetPosted flips the posted_to_icg flag. Receipts only post inventory to ICG;
// the SAP side is tracked on the sync event.
func (r *TransferReceiptRepo) SetPosted(ctx context.Context, receiptNumber int64, system string, posted bool) error {
	if system != entity.TargetICG && system != entity.TargetSAPByD {
		return fmt.Errorf("set posted: unknown system %q", system)
	}
	if system == entity.TargetSAPByD {
		// No flag to keep; the outbox event records the SAP status-update posting.
		return nil
	}
	query := `UPDATE transfer_receipts SET posted_to_icg = $2 WHERE receipt_number = $1`
	tag, err := r.q.Exec(ctx, query, receiptNumber, posted)
	if err != nil {
		return fmt.Errorf("set posted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transfer receipt %d: %w", receiptNumber, domain.ErrNotFound)
	}
	return nil
}
