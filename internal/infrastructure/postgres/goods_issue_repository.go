package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/storelink/transfer-api/internal/domain"
	"github.com/storelink/transfer-api/internal/domain/entity"
	"github.com/storelink/transfer-api/internal/domain/repository"
)

var _ repository.GoodsIssueRepository = (*GoodsIssueRepo)(nil)

// GoodsIssueRepo PostgreSQL adapter (usable with pool or tx).
type GoodsIssueRepo struct {
	q Querier
}

// NewGoodsIssueRepository builds the adapter. Pass a pool or tx (Querier).
func NewGoodsIssueRepository(q Querier) *GoodsIssueRepo {
	return &GoodsIssueRepo{q: q}
}

const goodsIssueColumns = `id, issue_number, sales_order_id, order_number, source_store_id, created_by, created_at, posted_to_icg, posted_to_sap`

// GetByIssueNumber loads an issue note with its line items.
func (r *GoodsIssueRepo) GetByIssueNumber(ctx context.Context, issueNumber int64) (*entity.GoodsIssueNote, error) {
	query := `SELECT ` + goodsIssueColumns + ` FROM goods_issues WHERE issue_number = $1`
	return r.getOne(ctx, query, issueNumber)
}

// GetByIssueNumberForUpdate locks the note row for the current transaction.
func (r *GoodsIssueRepo) GetByIssueNumberForUpdate(ctx context.Context, issueNumber int64) (*entity.GoodsIssueNote, error) {
	query := `SELECT ` + goodsIssueColumns + ` FROM goods_issues WHERE issue_number = $1 FOR UPDATE`
	return r.getOne(ctx, query, issueNumber)
}

func (r *GoodsIssueRepo) getOne(ctx context.Context, query string, arg any) (*entity.GoodsIssueNote, error) {
	var n entity.GoodsIssueNote
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&n.ID, &n.IssueNumber, &n.SalesOrderID, &n.OrderNumber, &n.SourceStoreID,
		&n.CreatedBy, &n.CreatedAt, &n.PostedToICG, &n.PostedToSAP,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("goods issue: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get goods issue: %w", err)
	}
	if err := r.loadLines(ctx, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *GoodsIssueRepo) loadLines(ctx context.Context, n *entity.GoodsIssueNote) error {
	query := `
		SELECT id, goods_issue_id, order_line_id, order_line_object, product_id, product_name, quantity_issued, unit_price, value_issued, received_quantity
		FROM goods_issue_lines WHERE goods_issue_id = $1 ORDER BY order_line_object`
	rows, err := r.q.Query(ctx, query, n.ID)
	if err != nil {
		return fmt.Errorf("load issue lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var li entity.GoodsIssueLineItem
		if err := rows.Scan(&li.ID, &li.GoodsIssueID, &li.OrderLineID, &li.OrderLineObject,
			&li.ProductID, &li.ProductName, &li.QuantityIssued, &li.UnitPrice,
			&li.ValueIssued, &li.ReceivedQty); err != nil {
			return fmt.Errorf("scan issue line: %w", err)
		}
		n.LineItems = append(n.LineItems, li)
	}
	return rows.Err()
}

// NextIssueNumber allocates the next number from the issue sequence.
func (r *GoodsIssueRepo) NextIssueNumber(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT nextval('goods_issue_number_seq')`).Scan(&n); err != nil {
		return 0, fmt.Errorf("next issue number: %w", err)
	}
	return n, nil
}

// Create persists the note and its lines.
func (r *GoodsIssueRepo) Create(ctx context.Context, note *entity.GoodsIssueNote) error {
	query := `
		INSERT INTO goods_issues (id, issue_number, sales_order_id, order_number, source_store_id, created_by, created_at, posted_to_icg, posted_to_sap)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		note.ID, note.IssueNumber, note.SalesOrderID, note.OrderNumber, note.SourceStoreID,
		note.CreatedBy, note.CreatedAt, note.PostedToICG, note.PostedToSAP,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("goods issue %d: %w", note.IssueNumber, domain.ErrDuplicate)
		}
		return fmt.Errorf("create goods issue: %w", err)
	}
	lineQuery := `
		INSERT INTO goods_issue_lines (id, goods_issue_id, order_line_id, order_line_object, product_id, product_name, quantity_issued, unit_price, value_issued, received_quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for _, li := range note.LineItems {
		_, err := r.q.Exec(ctx, lineQuery,
			li.ID, note.ID, li.OrderLineID, li.OrderLineObject, li.ProductID, li.ProductName,
			li.QuantityIssued, li.UnitPrice, li.ValueIssued, li.ReceivedQty,
		)
		if err != nil {
			return fmt.Errorf("create goods issue line: %w", err)
		}
	}
	return nil
}

// AddReceivedQuantity increments an issue line's received quantity by delta.
func (r *GoodsIssueRepo) AddReceivedQuantity(ctx context.Context, lineID string, delta decimal.Decimal) error {
	query := `UPDATE goods_issue_lines SET received_quantity = received_quantity + $2 WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, lineID, delta)
	if err != nil {
		return fmt.Errorf("add received quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("goods issue line %s: %w", lineID, domain.ErrNotFound)
	}
	return nil
}

// ListPendingByDestinationStores returns notes with at least one line not
// fully received, destined for one of storeIDs, newest first.
func (r *GoodsIssueRepo) ListPendingByDestinationStores(ctx context.Context, storeIDs []string) ([]*entity.GoodsIssueNote, error) {
	query := `
		SELECT gi.id, gi.issue_number, gi.sales_order_id, gi.order_number, gi.source_store_id, gi.created_by, gi.created_at, gi.posted_to_icg, gi.posted_to_sap
		FROM goods_issues gi
		JOIN sales_orders so ON so.id = gi.sales_order_id
		WHERE so.destination_store_id = ANY($1)
		  AND EXISTS (
			SELECT 1 FROM goods_issue_lines gil
			WHERE gil.goods_issue_id = gi.id AND gil.received_quantity < gil.quantity_issued
		  )
		ORDER BY gi.created_at DESC`
	return r.list(ctx, query, storeIDs)
}

// ListBySalesOrder returns every issue note of one order, oldest first.
func (r *GoodsIssueRepo) ListBySalesOrder(ctx context.Context, salesOrderID string) ([]*entity.GoodsIssueNote, error) {
	query := `SELECT ` + goodsIssueColumns + ` FROM goods_issues WHERE sales_order_id = $1 ORDER BY issue_number`
	return r.list(ctx, query, salesOrderID)
}

func (r *GoodsIssueRepo) list(ctx context.Context, query string, args ...any) ([]*entity.GoodsIssueNote, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list goods issues: %w", err)
	}
	defer rows.Close()
	var list []*entity.GoodsIssueNote
	for rows.Next() {
		var n entity.GoodsIssueNote
		if err := rows.Scan(&n.ID, &n.IssueNumber, &n.SalesOrderID, &n.OrderNumber, &n.SourceStoreID,
			&n.CreatedBy, &n.CreatedAt, &n.PostedToICG, &n.PostedToSAP); err != nil {
			return nil, fmt.Errorf("scan goods issue: %w", err)
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

// SetPosted flips a posted_to_* flag.
func (r *GoodsIssueRepo) SetPosted(ctx context.Context, issueNumber int64, system string, posted bool) error {
	var column string
	switch system {
	case entity.TargetICG:
		column = "posted_to_icg"
	case entity.TargetSAPByD:
		column = "posted_to_sap"
	default:
		return fmt.Errorf("set posted: unknown system %q", system)
	}
	query := fmt.Sprintf(`UPDATE goods_issues SET %s = $2 WHERE issue_number = $1`, column)
	tag, err := r.q.Exec(ctx, query, issueNumber, posted)
	if err != nil {
		return fmt.Errorf("set posted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("goods issue %d: %w", issueNumber, domain.ErrNotFound)
	}
	return nil
}
