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

var _ repository.SalesOrderRepository = (*SalesOrderRepo)(nil)

// SalesOrderRepo PostgreSQL adapter (usable with pool or tx).
type SalesOrderRepo struct {
	q Querier
}

// NewSalesOrderRepository builds the adapter. Pass a pool or tx (Querier).
func NewSalesOrderRepository(q Querier) *SalesOrderRepo {
	return &SalesOrderRepo{q: q}
}

const salesOrderColumns = `id, object_id, order_number, source_store_id, destination_store_id, order_date, total_net_amount, delivery_status, created_at, updated_at`

// GetByOrderNumber loads an order with its line items.
func (r *SalesOrderRepo) GetByOrderNumber(ctx context.Context, orderNumber int64) (*entity.SalesOrder, error) {
	query := `SELECT ` + salesOrderColumns + ` FROM sales_orders WHERE order_number = $1`
	return r.getOne(ctx, query, orderNumber)
}

// GetByOrderNumberForUpdate locks the order row for the current transaction.
func (r *SalesOrderRepo) GetByOrderNumberForUpdate(ctx context.Context, orderNumber int64) (*entity.SalesOrder, error) {
	query := `SELECT ` + salesOrderColumns + ` FROM sales_orders WHERE order_number = $1 FOR UPDATE`
	return r.getOne(ctx, query, orderNumber)
}

// GetByObjectID loads an order by its ERP object id.
func (r *SalesOrderRepo) GetByObjectID(ctx context.Context, objectID string) (*entity.SalesOrder, error) {
	query := `SELECT ` + salesOrderColumns + ` FROM sales_orders WHERE object_id = $1`
	return r.getOne(ctx, query, objectID)
}

func (r *SalesOrderRepo) getOne(ctx context.Context, query string, arg any) (*entity.SalesOrder, error) {
	var o entity.SalesOrder
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&o.ID, &o.ObjectID, &o.OrderNumber, &o.SourceStoreID, &o.DestinationStoreID,
		&o.OrderDate, &o.TotalNetAmount, &o.DeliveryStatus, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("sales order: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get sales order: %w", err)
	}
	if err := r.loadLines(ctx, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *SalesOrderRepo) loadLines(ctx context.Context, o *entity.SalesOrder) error {
	query := `
		SELECT id, sales_order_id, object_id, product_id, product_name, quantity, unit_price, unit_of_measure, issued_quantity
		FROM sales_order_lines WHERE sales_order_id = $1 ORDER BY object_id`
	rows, err := r.q.Query(ctx, query, o.ID)
	if err != nil {
		return fmt.Errorf("load order lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var li entity.SalesOrderLineItem
		var uom *string
		if err := rows.Scan(&li.ID, &li.SalesOrderID, &li.ObjectID, &li.ProductID, &li.ProductName,
			&li.Quantity, &li.UnitPrice, &uom, &li.IssuedQty); err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}
		if uom != nil {
			li.UnitOfMeasure = *uom
		}
		o.LineItems = append(o.LineItems, li)
	}
	return rows.Err()
}

// ListByStores returns orders whose source or destination store is in
// storeIDs, newest order date first.
func (r *SalesOrderRepo) ListByStores(ctx context.Context, storeIDs []string) ([]*entity.SalesOrder, error) {
	query := `
		SELECT ` + salesOrderColumns + ` FROM sales_orders
		WHERE source_store_id = ANY($1) OR destination_store_id = ANY($1)
		ORDER BY order_date DESC`
	return r.list(ctx, query, storeIDs)
}

// ListPendingBySourceStores returns not-yet-completed orders originating at
// one of storeIDs, newest order date first.
func (r *SalesOrderRepo) ListPendingBySourceStores(ctx context.Context, storeIDs []string) ([]*entity.SalesOrder, error) {
	query := `
		SELECT ` + salesOrderColumns + ` FROM sales_orders
		WHERE source_store_id = ANY($1) AND delivery_status <> $2
		ORDER BY order_date DESC`
	return r.list(ctx, query, storeIDs, entity.DeliveryCompleted)
}

func (r *SalesOrderRepo) list(ctx context.Context, query string, args ...any) ([]*entity.SalesOrder, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sales orders: %w", err)
	}
	defer rows.Close()
	var list []*entity.SalesOrder
	for rows.Next() {
		var o entity.SalesOrder
		if err := rows.Scan(&o.ID, &o.ObjectID, &o.OrderNumber, &o.SourceStoreID, &o.DestinationStoreID,
			&o.OrderDate, &o.TotalNetAmount, &o.DeliveryStatus, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan sales order: %w", err)
		}
		list = append(list, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, o := range list {
		if err := r.loadLines(ctx, o); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// Create persists the order header and its lines.
func (r *SalesOrderRepo) Create(ctx context.Context, order *entity.SalesOrder) error {
	query := `
		INSERT INTO sales_orders (id, object_id, order_number, source_store_id, destination_store_id, order_date, total_net_amount, delivery_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())`
	_, err := r.q.Exec(ctx, query,
		order.ID, order.ObjectID, order.OrderNumber, order.SourceStoreID, order.DestinationStoreID,
		order.OrderDate, order.TotalNetAmount, order.DeliveryStatus,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sales order %d: %w", order.OrderNumber, domain.ErrDuplicate)
		}
		return fmt.Errorf("create sales order: %w", err)
	}
	lineQuery := `
		INSERT INTO sales_order_lines (id, sales_order_id, object_id, product_id, product_name, quantity, unit_price, unit_of_measure, issued_quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for _, li := range order.LineItems {
		var uom *string
		if li.UnitOfMeasure != "" {
			uom = &li.UnitOfMeasure
		}
		_, err := r.q.Exec(ctx, lineQuery,
			li.ID, order.ID, li.ObjectID, li.ProductID, li.ProductName,
			li.Quantity, li.UnitPrice, uom, li.IssuedQty,
		)
		if err != nil {
			return fmt.Errorf("create sales order line: %w", err)
		}
	}
	return nil
}

// UpdateHeader refreshes ERP-owned header fields.
func (r *SalesOrderRepo) UpdateHeader(ctx context.Context, order *entity.SalesOrder) error {
	query := `
		UPDATE sales_orders SET total_net_amount = $2, order_date = $3, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, order.ID, order.TotalNetAmount, order.OrderDate)
	if err != nil {
		return fmt.Errorf("update sales order header: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sales order %s: %w", order.ID, domain.ErrNotFound)
	}
	return nil
}

// AddIssuedQuantity increments a line's issued quantity by delta.
func (r *SalesOrderRepo) AddIssuedQuantity(ctx context.Context, lineID string, delta decimal.Decimal) error {
	query := `UPDATE sales_order_lines SET issued_quantity = issued_quantity + $2 WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, lineID, delta)
	if err != nil {
		return fmt.Errorf("add issued quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sales order line %s: %w", lineID, domain.ErrNotFound)
	}
	return nil
}

// SetDeliveryStatus stores the derived aggregate status.
func (r *SalesOrderRepo) SetDeliveryStatus(ctx context.Context, orderID, status string) error {
	query := `UPDATE sales_orders SET delivery_status = $2, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, orderID, status)
	if err != nil {
		return fmt.Errorf("set delivery status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sales order %s: %w", orderID, domain.ErrNotFound)
	}
	return nil
}

// CountGoodsIssues returns how many issue notes exist for the order.
func (r *SalesOrderRepo) CountGoodsIssues(ctx context.Context, orderID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM goods_issues WHERE sales_order_id = $1`, orderID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count goods issues: %w", err)
	}
	return n, nil
}
