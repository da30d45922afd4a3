package postgres

import (
	"context"
	"fmt"

	"github.com/storelink/transfer-api/internal/domain/repository"
)

var _ repository.SummaryRepository = (*SummaryRepo)(nil)

// SummaryRepo computes per-store transfer aggregates straight in SQL.
type SummaryRepo struct {
	q Querier
}

// NewSummaryRepository builds the adapter. Pass a pool or tx (Querier).
func NewSummaryRepository(q Querier) *SummaryRepo {
	return &SummaryRepo{q: q}
}

// TransferSummaryByStores returns one row per requested store: order counts in
// both directions, documents still awaiting action and total values moved.
func (r *SummaryRepo) TransferSummaryByStores(ctx context.Context, storeIDs []string) ([]repository.StoreTransferSummary, error) {
	query := `
		SELECT
			s.id,
			s.name,
			(SELECT COUNT(*) FROM sales_orders so WHERE so.source_store_id = s.id) AS outbound_orders,
			(SELECT COUNT(*) FROM sales_orders so WHERE so.destination_store_id = s.id) AS inbound_orders,
			(SELECT COUNT(*) FROM sales_orders so
				WHERE so.source_store_id = s.id AND so.delivery_status <> 'COMPLETED') AS pending_issues,
			(SELECT COUNT(*) FROM goods_issues gi
				JOIN sales_orders so ON so.id = gi.sales_order_id
				WHERE so.destination_store_id = s.id
				  AND EXISTS (
					SELECT 1 FROM goods_issue_lines gil
					WHERE gil.goods_issue_id = gi.id AND gil.received_quantity < gil.quantity_issued
				  )) AS pending_receipts,
			COALESCE((SELECT SUM(gil.value_issued) FROM goods_issues gi
				JOIN goods_issue_lines gil ON gil.goods_issue_id = gi.id
				WHERE gi.source_store_id = s.id), 0) AS total_value_issued,
			COALESCE((SELECT SUM(trl.value_received) FROM transfer_receipts tr
				JOIN transfer_receipt_lines trl ON trl.transfer_receipt_id = tr.id
				WHERE tr.destination_store_id = s.id), 0) AS total_value_received
		FROM stores s
		WHERE s.id = ANY($1)
		ORDER BY s.name`
	rows, err := r.q.Query(ctx, query, storeIDs)
	if err != nil {
		return nil, fmt.Errorf("transfer summary: %w", err)
	}
	defer rows.Close()
	var list []repository.StoreTransferSummary
	for rows.Next() {
		var s repository.StoreTransferSummary
		if err := rows.Scan(&s.StoreID, &s.StoreName, &s.OutboundOrders, &s.InboundOrders,
			&s.PendingIssues, &s.PendingReceipts, &s.TotalValueIssued, &s.TotalValueReceived); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
