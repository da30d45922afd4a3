package transfer_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storelink/transfer-api/internal/application/transfer"
	"github.com/storelink/transfer-api/internal/domain"
	"github.com/storelink/transfer-api/internal/domain/entity"
	"github.com/storelink/transfer-api/pkg/logger"
)

const (
	srcStoreID = "11111111-1111-1111-1111-111111111111"
	dstStoreID = "22222222-2222-2222-2222-222222222222"
	managerID  = "33333333-3333-3333-3333-333333333333"
	receiverID = "44444444-4444-4444-4444-444444444444"
	strangerID = "55555555-5555-5555-5555-555555555555"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// fixture wires an Engine against the in-memory store with order 59461
// pre-loaded: line L1 (100 units at 10.00) and line L2 (50 units at 4.00),
// transferring from the source store to the destination store.
type fixture struct {
	store    *memStore
	engine   *transfer.Engine
	enqueuer *fakeEnqueuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	store.orders[59461] = &entity.SalesOrder{
		ID:                 "order-59461",
		ObjectID:           "00163E0E22D6",
		OrderNumber:        59461,
		SourceStoreID:      srcStoreID,
		DestinationStoreID: dstStoreID,
		OrderDate:          time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		TotalNetAmount:     dec("1200.00"),
		DeliveryStatus:     entity.DeliveryNotDelivered,
		LineItems: []entity.SalesOrderLineItem{
			{ID: "line-1", SalesOrderID: "order-59461", ObjectID: "L1", ProductID: "P-100", ProductName: "Rice 1kg", Quantity: dec("100"), UnitPrice: dec("10.00"), IssuedQty: decimal.Zero},
			{ID: "line-2", SalesOrderID: "order-59461", ObjectID: "L2", ProductID: "P-200", ProductName: "Oil 1L", Quantity: dec("50"), UnitPrice: dec("4.00"), IssuedQty: decimal.Zero},
		},
	}

	authority := &fakeAuthority{grants: map[string]map[string]string{
		managerID:  {srcStoreID: entity.RoleManager},
		receiverID: {dstStoreID: entity.RoleAssistant},
	}}
	enqueuer := &fakeEnqueuer{}
	ledger := transfer.NewLedger(store, &memOrderRepo{s: store}, &memIssueRepo{s: store}, &memReceiptRepo{s: store})
	log := logger.New(logger.Config{Env: "test", Level: "error"})
	engine := transfer.NewEngine(ledger, authority, enqueuer, log, func() time.Time {
		return time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	})
	return &fixture{store: store, engine: engine, enqueuer: enqueuer}
}

func TestIssueGoods_PartialThenComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.engine.IssueGoods(ctx, managerID, 59461, []transfer.IssueLine{
		{OrderLineObjectID: "L1", Quantity: dec("60")},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.IssueNumber)
	assert.Equal(t, srcStoreID, first.SourceStoreID)
	assert.True(t, first.TotalValueIssued().Equal(dec("600.00")), "60 × 10.00")
	assert.Equal(t, entity.DeliveryPartiallyDelivered, f.store.orders[59461].DeliveryStatus)

	second, err := f.engine.IssueGoods(ctx, managerID, 59461, []transfer.IssueLine{
		{OrderLineObjectID: "L1", Quantity: dec("40")},
		{OrderLineObjectID: "L2", Quantity: dec("50")},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.IssueNumber)
	assert.Equal(t, entity.DeliveryCompleted, f.store.orders[59461].DeliveryStatus)

	// A completed order accepts no further issues.
	_, err = f.engine.IssueGoods(ctx, managerID, 59461, []transfer.IssueLine{
		{OrderLineObjectID: "L2", Quantity: dec("1")},
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIssueGoods_ConcurrentOverIssueExactlyOneSucceeds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Two simultaneous 60-unit issues against the 100-unit line. The order
	// row lock serializes them: the winner leaves 40 outstanding, so the
	// loser must be rejected in full.
	start := make(chan struct{})
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.engine.IssueGoods(ctx, managerID, 59461, []transfer.IssueLine{
				{OrderLineObjectID: "L1", Quantity: dec("60")},
			})
		}(i)
	}
	close(start)
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			require.ErrorIs(t, err, domain.ErrInvalidInput)
		}
	}
	assert.Equal(t, 1, successes)

	line := f.store.orders[59461].LineItems[0]
	assert.True(t, line.IssuedQty.Equal(dec("60")), "issued %s", line.IssuedQty)
	assert.True(t, line.IssuedQty.LessThanOrEqual(line.Quantity), "issued must never exceed ordered")
	assert.Len(t, f.store.issues, 1)
}

func TestIssueGoods_OverIssueRejectedWithLineIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.IssueGoods(ctx, managerID, 59461, []transfer.IssueLine{
		{OrderLineObjectID: "L1", Quantity: dec("60")},
	})
	require.NoError(t, err)

	// 60 already issued on L1, only 40 left.
	_, err = f.engine.IssueGoods(ctx, managerID, 59461, []transfer.IssueLine{
		{OrderLineObjectID: "L2", Quantity: dec("10")},
		{OrderLineObjectID: "L1", Quantity: dec("50")},
	})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Len(t, vErr.Fields, 1)
	assert.Equal(t, 2, vErr.Fields[0].Line)
	assert.Equal(t, "quantity_issued", vErr.Fields[0].Field)

	// The rejected request is all-or-nothing: L2 stays untouched and the
	// rejected attempt burned no issue number.
	order := f.store.orders[59461]
	assert.True(t, order.LineItems[1].IssuedQty.IsZero(), "L2 must not be issued by a rejected request")
	require.Len(t, f.store.issues, 1)

	next, err := f.engine.IssueGoods(ctx, managerID, 59461, []transfer.IssueLine{
		{OrderLineObjectID: "L1", Quantity: dec("40")},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), next.IssueNumber, "rejected requests leave no sequence gap")
}

func TestIssueGoods_DuplicateRequestLinesAccumulate(t *testing.T) {
	f := newFixture(t)

	// 60 + 50 against the same 100-unit line: the second occurrence tips the
	// accumulated total over the bound.
	_, err := f.engine.IssueGoods(context.Background(), managerID, 59461, []transfer.IssueLine{
		{OrderLineObjectID: "L1", Quantity: dec("60")},
		{OrderLineObjectID: "L1", Quantity: dec("50")},
	})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Len(t, vErr.Fields, 1)
	assert.Equal(t, 2, vErr.Fields[0].Line)
	assert.Empty(t, f.store.issues)
}

func TestIssueGoods_InvalidQuantities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		qty  string
	}{
		{"zero", "0"},
		{"negative", "-5"},
		{"too many decimals", "1.0001"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.IssueGoods(ctx, managerID, 59461, []transfer.IssueLine{
				{OrderLineObjectID: "L1", Quantity: dec(tc.qty)},
			})
			var vErr *domain.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, 1, vErr.Fields[0].Line)
		})
	}
}

func TestIssueGoods_UnknownLineRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.IssueGoods(context.Background(), managerID, 59461, []transfer.IssueLine{
		{OrderLineObjectID: "L1", Quantity: dec("1")},
		{OrderLineObjectID: "NOPE", Quantity: dec("1")},
	})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, 2, vErr.Fields[0].Line)
	assert.Equal(t, "sales_order_line_object_id", vErr.Fields[0].Field)
}

func TestIssueGoods_EmptyLinesRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.IssueGoods(context.Background(), managerID, 59461, nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIssueGoods_ForbiddenLeavesNoTrace(t *testing.T) {
	f := newFixture(t)

	// receiverID is authorized for the destination store only; issuing happens
	// at the source store.
	for _, userID := range []string{receiverID, strangerID} {
		_, err := f.engine.IssueGoods(context.Background(), userID, 59461, []transfer.IssueLine{
			{OrderLineObjectID: "L1", Quantity: dec("10")},
		})
		require.ErrorIs(t, err, domain.ErrForbidden)
	}
	assert.Empty(t, f.store.issues)
	assert.Empty(t, f.enqueuer.events)
	assert.True(t, f.store.orders[59461].LineItems[0].IssuedQty.IsZero())
}

func TestIssueGoods_MaxIssuesPerOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := f.engine.IssueGoods(ctx, managerID, 59461, []transfer.IssueLine{
			{OrderLineObjectID: "L1", Quantity: dec("1")},
		})
		require.NoError(t, err)
	}
	_, err := f.engine.IssueGoods(ctx, managerID, 59461, []transfer.IssueLine{
		{OrderLineObjectID: "L1", Quantity: dec("1")},
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "maximum number of goods issues")
}

func TestIssueGoods_EnqueuesSyncForBothTargets(t *testing.T) {
	f := newFixture(t)

	note, err := f.engine.IssueGoods(context.Background(), managerID, 59461, []transfer.IssueLine{
		{OrderLineObjectID: "L1", Quantity: dec("10")},
	})
	require.NoError(t, err)
	require.Len(t, f.enqueuer.events, 1)
	ev := f.enqueuer.events[0]
	assert.Equal(t, entity.DocumentGoodsIssue, ev.DocumentType)
	assert.Equal(t, note.IssueNumber, ev.DocumentNumber)
	assert.ElementsMatch(t, []string{entity.TargetSAPByD, entity.TargetICG}, ev.Targets)
}

func TestIssueGoods_EnqueueFailureDoesNotFailTheRequest(t *testing.T) {
	f := newFixture(t)
	f.enqueuer.err = errors.New("outbox down")

	note, err := f.engine.IssueGoods(context.Background(), managerID, 59461, []transfer.IssueLine{
		{OrderLineObjectID: "L1", Quantity: dec("10")},
	})
	require.NoError(t, err, "the committed document wins over a failed enqueue")
	assert.NotNil(t, note)
}

func TestReceiveGoods_OverReceiptRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issue, err := f.engine.IssueGoods(ctx, managerID, 59461, []transfer.IssueLine{
		{OrderLineObjectID: "L1", Quantity: dec("45")},
	})
	require.NoError(t, err)
	issueLineID := issue.LineItems[0].ID

	_, err = f.engine.ReceiveGoods(ctx, receiverID, issue.IssueNumber, []transfer.ReceiptLine{
		{IssueLineID: issueLineID, Quantity: dec("45")},
	})
	require.NoError(t, err)

	// All 45 received; receiving 10 more must fail with the line index.
	_, err = f.engine.ReceiveGoods(ctx, receiverID, issue.IssueNumber, []transfer.ReceiptLine{
		{IssueLineID: issueLineID, Quantity: dec("10")},
	})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	require.Len(t, vErr.Fields, 1)
	assert.Equal(t, 1, vErr.Fields[0].Line)
	assert.Equal(t, "quantity_received", vErr.Fields[0].Field)
	require.Len(t, f.store.receipts, 1)
}

func TestReceiveGoods_PartialThenRemainder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issue, err := f.engine.IssueGoods(ctx, managerID, 59461, []transfer.IssueLine{
		{OrderLineObjectID: "L1", Quantity: dec("45")},
	})
	require.NoError(t, err)
	issueLineID := issue.LineItems[0].ID

	first, err := f.engine.ReceiveGoods(ctx, receiverID, issue.IssueNumber, []transfer.ReceiptLine{
		{IssueLineID: issueLineID, Quantity: dec("40")},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ReceiptNumber)
	assert.Equal(t, dstStoreID, first.DestinationStoreID)
	assert.True(t, first.LineItems[0].ValueReceived.Equal(dec("400.00")))

	second, err := f.engine.ReceiveGoods(ctx, receiverID, issue.IssueNumber, []transfer.ReceiptLine{
		{IssueLineID: issueLineID, Quantity: dec("5")},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ReceiptNumber)
	assert.True(t, f.store.issues[issue.IssueNumber].FullyReceived())
}

func TestReceiveGoods_AuthorizedAgainstDestinationStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issue, err := f.engine.IssueGoods(ctx, managerID, 59461, []transfer.IssueLine{
		{OrderLineObjectID: "L1", Quantity: dec("10")},
	})
	require.NoError(t, err)

	// The issuing manager holds a source-store grant only, so receiving is
	// forbidden for them.
	_, err = f.engine.ReceiveGoods(ctx, managerID, issue.IssueNumber, []transfer.ReceiptLine{
		{IssueLineID: issue.LineItems[0].ID, Quantity: dec("10")},
	})
	require.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, f.store.receipts)
}

func TestReceiveGoods_EnqueuesSyncForBothTargets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issue, err := f.engine.IssueGoods(ctx, managerID, 59461, []transfer.IssueLine{
		{OrderLineObjectID: "L1", Quantity: dec("10")},
	})
	require.NoError(t, err)

	receipt, err := f.engine.ReceiveGoods(ctx, receiverID, issue.IssueNumber, []transfer.ReceiptLine{
		{IssueLineID: issue.LineItems[0].ID, Quantity: dec("10")},
	})
	require.NoError(t, err)

	require.Len(t, f.enqueuer.events, 2)
	ev := f.enqueuer.events[1]
	assert.Equal(t, entity.DocumentTransferReceipt, ev.DocumentType)
	assert.Equal(t, receipt.ReceiptNumber, ev.DocumentNumber)
	assert.ElementsMatch(t, []string{entity.TargetSAPByD, entity.TargetICG}, ev.Targets)
}

func TestIssueGoods_UnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.IssueGoods(context.Background(), managerID, 999999, []transfer.IssueLine{
		{OrderLineObjectID: "L1", Quantity: dec("1")},
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}
