package transfer_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/storelink/transfer-api/internal/domain"
	"github.com/storelink/transfer-api/internal/domain/entity"
	"github.com/storelink/transfer-api/internal/domain/repository"
)

// memStore is an in-memory stand-in for the three document repositories plus
// the TxRunner. Reads hand out deep copies so the code under test cannot
// mutate stored state through a stale pointer, mirroring the row-scan
// behavior of the real adapters.
type memStore struct {
	mu         sync.Mutex
	orders     map[int64]*entity.SalesOrder
	issues     map[int64]*entity.GoodsIssueNote
	receipts   map[int64]*entity.TransferReceiptNote
	issueSeq   int64
	receiptSeq int64
	rowLocks   map[string]*sync.Mutex
}

func newMemStore() *memStore {
	return &memStore{
		orders:   make(map[int64]*entity.SalesOrder),
		issues:   make(map[int64]*entity.GoodsIssueNote),
		receipts: make(map[int64]*entity.TransferReceiptNote),
		rowLocks: make(map[string]*sync.Mutex),
	}
}

// rowLock returns the mutex standing in for a row-level lock on key.
func (s *memStore) rowLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.rowLocks[key]
	if !ok {
		l = &sync.Mutex{}
		s.rowLocks[key] = l
	}
	return l
}

func copyOrder(o *entity.SalesOrder) *entity.SalesOrder {
	c := *o
	c.LineItems = append([]entity.SalesOrderLineItem(nil), o.LineItems...)
	return &c
}

func copyIssue(n *entity.GoodsIssueNote) *entity.GoodsIssueNote {
	c := *n
	c.LineItems = append([]entity.GoodsIssueLineItem(nil), n.LineItems...)
	return &c
}

func copyReceipt(n *entity.TransferReceiptNote) *entity.TransferReceiptNote {
	c := *n
	c.LineItems = append([]entity.TransferReceiptLineItem(nil), n.LineItems...)
	return &c
}

// Run executes fn against the shared state. The fakes do not roll back; the
// ledger validates before it writes, which is exactly the property the tests
// assert on. Row locks taken by the ForUpdate reads are held until fn
// returns, mirroring how FOR UPDATE pins the row for the whole transaction.
func (s *memStore) Run(ctx context.Context, fn func(
	orderRepo repository.SalesOrderRepository,
	issueRepo repository.GoodsIssueRepository,
	receiptRepo repository.TransferReceiptRepository,
) error) error {
	orders := &memOrderRepo{s: s}
	issues := &memIssueRepo{s: s}
	defer orders.releaseRowLocks()
	defer issues.releaseRowLocks()
	return fn(orders, issues, &memReceiptRepo{s: s})
}

type memOrderRepo struct {
	s    *memStore
	held []*sync.Mutex
}

func (r *memOrderRepo) releaseRowLocks() {
	for _, l := range r.held {
		l.Unlock()
	}
	r.held = nil
}

func (r *memOrderRepo) GetByOrderNumber(ctx context.Context, orderNumber int64) (*entity.SalesOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[orderNumber]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyOrder(o), nil
}

func (r *memOrderRepo) GetByOrderNumberForUpdate(ctx context.Context, orderNumber int64) (*entity.SalesOrder, error) {
	l := r.s.rowLock(fmt.Sprintf("sales_order:%d", orderNumber))
	l.Lock()
	r.held = append(r.held, l)
	return r.GetByOrderNumber(ctx, orderNumber)
}

func (r *memOrderRepo) GetByObjectID(ctx context.Context, objectID string) (*entity.SalesOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		if o.ObjectID == objectID {
			return copyOrder(o), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memOrderRepo) ListByStores(ctx context.Context, storeIDs []string) ([]*entity.SalesOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.SalesOrder
	for _, o := range r.s.orders {
		for _, id := range storeIDs {
			if o.SourceStoreID == id || o.DestinationStoreID == id {
				out = append(out, copyOrder(o))
				break
			}
		}
	}
	return out, nil
}

func (r *memOrderRepo) ListPendingBySourceStores(ctx context.Context, storeIDs []string) ([]*entity.SalesOrder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.SalesOrder
	for _, o := range r.s.orders {
		if o.DeliveryStatus == entity.DeliveryCompleted {
			continue
		}
		for _, id := range storeIDs {
			if o.SourceStoreID == id {
				out = append(out, copyOrder(o))
				break
			}
		}
	}
	return out, nil
}

func (r *memOrderRepo) Create(ctx context.Context, order *entity.SalesOrder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.orders[order.OrderNumber]; exists {
		return domain.ErrDuplicate
	}
	r.s.orders[order.OrderNumber] = copyOrder(order)
	return nil
}

func (r *memOrderRepo) UpdateHeader(ctx context.Context, order *entity.SalesOrder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.orders[order.OrderNumber]
	if !ok {
		return domain.ErrNotFound
	}
	stored.OrderDate = order.OrderDate
	stored.TotalNetAmount = order.TotalNetAmount
	stored.UpdatedAt = order.UpdatedAt
	return nil
}

func (r *memOrderRepo) AddIssuedQuantity(ctx context.Context, lineID string, delta decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		for i := range o.LineItems {
			if o.LineItems[i].ID == lineID {
				o.LineItems[i].IssuedQty = o.LineItems[i].IssuedQty.Add(delta)
				return nil
			}
		}
	}
	return fmt.Errorf("order line %s: %w", lineID, domain.ErrNotFound)
}

func (r *memOrderRepo) SetDeliveryStatus(ctx context.Context, orderID, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		if o.ID == orderID {
			o.DeliveryStatus = status
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *memOrderRepo) CountGoodsIssues(ctx context.Context, orderID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, issue := range r.s.issues {
		if issue.SalesOrderID == orderID {
			n++
		}
	}
	return n, nil
}

type memIssueRepo struct {
	s    *memStore
	held []*sync.Mutex
}

func (r *memIssueRepo) releaseRowLocks() {
	for _, l := range r.held {
		l.Unlock()
	}
	r.held = nil
}

func (r *memIssueRepo) GetByIssueNumber(ctx context.Context, issueNumber int64) (*entity.GoodsIssueNote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.issues[issueNumber]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyIssue(n), nil
}

func (r *memIssueRepo) GetByIssueNumberForUpdate(ctx context.Context, issueNumber int64) (*entity.GoodsIssueNote, error) {
	l := r.s.rowLock(fmt.Sprintf("goods_issue:%d", issueNumber))
	l.Lock()
	r.held = append(r.held, l)
	return r.GetByIssueNumber(ctx, issueNumber)
}

func (r *memIssueRepo) NextIssueNumber(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.issueSeq++
	return r.s.issueSeq, nil
}

func (r *memIssueRepo) Create(ctx context.Context, note *entity.GoodsIssueNote) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.issues[note.IssueNumber]; exists {
		return domain.ErrDuplicate
	}
	r.s.issues[note.IssueNumber] = copyIssue(note)
	return nil
}

func (r *memIssueRepo) AddReceivedQuantity(ctx context.Context, lineID string, delta decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, n := range r.s.issues {
		for i := range n.LineItems {
			if n.LineItems[i].ID == lineID {
				n.LineItems[i].ReceivedQty = n.LineItems[i].ReceivedQty.Add(delta)
				return nil
			}
		}
	}
	return fmt.Errorf("issue line %s: %w", lineID, domain.ErrNotFound)
}

func (r *memIssueRepo) ListPendingByDestinationStores(ctx context.Context, storeIDs []string) ([]*entity.GoodsIssueNote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.GoodsIssueNote
	for _, n := range r.s.issues {
		if !n.FullyReceived() {
			out = append(out, copyIssue(n))
		}
	}
	return out, nil
}

func (r *memIssueRepo) ListBySalesOrder(ctx context.Context, salesOrderID string) ([]*entity.GoodsIssueNote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.GoodsIssueNote
	for _, n := range r.s.issues {
		if n.SalesOrderID == salesOrderID {
			out = append(out, copyIssue(n))
		}
	}
	return out, nil
}

func (r *memIssueRepo) SetPosted(ctx context.Context, issueNumber int64, system string, posted bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.issues[issueNumber]
	if !ok {
		return domain.ErrNotFound
	}
	switch system {
	case entity.TargetICG:
		n.PostedToICG = posted
	case entity.TargetSAPByD:
		n.PostedToSAP = posted
	}
	return nil
}

type memReceiptRepo struct{ s *memStore }

func (r *memReceiptRepo) GetByReceiptNumber(ctx context.Context, receiptNumber int64) (*entity.TransferReceiptNote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.receipts[receiptNumber]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyReceipt(n), nil
}

func (r *memReceiptRepo) NextReceiptNumber(ctx context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.receiptSeq++
	return r.s.receiptSeq, nil
}

func (r *memReceiptRepo) Create(ctx context.Context, note *entity.TransferReceiptNote) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.receipts[note.ReceiptNumber]; exists {
		return domain.ErrDuplicate
	}
	r.s.receipts[note.ReceiptNumber] = copyReceipt(note)
	return nil
}

func (r *memReceiptRepo) ListByGoodsIssue(ctx context.Context, goodsIssueID string) ([]*entity.TransferReceiptNote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.TransferReceiptNote
	for _, n := range r.s.receipts {
		if n.GoodsIssueID == goodsIssueID {
			out = append(out, copyReceipt(n))
		}
	}
	return out, nil
}

func (r *memReceiptRepo) SetPosted(ctx context.Context, receiptNumber int64, system string, posted bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.receipts[receiptNumber]
	if !ok {
		return domain.ErrNotFound
	}
	if system == entity.TargetICG {
		n.PostedToICG = posted
	}
	return nil
}

// fakeAuthority grants user→store→role from a static map.
type fakeAuthority struct {
	grants map[string]map[string]string // userID → storeID → role
}

func (a *fakeAuthority) IsAuthorized(ctx context.Context, userID, storeID string, roles ...string) (bool, error) {
	role, ok := a.grants[userID][storeID]
	if !ok {
		return false, nil
	}
	if len(roles) == 0 {
		return true, nil
	}
	for _, r := range roles {
		if role == r {
			return true, nil
		}
	}
	return false, nil
}

func (a *fakeAuthority) AuthorizedStoreIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	for id := range a.grants[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

// enqueuedEvent records one EnqueueDocumentSync call.
type enqueuedEvent struct {
	DocumentType   string
	DocumentNumber int64
	Targets        []string
}

type fakeEnqueuer struct {
	mu     sync.Mutex
	events []enqueuedEvent
	err    error
}

func (e *fakeEnqueuer) EnqueueDocumentSync(ctx context.Context, documentType string, documentNumber int64, targetSystems ...string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.events = append(e.events, enqueuedEvent{DocumentType: documentType, DocumentNumber: documentNumber, Targets: targetSystems})
	return nil
}
