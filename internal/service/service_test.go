package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"github.com/watermelon-studio/studio-booking/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB wires gorm to sqlmock so services can run their transaction
// wrappers; the fakes below ignore the tx handle, so tests only expect
// BEGIN plus COMMIT or ROLLBACK.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

type published struct {
	key     string
	payload any
}

type fakePublisher struct {
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(routingKey string, payload any) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{key: routingKey, payload: payload})
	return nil
}

type fakeActivity struct {
	entries []string
}

func (a *fakeActivity) Record(_ context.Context, log string) error {
	a.entries = append(a.entries, log)
	return nil
}

func (a *fakeActivity) ListRecent(_ context.Context, limit int) ([]models.ActivityLog, error) {
	return nil, nil
}

type fakeEventRepo struct {
	events map[uint]*models.Event
	slugs  map[string]bool

	created []*models.Event
	saved   []*models.Event
	deleted []uint
	nextID  uint
}

func newFakeEventRepo(events ...*models.Event) *fakeEventRepo {
	r := &fakeEventRepo{events: map[uint]*models.Event{}, slugs: map[string]bool{}, nextID: 100}
	for _, e := range events {
		r.events[e.ID] = e
		r.slugs[e.Slug] = true
	}
	return r
}

func (r *fakeEventRepo) Create(_ context.Context, event *models.Event) error {
	r.nextID++
	event.ID = r.nextID
	r.events[event.ID] = event
	r.slugs[event.Slug] = true
	r.created = append(r.created, event)
	return nil
}

func (r *fakeEventRepo) Save(_ context.Context, event *models.Event) error {
	r.events[event.ID] = event
	r.saved = append(r.saved, event)
	return nil
}

func (r *fakeEventRepo) Delete(_ context.Context, id uint) error {
	delete(r.events, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeEventRepo) FindByID(_ context.Context, id uint) (*models.Event, error) {
	e, ok := r.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
}

func (r *fakeEventRepo) FindBySlug(_ context.Context, slug string) (*models.Event, error) {
	for _, e := range r.events {
		if e.Slug == slug {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeEventRepo) FindByIDForUpdate(ctx context.Context, _ *gorm.DB, id uint) (*models.Event, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeEventRepo) ListUpcoming(_ context.Context, evType, name string, _ time.Time) ([]models.Event, error) {
	var out []models.Event
	for _, e := range r.events {
		out = append(out, *e)
	}
	return out, nil
}

func (r *fakeEventRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	return r.slugs[slug], nil
}

func (r *fakeEventRepo) CreateEventType(_ context.Context, et *models.EventType) error { return nil }

func (r *fakeEventRepo) ListEventTypes(_ context.Context) ([]models.EventType, error) {
	return nil, nil
}

func (r *fakeEventRepo) GetDB() *gorm.DB { return nil }

func userEventKey(userID string, eventID uint) string {
	return fmt.Sprintf("%s/%d", userID, eventID)
}

type fakeBookingRepo struct {
	db *gorm.DB

	byID        map[uint]*models.Booking
	byUserEvent map[string]*models.Booking
	openCounts  map[uint]int64
	unpaid      []models.Booking
	blockOpen   []models.Booking

	created []*models.Booking
	saved   []*models.Booking
	nextID  uint
}

func newFakeBookingRepo(db *gorm.DB) *fakeBookingRepo {
	return &fakeBookingRepo{
		db:          db,
		byID:        map[uint]*models.Booking{},
		byUserEvent: map[string]*models.Booking{},
		openCounts:  map[uint]int64{},
		nextID:      500,
	}
}

func (r *fakeBookingRepo) add(b *models.Booking) {
	r.byID[b.ID] = b
	r.byUserEvent[userEventKey(b.UserID, b.EventID)] = b
}

func (r *fakeBookingRepo) Create(_ context.Context, _ *gorm.DB, booking *models.Booking) error {
	r.nextID++
	booking.ID = r.nextID
	r.add(booking)
	r.created = append(r.created, booking)
	return nil
}

func (r *fakeBookingRepo) Save(_ context.Context, _ *gorm.DB, booking *models.Booking) error {
	r.add(booking)
	r.saved = append(r.saved, booking)
	return nil
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uint) (*models.Booking, error) {
	b, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return b, nil
}

func (r *fakeBookingRepo) FindByUserAndEvent(_ context.Context, _ *gorm.DB, userID string, eventID uint) (*models.Booking, error) {
	b, ok := r.byUserEvent[userEventKey(userID, eventID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return b, nil
}

func (r *fakeBookingRepo) CountOpen(_ context.Context, _ *gorm.DB, eventID uint) (int64, error) {
	return r.openCounts[eventID], nil
}

func (r *fakeBookingRepo) ListByUser(_ context.Context, userID string, _ time.Time, _ bool) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range r.byID {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ListUnpaidByUser(_ context.Context, userID string) ([]models.Booking, error) {
	return r.unpaid, nil
}

func (r *fakeBookingRepo) ListOpenByUserAndBlock(_ context.Context, _ *gorm.DB, userID string, blockID uint) ([]models.Booking, error) {
	return r.blockOpen, nil
}

func (r *fakeBookingRepo) GetDB() *gorm.DB { return r.db }

type fakeWaitingRepo struct {
	entries map[string]*models.WaitingListUser
	byEvent map[uint][]models.WaitingListUser
}

func newFakeWaitingRepo() *fakeWaitingRepo {
	return &fakeWaitingRepo{
		entries: map[string]*models.WaitingListUser{},
		byEvent: map[uint][]models.WaitingListUser{},
	}
}

func (r *fakeWaitingRepo) put(entry models.WaitingListUser) {
	r.entries[userEventKey(entry.UserID, entry.EventID)] = &entry
	r.byEvent[entry.EventID] = append(r.byEvent[entry.EventID], entry)
}

func (r *fakeWaitingRepo) Add(_ context.Context, entry *models.WaitingListUser) (bool, error) {
	key := userEventKey(entry.UserID, entry.EventID)
	if _, ok := r.entries[key]; ok {
		return false, nil
	}
	r.put(*entry)
	return true, nil
}

func (r *fakeWaitingRepo) Remove(_ context.Context, _ *gorm.DB, userID string, eventID uint) (bool, error) {
	key := userEventKey(userID, eventID)
	if _, ok := r.entries[key]; !ok {
		return false, nil
	}
	delete(r.entries, key)
	return true, nil
}

func (r *fakeWaitingRepo) Find(_ context.Context, userID string, eventID uint) (*models.WaitingListUser, error) {
	e, ok := r.entries[userEventKey(userID, eventID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
}

func (r *fakeWaitingRepo) ListByEvent(_ context.Context, _ *gorm.DB, eventID uint) ([]models.WaitingListUser, error) {
	return r.byEvent[eventID], nil
}

func (r *fakeWaitingRepo) ListEventIDsByUser(_ context.Context, userID string) ([]uint, error) {
	var ids []uint
	for _, e := range r.entries {
		if e.UserID == userID {
			ids = append(ids, e.EventID)
		}
	}
	return ids, nil
}

type fakeBlockRepo struct {
	db      *gorm.DB
	blocks  map[uint]*models.Block
	members map[uint][]models.Event

	setOpenCalls    []uint
	openMemberCalls []uint
	replacedEvents  [][]uint
	saved           []*models.Block
	nextID          uint
}

func newFakeBlockRepo(db *gorm.DB) *fakeBlockRepo {
	return &fakeBlockRepo{
		db:      db,
		blocks:  map[uint]*models.Block{},
		members: map[uint][]models.Event{},
		nextID:  50,
	}
}

func (r *fakeBlockRepo) Create(_ context.Context, block *models.Block, eventIDs []uint) error {
	r.nextID++
	block.ID = r.nextID
	r.blocks[block.ID] = block
	return nil
}

func (r *fakeBlockRepo) Save(_ context.Context, block *models.Block) error {
	r.blocks[block.ID] = block
	r.saved = append(r.saved, block)
	return nil
}

func (r *fakeBlockRepo) FindByID(_ context.Context, id uint) (*models.Block, error) {
	b, ok := r.blocks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *b
	copied.Events = r.members[id]
	return &copied, nil
}

func (r *fakeBlockRepo) FindByIDForUpdate(ctx context.Context, _ *gorm.DB, id uint) (*models.Block, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeBlockRepo) ListOpen(_ context.Context) ([]models.Block, error) {
	var out []models.Block
	for _, b := range r.blocks {
		if b.BookingOpen {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBlockRepo) MemberEvents(_ context.Context, _ *gorm.DB, blockID uint) ([]models.Event, error) {
	return r.members[blockID], nil
}

func (r *fakeBlockRepo) OpenMemberEvents(_ context.Context, _ *gorm.DB, blockID uint) error {
	r.openMemberCalls = append(r.openMemberCalls, blockID)
	events := r.members[blockID]
	for i := range events {
		events[i].BookingOpen = true
	}
	r.members[blockID] = events
	return nil
}

func (r *fakeBlockRepo) SetBookingOpen(_ context.Context, _ *gorm.DB, blockID uint, open bool) error {
	r.setOpenCalls = append(r.setOpenCalls, blockID)
	if b, ok := r.blocks[blockID]; ok {
		b.BookingOpen = open
	}
	return nil
}

func (r *fakeBlockRepo) ReplaceEvents(_ context.Context, block *models.Block, eventIDs []uint) error {
	r.replacedEvents = append(r.replacedEvents, eventIDs)
	return nil
}

func (r *fakeBlockRepo) GetDB() *gorm.DB { return r.db }

type fakePaymentRepo struct {
	bookingTxns []*models.PaypalBookingTransaction
	blockTxns   []*models.PaypalBlockTransaction
	nextID      uint
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{nextID: 900}
}

func (r *fakePaymentRepo) CreateBookingTxn(_ context.Context, txn *models.PaypalBookingTransaction) error {
	r.nextID++
	txn.ID = r.nextID
	r.bookingTxns = append(r.bookingTxns, txn)
	return nil
}

func (r *fakePaymentRepo) ListBookingTxnsByPrefix(_ context.Context, prefix string, bookingID uint) ([]models.PaypalBookingTransaction, error) {
	var out []models.PaypalBookingTransaction
	// newest first, matching the invoice_id DESC ordering of the real repo
	for i := len(r.bookingTxns) - 1; i >= 0; i-- {
		t := r.bookingTxns[i]
		if t.BookingID == bookingID && strings.HasPrefix(t.InvoiceID, prefix) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) FindBookingTxnByInvoice(_ context.Context, invoiceID string) (*models.PaypalBookingTransaction, error) {
	for _, t := range r.bookingTxns {
		if t.InvoiceID == invoiceID {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePaymentRepo) InvoiceExists(_ context.Context, invoiceID string) (bool, error) {
	for _, t := range r.bookingTxns {
		if t.InvoiceID == invoiceID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePaymentRepo) SetBookingTxnID(_ context.Context, id uint, transactionID string) error {
	for _, t := range r.bookingTxns {
		if t.ID == id {
			t.TransactionID = &transactionID
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakePaymentRepo) CreateBlockTxn(_ context.Context, txn *models.PaypalBlockTransaction) error {
	r.nextID++
	txn.ID = r.nextID
	r.blockTxns = append(r.blockTxns, txn)
	return nil
}

func (r *fakePaymentRepo) ListBlockTxnsByPrefix(_ context.Context, prefix string, blockID uint) ([]models.PaypalBlockTransaction, error) {
	var out []models.PaypalBlockTransaction
	for i := len(r.blockTxns) - 1; i >= 0; i-- {
		t := r.blockTxns[i]
		if t.BlockID == blockID && strings.HasPrefix(t.InvoiceID, prefix) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) FindBlockTxnByInvoice(_ context.Context, invoiceID string) (*models.PaypalBlockTransaction, error) {
	for _, t := range r.blockTxns {
		if t.InvoiceID == invoiceID {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePaymentRepo) BlockInvoiceExists(_ context.Context, invoiceID string) (bool, error) {
	for _, t := range r.blockTxns {
		if t.InvoiceID == invoiceID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePaymentRepo) SetBlockTxnID(_ context.Context, id uint, transactionID string) error {
	for _, t := range r.blockTxns {
		if t.ID == id {
			t.TransactionID = &transactionID
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}
