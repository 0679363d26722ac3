package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"

	"github.com/watermelon-studio/studio-booking/config"
	"github.com/watermelon-studio/studio-booking/internal/models"
	"github.com/watermelon-studio/studio-booking/internal/notify"
	"github.com/watermelon-studio/studio-booking/internal/repository"
	"gorm.io/gorm"
)

// PaymentForm carries everything the frontend needs to render a gateway
// redirect form for one unpaid item.
type PaymentForm struct {
	ItemName  string            `json:"item_name"`
	Amount    float64           `json:"amount"`
	InvoiceID string            `json:"invoice_id"`
	Action    string            `json:"action"`
	Fields    map[string]string `json:"fields"`
}

// IPNParams is the subset of the gateway callback the service acts on.
type IPNParams struct {
	InvoiceID     string
	TransactionID string
	PaymentStatus string
	ReceiverEmail string
	Custom        string
}

type PaymentService interface {
	PendingPayments(ctx context.Context, actor Actor) ([]PaymentForm, error)
	BlockPaymentForm(ctx context.Context, actor Actor, blockID uint) (*PaymentForm, error)
	HandleIPN(ctx context.Context, params IPNParams) error
}

type paymentService struct {
	paymentRepo repository.PaymentRepository
	bookingRepo repository.BookingRepository
	blockRepo   repository.BlockRepository
	activity    repository.ActivityRepository
	publisher   notify.Publisher
	cfg         *config.Config
}

func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	bookingRepo repository.BookingRepository,
	blockRepo repository.BlockRepository,
	activity repository.ActivityRepository,
	publisher notify.Publisher,
	cfg *config.Config,
) PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		bookingRepo: bookingRepo,
		blockRepo:   blockRepo,
		activity:    activity,
		publisher:   publisher,
		cfg:         cfg,
	}
}

// bookingInvoice returns the invoice id to quote for a booking, reusing the
// latest generated invoice that the gateway has not confirmed yet so
// re-rendering the payments page does not mint a new id each time.
func (s *paymentService) bookingInvoice(ctx context.Context, booking *models.Booking, event *models.Event) (string, error) {
	prefix := invoicePrefix(booking.UserID, event.Name) + "-" + event.Date.Format("0201061504")

	existing, err := s.paymentRepo.ListBookingTxnsByPrefix(ctx, prefix, booking.ID)
	if err != nil {
		return "", err
	}
	if len(existing) > 0 && existing[0].TransactionID == nil {
		return existing[0].InvoiceID, nil
	}

	invoiceID, err := s.freshInvoice(prefix, len(existing)+1, func(candidate string) (bool, error) {
		return s.paymentRepo.InvoiceExists(ctx, candidate)
	})
	if err != nil {
		return "", err
	}
	err = s.paymentRepo.CreateBookingTxn(ctx, &models.PaypalBookingTransaction{
		InvoiceID: invoiceID,
		BookingID: booking.ID,
	})
	if err != nil {
		return "", err
	}
	return invoiceID, nil
}

func (s *paymentService) blockInvoice(ctx context.Context, userID string, block *models.Block) (string, error) {
	prefix := invoicePrefix(userID, block.Name)

	existing, err := s.paymentRepo.ListBlockTxnsByPrefix(ctx, prefix, block.ID)
	if err != nil {
		return "", err
	}
	if len(existing) > 0 && existing[0].TransactionID == nil {
		return existing[0].InvoiceID, nil
	}

	invoiceID, err := s.freshInvoice(prefix, len(existing)+1, func(candidate string) (bool, error) {
		return s.paymentRepo.BlockInvoiceExists(ctx, candidate)
	})
	if err != nil {
		return "", err
	}
	err = s.paymentRepo.CreateBlockTxn(ctx, &models.PaypalBlockTransaction{
		InvoiceID: invoiceID,
		BlockID:   block.ID,
	})
	if err != nil {
		return "", err
	}
	return invoiceID, nil
}

// freshInvoice appends the counter suffix and, if the candidate is somehow
// already taken, salts it with three random digits until it is unique.
func (s *paymentService) freshInvoice(prefix string, counter int, exists func(string) (bool, error)) (string, error) {
	candidate := fmt.Sprintf("%s-inv#%03d", prefix, counter)
	for {
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%03d-inv#%03d", prefix, rand.Intn(900)+100, counter)
	}
}

// invoicePrefix is "<username>-<initials of name>", e.g. "alice-PC" for
// Pole Conditioning. Ids are a reconciliation aid for the studio, not a
// security token.
func invoicePrefix(username, name string) string {
	return username + "-" + initials(name)
}

func (s *paymentService) PendingPayments(ctx context.Context, actor Actor) ([]PaymentForm, error) {
	bookings, err := s.bookingRepo.ListUnpaidByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	forms := make([]PaymentForm, 0, len(bookings))
	for i := range bookings {
		b := &bookings[i]
		if b.Event == nil || b.Cost == 0 {
			continue
		}
		invoiceID, err := s.bookingInvoice(ctx, b, b.Event)
		if err != nil {
			return nil, err
		}
		custom := fmt.Sprintf("booking %d %s", b.ID, actor.ID)
		forms = append(forms, s.form(b.Event.Name, b.Cost, invoiceID, custom))
	}
	return forms, nil
}

func (s *paymentService) BlockPaymentForm(ctx context.Context, actor Actor, blockID uint) (*PaymentForm, error) {
	block, err := s.blockRepo.FindByID(ctx, blockID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBlockNotFound
		}
		return nil, err
	}

	bookings, err := s.bookingRepo.ListOpenByUserAndBlock(ctx, nil, actor.ID, blockID)
	if err != nil {
		return nil, err
	}
	total := block.ItemCost * float64(len(bookings))

	invoiceID, err := s.blockInvoice(ctx, actor.ID, block)
	if err != nil {
		return nil, err
	}
	custom := fmt.Sprintf("block %d %s", block.ID, actor.ID)
	form := s.form(block.Name, total, invoiceID, custom)
	return &form, nil
}

func (s *paymentService) form(itemName string, amount float64, invoiceID, custom string) PaymentForm {
	return PaymentForm{
		ItemName:  itemName,
		Amount:    amount,
		InvoiceID: invoiceID,
		Action:    s.cfg.PaypalHost,
		Fields: map[string]string{
			"cmd":           "_xclick",
			"business":      s.cfg.PaypalReceiver,
			"item_name":     itemName,
			"amount":        strconv.FormatFloat(amount, 'f', 2, 64),
			"currency_code": "GBP",
			"invoice":       invoiceID,
			"custom":        custom,
			"notify_url":    s.cfg.SiteURL + "/api/payments/ipn",
			"return":        s.cfg.SiteURL + "/payments/complete",
		},
	}
}

// HandleIPN records the gateway confirmation for an invoice. Transaction
// rows are append-only: a row that already carries a transaction id is
// never touched, and a repeated callback for the same transaction is a
// no-op.
func (s *paymentService) HandleIPN(ctx context.Context, params IPNParams) error {
	if !strings.EqualFold(params.ReceiverEmail, s.cfg.PaypalReceiver) {
		return ErrPaymentMismatch
	}
	if params.PaymentStatus != "Completed" {
		logActivity(ctx, s.activity, "Ignored gateway callback for invoice %s (status %s)",
			params.InvoiceID, params.PaymentStatus)
		return nil
	}

	kind, _, userID, ok := parseCustom(params.Custom)
	if !ok {
		return ErrPaymentMismatch
	}

	switch kind {
	case "booking":
		return s.confirmBookingPayment(ctx, params, userID)
	case "block":
		return s.confirmBlockPayment(ctx, params, userID)
	default:
		return ErrPaymentMismatch
	}
}

func (s *paymentService) confirmBookingPayment(ctx context.Context, params IPNParams, userID string) error {
	txn, err := s.paymentRepo.FindBookingTxnByInvoice(ctx, params.InvoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPaymentMismatch
		}
		return err
	}
	if txn.TransactionID != nil {
		if *txn.TransactionID == params.TransactionID {
			return nil
		}
		return ErrPaymentMismatch
	}
	if txn.Booking == nil || txn.Booking.UserID != userID {
		return ErrPaymentMismatch
	}

	if err := s.paymentRepo.SetBookingTxnID(ctx, txn.ID, params.TransactionID); err != nil {
		return err
	}

	booking := txn.Booking
	booking.Paid = true
	booking.PaymentConfirmed = true
	stampPaymentConfirmed(booking)
	if err := s.bookingRepo.Save(ctx, s.bookingRepo.GetDB(), booking); err != nil {
		return err
	}

	logActivity(ctx, s.activity, "Gateway payment received for booking %d (invoice %s)",
		booking.ID, params.InvoiceID)
	s.publish(notify.KeyBookingPaid, notify.BookingMessage{
		BookingID:    booking.ID,
		EventID:      booking.EventID,
		UserID:       booking.UserID,
		Cost:         booking.Cost,
		Paid:         true,
		NotifyStudio: true,
	})
	return nil
}

func (s *paymentService) confirmBlockPayment(ctx context.Context, params IPNParams, userID string) error {
	txn, err := s.paymentRepo.FindBlockTxnByInvoice(ctx, params.InvoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPaymentMismatch
		}
		return err
	}
	if txn.TransactionID != nil {
		if *txn.TransactionID == params.TransactionID {
			return nil
		}
		return ErrPaymentMismatch
	}

	if err := s.paymentRepo.SetBlockTxnID(ctx, txn.ID, params.TransactionID); err != nil {
		return err
	}

	err = s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bookings, err := s.bookingRepo.ListOpenByUserAndBlock(ctx, tx, userID, txn.BlockID)
		if err != nil {
			return err
		}
		for i := range bookings {
			bookings[i].Paid = true
			bookings[i].PaymentConfirmed = true
			stampPaymentConfirmed(&bookings[i])
			bookings[i].Event = nil
			bookings[i].Block = nil
			if err := s.bookingRepo.Save(ctx, tx, &bookings[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logActivity(ctx, s.activity, "Gateway payment received for block %d (invoice %s)",
		txn.BlockID, params.InvoiceID)
	return nil
}

func (s *paymentService) publish(key string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(key, payload); err != nil {
		// the payment is already recorded; the mail is best-effort
		log.Printf("[notify] publish %s: %v", key, err)
	}
}

// parseCustom splits the pass-through custom field we set on the payment
// form: "<booking|block> <id> <user id>".
func parseCustom(custom string) (kind string, id uint, userID string, ok bool) {
	parts := strings.Fields(custom)
	if len(parts) != 3 {
		return "", 0, "", false
	}
	n, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return "", 0, "", false
	}
	return parts[0], uint(n), parts[2], true
}
