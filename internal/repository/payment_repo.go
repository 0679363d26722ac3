package repository

import (
	"context"

	"github.com/watermelon-studio/studio-booking/internal/models"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	CreateBookingTxn(ctx context.Context, txn *models.PaypalBookingTransaction) error
	ListBookingTxnsByPrefix(ctx context.Context, prefix string, bookingID uint) ([]models.PaypalBookingTransaction, error)
	FindBookingTxnByInvoice(ctx context.Context, invoiceID string) (*models.PaypalBookingTransaction, error)
	InvoiceExists(ctx context.Context, invoiceID string) (bool, error)
	SetBookingTxnID(ctx context.Context, id uint, transactionID string) error

	CreateBlockTxn(ctx context.Context, txn *models.PaypalBlockTransaction) error
	ListBlockTxnsByPrefix(ctx context.Context, prefix string, blockID uint) ([]models.PaypalBlockTransaction, error)
	FindBlockTxnByInvoice(ctx context.Context, invoiceID string) (*models.PaypalBlockTransaction, error)
	BlockInvoiceExists(ctx context.Context, invoiceID string) (bool, error)
	SetBlockTxnID(ctx context.Context, id uint, transactionID string) error
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) CreateBookingTxn(ctx context.Context, txn *models.PaypalBookingTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

// ListBookingTxnsByPrefix returns transactions whose invoice id starts with
// the given prefix for one booking, highest invoice first.
func (r *paymentRepository) ListBookingTxnsByPrefix(ctx context.Context, prefix string, bookingID uint) ([]models.PaypalBookingTransaction, error) {
	var txns []models.PaypalBookingTransaction
	err := r.db.WithContext(ctx).
		Where("invoice_id LIKE ? AND booking_id = ?", prefix+"%", bookingID).
		Order("invoice_id DESC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *paymentRepository) FindBookingTxnByInvoice(ctx context.Context, invoiceID string) (*models.PaypalBookingTransaction, error) {
	var txn models.PaypalBookingTransaction
	err := r.db.WithContext(ctx).
		Preload("Booking").
		Where("invoice_id = ?", invoiceID).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *paymentRepository) InvoiceExists(ctx context.Context, invoiceID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PaypalBookingTransaction{}).
		Where("invoice_id = ?", invoiceID).
		Count(&count).Error
	return count > 0, err
}

func (r *paymentRepository) SetBookingTxnID(ctx context.Context, id uint, transactionID string) error {
	return r.db.WithContext(ctx).
		Model(&models.PaypalBookingTransaction{}).
		Where("id = ?", id).
		Update("transaction_id", transactionID).Error
}

func (r *paymentRepository) CreateBlockTxn(ctx context.Context, txn *models.PaypalBlockTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *paymentRepository) ListBlockTxnsByPrefix(ctx context.Context, prefix string, blockID uint) ([]models.PaypalBlockTransaction, error) {
	var txns []models.PaypalBlockTransaction
	err := r.db.WithContext(ctx).
		Where("invoice_id LIKE ? AND block_id = ?", prefix+"%", blockID).
		Order("invoice_id DESC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *paymentRepository) FindBlockTxnByInvoice(ctx context.Context, invoiceID string) (*models.PaypalBlockTransaction, error) {
	var txn models.PaypalBlockTransaction
	err := r.db.WithContext(ctx).
		Preload("Block").
		Where("invoice_id = ?", invoiceID).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *paymentRepository) BlockInvoiceExists(ctx context.Context, invoiceID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PaypalBlockTransaction{}).
		Where("invoice_id = ?", invoiceID).
		Count(&count).Error
	return count > 0, err
}

func (r *paymentRepository) SetBlockTxnID(ctx context.Context, id uint, transactionID string) error {
	return r.db.WithContext(ctx).
		Model(&models.PaypalBlockTransaction{}).
		Where("id = ?", id).
		Update("transaction_id", transactionID).Error
}
