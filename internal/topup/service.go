package topup

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"mindwell/internal/logger"
	"mindwell/internal/metrics"
	"mindwell/internal/notification"
	"mindwell/internal/user"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrSignatureMismatch = errors.New("callback signature mismatch")
	ErrAmountMismatch    = errors.New("callback amount does not match topup")
	ErrPaymentFailed     = errors.New("payment was not completed at the gateway")
	ErrBadCallback       = errors.New("malformed callback payload")
)

type Service interface {
	Initiate(ctx context.Context, userID int, amountCents int64) (*InitiateResponse, error)
	Verify(ctx context.Context, encodedData string) (*Topup, error)
	List(ctx context.Context, userID, limit, offset int) ([]Topup, error)
}

type service struct {
	repo        Repository
	userRepo    user.Repository
	notifier    *notification.Service
	secretKey   string
	productCode string
	gatewayURL  string
}

func NewService(repo Repository, userRepo user.Repository, notifier *notification.Service, secretKey, productCode, gatewayURL string) Service {
	return &service{
		repo:        repo,
		userRepo:    userRepo,
		notifier:    notifier,
		secretKey:   secretKey,
		productCode: productCode,
		gatewayURL:  gatewayURL,
	}
}

// rupees renders a cent amount the way the gateway expects, without a
// forced decimal point ("500" rather than "500.00", "500.5" for 50050).
func rupees(amountCents int64) string {
	return decimal.NewFromInt(amountCents).Div(decimal.NewFromInt(100)).String()
}

func parseRupees(s string) (int64, error) {
	// gateway amounts sometimes arrive with thousands separators
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0, err
	}
	return d.Mul(decimal.NewFromInt(100)).IntPart(), nil
}

func (s *service) Initiate(ctx context.Context, userID int, amountCents int64) (*InitiateResponse, error) {
	orderID := uuid.NewString()

	t, err := s.repo.Create(ctx, orderID, userID, amountCents)
	if err != nil {
		return nil, err
	}

	totalAmount := rupees(amountCents)
	message := "total_amount=" + totalAmount + ",transaction_uuid=" + orderID + ",product_code=" + s.productCode

	logger.Info("topup initiated", "order_id", orderID, "user_id", userID, "amount_cents", amountCents)

	return &InitiateResponse{
		OrderID:    t.OrderID,
		GatewayURL: s.gatewayURL,
		Fields: map[string]string{
			"amount":                  totalAmount,
			"tax_amount":              "0",
			"total_amount":            totalAmount,
			"transaction_uuid":        orderID,
			"product_code":            s.productCode,
			"product_service_charge":  "0",
			"product_delivery_charge": "0",
			"signed_field_names":      "total_amount,transaction_uuid,product_code",
			"signature":               esewaSignature(message, s.secretKey),
		},
	}, nil
}

// Verify reconciles a gateway callback against the pending topup. The
// signature check runs before anything else touches the database state,
// and the credit itself is guarded so a replayed callback is a no-op.
func (s *service) Verify(ctx context.Context, encodedData string) (*Topup, error) {
	data, err := decodeCallbackData(encodedData)
	if err != nil {
		return nil, ErrBadCallback
	}

	var cb esewaCallback
	if err := json.Unmarshal(data, &cb); err != nil {
		return nil, ErrBadCallback
	}
	if cb.TransactionUUID == "" || cb.SignedFieldNames == "" {
		return nil, ErrBadCallback
	}

	if !cb.verify(s.secretKey) {
		logger.Error("topup callback signature mismatch", "order_id", cb.TransactionUUID)
		return nil, ErrSignatureMismatch
	}

	t, err := s.repo.GetByOrderID(ctx, cb.TransactionUUID)
	if err != nil {
		return nil, err
	}

	amountCents, err := parseRupees(cb.TotalAmount)
	if err != nil || amountCents != t.AmountCents {
		logger.Error("topup callback amount mismatch",
			"order_id", t.OrderID,
			"expected_cents", t.AmountCents,
			"callback_amount", cb.TotalAmount,
		)
		return nil, ErrAmountMismatch
	}

	if cb.Status != "COMPLETE" {
		if err := s.repo.Fail(ctx, t.OrderID); err != nil {
			logger.WithError(err).Error("failed to mark topup failed")
		}
		metrics.RecordTopup("failed")
		return nil, ErrPaymentFailed
	}

	completed, err := s.repo.CompleteAndCredit(ctx, t.OrderID, cb.TransactionCode)
	if errors.Is(err, ErrAlreadyCompleted) {
		// replayed callback: the money is already in the wallet
		return t, nil
	}
	if err != nil {
		return nil, err
	}

	metrics.RecordTopup("completed")
	logger.Info("topup completed", "order_id", completed.OrderID, "user_id", completed.UserID, "amount_cents", completed.AmountCents)

	if u, err := s.userRepo.FindByID(ctx, completed.UserID); err == nil {
		if err := s.notifier.TopupCompleted(ctx, u.Email, u.Name, completed.AmountCents); err != nil {
			logger.WithError(err).Error("failed to queue topup notification")
		}
	}

	return completed, nil
}

func (s *service) List(ctx context.Context, userID, limit, offset int) ([]Topup, error) {
	return s.repo.ListForUser(ctx, userID, limit, offset)
}
