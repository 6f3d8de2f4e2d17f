package withdrawal

import (
	"context"
	"errors"

	"mindwell/internal/logger"
	"mindwell/internal/metrics"
	"mindwell/internal/notification"
	"mindwell/internal/user"
	"mindwell/internal/wallet"
)

var (
	ErrNotReviewable = errors.New("withdrawal has already been reviewed")
	ErrNotPayable    = errors.New("withdrawal is not approved for payment")
)

type Service interface {
	Create(ctx context.Context, userID int, req CreateWithdrawalRequest) (*Withdrawal, error)
	Approve(ctx context.Context, adminID, withdrawalID int) (*Withdrawal, error)
	Reject(ctx context.Context, adminID, withdrawalID int, reason string) (*Withdrawal, error)
	CompletePayment(ctx context.Context, withdrawalID int, paymentProof string) (*Withdrawal, error)
	ListForUser(ctx context.Context, userID int) ([]Withdrawal, error)
	ListAll(ctx context.Context, status string) ([]Withdrawal, error)
}

type service struct {
	repo       Repository
	walletRepo wallet.Repository
	userRepo   user.Repository
	notifier   *notification.Service
	adminEmail string
}

func NewService(repo Repository, walletRepo wallet.Repository, userRepo user.Repository, notifier *notification.Service, adminEmail string) Service {
	return &service{
		repo:       repo,
		walletRepo: walletRepo,
		userRepo:   userRepo,
		notifier:   notifier,
		adminEmail: adminEmail,
	}
}

func (s *service) Create(ctx context.Context, userID int, req CreateWithdrawalRequest) (*Withdrawal, error) {
	// balance is only checked here for early feedback; the authoritative
	// check happens at approval when the funds actually leave
	w, err := s.walletRepo.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	if w.AvailableCents() < req.AmountCents {
		return nil, wallet.ErrInsufficientFunds
	}

	created, err := s.repo.Create(ctx, userID, req.AmountCents, req.PayoutMethod)
	if err != nil {
		return nil, err
	}

	metrics.RecordWithdrawal(StatusPending)
	logger.Info("withdrawal requested", "withdrawal_id", created.ID, "user_id", userID, "amount_cents", req.AmountCents)

	if s.adminEmail != "" {
		requester := ""
		if u, err := s.userRepo.FindByID(ctx, userID); err == nil {
			requester = u.Name
		}
		if err := s.notifier.WithdrawalRequested(ctx, s.adminEmail, requester, req.AmountCents); err != nil {
			logger.WithError(err).Error("failed to queue withdrawal review alert")
		}
	}

	return created, nil
}

// Approve debits the wallet and marks the request approved in a single
// repository transaction, so a lost review race can never leave an
// orphaned ledger row. The debit stays PENDING until the payout is
// confirmed.
func (s *service) Approve(ctx context.Context, adminID, withdrawalID int) (*Withdrawal, error) {
	w, err := s.repo.Approve(ctx, withdrawalID, adminID)
	if err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return nil, ErrNotReviewable
		}
		return nil, err
	}

	metrics.RecordWithdrawal(StatusApproved)
	logger.Info("withdrawal approved", "withdrawal_id", withdrawalID, "admin_id", adminID)

	s.notifyReviewed(ctx, w.UserID, StatusApproved, w.AmountCents)

	return w, nil
}

func (s *service) Reject(ctx context.Context, adminID, withdrawalID int, reason string) (*Withdrawal, error) {
	w, err := s.repo.GetByID(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}
	if w.Status != StatusPending {
		return nil, ErrNotReviewable
	}

	if err := s.repo.MarkRejected(ctx, withdrawalID, adminID, reason); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return nil, ErrNotReviewable
		}
		return nil, err
	}

	metrics.RecordWithdrawal(StatusRejected)
	logger.Info("withdrawal rejected", "withdrawal_id", withdrawalID, "admin_id", adminID, "reason", reason)

	s.notifyReviewed(ctx, w.UserID, StatusRejected, w.AmountCents)

	return s.repo.GetByID(ctx, withdrawalID)
}

// CompletePayment records the external payout confirmation and flips the
// linked ledger row from PENDING to COMPLETED.
func (s *service) CompletePayment(ctx context.Context, withdrawalID int, paymentProof string) (*Withdrawal, error) {
	w, err := s.repo.GetByID(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}
	if w.Status != StatusApproved {
		return nil, ErrNotPayable
	}

	if err := s.repo.MarkPaid(ctx, withdrawalID, paymentProof); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return nil, ErrNotPayable
		}
		return nil, err
	}

	if w.WalletTransactionID != nil {
		err := s.walletRepo.CompleteTransaction(ctx, *w.WalletTransactionID)
		if err != nil && !errors.Is(err, wallet.ErrTransactionNotFound) {
			return nil, err
		}
	}

	metrics.RecordWithdrawal(StatusCompleted)
	logger.Info("withdrawal paid", "withdrawal_id", withdrawalID)

	if u, err := s.userRepo.FindByID(ctx, w.UserID); err == nil {
		if err := s.notifier.WithdrawalPaid(ctx, u.Email, u.Name, w.AmountCents); err != nil {
			logger.WithError(err).Error("failed to queue withdrawal paid notification")
		}
	}

	return s.repo.GetByID(ctx, withdrawalID)
}

func (s *service) notifyReviewed(ctx context.Context, userID int, status string, amountCents int64) {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return
	}
	if err := s.notifier.WithdrawalReviewed(ctx, u.Email, u.Name, status, amountCents); err != nil {
		logger.WithError(err).Error("failed to queue withdrawal review notification")
	}
}

func (s *service) ListForUser(ctx context.Context, userID int) ([]Withdrawal, error) {
	return s.repo.ListForUser(ctx, userID)
}

func (s *service) ListAll(ctx context.Context, status string) ([]Withdrawal, error) {
	return s.repo.ListAll(ctx, status)
}
