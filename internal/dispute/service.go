package dispute

import (
	"context"
	"errors"

	"mindwell/internal/logger"
	"mindwell/internal/metrics"
	"mindwell/internal/notification"
	"mindwell/internal/session"
	"mindwell/internal/user"
)

var (
	ErrNotParticipant      = errors.New("only a session participant can open a dispute")
	ErrSessionNotCompleted = errors.New("only completed sessions can be disputed")
	ErrAlreadyDisputed     = errors.New("dispute already open for this session")
	ErrAlreadyResolved     = errors.New("dispute has already been resolved")
)

type Service interface {
	Create(ctx context.Context, reporterID int, req CreateDisputeRequest) (*Dispute, error)
	Resolve(ctx context.Context, adminID, disputeID int, req ResolveDisputeRequest) (*Dispute, error)
	ListForUser(ctx context.Context, reporterID int) ([]Dispute, error)
	ListAll(ctx context.Context, status string) ([]Dispute, error)
}

type service struct {
	repo        Repository
	sessionRepo session.Repository
	userRepo    user.Repository
	notifier    *notification.Service
}

func NewService(repo Repository, sessionRepo session.Repository, userRepo user.Repository, notifier *notification.Service) Service {
	return &service{
		repo:        repo,
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		notifier:    notifier,
	}
}

func (s *service) Create(ctx context.Context, reporterID int, req CreateDisputeRequest) (*Dispute, error) {
	sess, err := s.sessionRepo.GetByID(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != session.StatusCompleted {
		return nil, ErrSessionNotCompleted
	}

	// the disputed amount is what the reporter had at stake
	participants, err := s.sessionRepo.ListParticipants(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	var amountCents int64 = -1
	for _, p := range participants {
		if p.PatientID == reporterID {
			amountCents = p.HoldCents
			break
		}
	}
	if amountCents < 0 {
		return nil, ErrNotParticipant
	}

	exists, err := s.repo.Exists(ctx, req.SessionID, reporterID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyDisputed
	}

	d, err := s.repo.Create(ctx, req.SessionID, reporterID, amountCents, req.Reason)
	if err != nil {
		return nil, err
	}

	logger.Info("dispute opened", "dispute_id", d.ID, "session_id", req.SessionID, "reporter_id", reporterID)
	return d, nil
}

// Resolve closes a dispute. A REFUND resolution commits the status flip
// and the wallet credit in one repository transaction, so resolving the
// same dispute twice can never refund twice and a failed credit leaves
// the dispute PENDING for a retry.
func (s *service) Resolve(ctx context.Context, adminID, disputeID int, req ResolveDisputeRequest) (*Dispute, error) {
	d, err := s.repo.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if d.Status != StatusPending {
		return nil, ErrAlreadyResolved
	}

	if req.Resolution == ResolutionRefund {
		err = s.repo.MarkRefunded(ctx, disputeID, adminID, req.Note)
	} else {
		err = s.repo.MarkResolved(ctx, disputeID, adminID, StatusDismissed, req.Note)
	}
	if err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return nil, ErrAlreadyResolved
		}
		return nil, err
	}

	metrics.RecordDispute(req.Resolution)
	logger.Info("dispute resolved", "dispute_id", disputeID, "admin_id", adminID, "resolution", req.Resolution)

	if u, err := s.userRepo.FindByID(ctx, d.ReporterID); err == nil {
		if err := s.notifier.DisputeResolved(ctx, u.Email, u.Name, req.Resolution); err != nil {
			logger.WithError(err).Error("failed to queue dispute notification")
		}
	}

	return s.repo.GetByID(ctx, disputeID)
}

func (s *service) ListForUser(ctx context.Context, reporterID int) ([]Dispute, error) {
	return s.repo.ListForUser(ctx, reporterID)
}

func (s *service) ListAll(ctx context.Context, status string) ([]Dispute, error) {
	return s.repo.ListAll(ctx, status)
}
