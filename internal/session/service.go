package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mindwell/internal/auth"
	"mindwell/internal/calendar"
	"mindwell/internal/logger"
	"mindwell/internal/metrics"
	"mindwell/internal/notification"
	"mindwell/internal/pricing"
	"mindwell/internal/settlement"
	"mindwell/internal/user"
	"mindwell/internal/wallet"
)

var (
	ErrPsychologistNotFound = errors.New("psychologist not found")
	ErrInvalidSchedule      = errors.New("invalid schedule")
	ErrInvalidTransition    = errors.New("session is not in a state that allows this")
	ErrNotAllowed           = errors.New("not allowed for this session")
	ErrSessionFull          = errors.New("session is full")
	ErrAlreadyJoined        = errors.New("already joined this session")
	ErrNotGroupSession      = errors.New("not a group session")
)

type Service interface {
	Request(ctx context.Context, patientID int, req RequestSessionRequest) (*Session, int64, error)
	Accept(ctx context.Context, psychologistID, sessionID int) error
	Reject(ctx context.Context, psychologistID, sessionID int) error
	Cancel(ctx context.Context, userID, sessionID int) error
	Start(ctx context.Context, psychologistID, sessionID int) error
	Complete(ctx context.Context, psychologistID, sessionID int) (*CompleteSessionResponse, error)
	Resettle(ctx context.Context, sessionID int) (*CompleteSessionResponse, error)
	CreateGroup(ctx context.Context, psychologistID int, req CreateGroupRequest) (*Session, error)
	JoinGroup(ctx context.Context, patientID, sessionID int) (*Session, int64, error)
	Get(ctx context.Context, userID, sessionID int) (*SessionDetail, error)
	ListForPatient(ctx context.Context, patientID int) ([]Session, error)
	ListForPsychologist(ctx context.Context, psychologistID int) ([]Session, error)
}

type service struct {
	repo          Repository
	pricingRepo   pricing.Repository
	userRepo      user.Repository
	walletRepo    wallet.Repository
	settlementSvc settlement.Service
	notifier      *notification.Service
	calendarRepo  calendar.Repository
}

func NewService(
	repo Repository,
	pricingRepo pricing.Repository,
	userRepo user.Repository,
	walletRepo wallet.Repository,
	settlementSvc settlement.Service,
	notifier *notification.Service,
	calendarRepo calendar.Repository,
) Service {
	return &service{
		repo:          repo,
		pricingRepo:   pricingRepo,
		userRepo:      userRepo,
		walletRepo:    walletRepo,
		settlementSvc: settlementSvc,
		notifier:      notifier,
		calendarRepo:  calendarRepo,
	}
}

func referenceID(sessionID int) string {
	return fmt.Sprintf("session:%d", sessionID)
}

// holdAmount is the full-session price reserved up front. Demo minutes
// and the actual elapsed time are only known at settlement, so the hold
// is always the worst case.
func holdAmount(priceCents int64, durationMinutes int, hourlyRateCents int64) int64 {
	rate := settlement.PerMinuteRate(priceCents, durationMinutes, hourlyRateCents)
	return rate * int64(durationMinutes)
}

// billableMinutes derives the elapsed session time, clamped to the
// scheduled duration so an overrunning session never charges past the
// amount that was reserved.
func billableMinutes(s *Session) int {
	if s.StartedAt == nil || s.EndedAt == nil {
		return 0
	}
	minutes := int(s.EndedAt.Sub(*s.StartedAt).Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	if minutes > s.DurationMinutes {
		minutes = s.DurationMinutes
	}
	return minutes
}

func (s *service) Request(ctx context.Context, patientID int, req RequestSessionRequest) (*Session, int64, error) {
	psychologist, err := s.userRepo.FindByID(ctx, req.PsychologistID)
	if err != nil || psychologist.Role != auth.RolePsychologist {
		return nil, 0, ErrPsychologistNotFound
	}

	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		return nil, 0, ErrInvalidSchedule
	}
	if scheduledAt.Before(time.Now()) {
		return nil, 0, ErrInvalidSchedule
	}

	var priceCents int64
	duration := req.DurationMinutes
	var optionID *int
	if req.ServiceOptionID != nil {
		opt, err := s.pricingRepo.GetByID(ctx, *req.ServiceOptionID)
		if err != nil {
			return nil, 0, pricing.ErrOptionNotFound
		}
		if opt.PsychologistID != req.PsychologistID || !opt.IsActive {
			return nil, 0, pricing.ErrOptionNotFound
		}
		priceCents = opt.PriceCents
		duration = opt.DurationMinutes
		optionID = req.ServiceOptionID
	}
	if duration <= 0 {
		return nil, 0, ErrInvalidSchedule
	}

	hold := holdAmount(priceCents, duration, psychologist.HourlyRateCents)

	created, err := s.repo.Create(ctx, &Session{
		PsychologistID:  req.PsychologistID,
		PatientID:       &patientID,
		ServiceOptionID: optionID,
		Type:            TypeOneOnOne,
		Status:          StatusPending,
		ScheduledAt:     scheduledAt,
		DurationMinutes: duration,
		PriceCents:      priceCents,
		MaxParticipants: 1,
	})
	if err != nil {
		return nil, 0, err
	}

	ref := referenceID(created.ID)
	if _, err := s.repo.AddParticipant(ctx, created.ID, patientID, hold); err != nil {
		return nil, 0, err
	}

	if err := s.walletRepo.Reserve(ctx, patientID, hold, ref); err != nil {
		// funds could not be reserved, so the request never becomes visible
		if rmErr := s.repo.RemoveParticipant(ctx, created.ID, patientID); rmErr != nil {
			logger.WithError(rmErr).Error("failed to remove participant after reserve failure")
		}
		if stErr := s.repo.UpdateStatus(ctx, created.ID, StatusPending, StatusCancelled); stErr != nil {
			logger.WithError(stErr).Error("failed to cancel session after reserve failure")
		}
		return nil, 0, err
	}

	metrics.RecordSessionTransition(StatusPending)

	patient, err := s.userRepo.FindByID(ctx, patientID)
	if err == nil {
		if err := s.notifier.SessionRequested(ctx, psychologist.Email, psychologist.Name, patient.Name, scheduledAt); err != nil {
			logger.WithError(err).Error("failed to queue session request notification")
		}
	}

	return created, hold, nil
}

func (s *service) Accept(ctx context.Context, psychologistID, sessionID int) error {
	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.PsychologistID != psychologistID {
		return ErrNotAllowed
	}

	if err := s.repo.UpdateStatus(ctx, sessionID, StatusPending, StatusScheduled); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return ErrInvalidTransition
		}
		return err
	}

	metrics.RecordSessionTransition(StatusScheduled)

	psychologist, psyErr := s.userRepo.FindByID(ctx, psychologistID)
	ref := referenceID(sessionID)
	title := "Session with " + psychologistName(psychologist, psyErr)

	if sess.PatientID != nil {
		if patient, err := s.userRepo.FindByID(ctx, *sess.PatientID); err == nil {
			if psyErr == nil {
				if err := s.notifier.SessionAccepted(ctx, patient.Email, patient.Name, psychologist.Name, sess.ScheduledAt); err != nil {
					logger.WithError(err).Error("failed to queue session accepted notification")
				}
			}
			if _, err := s.calendarRepo.CreateEvent(ctx, patient.ID, title, sess.ScheduledAt, sess.DurationMinutes, ref); err != nil {
				logger.WithError(err).Error("failed to create patient calendar event")
			}
		}
	}
	if _, err := s.calendarRepo.CreateEvent(ctx, psychologistID, "Patient session", sess.ScheduledAt, sess.DurationMinutes, ref); err != nil {
		logger.WithError(err).Error("failed to create psychologist calendar event")
	}

	return nil
}

func psychologistName(u *user.User, err error) string {
	if err != nil || u == nil {
		return "your psychologist"
	}
	return u.Name
}

// Reject declines a pending request. A declined request is a
// cancellation before scheduling: the session ends CANCELLED and every
// hold goes back to its patient.
func (s *service) Reject(ctx context.Context, psychologistID, sessionID int) error {
	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.PsychologistID != psychologistID {
		return ErrNotAllowed
	}

	if err := s.repo.UpdateStatus(ctx, sessionID, StatusPending, StatusCancelled); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return ErrInvalidTransition
		}
		return err
	}

	metrics.RecordSessionTransition(StatusCancelled)

	s.releaseHolds(ctx, sess)
	s.notifyCancelled(ctx, sess)

	return nil
}

func (s *service) Cancel(ctx context.Context, userID, sessionID int) error {
	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}

	if sess.PsychologistID != userID {
		isParticipant, err := s.repo.HasParticipant(ctx, sessionID, userID)
		if err != nil {
			return err
		}
		if !isParticipant {
			return ErrNotAllowed
		}
	}

	if sess.Status != StatusPending && sess.Status != StatusScheduled {
		return ErrInvalidTransition
	}

	if err := s.repo.UpdateStatus(ctx, sessionID, sess.Status, StatusCancelled); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return ErrInvalidTransition
		}
		return err
	}

	metrics.RecordSessionTransition(StatusCancelled)

	s.releaseHolds(ctx, sess)
	s.notifyCancelled(ctx, sess)

	if err := s.calendarRepo.DeleteByReference(ctx, referenceID(sessionID)); err != nil {
		logger.WithError(err).Error("failed to remove calendar events for cancelled session")
	}

	return nil
}

// releaseHolds returns every participant's escrow hold. No money moved
// at booking time, so cancellation is a release, not a refund.
func (s *service) releaseHolds(ctx context.Context, sess *Session) {
	ref := referenceID(sess.ID)
	participants, err := s.repo.ListParticipants(ctx, sess.ID)
	if err != nil {
		logger.WithError(err).Error("failed to list participants for hold release")
		return
	}
	for _, p := range participants {
		if err := s.walletRepo.Release(ctx, p.PatientID, p.HoldCents, ref); err != nil {
			logger.WithFields(map[string]interface{}{
				"session_id": sess.ID,
				"patient_id": p.PatientID,
			}).Error("failed to release hold: " + err.Error())
		}
	}
}

func (s *service) notifyCancelled(ctx context.Context, sess *Session) {
	participants, err := s.repo.ListParticipants(ctx, sess.ID)
	if err != nil {
		return
	}
	for _, p := range participants {
		patient, err := s.userRepo.FindByID(ctx, p.PatientID)
		if err != nil {
			continue
		}
		if err := s.notifier.SessionCancelled(ctx, patient.Email, patient.Name, sess.ScheduledAt); err != nil {
			logger.WithError(err).Error("failed to queue session cancelled notification")
		}
	}
}

func (s *service) Start(ctx context.Context, psychologistID, sessionID int) error {
	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.PsychologistID != psychologistID {
		return ErrNotAllowed
	}

	if err := s.repo.MarkLive(ctx, sessionID); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return ErrInvalidTransition
		}
		return err
	}

	metrics.RecordSessionTransition(StatusLive)
	return nil
}

func (s *service) Complete(ctx context.Context, psychologistID, sessionID int) (*CompleteSessionResponse, error) {
	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.PsychologistID != psychologistID {
		return nil, ErrNotAllowed
	}

	completed, err := s.repo.MarkCompleted(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}

	metrics.RecordSessionTransition(StatusCompleted)

	settlements, err := s.settleParticipants(ctx, completed)
	if err != nil {
		return nil, err
	}

	return &CompleteSessionResponse{Session: completed, Settlements: settlements}, nil
}

// Resettle retries settlement for the unsettled participants of a
// completed session. A settlement that failed at completion time leaves
// the patient's hold in escrow; this is the repair path that converts it
// without touching participants who already settled.
func (s *service) Resettle(ctx context.Context, sessionID int) (*CompleteSessionResponse, error) {
	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != StatusCompleted {
		return nil, ErrInvalidTransition
	}

	settlements, err := s.settleParticipants(ctx, sess)
	if err != nil {
		return nil, err
	}

	return &CompleteSessionResponse{Session: sess, Settlements: settlements}, nil
}

// settleParticipants converts every unsettled hold of sess into a charge
// and payout. Each participant settles independently; a failure is
// reported in the result and leaves that participant unsettled so a
// later retry can pick it up.
func (s *service) settleParticipants(ctx context.Context, sess *Session) ([]ParticipantSettlement, error) {
	psychologist, err := s.userRepo.FindByID(ctx, sess.PsychologistID)
	if err != nil {
		return nil, fmt.Errorf("load psychologist: %w", err)
	}

	elapsed := billableMinutes(sess)
	rate := settlement.PerMinuteRate(sess.PriceCents, sess.DurationMinutes, psychologist.HourlyRateCents)
	ref := referenceID(sess.ID)

	participants, err := s.repo.ListParticipants(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	settlements := make([]ParticipantSettlement, 0, len(participants))
	for _, p := range participants {
		if p.Settled {
			settlements = append(settlements, ParticipantSettlement{PatientID: p.PatientID, Settled: true})
			continue
		}

		result, err := s.settlementSvc.Settle(ctx, p.PatientID, sess.PsychologistID, elapsed, rate, p.HoldCents, ref)
		if err != nil {
			// one participant failing must not block the rest
			logger.WithFields(map[string]interface{}{
				"session_id": sess.ID,
				"patient_id": p.PatientID,
			}).Error("settlement failed: " + err.Error())
			settlements = append(settlements, ParticipantSettlement{PatientID: p.PatientID, Settled: false})
			continue
		}

		if err := s.repo.MarkParticipantSettled(ctx, sess.ID, p.PatientID); err != nil && !errors.Is(err, ErrStatusConflict) {
			logger.WithError(err).Error("failed to record participant settlement")
		}

		settlements = append(settlements, ParticipantSettlement{PatientID: p.PatientID, Settled: true, Result: result})

		if patient, err := s.userRepo.FindByID(ctx, p.PatientID); err == nil {
			if err := s.notifier.SessionReceipt(ctx, patient.Email, patient.Name, result.Quote.GrossCents, result.Split.DemoUsed, result.Split.ChargeableMinutes); err != nil {
				logger.WithError(err).Error("failed to queue session receipt")
			}
		}
	}

	return settlements, nil
}

func (s *service) CreateGroup(ctx context.Context, psychologistID int, req CreateGroupRequest) (*Session, error) {
	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		return nil, ErrInvalidSchedule
	}
	if scheduledAt.Before(time.Now()) {
		return nil, ErrInvalidSchedule
	}

	created, err := s.repo.Create(ctx, &Session{
		PsychologistID:  psychologistID,
		Type:            TypeGroup,
		Status:          StatusScheduled,
		Topic:           req.Topic,
		ScheduledAt:     scheduledAt,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
		MaxParticipants: req.MaxParticipants,
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordSessionTransition(StatusScheduled)

	if _, err := s.calendarRepo.CreateEvent(ctx, psychologistID, req.Topic, scheduledAt, req.DurationMinutes, referenceID(created.ID)); err != nil {
		logger.WithError(err).Error("failed to create group calendar event")
	}

	return created, nil
}

func (s *service) JoinGroup(ctx context.Context, patientID, sessionID int) (*Session, int64, error) {
	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}
	if sess.Type != TypeGroup {
		return nil, 0, ErrNotGroupSession
	}
	if sess.Status != StatusScheduled {
		return nil, 0, ErrInvalidTransition
	}

	alreadyJoined, err := s.repo.HasParticipant(ctx, sessionID, patientID)
	if err != nil {
		return nil, 0, err
	}
	if alreadyJoined {
		return nil, 0, ErrAlreadyJoined
	}

	count, err := s.repo.CountParticipants(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}
	if count >= sess.MaxParticipants {
		return nil, 0, ErrSessionFull
	}

	psychologist, err := s.userRepo.FindByID(ctx, sess.PsychologistID)
	if err != nil {
		return nil, 0, ErrPsychologistNotFound
	}

	hold := holdAmount(sess.PriceCents, sess.DurationMinutes, psychologist.HourlyRateCents)
	ref := referenceID(sessionID)

	if _, err := s.repo.AddParticipant(ctx, sessionID, patientID, hold); err != nil {
		return nil, 0, err
	}

	if err := s.walletRepo.Reserve(ctx, patientID, hold, ref); err != nil {
		if rmErr := s.repo.RemoveParticipant(ctx, sessionID, patientID); rmErr != nil {
			logger.WithError(rmErr).Error("failed to remove participant after reserve failure")
		}
		return nil, 0, err
	}

	if patient, err := s.userRepo.FindByID(ctx, patientID); err == nil {
		if _, err := s.calendarRepo.CreateEvent(ctx, patient.ID, sess.Topic, sess.ScheduledAt, sess.DurationMinutes, ref); err != nil {
			logger.WithError(err).Error("failed to create patient calendar event")
		}
	}

	return sess, hold, nil
}

func (s *service) Get(ctx context.Context, userID, sessionID int) (*SessionDetail, error) {
	sess, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if sess.PsychologistID != userID {
		isParticipant, err := s.repo.HasParticipant(ctx, sessionID, userID)
		if err != nil {
			return nil, err
		}
		if !isParticipant {
			return nil, ErrNotAllowed
		}
	}

	participants, err := s.repo.ListParticipants(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &SessionDetail{Session: sess, Participants: participants}, nil
}

func (s *service) ListForPatient(ctx context.Context, patientID int) ([]Session, error) {
	return s.repo.ListForPatient(ctx, patientID)
}

func (s *service) ListForPsychologist(ctx context.Context, psychologistID int) ([]Session, error) {
	return s.repo.ListForPsychologist(ctx, psychologistID)
}
