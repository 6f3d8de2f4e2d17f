package session

import "context"

type Repository interface {
	Create(ctx context.Context, s *Session) (*Session, error)
	GetByID(ctx context.Context, id int) (*Session, error)
	UpdateStatus(ctx context.Context, id int, from, to string) error
	MarkLive(ctx context.Context, id int) error
	MarkCompleted(ctx context.Context, id int) (*Session, error)
	AddParticipant(ctx context.Context, sessionID, patientID int, holdCents int64) (*Participant, error)
	RemoveParticipant(ctx context.Context, sessionID, patientID int) error
	MarkParticipantSettled(ctx context.Context, sessionID, patientID int) error
	ListParticipants(ctx context.Context, sessionID int) ([]Participant, error)
	CountParticipants(ctx context.Context, sessionID int) (int, error)
	HasParticipant(ctx context.Context, sessionID, patientID int) (bool, error)
	ListForPatient(ctx context.Context, patientID int) ([]Session, error)
	ListForPsychologist(ctx context.Context, psychologistID int) ([]Session, error)
}
