package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"mindwell/internal/logger"
	"mindwell/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey  = "notifications"
	failedKey = "notifications:failed"
)

type Job struct {
	Type    string    `json:"type"`
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type Service struct {
	redis    *redis.Client
	from     string
	fromName string
	smtpHost string
	smtpPort string
	smtpUser string
	smtpPass string
}

func New(fromEmail, fromName, smtpHost, smtpPort, smtpUser, smtpPass, redisAddr string) *Service {
	return &Service{
		redis: redis.NewClient(&redis.Options{
			Addr: redisAddr,
		}),
		from:     fromEmail,
		fromName: fromName,
		smtpHost: smtpHost,
		smtpPort: smtpPort,
		smtpUser: smtpUser,
		smtpPass: smtpPass,
	}
}

func (s *Service) Send(ctx context.Context, jobType, to, name, subject, body string) error {
	job := Job{
		Type:    jobType,
		To:      to,
		Name:    name,
		Subject: subject,
		Body:    body,
		Tries:   0,
		Created: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		logger.Errorf("Failed to marshal notification job: %v", err)
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, data).Err(); err != nil {
		logger.Errorf("Failed to queue notification to %s: %v", to, err)
		return err
	}

	logger.Infof("Notification queued: %s to %s", subject, to)
	return nil
}

func (s *Service) Start(ctx context.Context) {
	logger.Info("Notification service started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Notification service stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	if length, err := s.redis.LLen(ctx, queueKey).Result(); err == nil {
		metrics.NotificationQueueLength.Set(float64(length))
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad notification data: %v", err)
		return
	}

	job.Tries++
	logger.Infof("Sending notification to %s (attempt %d)", job.To, job.Tries)
	if err := s.sendNow(job); err != nil {
		logger.Errorf("Failed to send notification to %s: %v", job.To, err)

		if job.Tries < 3 {
			time.Sleep(5 * time.Second)
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, data)
			logger.Infof("Retrying notification to %s (attempt %d)", job.To, job.Tries+1)
		} else {
			logger.Errorf("Notification to %s failed after 3 attempts", job.To)
			metrics.RecordNotification(job.Type, "failed")
			s.saveFailed(job, err)
		}
		return
	}

	metrics.RecordNotification(job.Type, "sent")
	logger.Infof("Notification sent successfully to %s", job.To)
}

func (s *Service) sendNow(job Job) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.fromName, s.from)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.smtpUser != "" && s.smtpPass != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPass, s.smtpHost)
	}

	addr := s.smtpHost + ":" + s.smtpPort
	return smtp.SendMail(addr, auth, s.from, []string{job.To}, []byte(message))
}

func (s *Service) saveFailed(job Job, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedKey, data)
	logger.Errorf("Notification moved to failed queue: %s", job.To)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}

func (s *Service) SessionRequested(ctx context.Context, email, name, patientName string, when time.Time) error {
	subject := "New Session Request"
	body := fmt.Sprintf(`Hi %s,

%s has requested a session with you.

Time: %s

Accept or decline the request from your dashboard.

- MindWell Team`, name, patientName, when.Format("Jan 2, 2006 at 3:04 PM"))

	return s.Send(ctx, "session_requested", email, name, subject, body)
}

func (s *Service) SessionAccepted(ctx context.Context, email, name, psychologistName string, when time.Time) error {
	subject := "Session Confirmed"
	body := fmt.Sprintf(`Hi %s,

Your session with %s is confirmed.

Time: %s

- MindWell Team`, name, psychologistName, when.Format("Jan 2, 2006 at 3:04 PM"))

	return s.Send(ctx, "session_accepted", email, name, subject, body)
}

func (s *Service) SessionCancelled(ctx context.Context, email, name string, when time.Time) error {
	subject := "Session Cancelled"
	body := fmt.Sprintf(`Hi %s,

Your session scheduled for %s has been cancelled. Any reserved funds have been returned to your wallet.

- MindWell Team`, name, when.Format("Jan 2, 2006 at 3:04 PM"))

	return s.Send(ctx, "session_cancelled", email, name, subject, body)
}

func (s *Service) SessionReceipt(ctx context.Context, email, name string, chargedCents int64, demoMinutes, chargeableMinutes int) error {
	subject := "Session Receipt"
	body := fmt.Sprintf(`Hi %s,

Thank you for your session.

Free demo minutes used: %d
Billed minutes: %d
Charged: NPR %.2f

- MindWell Team`, name, demoMinutes, chargeableMinutes, float64(chargedCents)/100)

	return s.Send(ctx, "session_receipt", email, name, subject, body)
}

func (s *Service) TopupCompleted(ctx context.Context, email, name string, amountCents int64) error {
	subject := "Wallet Top-Up Successful"
	body := fmt.Sprintf(`Hi %s,

NPR %.2f has been added to your wallet.

- MindWell Team`, name, float64(amountCents)/100)

	return s.Send(ctx, "topup_completed", email, name, subject, body)
}

func (s *Service) WithdrawalReviewed(ctx context.Context, email, name, status string, amountCents int64) error {
	subject := "Withdrawal Request " + status
	body := fmt.Sprintf(`Hi %s,

Your withdrawal request for NPR %.2f has been %s.

- MindWell Team`, name, float64(amountCents)/100, status)

	return s.Send(ctx, "withdrawal_reviewed", email, name, subject, body)
}

func (s *Service) WithdrawalRequested(ctx context.Context, adminEmail, requesterName string, amountCents int64) error {
	subject := "Withdrawal Awaiting Review"
	body := fmt.Sprintf(`Hi,

%s has requested a withdrawal of NPR %.2f. Review it from the admin dashboard.

- MindWell Team`, requesterName, float64(amountCents)/100)

	return s.Send(ctx, "withdrawal_requested", adminEmail, "Admin", subject, body)
}

func (s *Service) WithdrawalPaid(ctx context.Context, email, name string, amountCents int64) error {
	subject := "Withdrawal Paid Out"
	body := fmt.Sprintf(`Hi %s,

Your withdrawal of NPR %.2f has been paid out.

- MindWell Team`, name, float64(amountCents)/100)

	return s.Send(ctx, "withdrawal_paid", email, name, subject, body)
}

func (s *Service) DisputeResolved(ctx context.Context, email, name, resolution string) error {
	subject := "Dispute Resolved"
	body := fmt.Sprintf(`Hi %s,

Your dispute has been reviewed. Resolution: %s.

- MindWell Team`, name, resolution)

	return s.Send(ctx, "dispute_resolved", email, name, subject, body)
}
