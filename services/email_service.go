package services

import (
	"fmt"

	"github.com/ingatatech/loan-management-system-backend/config"
	"gopkg.in/gomail.v2"
)

// EmailService provides methods for sending email notifications
type EmailService struct {
	dialer *gomail.Dialer
	from   string
	config *config.Config
}

// NewEmailService creates a new EmailService instance
func NewEmailService(cfg *config.Config) *EmailService {
	dialer := gomail.NewDialer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
	)

	return &EmailService{
		dialer: dialer,
		from:   cfg.SMTP.From,
		config: cfg,
	}
}

// SendEmail sends a single HTML email
func (s *EmailService) SendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// SendWorkflowAssignedNotification notifies a reviewer that a loan application
// now sits with them.
func (s *EmailService) SendWorkflowAssignedNotification(to, loanReference string, step string) error {
	subject := "Loan application awaiting your review"
	body := fmt.Sprintf(`
		<h2>Loan application assigned to you</h2>
		<p>Application: %s</p>
		<p>Review step: %s</p>
		<p>Please review it in the loan management system.</p>
	`, loanReference, step)

	return s.SendEmail(to, subject, body)
}

// SendLoanApprovedNotification notifies the applicant that the loan was approved
func (s *EmailService) SendLoanApprovedNotification(to, loanReference string) error {
	subject := "Your loan application has been approved"
	body := fmt.Sprintf(`
		<h2>Congratulations!</h2>
		<p>Your loan application %s has been approved.</p>
		<p>The repayment schedule is available in your account.</p>
	`, loanReference)

	return s.SendEmail(to, subject, body)
}

// SendLoanRejectedNotification notifies the applicant that the loan was rejected
func (s *EmailService) SendLoanRejectedNotification(to, loanReference, reason string) error {
	subject := "Your loan application has been rejected"
	body := fmt.Sprintf(`
		<h2>Loan application update</h2>
		<p>Your loan application %s was not approved.</p>
		<p>Reason: %s</p>
		<p>Please contact your loan officer for details.</p>
	`, loanReference, reason)

	return s.SendEmail(to, subject, body)
}
