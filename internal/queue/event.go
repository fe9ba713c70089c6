// Package queue defines the broker payloads and the mail publisher and
// consumer built on RabbitMQ.
package queue

// MailQueueName is the durable queue carrying outbound account mail.
const MailQueueName = "mail.password_reset"

// PasswordResetMail asks the mailer to deliver a reset token out of
// band. This is the only channel the raw token ever travels through.
type PasswordResetMail struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Token       string `json:"token"`
	ExpiresAt   string `json:"expires_at"`
	RequestedAt string `json:"requested_at"`
}
