package mail

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPMailer sends mail through an SMTP relay via gomail.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *SMTPMailer) SendAuthCode(to string, code string) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px;">
		  <h2>Your authentication code</h2>
		  <p>Enter this code to confirm your transaction:</p>
		  <p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">%s</p>
		  <p>The code expires in 10 minutes. If you didn't request it, just ignore this email.</p>
		  <p>&ndash; LuFunds</p>
		</div>`, code)

	return m.send(to, "LuFunds - Authentication Code", body)
}

func (m *SMTPMailer) SendPasswordReset(to string, link string) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px;">
		  <h2>Password Reset Request</h2>
		  <p>Hello,</p>
		  <p>You requested to reset your password. Click the button below to proceed:</p>
		  <a href="%s"
		     style="display: inline-block; padding: 10px 20px; margin-top: 10px;
		            background-color: #007bff; color: white; text-decoration: none;
		            border-radius: 5px;">
		    Reset Password
		  </a>
		  <p>If you didn't request this, just ignore this email.</p>
		  <p>&ndash; LuFunds</p>
		</div>`, link)

	return m.send(to, "LuFunds - Password Reset", body)
}

func (m *SMTPMailer) send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send error: %w", err)
	}
	return nil
}
