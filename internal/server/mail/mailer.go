// Package mail dispatches transactional email: second-factor codes and
// password-reset links.
package mail

// Mailer sends the two kinds of email the server produces. Implementations
// must be safe for concurrent use.
type Mailer interface {
	// SendAuthCode delivers a one-time authentication code.
	SendAuthCode(to string, code string) error

	// SendPasswordReset delivers a password-reset link.
	SendPasswordReset(to string, link string) error
}
