package notify

import (
	"fmt"
	"html"
)

// Decided renders the email sent when an administrator approves or rejects
// a submission. label is the entity kind as shown to users, e.g. "Donation".
func Decided(label, title, name string, approved bool) (subject, body string) {
	outcome := "rejected"
	if approved {
		outcome = "approved"
	}
	if name == "" {
		name = "there"
	}

	subject = fmt.Sprintf("Your %s has been %s", label, outcome)
	what := label
	if title != "" {
		what = fmt.Sprintf("%s \"%s\"", label, html.EscapeString(title))
	}
	body = fmt.Sprintf(
		"<strong>Dear %s,</strong><br><br>Your %s has been <strong>%s</strong> by our administrators.<br><br>Thank you for supporting the food sharing programme!",
		html.EscapeString(name), what, outcome,
	)
	return subject, body
}

// PasswordReset renders the password reset email.
func PasswordReset(name, link string) (subject, body string) {
	if name == "" {
		name = "there"
	}
	subject = "Reset Your Password"
	body = fmt.Sprintf(
		"<strong>Dear %s,</strong><br><br>We received a request to reset your password. <a href=\"%s\">Reset Password</a><br><br>The link expires in one hour. If you did not ask for this, you can ignore this email.",
		html.EscapeString(name), html.EscapeString(link),
	)
	return subject, body
}
