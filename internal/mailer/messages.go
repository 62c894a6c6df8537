package mailer

import (
	"fmt"
	"strings"
	"time"
)

// verificationMessage renders the email-verification mail.
func verificationMessage(code string, ttl time.Duration) (subject, body string) {
	subject = "Your verification code"
	var b strings.Builder
	b.WriteString("Hello,\n\n")
	fmt.Fprintf(&b, "Your verification code is: %s\n\n", code)
	fmt.Fprintf(&b, "The code expires in %d minutes. If you did not request it, you can ignore this message.\n", int(ttl.Minutes()))
	return subject, b.String()
}

// credentialsMessage renders the staff-login mail sent when a department is
// provisioned. This message is the only place the generated password exists
// in plaintext.
func credentialsMessage(name, email, password string) (subject, body string) {
	subject = fmt.Sprintf("Staff account for %s", name)
	var b strings.Builder
	fmt.Fprintf(&b, "A staff account has been created for the %s department.\n\n", name)
	fmt.Fprintf(&b, "Login email: %s\nPassword: %s\n\n", email, password)
	b.WriteString("Please sign in and keep these credentials private.\n")
	return subject, b.String()
}
