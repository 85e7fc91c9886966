package email

import "context"

// Sender is the interface that all delivery providers must implement.
// The daily job does not care whether the message leaves through an SMTP
// relay or the Gmail API.
type Sender interface {
	// Send delivers msg in a single attempt.
	Send(ctx context.Context, msg *Message) error
}

// Message represents an outbound email.
type Message struct {
	FromAddress string // envelope and header sender
	FromName    string // display name for the sender
	To          string // recipient email address
	Subject     string // email subject
	HTMLBody    string // HTML email body
	TextBody    string // plain-text fallback body
	Inline      []InlineImage
}

// InlineImage is an image part referenced from the HTML body via cid:.
type InlineImage struct {
	ContentID string
	Filename  string
	Data      []byte
}
