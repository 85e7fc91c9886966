package email

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/mail.v2"
)

// BuildMIME assembles the MIME tree for msg. With inline images the result is
// multipart/related wrapping a multipart/alternative (text, html) followed by
// one inline part per image.
func BuildMIME(msg *Message) (*mail.Message, error) {
	if msg == nil {
		return nil, errors.New("email: message is required")
	}
	if strings.TrimSpace(msg.FromAddress) == "" {
		return nil, errors.New("email: from address is required")
	}
	if strings.TrimSpace(msg.To) == "" {
		return nil, errors.New("email: recipient is required")
	}

	m := mail.NewMessage()
	if msg.FromName != "" {
		m.SetAddressHeader("From", msg.FromAddress, msg.FromName)
	} else {
		m.SetHeader("From", msg.FromAddress)
	}
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		m.SetBody("text/plain", msg.TextBody)
		m.AddAlternative("text/html", msg.HTMLBody)
	case msg.HTMLBody != "":
		m.SetBody("text/html", msg.HTMLBody)
	default:
		m.SetBody("text/plain", msg.TextBody)
	}

	for _, img := range msg.Inline {
		if img.ContentID == "" {
			return nil, fmt.Errorf("email: inline image %q has no content-id", img.Filename)
		}
		data := img.Data
		m.Embed(img.Filename,
			mail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
			mail.SetHeader(map[string][]string{
				"Content-ID":          {"<" + img.ContentID + ">"},
				"Content-Disposition": {`inline; filename="` + img.Filename + `"`},
			}),
		)
	}

	return m, nil
}

// RawMIME renders msg to its wire form.
func RawMIME(msg *Message) ([]byte, error) {
	m, err := BuildMIME(msg)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("email: failed to write message: %w", err)
	}
	return buf.Bytes(), nil
}
