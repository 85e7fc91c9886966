package email

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/ymhc/dailyemail/internal/content"
)

const qrSize = 240

// Rendered holds both bodies of one email and the content-IDs they reference.
type Rendered struct {
	HTML    string
	Text    string
	LogoCID string
	// QR is nil unless resource QR codes are enabled
	QR *InlineImage
}

// Renderer turns a daily selection into email bodies.
type Renderer struct {
	backgroundBaseURL string
	cidDomain         string
	resourceQR        bool
}

// NewRenderer creates a Renderer. Background images are linked from
// backgroundBaseURL; generated content-IDs end in @cidDomain.
func NewRenderer(backgroundBaseURL, cidDomain string, resourceQR bool) *Renderer {
	if cidDomain == "" {
		cidDomain = "localhost"
	}
	return &Renderer{
		backgroundBaseURL: backgroundBaseURL,
		cidDomain:         cidDomain,
		resourceQR:        resourceQR,
	}
}

// NewContentID returns a fresh message-id style token for a cid: reference.
// Tokens are unique per call; nothing checks them against earlier runs.
func NewContentID(domain string) string {
	return uuid.NewString() + "@" + domain
}

// Render produces the HTML and plain-text bodies for daily. Apart from the
// generated content-IDs the output depends only on its input.
func (r *Renderer) Render(daily *content.DailyContent) (*Rendered, error) {
	data := DailyEmailData{
		Message:       daily.Message,
		Activities:    daily.Activities,
		Resource:      daily.Resource,
		BackgroundURL: BackgroundURL(r.backgroundBaseURL, daily.Background),
		LogoCID:       NewContentID(r.cidDomain),
	}

	out := &Rendered{LogoCID: data.LogoCID}

	if r.resourceQR && daily.Resource.Link != "" {
		png, err := ResourceQR(daily.Resource.Link)
		if err != nil {
			return nil, err
		}
		data.QRCID = NewContentID(r.cidDomain)
		out.QR = &InlineImage{ContentID: data.QRCID, Filename: "resource-qr.png", Data: png}
	}

	out.HTML = DailyEmailHTML(data)
	out.Text = DailyEmailText(data)

	return out, nil
}

// ResourceQR encodes link as a PNG QR code.
func ResourceQR(link string) ([]byte, error) {
	png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("email: failed to encode QR code: %w", err)
	}
	return png, nil
}
