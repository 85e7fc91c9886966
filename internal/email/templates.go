package email

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/ymhc/dailyemail/internal/content"
)

// Brand palette
const (
	ColorMain = "#0f777c"
	ColorBG   = "#dfeeee"
	ColorText = "#000000"

	// overlay laid over the background photo, same hue as ColorMain
	backgroundTint = "rgba(15,119,124,0.7)"
)

type socialLink struct {
	Name string
	URL  string
}

var socialLinks = []socialLink{
	{"Instagram", "https://instagram.com/youth_mental_health"},
	{"TikTok", "https://tiktok.com/@youthmentalhealthaction"},
	{"Facebook", "https://www.facebook.com/YMHCanada"},
	{"Threads", "https://www.threads.com/@youth_mental_health"},
	{"YouTube", "https://www.youtube.com/channel/UC4DmXoL0nA83nFWBfZg1t-A"},
	{"Monthly Newsletters", "https://ymhc.substack.com/"},
	{"LinkedIn", "https://www.linkedin.com/company/youth-mental-health-canada/"},
}

const unsubscribeAddress = "daily-message-support+unsubscribe@ymhc.ngo"

// DailyEmailData is everything the daily template interpolates.
type DailyEmailData struct {
	Message    string
	Activities []string
	Resource   content.Resource
	// BackgroundURL is empty when the message banner has no photo
	BackgroundURL string
	LogoCID       string
	// QRCID is empty unless a resource QR code is embedded
	QRCID string
}

// BackgroundURL returns the public URL of a background image file.
func BackgroundURL(baseURL, filename string) string {
	if filename == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/data/backgrounds/" + url.PathEscape(filename)
}

// messageBlockStyle always paints the brand color and layers the tinted
// photo on top when one is available.
func messageBlockStyle(backgroundURL string) string {
	style := fmt.Sprintf("background-color:%s;color:#ffffff;text-align:center;padding:40px 20px;border-radius:20px;", ColorMain)
	if backgroundURL != "" {
		style += fmt.Sprintf("background-image:linear-gradient(%s,%s),url('%s');background-size:cover;background-position:center;",
			backgroundTint, backgroundTint, html.EscapeString(backgroundURL))
	}
	return style
}

// DailyEmailHTML returns the HTML body of the daily message email.
// Layout is table based with inline styles so it survives webmail clients.
func DailyEmailHTML(d DailyEmailData) string {
	var activities strings.Builder
	for _, activity := range d.Activities {
		fmt.Fprintf(&activities, `
  <tr><td style="padding:0 0 10px;">
    <table width="100%%" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:10px;border-left:5px solid %s;">
      <tr><td style="padding:15px;font-size:16px;color:%s;">%s</td></tr>
    </table>
  </td></tr>`, ColorMain, ColorText, html.EscapeString(activity))
	}

	var qr string
	if d.QRCID != "" {
		qr = fmt.Sprintf(`
      <p style="margin:15px 0 0;"><img src="cid:%s" alt="QR code for %s" width="120" height="120" style="display:block;"></p>`,
			d.QRCID, html.EscapeString(d.Resource.Title))
	}

	var social []string
	for _, link := range socialLinks {
		social = append(social, fmt.Sprintf(`<a href="%s" style="text-decoration:none;margin:0 5px;color:%s;font-size:12px;font-weight:bold;">%s</a>`,
			link.URL, ColorMain, link.Name))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Daily Message of Support</title>
</head>
<body style="margin:0;padding:0;background-color:%[1]s;font-family:'Helvetica Neue',Helvetica,Arial,sans-serif;">
<table width="100%%" cellpadding="0" cellspacing="0" style="background-color:%[1]s;padding:20px 0;">
<tr><td align="center">
<table width="600" cellpadding="0" cellspacing="0" style="max-width:600px;">
  <tr><td style="padding:20px 0;text-align:center;">
    <img src="cid:%[2]s" alt="YMHC Logo" width="200" style="max-width:200px;height:auto;">
  </td></tr>
  <tr><td style="padding:0 20px 20px;">
    <table width="100%%" cellpadding="0" cellspacing="0">
      <tr><td style="%[3]s">
        <p style="margin:0 0 15px;font-size:20px;font-weight:bold;">Daily Message of Support</p>
        <p style="margin:0;font-size:24px;font-weight:bold;line-height:1.4;text-shadow:0 2px 4px rgba(0,0,0,0.3);">&ldquo;%[4]s&rdquo;</p>
      </td></tr>
    </table>
  </td></tr>
  <tr><td style="padding:0 20px 15px;text-align:center;color:%[5]s;font-size:20px;font-weight:bold;">Today's Self-Care</td></tr>
  <tr><td style="padding:0 20px;">
    <table width="100%%" cellpadding="0" cellspacing="0">%[6]s
    </table>
  </td></tr>
  <tr><td style="padding:30px 20px 15px;text-align:center;color:%[5]s;font-size:20px;font-weight:bold;">Featured Resource</td></tr>
  <tr><td style="padding:0 20px;">
    <table width="100%%" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:15px;border:1px solid #e1e1e1;">
      <tr><td style="padding:20px;text-align:left;">
      <h3 style="margin:0 0 10px;color:%[5]s;font-size:18px;">%[7]s</h3>
      <p style="margin:0 0 15px;color:#555555;font-size:14px;line-height:1.5;">%[8]s</p>
      <a href="%[9]s" style="display:inline-block;background-color:%[5]s;color:#ffffff;text-decoration:none;padding:10px 20px;border-radius:25px;font-size:14px;font-weight:bold;">Learn More</a>%[10]s
      </td></tr>
    </table>
  </td></tr>
  <tr><td style="padding:30px 20px 20px;text-align:center;">
    %[11]s
  </td></tr>
  <tr><td style="padding:20px;border-top:1px solid #cccccc;text-align:center;font-size:11px;color:#888888;line-height:1.5;">
    <p style="margin:0 0 10px;"><strong>Safety Note:</strong> If you or someone you know is in immediate danger, please call emergency services or a crisis helpline immediately. This email is a message of support, not a substitute for professional help.</p>
    <p style="margin:0;">You received this message because you are subscribed to the Google Groups "Daily Messages of Support" group.<br>
    To unsubscribe from this group and stop receiving emails from it, send an email to <a href="mailto:%[12]s" style="color:%[5]s;">%[12]s</a>.</p>
  </td></tr>
</table>
</td></tr>
</table>
</body>
</html>`,
		ColorBG,
		d.LogoCID,
		messageBlockStyle(d.BackgroundURL),
		html.EscapeString(d.Message),
		ColorMain,
		activities.String(),
		html.EscapeString(d.Resource.Title),
		html.EscapeString(d.Resource.Description),
		html.EscapeString(d.Resource.Link),
		qr,
		strings.Join(social, " | \n    "),
		unsubscribeAddress,
	)
}

// DailyEmailText returns the plain-text fallback of the daily message email.
func DailyEmailText(d DailyEmailData) string {
	var b strings.Builder

	b.WriteString("Daily Message of Support\n\n")
	fmt.Fprintf(&b, "\"%s\"\n\n", d.Message)
	b.WriteString("Today's Self-Care Activities:\n")
	for _, activity := range d.Activities {
		fmt.Fprintf(&b, "- %s\n", activity)
	}
	b.WriteString("\nFeatured Resource:\n")
	fmt.Fprintf(&b, "%s\n%s\n\n", d.Resource.Title, d.Resource.Link)
	b.WriteString("(Please enable HTML to view the full beautiful email!)\n")

	return b.String()
}
