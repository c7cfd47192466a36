// internal/workers/registration/send-notification/templates.go
package sendnotification

import (
	"fmt"
	"html"
	"strings"
)

const (
	TypeWelcome = "welcome"
	TypeBackup  = "backup"
	TypeAlert   = "alert"
)

const (
	welcomeSubject = "Welcome to the Numour Family! 💜"
	backupSubject  = "🚨 Backup: New Affiliate Registration Data"
	alertSubject   = "Backup: New Affiliate Registration"
)

const welcomeText = `Hi {{name}},

Welcome to the Numour family! We're so excited to have you join us on this journey.

Here's what's next:
- We'll review your application and get back to you soon
- You'll receive your first Numour products to try
- We'll set you up with your unique affiliate link

Thank you for joining us as we redefine skincare in India!

With love,
The Numour Team`

const welcomeHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Welcome to Numour</title>
</head>
<body style="margin: 0; padding: 0; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f9f6ff; color: #333333;">
  <table cellpadding="0" cellspacing="0" border="0" width="100%" style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px;">
    <tr>
      <td style="padding: 30px;">
        <h1 style="color: #8A63D2; font-size: 28px; text-align: center;">Welcome to the Numour Family! 💜</h1>
        <p>Hi {{name}},</p>
        <p>We're so excited to welcome you to the Numour family! Thank you for joining us on this journey to redefine skincare in India.</p>
        <div style="background-color: #F2EBFD; padding: 25px; border-radius: 10px;">
          <h3 style="color: #8A63D2;">Here's what's next:</h3>
          <ul style="list-style-type: none; padding: 0;">
            <li>✨ We'll review your application and get back to you soon</li>
            <li>🌱 You'll receive your first Numour products to try</li>
            <li>💌 We'll set you up with your unique affiliate link</li>
          </ul>
        </div>
        <p>Thank you for joining us as we build something beautiful together!</p>
        <p>With love,<br>The Numour Team</p>
      </td>
    </tr>
    <tr>
      <td style="padding: 20px 30px; background-color: #F2EBFD; text-align: center; font-size: 12px; color: #666;">
        © {{year}} Numour. All rights reserved. Made with 💜 in India
      </td>
    </tr>
  </table>
</body>
</html>`

const backupText = `New Affiliate Registration (Google Sheets backup)

Name: {{name}}
Instagram: {{instagram}}
Phone: {{phone}}
Email: {{email}}
Address: {{address}}
Submitted: {{timestamp}}`

const backupHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Backup: New Affiliate Registration</title>
</head>
<body style="margin: 0; padding: 0; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f9f6ff; color: #333333;">
  <table cellpadding="0" cellspacing="0" border="0" width="100%" style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px;">
    <tr>
      <td style="padding: 30px;">
        <div style="background-color: #ffeeee; padding: 15px; border-radius: 8px; border-left: 4px solid #ff6b6b;">
          <h3 style="color: #cc0000; margin-top: 0;">Google Sheets Backup</h3>
          <p>This is a backup of affiliate registration data that could not be saved to Google Sheets.</p>
        </div>
        <h1 style="color: #8A63D2; font-size: 24px;">New Affiliate Registration</h1>
        <table style="width: 100%; border-collapse: collapse;">
          <tr style="background-color: #8A63D2; color: white;">
            <th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Field</th>
            <th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Value</th>
          </tr>
          <tr><td style="padding: 10px; border: 1px solid #ddd;">Name</td><td style="padding: 10px; border: 1px solid #ddd;">{{name}}</td></tr>
          <tr><td style="padding: 10px; border: 1px solid #ddd;">Instagram Handle</td><td style="padding: 10px; border: 1px solid #ddd;">{{instagram}}</td></tr>
          <tr><td style="padding: 10px; border: 1px solid #ddd;">Phone Number</td><td style="padding: 10px; border: 1px solid #ddd;">{{phone}}</td></tr>
          <tr><td style="padding: 10px; border: 1px solid #ddd;">Email</td><td style="padding: 10px; border: 1px solid #ddd;">{{email}}</td></tr>
          <tr><td style="padding: 10px; border: 1px solid #ddd;">Address</td><td style="padding: 10px; border: 1px solid #ddd;">{{address}}</td></tr>
          <tr><td style="padding: 10px; border: 1px solid #ddd;">Submission Time</td><td style="padding: 10px; border: 1px solid #ddd;">{{timestamp}}</td></tr>
        </table>
        <p><strong>Note:</strong> Please manually add this data to your Google Sheet, or check if there are issues with the webhook integration.</p>
      </td>
    </tr>
  </table>
</body>
</html>`

// renderTemplate replaces {{key}} placeholders in one pass, so values are
// never re-scanned. Values go through escape first; unknown placeholders
// render empty.
func renderTemplate(tmpl string, data map[string]interface{}, escape func(string) string) string {
	var b strings.Builder
	rest := tmpl

	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(rest[start:], "}}")
		if end == -1 {
			break
		}
		b.WriteString(rest[:start])
		b.WriteString(lookup(data, rest[start+2:start+end], escape))
		rest = rest[start+end+2:]
	}
	b.WriteString(rest)

	return b.String()
}

func lookup(data map[string]interface{}, key string, escape func(string) string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return ""
	}
	value, isString := v.(string)
	if !isString {
		value = fmt.Sprintf("%v", v)
	}
	if escape != nil {
		value = escape(value)
	}
	return value
}

func renderHTML(tmpl string, data map[string]interface{}) string {
	return renderTemplate(tmpl, data, html.EscapeString)
}

func renderText(tmpl string, data map[string]interface{}) string {
	return renderTemplate(tmpl, data, nil)
}
