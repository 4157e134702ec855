package services

import (
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go-travel-webapp/internal/config"
	"go-travel-webapp/internal/models"
)

type EmailService struct {
	config *config.EmailConfig
}

func NewEmailService(emailConfig *config.EmailConfig) *EmailService {
	return &EmailService{
		config: emailConfig,
	}
}

// SendBookingConfirmation mails the confirmation with the itinerary PDF attached.
func (s *EmailService) SendBookingConfirmation(user *models.User, booking *models.Booking, pdfAttachment []byte) error {
	if user.Email == "" {
		return fmt.Errorf("user email not available")
	}

	subject := fmt.Sprintf("Booking confirmed: %s (%s)", booking.Title, booking.Reference)

	htmlBody := `
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Booking Confirmation</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #007bff;">Your booking is confirmed</h2>
        <p>Hi ` + user.GetDisplayName() + `,</p>
        <p>Thanks for booking with TravelBook. Your reference is <strong>` + booking.Reference + `</strong>.</p>
        <div style="background-color: #f8f9fa; border-left: 4px solid #007bff; padding: 15px; margin: 20px 0;">
            <ul>
                <li><strong>Trip:</strong> ` + booking.Title + `</li>
                <li><strong>Type:</strong> ` + booking.Kind + `</li>
                <li><strong>Price:</strong> ` + fmt.Sprintf("%.2f %s", booking.Price, booking.Currency) + `</li>
            </ul>
        </div>
        <p>Your itinerary is attached. Show the QR code in it at check-in.</p>
        <hr style="border: none; border-top: 1px solid #ddd; margin: 30px 0;">
        <p style="font-size: 12px; color: #666;">
            TravelBook - flights, hotels and activities in one place<br>
            <a href="mailto:` + s.config.FromEmail + `">` + s.config.FromEmail + `</a>
        </p>
    </div>
</body>
</html>
`

	textBody := `Your booking is confirmed

Reference: ` + booking.Reference + `
Trip: ` + booking.Title + `
Type: ` + booking.Kind + `
Price: ` + fmt.Sprintf("%.2f %s", booking.Price, booking.Currency) + `

Your itinerary is attached.
`

	attachmentName := ""
	if len(pdfAttachment) > 0 {
		attachmentName = fmt.Sprintf("Itinerary_%s.pdf", booking.Reference)
	}

	return s.sendEmail([]string{user.Email}, subject, textBody, htmlBody, pdfAttachment, attachmentName)
}

// SendContactAcknowledgement confirms receipt of a contact form message.
func (s *EmailService) SendContactAcknowledgement(message *models.ContactMessage) error {
	subject := "We received your message"
	textBody := `Hi ` + message.Name + `,

Thanks for contacting TravelBook. We received your message` +
		func() string {
			if message.Subject != "" {
				return ` about "` + message.Subject + `"`
			}
			return ""
		}() + ` and will get back to you within two business days.

Sent at: ` + time.Now().Format("2006-01-02 15:04:05")

	return s.sendEmail([]string{message.Email}, subject, textBody, "", nil, "")
}

// sendEmail delivers a MIME multipart message over SMTP.
func (s *EmailService) sendEmail(to []string, subject, textBody, htmlBody string, attachment []byte, attachmentName string) error {
	if s.config.SMTPHost == "" {
		return fmt.Errorf("SMTP not configured")
	}

	boundary := "travelbook-boundary-" + strconv.FormatInt(time.Now().UnixNano(), 36)

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", s.config.FromName, s.config.FromEmail))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%s\r\n\r\n", boundary))

	msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.WriteString(textBody)
	msg.WriteString("\r\n")

	if htmlBody != "" {
		msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		msg.WriteString(htmlBody)
		msg.WriteString("\r\n")
	}

	if len(attachment) > 0 && attachmentName != "" {
		msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		msg.WriteString("Content-Type: application/pdf\r\n")
		msg.WriteString("Content-Transfer-Encoding: base64\r\n")
		msg.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=%q\r\n\r\n", attachmentName))
		msg.WriteString(encodeBase64Wrapped(attachment))
		msg.WriteString("\r\n")
	}

	msg.WriteString(fmt.Sprintf("--%s--\r\n", boundary))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)
	auth := smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)

	if s.config.UseTLS {
		return s.sendWithSTARTTLS(addr, auth, to, []byte(msg.String()))
	}
	return smtp.SendMail(addr, auth, s.config.FromEmail, to, []byte(msg.String()))
}

func (s *EmailService) sendWithSTARTTLS(addr string, auth smtp.Auth, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{ServerName: s.config.SMTPHost}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("STARTTLS failed: %w", err)
		}
	}

	if s.config.SMTPUsername != "" {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth failed: %w", err)
		}
	}

	if err := client.Mail(s.config.FromEmail); err != nil {
		return err
	}
	for _, recipient := range to {
		if err := client.Rcpt(recipient); err != nil {
			return err
		}
	}

	writer, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := writer.Write(msg); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	return client.Quit()
}

// encodeBase64Wrapped encodes attachment bytes with RFC 2045 line wrapping.
func encodeBase64Wrapped(data []byte) string {
	encoded := base64.StdEncoding.EncodeToString(data)
	var wrapped strings.Builder
	for len(encoded) > 76 {
		wrapped.WriteString(encoded[:76])
		wrapped.WriteString("\r\n")
		encoded = encoded[76:]
	}
	wrapped.WriteString(encoded)
	return wrapped.String()
}
