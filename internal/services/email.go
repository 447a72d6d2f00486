package services

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

type EmailService struct {
	host        string
	port        string
	user        string
	pass        string
	from        string
	frontendURL string
	siteName    string
	devMode     bool
}

func NewEmailService(host, port, user, pass, from, frontendURL, siteName string) *EmailService {
	devMode := host == "" || user == ""
	if devMode {
		log.Println("⚠ Email service running in DEV MODE (logging to console)")
	}
	return &EmailService{
		host:        host,
		port:        port,
		user:        user,
		pass:        pass,
		from:        from,
		frontendURL: frontendURL,
		siteName:    siteName,
		devMode:     devMode,
	}
}

func (s *EmailService) SendVerificationEmail(to, token string) error {
	verifyURL := fmt.Sprintf("%s/verify-email?token=%s", s.frontendURL, token)

	subject := fmt.Sprintf("Verify your %s account", s.siteName)
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: 'Segoe UI', Arial, sans-serif; margin: 0; padding: 0; background-color: #f8fafc;">
  <div style="max-width: 480px; margin: 40px auto; background: white; border-radius: 12px; overflow: hidden;">
    <div style="background: #0f172a; padding: 32px; text-align: center;">
      <h1 style="color: white; margin: 0; font-size: 24px; font-weight: 700;">%s</h1>
    </div>
    <div style="padding: 32px;">
      <h2 style="margin: 0 0 16px; font-size: 20px; color: #1e293b;">Verify Your Email</h2>
      <p style="color: #64748b; font-size: 14px; line-height: 1.6; margin: 0 0 24px;">
        Click the button below to verify your email address and activate your account.
      </p>
      <a href="%s" style="display: inline-block; background: #0f172a; color: white; text-decoration: none; padding: 12px 32px; border-radius: 8px; font-weight: 600; font-size: 14px;">
        Verify Email
      </a>
      <p style="color: #94a3b8; font-size: 12px; margin: 24px 0 0; line-height: 1.5;">
        If the button doesn't work, copy and paste this link:<br>
        <a href="%s" style="color: #0f172a;">%s</a>
      </p>
      <p style="color: #94a3b8; font-size: 12px; margin: 16px 0 0;">
        This link expires in 24 hours.
      </p>
    </div>
  </div>
</body>
</html>`, s.siteName, verifyURL, verifyURL, verifyURL)

	return s.sendHTML(to, subject, body)
}

// SendInquiryNotification tells the site owner a new contact inquiry arrived.
// Sent from the worker pool, not inline with the public request.
func (s *EmailService) SendInquiryNotification(to, fromName, fromEmail, inquirySubject, inquiryBody string) error {
	subject := fmt.Sprintf("[%s] New inquiry: %s", s.siteName, inquirySubject)
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: 'Segoe UI', Arial, sans-serif; margin: 0; padding: 0; background-color: #f8fafc;">
  <div style="max-width: 480px; margin: 40px auto; background: white; border-radius: 12px; overflow: hidden;">
    <div style="background: #0f172a; padding: 24px; text-align: center;">
      <h1 style="color: white; margin: 0; font-size: 20px; font-weight: 700;">%s</h1>
    </div>
    <div style="padding: 32px;">
      <h2 style="margin: 0 0 8px; font-size: 18px; color: #1e293b;">%s</h2>
      <p style="color: #64748b; font-size: 13px; margin: 0 0 24px;">
        From %s &lt;%s&gt;
      </p>
      <p style="color: #334155; font-size: 14px; line-height: 1.6; white-space: pre-wrap;">%s</p>
      <a href="%s/admin/inquiries" style="display: inline-block; margin-top: 24px; background: #0f172a; color: white; text-decoration: none; padding: 10px 24px; border-radius: 8px; font-weight: 600; font-size: 13px;">
        Open Dashboard
      </a>
    </div>
  </div>
</body>
</html>`, s.siteName, inquirySubject, fromName, fromEmail, inquiryBody, s.frontendURL)

	return s.sendHTML(to, subject, body)
}

func (s *EmailService) sendHTML(to, subject, htmlBody string) error {
	if s.devMode {
		log.Printf("📧 [DEV EMAIL] To: %s | Subject: %s", to, subject)
		return nil
	}

	headers := []string{
		fmt.Sprintf("From: %s", s.from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}

	message := strings.Join(headers, "\r\n") + "\r\n\r\n" + htmlBody

	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(message)); err != nil {
		log.Printf("Failed to send email to %s: %v", to, err)
		return err
	}
	return nil
}
