package services

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	texttemplate "text/template"

	"rov_inventory_go/config"
	"rov_inventory_go/logger"
	"rov_inventory_go/services/i18n"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

//go:embed emails/*
var embeddedEmails embed.FS

// emailTemplates is swapped in tests.
var emailTemplates fs.FS = embeddedEmails

const defaultEmailLang = "es"

// Email represents an email message
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// buildEmailWithFallback renders templateName in lang, falling back to the default language.
func buildEmailWithFallback(templateName string, lang string, tmplData interface{}, toEmail string) *Email {
	htmlBody, textBody, err := loadTemplate(templateName, lang, tmplData)
	if err != nil {
		logger.Warn("Error loading email template", zap.String("template", templateName), zap.String("lang", lang), zap.Error(err))
		if lang != defaultEmailLang {
			htmlBody, textBody, err = loadTemplate(templateName, defaultEmailLang, tmplData)
			if err != nil {
				logger.Error("Error loading default email template", zap.String("template", templateName), zap.Error(err))
			}
		}
	}

	return &Email{
		To:       []string{toEmail},
		HTMLBody: htmlBody,
		TextBody: textBody,
	}
}

// loadTemplate renders emails/<name>_<lang>.{html,txt}, falling back to emails/<name>.{html,txt}.
func loadTemplate(templateName string, lang string, data interface{}) (html string, text string, err error) {
	read := func(ext string) (string, []byte, error) {
		p := path.Join("emails", fmt.Sprintf("%s_%s%s", templateName, lang, ext))
		content, err := fs.ReadFile(emailTemplates, p)
		if err != nil {
			p = path.Join("emails", templateName+ext)
			content, err = fs.ReadFile(emailTemplates, p)
			if err != nil {
				return "", nil, fmt.Errorf("failed to read template %s: %v", p, err)
			}
		}
		return p, content, nil
	}

	p, content, err := read(".html")
	if err != nil {
		return "", "", err
	}
	htmlTmpl, err := template.New(path.Base(p)).Parse(string(content))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse template %s: %v", p, err)
	}
	var htmlBuf bytes.Buffer
	if err := htmlTmpl.Execute(&htmlBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %v", p, err)
	}

	p, content, err = read(".txt")
	if err != nil {
		return "", "", err
	}
	textTmpl, err := texttemplate.New(path.Base(p)).Parse(string(content))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse template %s: %v", p, err)
	}
	var textBuf bytes.Buffer
	if err := textTmpl.Execute(&textBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %v", p, err)
	}

	return htmlBuf.String(), textBuf.String(), nil
}

// SendEmail sends an email using Resend API
func SendEmail(cfg *config.Config, email *Email) error {
	if cfg.EmailTestMode {
		logEmailToConsole(email)
		return nil
	}

	if cfg.ResendAPIKey == "" {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}

	client := resend.NewClient(cfg.ResendAPIKey)
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", cfg.EmailFromName, cfg.EmailFrom),
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTMLBody,
		Text:    email.TextBody,
	}
	if params.Html == "" && params.Text == "" {
		return fmt.Errorf("email must have either HTMLBody or TextBody")
	}

	sent, err := client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email via Resend: %v", err)
	}

	logger.Info("Email sent via Resend", zap.String("id", sent.Id), zap.Strings("to", email.To))
	return nil
}

func logEmailToConsole(email *Email) {
	logger.Info("EMAIL (test mode, not sent)",
		zap.Strings("to", email.To),
		zap.String("subject", email.Subject),
		zap.String("text", email.TextBody),
		zap.String("html", truncate(email.HTMLBody, 500)),
	)
}

// truncate truncates a string to a maximum length
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// SendEmailAsync sends an email without blocking the request.
func SendEmailAsync(cfg *config.Config, email *Email) {
	emailCopy := &Email{
		To:       append([]string{}, email.To...),
		Subject:  email.Subject,
		HTMLBody: email.HTMLBody,
		TextBody: email.TextBody,
	}

	go func(cfg *config.Config, email *Email) {
		if err := SendEmail(cfg, email); err != nil {
			logger.Warn("Error sending async email", zap.Error(err))
		}
	}(cfg, emailCopy)
}

// NewUserWelcomeEmailData feeds the new_user_welcome template.
type NewUserWelcomeEmailData struct {
	UserName  string
	UserEmail string
	RoleLabel string
	LoginURL  string
}

// BuildNewUserWelcomeEmail tells a provisioned user how to sign in. The initial
// password is never included; the template explains how it is formed.
func BuildNewUserWelcomeEmail(userEmail, userName, role, appURL, lang string) *Email {
	data := NewUserWelcomeEmailData{
		UserName:  userName,
		UserEmail: userEmail,
		RoleLabel: i18n.Translate(lang, "roles."+role),
		LoginURL:  strings.TrimSuffix(appURL, "/") + "/login",
	}

	email := buildEmailWithFallback("new_user_welcome", lang, data, userEmail)
	email.Subject = i18n.Translate(lang, "email.subject.new_user_welcome")
	return email
}
