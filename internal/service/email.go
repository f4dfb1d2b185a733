package service

import (
	"fmt"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/flarelog/backend/internal/models"
)

type EmailService struct {
	smtpHost     string
	smtpPort     string
	smtpUsername string
	smtpPassword string
	fromEmail    string
	fromName     string
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func NewEmailService() IEmailService {
	return &EmailService{
		smtpHost:     readSecret("smtp_host"),
		smtpPort:     readSecret("smtp_port"),
		smtpUsername: readSecret("smtp_username"),
		smtpPassword: readSecret("smtp_password"),
		fromEmail:    readSecret("email_from"),
		fromName:     readSecret("email_from_name"),
	}
}

func (s *EmailService) SendEmail(to, subject, body string) error {
	// If SMTP is not configured, log the email instead
	if s.smtpHost == "" || s.smtpPort == "" {
		fmt.Printf("SMTP not configured, logging email:\n")
		fmt.Printf("To: %s\n", to)
		fmt.Printf("Subject: %s\n", subject)
		fmt.Printf("Body:\n%s\n", body)
		fmt.Printf("--- End Email ---\n")
		return nil
	}

	auth := smtp.PlainAuth("", s.smtpUsername, s.smtpPassword, s.smtpHost)

	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	msg := []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: text/html; charset=UTF-8\r\n"+
		"\r\n"+
		"%s\r\n", to, from, subject, body))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	if err := smtp.SendMail(addr, auth, s.fromEmail, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (s *EmailService) SendVerificationEmail(user *models.User, token string) error {
	subject := "Verify Your Email - Flarelog"
	body := s.buildVerificationEmailBody(user, token)
	return s.SendEmail(user.Email, subject, body)
}

func (s *EmailService) SendWelcomeEmail(user *models.User) error {
	subject := "Welcome to Flarelog!"
	body := s.buildWelcomeEmailBody(user)
	return s.SendEmail(user.Email, subject, body)
}

// SendWeeklyDigest mails the computed weekly report summary.
func (s *EmailService) SendWeeklyDigest(user *models.User, report *models.WeeklyReport) error {
	caser := cases.Title(language.English)
	subject := fmt.Sprintf("[Flarelog] Your Week: %s (score %d)", caser.String(string(report.Trend)), report.HealthScore)
	body := s.buildWeeklyDigestBody(user, report)
	return s.SendEmail(user.Email, subject, body)
}

func (s *EmailService) buildVerificationEmailBody(user *models.User, token string) string {
	baseURL := os.Getenv("FRONTEND_URL")
	if baseURL == "" {
		baseURL = "http://localhost:5173" // Development fallback
	}
	verificationURL := fmt.Sprintf("%s/verify-email?token=%s", baseURL, token)

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<title>Verify Your Email - Flarelog</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background-color: #5B8DEF; color: white; padding: 20px; text-align: center; border-radius: 10px 10px 0 0;">
		<h1 style="margin: 0; font-size: 28px;">Flarelog</h1>
		<p style="margin: 10px 0 0 0; font-size: 16px;">Track your flares, find your patterns</p>
	</div>

	<div style="background-color: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px;">
		<h2 style="color: #5B8DEF; margin-top: 0;">Welcome, %s!</h2>
		<p>Thanks for signing up. To start tracking and sharing reports with your care team, please verify your email address.</p>

		<div style="text-align: center; margin: 30px 0;">
			<a href="%s" style="background-color: #5B8DEF; color: white; padding: 15px 30px; text-decoration: none; border-radius: 5px; font-weight: bold; font-size: 16px; display: inline-block;">
				Verify Email Address
			</a>
		</div>

		<p style="color: #666; font-size: 14px;">If the button above doesn't work, copy and paste this link into your browser:</p>
		<p style="background-color: #eee; padding: 10px; border-radius: 5px; word-break: break-all; font-size: 12px;">%s</p>

		<div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #ddd;">
			<p style="color: #666; font-size: 12px; margin: 0;">
				This verification link will expire in 24 hours. If you didn't sign up for Flarelog, you can safely ignore this email.
			</p>
		</div>
	</div>
</body>
</html>
	`, user.Name, verificationURL, verificationURL)
}

func (s *EmailService) buildWelcomeEmailBody(user *models.User) string {
	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:5173" // Development fallback
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<title>Welcome to Flarelog!</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background-color: #5B8DEF; color: white; padding: 20px; text-align: center; border-radius: 10px 10px 0 0;">
		<h1 style="margin: 0; font-size: 28px;">Welcome to Flarelog!</h1>
	</div>

	<div style="background-color: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px;">
		<h2 style="color: #5B8DEF; margin-top: 0;">Hello %s!</h2>
		<p>Your email has been verified. Here's what you can do now:</p>

		<ul style="padding-left: 20px;">
			<li style="margin-bottom: 10px;"><strong>Log entries:</strong> flares, medications, triggers, energy and recovery moments</li>
			<li style="margin-bottom: 10px;"><strong>Build streaks:</strong> daily logging earns badges and keeps your insights sharp</li>
			<li style="margin-bottom: 10px;"><strong>Weekly digests:</strong> a health score, trends and pattern insights every week</li>
			<li style="margin-bottom: 10px;"><strong>Share with your clinician:</strong> export a report link your care team can open</li>
		</ul>

		<div style="text-align: center; margin: 30px 0;">
			<a href="%s" style="background-color: #5B8DEF; color: white; padding: 15px 30px; text-decoration: none; border-radius: 5px; font-weight: bold; font-size: 16px; display: inline-block;">
				Start Logging
			</a>
		</div>
	</div>
</body>
</html>
	`, user.Name, frontendURL)
}

func (s *EmailService) buildWeeklyDigestBody(user *models.User, report *models.WeeklyReport) string {
	var insights strings.Builder
	for _, insight := range report.KeyInsights {
		insights.WriteString(fmt.Sprintf("<li style=\"margin-bottom: 8px;\">%s</li>\n", insight))
	}

	var correlations string
	if len(report.TopCorrelations) > 0 {
		var rows strings.Builder
		for _, c := range report.TopCorrelations {
			rows.WriteString(fmt.Sprintf(
				"<li>%s &rarr; %s (%d times, avg %.0f min later, confidence %.0f%%)</li>\n",
				c.TriggerValue, c.OutcomeValue, c.OccurrenceCount, c.AvgDelayMinutes, c.Confidence*100))
		}
		correlations = fmt.Sprintf(`
		<h3 style="color: #5B8DEF;">Patterns we noticed</h3>
		<ul style="padding-left: 20px;">%s</ul>`, rows.String())
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<title>Your Weekly Report - Flarelog</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background-color: #5B8DEF; color: white; padding: 20px; text-align: center; border-radius: 10px 10px 0 0;">
		<h1 style="margin: 0; font-size: 28px;">Your Week in Review</h1>
		<p style="margin: 10px 0 0 0; font-size: 16px;">%s &ndash; %s</p>
	</div>

	<div style="background-color: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px;">
		<h2 style="color: #5B8DEF; margin-top: 0;">Hi %s,</h2>

		<div style="background-color: #fff; padding: 15px; border-left: 4px solid #5B8DEF; margin: 20px 0;">
			<p><strong>Health score:</strong> %d / 100 (%s)</p>
			<p><strong>Flares:</strong> %d</p>
			<p><strong>Logging consistency:</strong> %d%%</p>
		</div>

		<h3 style="color: #5B8DEF;">This week's insights</h3>
		<ul style="padding-left: 20px;">
			%s
		</ul>

		%s

		<div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #ddd;">
			<p style="color: #666; font-size: 12px; margin: 0;">
				This is your automated weekly digest from Flarelog.
			</p>
		</div>
	</div>
</body>
</html>
	`,
		report.WeekStart.Format("Jan 2"),
		report.WeekEnd.Format("Jan 2, 2006"),
		user.Name,
		report.HealthScore,
		report.Trend,
		report.FlareCount,
		report.LoggingConsistency,
		insights.String(),
		correlations,
	)
}
