package services

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
	"time"

	model "github.com/sahilk21/RegLink/models"

	"github.com/google/uuid"
)

// Notify writes a notification row for one agency inbox and, when SMTP is
// configured, sends a best-effort email copy. The row is the authoritative
// record; a mail failure is logged, never surfaced.
func (s *FilingService) Notify(agency, notifType, title, body, refID string) (*model.Notification, error) {
	n := model.Notification{
		ID:        uuid.NewString(),
		Agency:    agency,
		Type:      notifType,
		Title:     title,
		Body:      body,
		RefID:     refID,
		SentAt:    time.Now(),
		CreatedAt: time.Now(),
	}
	if err := s.db.Create(&n).Error(); err != nil {
		log.Printf("[Notify] Error saving notification for %s: %v", agency, err)
		return nil, internalErr("failed to save notification", err)
	}
	log.Printf("[Notify] %s notification sent to %s: %s", notifType, agency, title)

	s.sendAgencyEmail(agency, title, body)
	return &n, nil
}

// sendAgencyEmail delivers the notification over SMTP when a relay is
// configured. Agency inboxes follow <agency>@<AGENCY_MAIL_DOMAIN>.
func (s *FilingService) sendAgencyEmail(agency, subject, body string) {
	host := os.Getenv("SMTP_HOST")
	domain := os.Getenv("AGENCY_MAIL_DOMAIN")
	if host == "" || domain == "" {
		return
	}
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}
	from := os.Getenv("SMTP_FROM")
	password := os.Getenv("SMTP_PASSWORD")
	to := strings.ToLower(agency) + "@" + domain

	html := fmt.Sprintf(`
	<html>
	<body>
		<h2>%s</h2>
		<p>%s</p>
		<p>Regulatory Filing Platform</p>
	</body>
	</html>
`, subject, body)
	message := []byte("Subject: " + subject + "\r\n" +
		"From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
		html)

	auth := smtp.PlainAuth("", from, password, host)
	if err := smtp.SendMail(host+":"+port, auth, from, []string{to}, message); err != nil {
		log.Printf("[sendAgencyEmail] Error sending email to %s: %v", to, err)
		return
	}
	log.Printf("[sendAgencyEmail] Email sent to %s", to)
}

// UnreadNotifications returns the agency's unread inbox, newest first.
func (s *FilingService) UnreadNotifications(agency string) ([]model.Notification, error) {
	notifications := make([]model.Notification, 0)
	if err := s.db.Where("agency = ? AND read_at IS NULL", agency).
		Order("sent_at desc").Find(&notifications).Error(); err != nil {
		log.Printf("[UnreadNotifications] Error fetching notifications for %s: %v", agency, err)
		return nil, internalErr("failed to fetch notifications", err)
	}
	return notifications, nil
}

// MarkNotificationRead stamps the read timestamp. Re-reading is a no-op.
func (s *FilingService) MarkNotificationRead(notificationID string) error {
	now := time.Now()
	res := s.db.Model(&model.Notification{}).
		Where("id = ? AND read_at IS NULL", notificationID).
		Updates(map[string]interface{}{"ReadAt": &now})
	if err := res.Error(); err != nil {
		log.Printf("[MarkNotificationRead] Error updating notification %s: %v", notificationID, err)
		return internalErr("failed to mark notification read", err)
	}
	return nil
}
