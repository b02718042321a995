// Package sender отправляет покупателям письма о статусе оплаты.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/magabrotheeeer/ebook-store/internal/lib/sl"
	"github.com/magabrotheeeer/ebook-store/internal/lib/smtp"
	"github.com/magabrotheeeer/ebook-store/internal/metrics"
	"github.com/magabrotheeeer/ebook-store/internal/models"
)

// Service отправляет письма через SMTP.
type Service struct {
	transport smtp.TransportInterface
	printer   *message.Printer
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(transport smtp.TransportInterface, log *slog.Logger) *Service {
	return &Service{
		transport: transport,
		printer:   message.NewPrinter(language.Thai),
		log:       log,
	}
}

// Email - готовое письмо.
type Email struct {
	To      string
	Subject string
	Body    string
}

// HandlePaymentEvent обрабатывает сообщение из очереди уведомлений.
// Нечитаемые и неизвестные события подтверждаются без отправки, ошибка SMTP возвращает сообщение в очередь.
func (s *Service) HandlePaymentEvent(ctx context.Context, body []byte) error {
	const op = "sender.HandlePaymentEvent"
	log := s.log.With(sl.Op(op))

	var ev models.PaymentEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		log.Error("failed to unmarshal message body, dropped", sl.Err(err))
		return nil
	}
	log = log.With(slog.String("event", ev.Event), slog.String("order_id", ev.OrderID))

	email, ok := s.Compose(ev)
	if !ok {
		log.Warn("event skipped")
		return nil
	}
	if err := s.send(ctx, email); err != nil {
		metrics.EmailsSent.WithLabelValues(ev.Event, "error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.EmailsSent.WithLabelValues(ev.Event, "sent").Inc()
	log.Info("email sent")
	return nil
}

// Compose собирает письмо на тайском. false означает, что письмо не нужно:
// событие неизвестно или у покупателя нет email.
func (s *Service) Compose(ev models.PaymentEvent) (Email, bool) {
	if ev.UserEmail == "" {
		return Email{}, false
	}
	name := ev.DisplayName
	if name == "" {
		name = ev.UserEmail
	}
	amount := s.printer.Sprintf("%d", ev.Amount)
	ref := shortRef(ev.OrderID)

	var subject, body string
	switch ev.Event {
	case models.EventPaymentSubmitted:
		subject = fmt.Sprintf("ได้รับหลักฐานการชำระเงินคำสั่งซื้อ #%s แล้ว", ref)
		body = fmt.Sprintf("สวัสดีคุณ %s\n\n"+
			"เราได้รับสลิปการโอนเงินสำหรับ \"%s\" จำนวน %s บาท แล้ว\n"+
			"ทีมงานจะตรวจสอบและแจ้งผลให้ทราบโดยเร็วที่สุด\n", name, ev.ProductTitle, amount)
	case models.EventPaymentApproved:
		subject = fmt.Sprintf("ยืนยันการชำระเงินคำสั่งซื้อ #%s เรียบร้อย", ref)
		body = fmt.Sprintf("สวัสดีคุณ %s\n\n"+
			"การชำระเงินสำหรับ \"%s\" จำนวน %s บาท ได้รับการยืนยันแล้ว\n"+
			"คุณสามารถดาวน์โหลดหนังสือได้ที่หน้า คลังหนังสือของฉัน\n", name, ev.ProductTitle, amount)
	case models.EventPaymentRejected:
		subject = fmt.Sprintf("การชำระเงินคำสั่งซื้อ #%s ไม่ผ่านการตรวจสอบ", ref)
		body = fmt.Sprintf("สวัสดีคุณ %s\n\n"+
			"สลิปการโอนเงินสำหรับ \"%s\" จำนวน %s บาท ไม่ผ่านการตรวจสอบ\n"+
			"เหตุผล: %s\n"+
			"กรุณาอัปโหลดสลิปใหม่ที่หน้าคำสั่งซื้อของคุณ\n", name, ev.ProductTitle, amount, ev.Reason)
	default:
		return Email{}, false
	}
	return Email{To: ev.UserEmail, Subject: subject, Body: body}, true
}

func shortRef(orderID string) string {
	if len(orderID) > 8 {
		return strings.ToUpper(orderID[:8])
	}
	return strings.ToUpper(orderID)
}

func (s *Service) send(ctx context.Context, email Email) error {
	from := s.transport.GetSMTPUser()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + email.To,
		"Subject: " + mime.QEncoding.Encode("UTF-8", email.Subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"Content-Transfer-Encoding: 8bit",
		"",
		email.Body,
	}, "\r\n")

	client, err := s.transport.Connect(ctx)
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}
	if err := client.Rcpt(email.To); err != nil {
		s.log.Error("failed to set RCPT TO", slog.String("recipient", email.To), sl.Err(err))
		return err
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}
	return nil
}
