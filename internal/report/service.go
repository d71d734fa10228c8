package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/signintech/gopdf"

	"health-chatbot/internal/chat"
)

// DefaultFontPaths are where common distributions install DejaVu Sans.
var DefaultFontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

var ErrNoFont = errors.New("no usable TTF font found")

const (
	fontName   = "DejaVu"
	lineWidth  = 500
	pageBottom = 780
)

type TelegramClient interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, fileData []byte, fileName string) error
}

type Service struct {
	tgClient  TelegramClient
	chatID    int64
	fontPaths []string
}

// NewService builds the report sender. tg may be nil when only PDF rendering is
// needed; fontPaths are tried before DefaultFontPaths.
func NewService(tg TelegramClient, chatID int64, fontPaths []string) *Service {
	return &Service{
		tgClient:  tg,
		chatID:    chatID,
		fontPaths: append(append([]string(nil), fontPaths...), DefaultFontPaths...),
	}
}

// NotifyEmergency posts an alert for a logged emergency to the staff chat.
func (s *Service) NotifyEmergency(ctx context.Context, e chat.EmergencyLogEntry) error {
	if s.tgClient == nil {
		return errors.New("telegram is not configured")
	}
	return s.tgClient.SendMessage(ctx, s.chatID, AlertText(e))
}

// AlertText is the message sent for one emergency.
func AlertText(e chat.EmergencyLogEntry) string {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	var sb strings.Builder
	sb.WriteString("🚨 Emergency reported in health chat\n\n")
	fmt.Fprintf(&sb, "Keyword: %s\n", e.Keyword)
	fmt.Fprintf(&sb, "Message: %s\n", e.Message)
	fmt.Fprintf(&sb, "Session: %s\n", e.SessionID)
	fmt.Fprintf(&sb, "Time: %s", ts.Format("02.01.2006 15:04 MST"))
	return sb.String()
}

// SendStatsReport renders the statistics PDF and uploads it to the staff chat.
func (s *Service) SendStatsReport(ctx context.Context, stats chat.Stats) error {
	if s.tgClient == nil {
		return errors.New("telegram is not configured")
	}

	data, err := s.RenderStatsPDF(stats)
	if err != nil {
		return err
	}
	return s.SendStatsPDF(ctx, data, stats.GeneratedAt)
}

// SendStatsPDF uploads an already rendered report; generated names the file.
func (s *Service) SendStatsPDF(ctx context.Context, data []byte, generated time.Time) error {
	if s.tgClient == nil {
		return errors.New("telegram is not configured")
	}

	fileName := fmt.Sprintf("health_stats_%s.pdf", generated.Format("20060102_1504"))
	log.Printf("Sending stats report to Telegram chat %d...", s.chatID)
	if err := s.tgClient.SendDocument(ctx, s.chatID, data, fileName); err != nil {
		return err
	}
	log.Println("Stats report sent successfully.")
	return nil
}

// RenderStatsPDF lays out the dashboard numbers on A4 pages.
func (s *Service) RenderStatsPDF(stats chat.Stats) ([]byte, error) {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	if err := s.loadFont(pdf); err != nil {
		return nil, err
	}

	w := &writer{pdf: pdf}

	generated := stats.GeneratedAt
	if generated.IsZero() {
		generated = time.Now().UTC()
	}

	w.heading(20, "Health Chatbot Statistics")
	w.gap(15)

	w.line(12, fmt.Sprintf("Generated: %s", generated.Format("02.01.2006 15:04 MST")))
	w.line(12, fmt.Sprintf("Total chats: %d", stats.TotalChats))
	w.line(12, fmt.Sprintf("Emergencies: %d", stats.TotalEmergencies))
	w.line(12, fmt.Sprintf("Diseases in catalog: %d", stats.TotalDiseases))
	w.gap(15)

	w.heading(14, "Most asked about:")
	if len(stats.TopDiseases) == 0 {
		w.line(11, "- No disease mentions yet.")
	}
	for i, m := range stats.TopDiseases {
		w.line(11, fmt.Sprintf("%d. %s (%d)", i+1, m.Name, m.Count))
	}
	w.gap(15)

	w.heading(14, "Recent emergencies:")
	if len(stats.EmergencyLogs) == 0 {
		w.line(11, "- None recorded.")
	}
	for _, e := range stats.EmergencyLogs {
		w.wrapped(11, fmt.Sprintf("- [%s] %s: %s", e.Timestamp.Format("02.01 15:04"), e.Keyword, e.Message))
	}
	w.gap(15)

	w.heading(14, "Recent chats:")
	for _, c := range stats.RecentChats {
		w.wrapped(11, fmt.Sprintf("- [%s] %s", c.Timestamp.Format("02.01 15:04"), c.UserMessage))
	}

	if w.err != nil {
		return nil, w.err
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Service) loadFont(pdf *gopdf.GoPdf) error {
	var lastErr error
	for _, path := range s.fontPaths {
		if path == "" {
			continue
		}
		if err := pdf.AddTTFFont(fontName, path); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("%w: last error: %v", ErrNoFont, lastErr)
	}
	return ErrNoFont
}

// writer keeps the first layout error and starts a new page near the bottom.
type writer struct {
	pdf *gopdf.GoPdf
	err error
}

func (w *writer) setFont(size float64) {
	if w.err != nil {
		return
	}
	w.err = w.pdf.SetFont(fontName, "", size)
}

func (w *writer) breakIfFull() {
	if w.pdf.GetY() > pageBottom {
		w.pdf.AddPage()
	}
}

func (w *writer) heading(size float64, text string) {
	w.setFont(size)
	if w.err != nil {
		return
	}
	w.breakIfFull()
	w.err = w.pdf.Cell(nil, text)
	w.pdf.Br(size + 6)
}

func (w *writer) line(size float64, text string) {
	w.setFont(size)
	if w.err != nil {
		return
	}
	w.breakIfFull()
	w.err = w.pdf.Cell(nil, text)
	w.pdf.Br(size + 4)
}

func (w *writer) wrapped(size float64, text string) {
	w.setFont(size)
	if w.err != nil {
		return
	}
	lines, err := w.pdf.SplitText(text, lineWidth)
	if err != nil {
		w.err = err
		return
	}
	for _, l := range lines {
		w.breakIfFull()
		if w.err = w.pdf.Cell(nil, l); w.err != nil {
			return
		}
		w.pdf.Br(size + 1)
	}
}

func (w *writer) gap(h float64) {
	w.pdf.Br(h)
}
