package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"health-chatbot/internal/chat"
)

type fakeTelegram struct {
	chatID   int64
	text     string
	fileName string
	file     []byte
}

func (f *fakeTelegram) SendMessage(ctx context.Context, chatID int64, text string) error {
	f.chatID, f.text = chatID, text
	return nil
}

func (f *fakeTelegram) SendDocument(ctx context.Context, chatID int64, data []byte, fileName string) error {
	f.chatID, f.file, f.fileName = chatID, data, fileName
	return nil
}

func sampleStats() chat.Stats {
	ts := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	sid := uuid.New()
	return chat.Stats{
		TotalChats:       12,
		TotalEmergencies: 1,
		TotalDiseases:    57,
		RecentChats: []chat.ChatLogEntry{
			{ID: 2, SessionID: sid, UserMessage: "tell me about malaria", Timestamp: ts},
		},
		EmergencyLogs: []chat.EmergencyLogEntry{
			{ID: 1, SessionID: sid, Message: "I have chest pain", Keyword: "chest pain", Timestamp: ts},
		},
		TopDiseases: []chat.DiseaseMention{{Name: "Malaria", Count: 4}},
		GeneratedAt: ts,
	}
}

func TestAlertText(t *testing.T) {
	sid := uuid.MustParse("8c4a0f5e-4a8b-4f43-9d2e-3c1b2a4d5e6f")
	got := AlertText(chat.EmergencyLogEntry{
		SessionID: sid,
		Message:   "my father had a stroke",
		Keyword:   "stroke",
		Timestamp: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	})

	for _, want := range []string{
		"Keyword: stroke",
		"Message: my father had a stroke",
		"Session: " + sid.String(),
		"Time: 01.05.2024 09:30 UTC",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("alert missing %q:\n%s", want, got)
		}
	}
}

func TestNotifyEmergency(t *testing.T) {
	tg := &fakeTelegram{}
	svc := NewService(tg, 777, nil)

	err := svc.NotifyEmergency(context.Background(), chat.EmergencyLogEntry{Keyword: "seizure", Message: "seizure now"})
	if err != nil {
		t.Fatalf("NotifyEmergency: %v", err)
	}
	if tg.chatID != 777 || !strings.Contains(tg.text, "Keyword: seizure") {
		t.Fatalf("sent chat=%d text=%q", tg.chatID, tg.text)
	}
}

func TestWithoutTelegram(t *testing.T) {
	svc := NewService(nil, 0, nil)

	if err := svc.NotifyEmergency(context.Background(), chat.EmergencyLogEntry{}); err == nil {
		t.Fatalf("expected an error without telegram")
	}
	if err := svc.SendStatsReport(context.Background(), sampleStats()); err == nil {
		t.Fatalf("expected an error without telegram")
	}
}

func TestRenderStatsPDF(t *testing.T) {
	svc := NewService(nil, 0, nil)

	data, err := svc.RenderStatsPDF(sampleStats())
	if errors.Is(err, ErrNoFont) {
		t.Skip("DejaVu Sans is not installed")
	}
	if err != nil {
		t.Fatalf("RenderStatsPDF: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", data[:min(len(data), 16)])
	}
}

func TestRenderStatsPDFManyPages(t *testing.T) {
	stats := sampleStats()
	for i := 0; i < 200; i++ {
		stats.RecentChats = append(stats.RecentChats, chat.ChatLogEntry{UserMessage: strings.Repeat("symptoms of influenza ", 5)})
	}

	data, err := NewService(nil, 0, nil).RenderStatsPDF(stats)
	if errors.Is(err, ErrNoFont) {
		t.Skip("DejaVu Sans is not installed")
	}
	if err != nil {
		t.Fatalf("RenderStatsPDF: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("empty PDF")
	}
}

func TestRenderStatsPDFMissingFont(t *testing.T) {
	svc := &Service{fontPaths: []string{"/nonexistent/font.ttf"}}

	if _, err := svc.RenderStatsPDF(sampleStats()); !errors.Is(err, ErrNoFont) {
		t.Fatalf("error = %v, want ErrNoFont", err)
	}
}

func TestSendStatsReport(t *testing.T) {
	tg := &fakeTelegram{}
	svc := NewService(tg, 5, nil)

	err := svc.SendStatsReport(context.Background(), sampleStats())
	if errors.Is(err, ErrNoFont) {
		t.Skip("DejaVu Sans is not installed")
	}
	if err != nil {
		t.Fatalf("SendStatsReport: %v", err)
	}
	if tg.chatID != 5 || tg.fileName != "health_stats_20240501_0930.pdf" || len(tg.file) == 0 {
		t.Fatalf("sent chat=%d file=%q (%d bytes)", tg.chatID, tg.fileName, len(tg.file))
	}
}

func TestSendStatsPDF(t *testing.T) {
	tg := &fakeTelegram{}
	svc := NewService(tg, 9, nil)

	generated := time.Date(2024, 6, 2, 8, 5, 0, 0, time.UTC)
	if err := svc.SendStatsPDF(context.Background(), []byte("%PDF-rendered"), generated); err != nil {
		t.Fatalf("SendStatsPDF: %v", err)
	}
	if tg.chatID != 9 || tg.fileName != "health_stats_20240602_0805.pdf" || string(tg.file) != "%PDF-rendered" {
		t.Fatalf("sent chat=%d file=%q content=%q", tg.chatID, tg.fileName, tg.file)
	}

	if err := NewService(nil, 0, nil).SendStatsPDF(context.Background(), []byte("x"), generated); err == nil {
		t.Fatalf("expected an error without telegram")
	}
}
