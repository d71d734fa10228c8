package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"health-chatbot/internal/chatbot"
)

type recordingNotifier struct {
	mu      sync.Mutex
	entries []EmergencyLogEntry
	err     error
}

func (n *recordingNotifier) NotifyEmergency(ctx context.Context, e EmergencyLogEntry) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries, e)
	return n.err
}

func (n *recordingNotifier) received() []EmergencyLogEntry {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]EmergencyLogEntry(nil), n.entries...)
}

func newTestService(t *testing.T, alerts AlertNotifier) (Service, Repository) {
	t.Helper()

	repo := seededRepo(t)
	store := NewCatalogStore(repo)
	if _, err := store.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	return NewService(repo, store, alerts), repo
}

func TestHandleMessageDiseaseInfo(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t, nil)
	sid := uuid.New()

	reply, err := svc.HandleMessage(ctx, sid, "  tell me about malaria  ")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	info, ok := reply.Result.(chatbot.DiseaseInfo)
	if !ok {
		t.Fatalf("result = %#v, want DiseaseInfo", reply.Result)
	}
	if info.Record.Name != "Malaria" {
		t.Fatalf("disease = %q", info.Record.Name)
	}
	if reply.SessionID != sid {
		t.Fatalf("session id changed")
	}
	if !strings.Contains(reply.Message, "**Malaria**") {
		t.Fatalf("message not rendered: %q", reply.Message)
	}

	chats, err := repo.RecentChats(ctx, 1)
	if err != nil {
		t.Fatalf("RecentChats: %v", err)
	}
	if len(chats) != 1 || chats[0].UserMessage != "tell me about malaria" || chats[0].BotResponse != reply.Message {
		t.Fatalf("chat log = %+v", chats)
	}
}

func TestHandleMessageEmpty(t *testing.T) {
	svc, repo := newTestService(t, nil)

	for _, msg := range []string{"", "   ", "\n\t"} {
		if _, err := svc.HandleMessage(context.Background(), uuid.New(), msg); !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("HandleMessage(%q) error = %v, want ErrEmptyMessage", msg, err)
		}
	}

	counts, _ := repo.Counts(context.Background())
	if counts.Chats != 0 {
		t.Fatalf("empty messages were logged: %d", counts.Chats)
	}
}

func TestHandleMessageAssignsSession(t *testing.T) {
	svc, _ := newTestService(t, nil)

	reply, err := svc.HandleMessage(context.Background(), uuid.Nil, "hello")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if reply.SessionID == uuid.Nil {
		t.Fatalf("expected a generated session id")
	}
	if reply.Result.Kind() != chatbot.KindGreeting {
		t.Fatalf("kind = %s", reply.Result.Kind())
	}
}

func TestHandleMessageEmergency(t *testing.T) {
	ctx := context.Background()
	alerts := &recordingNotifier{err: errors.New("telegram down")}
	svc, repo := newTestService(t, alerts)
	sid := uuid.New()

	reply, err := svc.HandleMessage(ctx, sid, "Hello, I have CHEST PAIN")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	svc.Wait()

	if got, want := reply.Result, (chatbot.Emergency{Keyword: "chest pain"}); got != want {
		t.Fatalf("result = %#v, want %#v", got, want)
	}
	if !strings.HasPrefix(reply.Message, "⚠️ EMERGENCY DETECTED: chest pain") {
		t.Fatalf("message = %q", reply.Message)
	}

	logged, err := repo.RecentEmergencies(ctx, 10)
	if err != nil {
		t.Fatalf("RecentEmergencies: %v", err)
	}
	if len(logged) != 1 || logged[0].Keyword != "chest pain" || logged[0].Message != "Hello, I have CHEST PAIN" {
		t.Fatalf("emergency log = %+v", logged)
	}

	sent := alerts.received()
	if len(sent) != 1 {
		t.Fatalf("notifier got %d alerts, want 1", len(sent))
	}
	if sent[0].ID != logged[0].ID || sent[0].SessionID != sid {
		t.Fatalf("alert = %+v, logged = %+v", sent[0], logged[0])
	}

	counts, _ := repo.Counts(ctx)
	if counts.Chats != 1 {
		t.Fatalf("emergency exchange not logged as chat: %+v", counts)
	}
}

func TestDiseaseLookup(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	d, err := svc.Disease(ctx, "covid-19")
	if err != nil {
		t.Fatalf("Disease: %v", err)
	}
	if d.Name != "COVID-19" {
		t.Fatalf("name = %q", d.Name)
	}

	if _, err := svc.Disease(ctx, "unobtainium fever"); !errors.Is(err, ErrDiseaseNotFound) {
		t.Fatalf("error = %v, want ErrDiseaseNotFound", err)
	}

	all, err := svc.Diseases(ctx)
	if err != nil {
		t.Fatalf("Diseases: %v", err)
	}
	if len(all) != 57 {
		t.Fatalf("got %d diseases, want 57", len(all))
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)
	sid := uuid.New()

	for _, msg := range []string{"malaria", "what is malaria?", "covid-19 symptoms", "hello", "stroke"} {
		if _, err := svc.HandleMessage(ctx, sid, msg); err != nil {
			t.Fatalf("HandleMessage(%q): %v", msg, err)
		}
	}
	svc.Wait()

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalChats != 5 || stats.TotalEmergencies != 1 || stats.TotalDiseases != 57 {
		t.Fatalf("totals = %d/%d/%d", stats.TotalChats, stats.TotalEmergencies, stats.TotalDiseases)
	}
	if len(stats.RecentChats) != 5 || stats.RecentChats[0].UserMessage != "stroke" {
		t.Fatalf("recent chats = %+v", stats.RecentChats)
	}
	if len(stats.TopDiseases) == 0 || stats.TopDiseases[0] != (DiseaseMention{Name: "Malaria", Count: 2}) {
		t.Fatalf("top diseases = %+v", stats.TopDiseases)
	}
	if stats.GeneratedAt.IsZero() {
		t.Fatalf("generated_at not set")
	}
}

func TestReloadCatalogSwapsSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	store := NewCatalogStore(repo)
	svc := NewService(repo, store, nil)

	before := store.Snapshot()
	if reply, _ := svc.HandleMessage(ctx, uuid.New(), "malaria"); reply.Result.Kind() != chatbot.KindNotFound {
		t.Fatalf("empty catalog resolved %#v", reply.Result)
	}

	if _, err := repo.SeedDiseases(ctx, []chatbot.DiseaseRecord{{Name: "Malaria", Symptoms: "Fever", Prevention: "Nets"}}); err != nil {
		t.Fatalf("SeedDiseases: %v", err)
	}
	n, err := svc.ReloadCatalog(ctx)
	if err != nil {
		t.Fatalf("ReloadCatalog: %v", err)
	}
	if n != 1 {
		t.Fatalf("reloaded %d diseases, want 1", n)
	}
	if len(before.Diseases) != 0 {
		t.Fatalf("old snapshot was mutated")
	}

	reply, err := svc.HandleMessage(ctx, uuid.New(), "malaria")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if reply.Result.Kind() != chatbot.KindDiseaseInfo {
		t.Fatalf("kind = %s after reload", reply.Result.Kind())
	}
}

// brokenLogRepo serves the catalog but fails every log write.
type brokenLogRepo struct {
	Repository
}

func (brokenLogRepo) LogChat(ctx context.Context, e ChatLogEntry) (*ChatLogEntry, error) {
	return nil, errors.New("disk full")
}

func (brokenLogRepo) LogEmergency(ctx context.Context, e EmergencyLogEntry) (*EmergencyLogEntry, error) {
	return nil, errors.New("disk full")
}

func TestHandleMessageSurvivesLogFailures(t *testing.T) {
	ctx := context.Background()
	repo := brokenLogRepo{Repository: seededRepo(t)}
	store := NewCatalogStore(repo)
	if _, err := store.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	alerts := &recordingNotifier{}
	svc := NewService(repo, store, alerts)
	sid := uuid.New()

	reply, err := svc.HandleMessage(ctx, sid, "my friend is having a seizure")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	svc.Wait()

	if got, want := reply.Result, (chatbot.Emergency{Keyword: "seizure"}); got != want {
		t.Fatalf("result = %#v, want %#v", got, want)
	}
	if !strings.HasPrefix(reply.Message, "⚠️ EMERGENCY DETECTED: seizure") {
		t.Fatalf("message = %q", reply.Message)
	}

	sent := alerts.received()
	if len(sent) != 1 {
		t.Fatalf("notifier got %d alerts, want 1", len(sent))
	}
	if sent[0].Keyword != "seizure" || sent[0].SessionID != sid || sent[0].Message != "my friend is having a seizure" {
		t.Fatalf("alert = %+v", sent[0])
	}

	reply, err = svc.HandleMessage(ctx, sid, "malaria")
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if reply.Result.Kind() != chatbot.KindDiseaseInfo {
		t.Fatalf("kind = %s", reply.Result.Kind())
	}
}
