package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"health-chatbot/internal/chatbot"
)

const (
	recentLimit  = 10
	topMentions  = 5
	alertTimeout = 15 * time.Second
)

var (
	ErrEmptyMessage    = errors.New("empty message")
	ErrDiseaseNotFound = errors.New("disease not found")
)

// AlertNotifier is told about every emergency after it has been logged.
type AlertNotifier interface {
	NotifyEmergency(ctx context.Context, e EmergencyLogEntry) error
}

type Service interface {
	HandleMessage(ctx context.Context, sessionID uuid.UUID, text string) (*Reply, error)
	Diseases(ctx context.Context) ([]chatbot.DiseaseRecord, error)
	Disease(ctx context.Context, name string) (*chatbot.DiseaseRecord, error)
	Stats(ctx context.Context) (*Stats, error)
	ReloadCatalog(ctx context.Context) (int, error)
	// Wait blocks until background alert deliveries have finished.
	Wait()
}

type service struct {
	repo    Repository
	catalog *CatalogStore
	alerts  AlertNotifier
	pending sync.WaitGroup
}

// NewService wires the chat flow. alerts may be nil.
func NewService(repo Repository, catalog *CatalogStore, alerts AlertNotifier) Service {
	return &service{
		repo:    repo,
		catalog: catalog,
		alerts:  alerts,
	}
}

// HandleMessage classifies one message, renders the reply and logs the
// exchange. Logging failures are reported in the server log only; the reply
// is returned either way.
func (s *service) HandleMessage(ctx context.Context, sessionID uuid.UUID, text string) (*Reply, error) {
	message := strings.TrimSpace(text)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if sessionID == uuid.Nil {
		sessionID = uuid.New()
	}

	result := chatbot.Classify(message, s.catalog.Snapshot())
	reply := &Reply{
		SessionID: sessionID,
		Result:    result,
		Message:   Render(result),
	}

	if em, ok := result.(chatbot.Emergency); ok {
		entry := EmergencyLogEntry{SessionID: sessionID, Message: message, Keyword: em.Keyword}
		logged, err := s.repo.LogEmergency(ctx, entry)
		if err != nil {
			log.Printf("[ERROR] log emergency: %v", err)
		} else {
			entry = *logged
		}
		s.notify(entry)
	}

	if _, err := s.repo.LogChat(ctx, ChatLogEntry{
		SessionID:   sessionID,
		UserMessage: message,
		BotResponse: reply.Message,
	}); err != nil {
		log.Printf("[ERROR] log chat: %v", err)
	}

	return reply, nil
}

// notify delivers the alert in the background with a detached context, so a
// slow notifier never delays the reply.
func (s *service) notify(entry EmergencyLogEntry) {
	if s.alerts == nil {
		return
	}

	s.pending.Add(1)
	go func(e EmergencyLogEntry) {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), alertTimeout)
		defer cancel()

		if err := s.alerts.NotifyEmergency(ctx, e); err != nil {
			log.Printf("[ERROR] emergency alert: %v", err)
		}
	}(entry)
}

func (s *service) Wait() {
	s.pending.Wait()
}

func (s *service) Diseases(ctx context.Context) ([]chatbot.DiseaseRecord, error) {
	c := s.catalog.Snapshot()
	out := make([]chatbot.DiseaseRecord, len(c.Diseases))
	copy(out, c.Diseases)
	return out, nil
}

func (s *service) Disease(ctx context.Context, name string) (*chatbot.DiseaseRecord, error) {
	name = strings.TrimSpace(name)
	for _, d := range s.catalog.Snapshot().Diseases {
		if strings.EqualFold(d.Name, name) {
			rec := d
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrDiseaseNotFound, name)
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, err
	}
	chats, err := s.repo.RecentChats(ctx, recentLimit)
	if err != nil {
		return nil, err
	}
	emergencies, err := s.repo.RecentEmergencies(ctx, recentLimit)
	if err != nil {
		return nil, err
	}
	messages, err := s.repo.UserMessages(ctx)
	if err != nil {
		return nil, err
	}

	return &Stats{
		TotalChats:       counts.Chats,
		TotalEmergencies: counts.Emergencies,
		TotalDiseases:    counts.Diseases,
		RecentChats:      chats,
		EmergencyLogs:    emergencies,
		TopDiseases:      TopMentions(messages, s.catalog.Snapshot().Names(), topMentions),
		GeneratedAt:      time.Now().UTC(),
	}, nil
}

// ReloadCatalog rebuilds the catalog from the store and returns its size.
func (s *service) ReloadCatalog(ctx context.Context) (int, error) {
	c, err := s.catalog.Reload(ctx)
	if err != nil {
		return 0, err
	}
	return len(c.Diseases), nil
}
