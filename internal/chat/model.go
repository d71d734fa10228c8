package chat

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"health-chatbot/internal/chatbot"
)

// ChatLogEntry is one logged exchange.
type ChatLogEntry struct {
	ID          int64     `json:"id"`
	SessionID   uuid.UUID `json:"session_id"`
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
	Timestamp   time.Time `json:"timestamp"`
}

// EmergencyLogEntry records a message that triggered an emergency keyword.
type EmergencyLogEntry struct {
	ID        int64     `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	Message   string    `json:"message"`
	Keyword   string    `json:"keyword"`
	Timestamp time.Time `json:"timestamp"`
}

type Counts struct {
	Chats       int
	Emergencies int
	Diseases    int
}

// DiseaseMention is encoded as a [name, count] pair, the shape the dashboard reads.
type DiseaseMention struct {
	Name  string
	Count int
}

func (m DiseaseMention) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{m.Name, m.Count})
}

func (m *DiseaseMention) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("disease mention: want [name, count], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &m.Name); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &m.Count)
}

// Stats feeds the analytics dashboard.
type Stats struct {
	TotalChats       int                 `json:"total_chats"`
	TotalEmergencies int                 `json:"total_emergencies"`
	TotalDiseases    int                 `json:"total_diseases"`
	RecentChats      []ChatLogEntry      `json:"recent_chats"`
	EmergencyLogs    []EmergencyLogEntry `json:"emergency_logs"`
	TopDiseases      []DiseaseMention    `json:"top_diseases"`
	GeneratedAt      time.Time           `json:"generated_at"`
}

// Reply is what HandleMessage returns for one user message.
type Reply struct {
	SessionID uuid.UUID
	Result    chatbot.Result
	Message   string
}
