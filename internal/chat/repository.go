package chat

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"health-chatbot/internal/chatbot"
	"health-chatbot/internal/platform/database"
)

type Repository interface {
	ListDiseases(ctx context.Context) ([]chatbot.DiseaseRecord, error)
	SeedDiseases(ctx context.Context, records []chatbot.DiseaseRecord) (int, error)
	LogChat(ctx context.Context, e ChatLogEntry) (*ChatLogEntry, error)
	LogEmergency(ctx context.Context, e EmergencyLogEntry) (*EmergencyLogEntry, error)
	Counts(ctx context.Context) (Counts, error)
	RecentChats(ctx context.Context, limit int) ([]ChatLogEntry, error)
	RecentEmergencies(ctx context.Context, limit int) ([]EmergencyLogEntry, error)
	UserMessages(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

type sqlRepo struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewRepository serves both dialects; queries are written with ? and rebound.
func NewRepository(db *sql.DB, dialect database.Dialect) Repository {
	return &sqlRepo{db: db, dialect: dialect}
}

func (r *sqlRepo) q(query string) string {
	return r.dialect.Rebind(query)
}

func (r *sqlRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *sqlRepo) ListDiseases(ctx context.Context) ([]chatbot.DiseaseRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, symptoms, prevention, causes, risk_factors, info FROM diseases ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list diseases: %w", err)
	}
	defer rows.Close()

	var records []chatbot.DiseaseRecord
	for rows.Next() {
		var d chatbot.DiseaseRecord
		var causes, risks, info sql.NullString
		if err := rows.Scan(&d.ID, &d.Name, &d.Symptoms, &d.Prevention, &causes, &risks, &info); err != nil {
			return nil, fmt.Errorf("scan disease: %w", err)
		}
		d.Causes, d.RiskFactors, d.Info = causes.String, risks.String, info.String
		records = append(records, d)
	}
	return records, rows.Err()
}

// SeedDiseases inserts records only into an empty table and reports how many
// were written.
func (r *sqlRepo) SeedDiseases(ctx context.Context, records []chatbot.DiseaseRecord) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	var existing int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM diseases`).Scan(&existing); err != nil {
		return 0, fmt.Errorf("count diseases: %w", err)
	}
	if existing > 0 {
		return 0, nil
	}

	stmt, err := tx.PrepareContext(ctx, r.q(
		`INSERT INTO diseases (name, symptoms, prevention, causes, risk_factors, info) VALUES (?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return 0, fmt.Errorf("prepare seed: %w", err)
	}
	defer stmt.Close()

	for _, d := range records {
		if _, err := stmt.ExecContext(ctx, d.Name, d.Symptoms, d.Prevention,
			nullString(d.Causes), nullString(d.RiskFactors), nullString(d.Info)); err != nil {
			return 0, fmt.Errorf("insert disease %q: %w", d.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return len(records), nil
}

func (r *sqlRepo) LogChat(ctx context.Context, e ChatLogEntry) (*ChatLogEntry, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	err := r.db.QueryRowContext(ctx, r.q(
		`INSERT INTO chat_logs (session_id, user_message, bot_response, created_at) VALUES (?, ?, ?, ?) RETURNING id`),
		e.SessionID.String(), e.UserMessage, e.BotResponse, e.Timestamp,
	).Scan(&e.ID)
	if err != nil {
		return nil, fmt.Errorf("insert chat log: %w", err)
	}
	return &e, nil
}

func (r *sqlRepo) LogEmergency(ctx context.Context, e EmergencyLogEntry) (*EmergencyLogEntry, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	err := r.db.QueryRowContext(ctx, r.q(
		`INSERT INTO emergency_logs (session_id, message, keyword, created_at) VALUES (?, ?, ?, ?) RETURNING id`),
		e.SessionID.String(), e.Message, e.Keyword, e.Timestamp,
	).Scan(&e.ID)
	if err != nil {
		return nil, fmt.Errorf("insert emergency log: %w", err)
	}
	return &e, nil
}

func (r *sqlRepo) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	for _, q := range []struct {
		table string
		dst   *int
	}{
		{"chat_logs", &c.Chats},
		{"emergency_logs", &c.Emergencies},
		{"diseases", &c.Diseases},
	} {
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+q.table).Scan(q.dst); err != nil {
			return Counts{}, fmt.Errorf("count %s: %w", q.table, err)
		}
	}
	return c, nil
}

func (r *sqlRepo) RecentChats(ctx context.Context, limit int) ([]ChatLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, r.q(
		`SELECT id, session_id, user_message, bot_response, created_at FROM chat_logs ORDER BY id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("recent chats: %w", err)
	}
	defer rows.Close()

	entries := []ChatLogEntry{}
	for rows.Next() {
		var e ChatLogEntry
		var ts dbTime
		if err := rows.Scan(&e.ID, &e.SessionID, &e.UserMessage, &e.BotResponse, &ts); err != nil {
			return nil, fmt.Errorf("scan chat log: %w", err)
		}
		e.Timestamp = ts.Time
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *sqlRepo) RecentEmergencies(ctx context.Context, limit int) ([]EmergencyLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, r.q(
		`SELECT id, session_id, message, keyword, created_at FROM emergency_logs ORDER BY id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("recent emergencies: %w", err)
	}
	defer rows.Close()

	entries := []EmergencyLogEntry{}
	for rows.Next() {
		var e EmergencyLogEntry
		var ts dbTime
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Message, &e.Keyword, &ts); err != nil {
			return nil, fmt.Errorf("scan emergency log: %w", err)
		}
		e.Timestamp = ts.Time
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *sqlRepo) UserMessages(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_message FROM chat_logs`)
	if err != nil {
		return nil, fmt.Errorf("user messages: %w", err)
	}
	defer rows.Close()

	var messages []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scan user message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// dbTime scans timestamps from either driver: Postgres returns time.Time,
// SQLite may hand back the stored text.
type dbTime struct {
	time.Time
}

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (t *dbTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}
