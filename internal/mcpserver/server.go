// Package mcpserver exposes the chat service as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"health-chatbot/internal/chat"
)

const version = "0.1.0"

// Tools holds the service the tool handlers call into.
type Tools struct {
	Chat chat.Service
}

// --- Input types ---

type ClassifyMessageInput struct {
	Message   string `json:"message" jsonschema:"The user's health question"`
	SessionID string `json:"session_id,omitempty" jsonschema:"Optional chat session UUID; a new one is created when empty"`
}

type GetDiseaseInput struct {
	Name string `json:"name" jsonschema:"Disease name, matched case-insensitively"`
}

// New creates an MCP server with every tool registered.
func New(svc chat.Service) *mcp.Server {
	t := &Tools{Chat: svc}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "health-chatbot",
		Version: version,
	}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "classify_message",
		Description: "Answer a health question the way the chat API does: emergency, greeting, help, disease info or not found. The exchange is logged.",
	}, t.ClassifyMessage)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_diseases",
		Description: "List every disease in the catalog with symptoms and prevention",
	}, t.ListDiseases)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_disease",
		Description: "Get one disease record by exact name",
	}, t.GetDisease)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_stats",
		Description: "Get chat totals, recent chats, recent emergencies and the most asked about diseases",
	}, t.GetStats)

	return srv
}

// --- Handlers ---

func (t *Tools) ClassifyMessage(ctx context.Context, _ *mcp.CallToolRequest, input ClassifyMessageInput) (*mcp.CallToolResult, any, error) {
	sid, err := uuid.Parse(input.SessionID)
	if err != nil {
		sid = uuid.New()
	}

	reply, err := t.Chat.HandleMessage(ctx, sid, input.Message)
	if errors.Is(err, chat.ErrEmptyMessage) {
		return toolError("Message is required"), nil, nil
	}
	if err != nil {
		return toolError("Failed to process message: %v", err), nil, nil
	}

	return toolJSON(chat.NewChatResponse(reply))
}

func (t *Tools) ListDiseases(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	diseases, err := t.Chat.Diseases(ctx)
	if err != nil {
		return toolError("Failed to list diseases: %v", err), nil, nil
	}
	return toolJSON(diseases)
}

func (t *Tools) GetDisease(ctx context.Context, _ *mcp.CallToolRequest, input GetDiseaseInput) (*mcp.CallToolResult, any, error) {
	if input.Name == "" {
		return toolError("Disease name is required"), nil, nil
	}

	d, err := t.Chat.Disease(ctx, input.Name)
	if errors.Is(err, chat.ErrDiseaseNotFound) {
		return toolError("Disease %q not found. Use list_diseases to see the catalog.", input.Name), nil, nil
	}
	if err != nil {
		return toolError("Failed to get disease: %v", err), nil, nil
	}
	return toolJSON(d)
}

func (t *Tools) GetStats(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	stats, err := t.Chat.Stats(ctx)
	if err != nil {
		return toolError("Failed to get stats: %v", err), nil, nil
	}
	return toolJSON(stats)
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
