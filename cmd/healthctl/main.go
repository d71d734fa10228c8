package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"health-chatbot/internal/app"
	"health-chatbot/internal/chat"
	"health-chatbot/internal/chatbot"
	"health-chatbot/internal/config"
	"health-chatbot/internal/mcpserver"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "healthctl",
		Short:        "Health information chatbot tools",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("HEALTHBOT_CONFIG"), "YAML config file")

	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(diseasesCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(mcpCmd())

	return rootCmd
}

func openApp(ctx context.Context, configure func(*config.Config)) (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if configure != nil {
		configure(cfg)
	}
	return app.New(ctx, cfg)
}

func askCmd() *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Ask the chatbot a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			sid, err := uuid.Parse(session)
			if err != nil {
				sid = uuid.New()
			}

			reply, err := a.Chat.HandleMessage(ctx, sid, strings.Join(args, " "))
			if err != nil {
				return err
			}

			fmt.Println(reply.Message)
			fmt.Printf("\n(%s, session %s)\n", reply.Result.Kind(), reply.SessionID)
			return nil
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "session id to log the exchange under")
	return cmd
}

func diseasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diseases",
		Short: "List the diseases in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			for _, name := range a.Catalog.Snapshot().Names() {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Show one disease record",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := a.Chat.Disease(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}

			fmt.Println(chat.Render(chatbot.DiseaseInfo{Record: *d}))
			if d.Causes != "" {
				fmt.Printf("\nCauses: %s\n", d.Causes)
			}
			if d.RiskFactors != "" {
				fmt.Printf("Risk factors: %s\n", d.RiskFactors)
			}
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print chat statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.Chat.Stats(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Chats:       %d\n", stats.TotalChats)
			fmt.Printf("Emergencies: %d\n", stats.TotalEmergencies)
			fmt.Printf("Diseases:    %d\n", stats.TotalDiseases)

			if len(stats.TopDiseases) > 0 {
				fmt.Println("\nMost asked about:")
				for i, m := range stats.TopDiseases {
					fmt.Printf("  %d. %s (%d)\n", i+1, m.Name, m.Count)
				}
			}
			if len(stats.EmergencyLogs) > 0 {
				fmt.Println("\nRecent emergencies:")
				for _, e := range stats.EmergencyLogs {
					fmt.Printf("  [%s] %s: %s\n", e.Timestamp.Format("2006-01-02 15:04"), e.Keyword, truncate(e.Message, 60))
				}
			}
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the built-in disease dataset into an empty store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, func(c *config.Config) { c.Database.Seed = false })
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := app.Seed(ctx, a.Repo)
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Println("Diseases table already populated; nothing to do.")
				return nil
			}
			fmt.Printf("Inserted %d diseases.\n", n)
			return nil
		},
	}
}

func reportCmd() *cobra.Command {
	var out string
	var send bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the statistics PDF and optionally send it to Telegram",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.Chat.Stats(ctx)
			if err != nil {
				return err
			}

			path := reportPath(out, cmd.Flags().Changed("out"), send)
			if send && !a.Config.AlertsEnabled() {
				return fmt.Errorf("telegram.token and telegram.chat must be set to send reports")
			}
			if !send && path == "" {
				return nil
			}

			data, err := a.Reports.RenderStatsPDF(*stats)
			if err != nil {
				return err
			}

			if send {
				if err := a.Reports.SendStatsPDF(ctx, data, stats.GeneratedAt); err != nil {
					return err
				}
			}
			if path == "" {
				return nil
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Printf("Report written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "health-stats.pdf", "output file (empty to skip; not written with --send unless given)")
	cmd.Flags().BoolVar(&send, "send", false, "send the report to the configured Telegram chat")
	return cmd
}

// reportPath is where the PDF goes: --send skips the local file unless --out
// was given explicitly.
func reportPath(out string, outSet, send bool) string {
	if send && !outSet {
		return ""
	}
	return out
}

func mcpCmd() *cobra.Command {
	var transport, port string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the chatbot as MCP tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := openApp(ctx, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := mcpserver.New(a.Chat)

			switch transport {
			case "stdio":
				log.Println("Health MCP server starting (stdio)")
				return srv.Run(ctx, &mcp.StdioTransport{})
			case "http":
				addr := ":" + port
				handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
					return srv
				}, nil)
				log.Printf("Health MCP server listening on %s", addr)

				ln, err := net.Listen("tcp", addr)
				if err != nil {
					return err
				}
				return serveUntilDone(ctx, &http.Server{Handler: handler}, ln)
			default:
				return fmt.Errorf("unknown transport: %s (use stdio or http)", transport)
			}
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "transport mode: stdio or http")
	cmd.Flags().StringVar(&port, "port", "8081", "HTTP port (only used with --transport http)")
	return cmd
}

// serveUntilDone serves on ln until ctx is cancelled, then drains in-flight
// requests before returning so callers can release what handlers use.
func serveUntilDone(ctx context.Context, srv *http.Server, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("shutting down MCP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}
