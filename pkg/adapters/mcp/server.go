package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/unicorn"
	"github.com/aretw0/unicorn/internal/logging"
	"github.com/aretw0/unicorn/pkg/domain"
	"github.com/aretw0/unicorn/pkg/session"
	"github.com/aretw0/unicorn/pkg/trie"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MnemonicsURI is the resource listing every configured sequence.
const MnemonicsURI = "unicorn://mnemonics"

// DefaultSessionID is used when a tool call names no session.
const DefaultSessionID = "mcp"

// KeyResponse is the structured result of process_key.
type KeyResponse struct {
	Actions     []domain.Action    `json:"actions" jsonschema_description:"Actions the host must apply, in order"`
	Composition domain.Composition `json:"composition" jsonschema_description:"Composition state after the key"`
}

// CandidatesResponse is the structured result of get_candidates.
type CandidatesResponse struct {
	Candidates []string `json:"candidates" jsonschema_description:"Candidates at the current position, in configured order"`
	Selected   int      `json:"selected" jsonschema_description:"Highlighted candidate index"`
}

// SelectResponse is the structured result of select_candidate.
type SelectResponse struct {
	OK          bool               `json:"ok" jsonschema_description:"False when the index was out of range"`
	Composition domain.Composition `json:"composition" jsonschema_description:"Composition state after the call"`
}

// Sessions is the composition service exposed over MCP.
// *session.Manager implements it.
type Sessions interface {
	ProcessKey(ctx context.Context, sessionID string, c rune) (session.Result, error)
	Candidates(ctx context.Context, sessionID string) ([]string, int, error)
	Select(ctx context.Context, sessionID string, i int) (bool, domain.Composition, error)
	Deactivate(ctx context.Context, sessionID string) error
	Trie() *trie.Trie
}

// Server wraps the session manager and exposes it as an MCP Server.
type Server struct {
	sessions  Sessions
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions Sessions, opts ...Option) *Server {
	s := &Server{
		sessions: sessions,
		mcpServer: server.NewMCPServer("unicorn-mcp", unicorn.Version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, e.g. for in-process transports.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on addr using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	sessionArg := mcp.WithString("session_id", mcp.Description("Composition session (default \""+DefaultSessionID+"\")"))

	// TOOL: process_key
	s.mcpServer.AddTool(mcp.NewTool("process_key",
		mcp.WithDescription("Feed one key to the composition engine and get the resulting actions. "+
			"The trigger (\\ by default) starts a composition."),
		mcp.WithString("key", mcp.Required(),
			mcp.Description("Exactly one character, or \""+domain.KeyNameBackspace+"\" / \""+domain.KeyNameDelete+"\"")),
		sessionArg,
		mcp.WithOutputSchema[KeyResponse](),
	), mcp.NewStructuredToolHandler(s.handleProcessKey))

	// TOOL: get_candidates
	s.mcpServer.AddTool(mcp.NewTool("get_candidates",
		mcp.WithDescription("List the candidates at the current composition position."),
		sessionArg,
		mcp.WithOutputSchema[CandidatesResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetCandidates))

	// TOOL: select_candidate
	s.mcpServer.AddTool(mcp.NewTool("select_candidate",
		mcp.WithDescription("Highlight a candidate; the next trigger commits it."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based candidate index")),
		sessionArg,
		mcp.WithOutputSchema[SelectResponse](),
	), mcp.NewStructuredToolHandler(s.handleSelectCandidate))

	// TOOL: deactivate
	s.mcpServer.AddTool(mcp.NewTool("deactivate",
		mcp.WithDescription("Abandon the current composition."),
		sessionArg,
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := sessionID(request.GetArguments())
		if err := s.sessions.Deactivate(ctx, id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("deactivate failed: %v", err)), nil
		}
		return mcp.NewToolResultText("composition abandoned"), nil
	})
}

func sessionID(args map[string]interface{}) string {
	if id, ok := args["session_id"].(string); ok && id != "" {
		return id
	}
	return DefaultSessionID
}

func (s *Server) handleProcessKey(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (KeyResponse, error) {
	key, _ := args["key"].(string)
	r, err := domain.ParseKey(key)
	if err != nil {
		s.logger.Warn("MCP process_key: key rejected", "err", err)
		return KeyResponse{}, err
	}

	res, err := s.sessions.ProcessKey(ctx, sessionID(args), r)
	if err != nil {
		return KeyResponse{}, fmt.Errorf("process_key failed: %w", err)
	}
	return KeyResponse{Actions: res.Actions, Composition: res.Composition}, nil
}

func (s *Server) handleGetCandidates(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CandidatesResponse, error) {
	candidates, selected, err := s.sessions.Candidates(ctx, sessionID(args))
	if err != nil {
		return CandidatesResponse{}, fmt.Errorf("get_candidates failed: %w", err)
	}
	return CandidatesResponse{Candidates: candidates, Selected: selected}, nil
}

func (s *Server) handleSelectCandidate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (SelectResponse, error) {
	index, ok := args["index"].(float64)
	if !ok || index != float64(int(index)) {
		return SelectResponse{}, errors.New("index must be an integer")
	}

	selected, comp, err := s.sessions.Select(ctx, sessionID(args), int(index))
	if err != nil {
		return SelectResponse{}, fmt.Errorf("select_candidate failed: %w", err)
	}
	return SelectResponse{OK: selected, Composition: comp}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: unicorn://mnemonics
	s.mcpServer.AddResource(mcp.NewResource(MnemonicsURI, "Configured mnemonics",
		mcp.WithResourceDescription("Every sequence that produces candidates, with its candidates"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.sessions.Trie().Entries())
		if err != nil {
			return nil, fmt.Errorf("failed to encode mnemonics: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      MnemonicsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
