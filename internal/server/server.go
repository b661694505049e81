// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/ThinkInAIXYZ/go-mcp/server"

	"smartdiet/internal/diary"
	"smartdiet/internal/nutrition"
)

type Config struct {
	Transport string
	Host      string
	Port      int
	DiaryPath string
}

type SmartDietServer struct {
	server     *server.Server
	httpServer *http.Server
	diary      *diary.Store
	estimator  *nutrition.Estimator
	config     *Config
}

func NewSmartDietServer(cfg *Config) (*SmartDietServer, error) {
	return newSmartDietServer(cfg, nutrition.NewOpenAIClient())
}

// newSmartDietServer takes the completion client explicitly so tests can
// substitute a fake.
func newSmartDietServer(cfg *Config, client nutrition.CompletionClient) (*SmartDietServer, error) {
	dietServer := &SmartDietServer{
		diary:     diary.NewStore(cfg.DiaryPath),
		estimator: nutrition.NewEstimator(client),
		config:    cfg,
	}

	// Create HTTP server with MCP handler
	mux := http.NewServeMux()

	// Create MCP server (without transport, we'll handle HTTP manually)
	mcpServer, err := server.NewServer(
		nil, // We'll handle transport manually
		server.WithServerInfo(protocol.Implementation{
			Name:    "smartdiet",
			Version: "1.0.0",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP server: %w", err)
	}

	dietServer.server = mcpServer

	// Register tools
	if err := dietServer.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	// Set up HTTP handlers
	mux.HandleFunc("/", dietServer.handleHTTP)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	dietServer.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	return dietServer, nil
}

func (s *SmartDietServer) handleHTTP(w http.ResponseWriter, r *http.Request) {
	// Simple HTTP-based MCP protocol handler
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == http.MethodOptions {
		return
	}

	// Decode the MCP request
	var request protocol.CallToolRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	// Route to appropriate handler based on tool name
	var result *protocol.CallToolResult
	var err error

	switch request.Name {
	case "analyze_dish":
		result, err = s.handleAnalyzeDish(&request)
	case "log_meal":
		result, err = s.handleLogMeal(&request)
	case "get_diary":
		result, err = s.handleGetDiary(&request)
	case "get_diary_by_date":
		result, err = s.handleGetDiaryByDate(&request)
	case "delete_meal":
		result, err = s.handleDeleteMeal(&request)
	case "get_statistics":
		result, err = s.handleGetStatistics(&request)
	default:
		http.Error(w, fmt.Sprintf("Unknown tool: %s", request.Name), http.StatusNotFound)
		return
	}

	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Send response
	if err := json.NewEncoder(w).Encode(result); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func (s *SmartDietServer) Start(ctx context.Context) error {
	log.Printf("Starting SmartDiet server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *SmartDietServer) Stop() error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(context.Background())
	}
	return nil
}

func (s *SmartDietServer) createJSONResponse(data interface{}) (*protocol.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
	}, nil
}
