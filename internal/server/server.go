package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ironsheep/image-styles/internal/derivative"
	"github.com/ironsheep/image-styles/internal/markup"
	"github.com/ironsheep/image-styles/internal/pipeline"
	"github.com/ironsheep/image-styles/internal/resolver"
)

// Options configures a Server.
type Options struct {
	// Resolver answers derivative_generate and supplies the live catalog.
	// When nil, one with an empty catalog is built from the fields below.
	Resolver *resolver.Resolver

	// Executor runs style_preview and validates actions in style_resolve.
	Executor *pipeline.Executor

	Responsive map[string]markup.ResponsiveStyle
	BaseDir    string
	StaticDir  string
	Types      *derivative.Types
	Version    string

	// In and Out default to stdin and stdout.
	In  io.Reader
	Out io.Writer

	Logger *slog.Logger
}

// Server handles MCP protocol communication
type Server struct {
	resolver  *resolver.Resolver
	executor  *pipeline.Executor
	markup    *markup.Rewriter
	baseDir   string
	staticDir string
	types     *derivative.Types
	version   string
	in        io.Reader
	out       io.Writer
	logger    *slog.Logger
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance
func New(opts Options) *Server {
	s := &Server{
		resolver:  opts.Resolver,
		executor:  opts.Executor,
		baseDir:   opts.BaseDir,
		staticDir: opts.StaticDir,
		types:     opts.Types,
		version:   opts.Version,
		in:        opts.In,
		out:       opts.Out,
		logger:    opts.Logger,
	}
	if s.in == nil {
		s.in = os.Stdin
	}
	if s.out == nil {
		s.out = os.Stdout
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.types == nil {
		s.types = derivative.DefaultTypes()
	}
	if s.executor == nil {
		s.executor = pipeline.New(pipeline.Options{Logger: s.logger})
	}
	if s.resolver == nil {
		s.resolver = resolver.New(resolver.Options{
			Generator: s.executor,
			Types:     s.types,
			BaseDir:   s.baseDir,
			StaticDir: s.staticDir,
			Logger:    s.logger,
		})
	}
	if s.version == "" {
		s.version = "dev"
	}
	s.markup = markup.New(markup.Options{
		Styles:     liveStyles{s.resolver},
		Responsive: opts.Responsive,
		Mode:       markup.Request,
		Logger:     s.logger,
	})
	return s
}

// liveStyles answers style lookups from the resolver's current catalog, so a
// reloaded configuration is seen by every tool.
type liveStyles struct {
	r *resolver.Resolver
}

func (l liveStyles) Has(name string) bool {
	return l.r.Catalog().Has(name)
}

// Run reads requests from the input until it is exhausted, writing one
// response per line.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(s.out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("Failed to parse request", slog.String("error", err.Error()))
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Error("Failed to encode response", slog.String("error", err.Error()))
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "image-styles",
				"version": s.version,
			},
		},
	}
}
