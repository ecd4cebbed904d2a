package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/partsbin/partsbin/internal/component"
	"github.com/partsbin/partsbin/internal/fields"
	"github.com/partsbin/partsbin/internal/store"
)

const (
	// MCPVersion is the protocol version we support.
	MCPVersion = "2024-11-05"

	// ServerName is the name of this MCP server.
	ServerName = "partsbin"
)

// ServerVersion is reported during initialize. The CLI sets it from the
// build version.
var ServerVersion = "dev"

const (
	defaultSearchLimit = 10
	defaultListLimit   = 20
)

// Server is the MCP server for the component inventory.
type Server struct {
	store store.Store

	reader *bufio.Reader
	writer io.Writer

	initialized bool
}

// NewServer creates a server that reads requests from r and writes
// responses to w. Logs must not go to w.
func NewServer(st store.Store, r io.Reader, w io.Writer) *Server {
	return &Server{
		store:  st,
		reader: bufio.NewReader(r),
		writer: w,
	}
}

// Run processes requests until EOF or until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	log.Info("MCP server starting", "store", s.store.Path())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := s.reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read request: %w", err)
		}
		eof := err != nil

		if line = strings.TrimSpace(line); line != "" {
			s.handleLine(ctx, line)
		}

		if eof {
			log.Info("MCP server received EOF, shutting down")
			return nil
		}
	}
}

func (s *Server) handleLine(ctx context.Context, line string) {
	var req Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		s.sendError(nil, ErrorCodeParse, "Parse error", err.Error())
		return
	}
	if req.JSONRPC != JSONRPCVersion || req.Method == "" {
		if !req.isNotification() {
			s.sendError(req.ID, ErrorCodeInvalidRequest, "Invalid request", "expected jsonrpc 2.0 with a method")
		}
		return
	}

	s.handleRequest(ctx, req)
}

// handleRequest processes a single MCP request.
func (s *Server) handleRequest(ctx context.Context, req Request) {
	log.Debug("Received request", "method", req.Method, "id", req.ID)

	var result any
	var err error

	switch req.Method {
	case "initialize":
		result, err = s.handleInitialize(req.Params)
	case "initialized", "notifications/initialized":
		s.initialized = true
		log.Info("MCP server initialized")
		return
	case "tools/list":
		result = s.handleListTools()
	case "tools/call":
		result, err = s.handleCallTool(ctx, req.Params)
	case "ping":
		result = map[string]any{}
	default:
		if req.isNotification() {
			log.Debug("Ignoring notification", "method", req.Method)
			return
		}
		s.sendError(req.ID, ErrorCodeMethodNotFound, "Method not found", req.Method)
		return
	}

	if req.isNotification() {
		return
	}

	if err != nil {
		var perr *paramsError
		if errors.As(err, &perr) {
			s.sendError(req.ID, ErrorCodeInvalidParams, "Invalid params", err.Error())
			return
		}
		s.sendError(req.ID, ErrorCodeInternal, "Internal error", err.Error())
		return
	}

	s.sendResult(req.ID, result)
}

// paramsError marks malformed request params.
type paramsError struct{ err error }

func (e *paramsError) Error() string { return "invalid params: " + e.err.Error() }
func (e *paramsError) Unwrap() error { return e.err }

// handleInitialize handles the initialize request.
func (s *Server) handleInitialize(params json.RawMessage) (*InitializeResult, error) {
	var p InitializeParams
	if params != nil {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &paramsError{err}
		}
	}

	log.Info("Initializing MCP server",
		"clientName", p.ClientInfo.Name,
		"clientVersion", p.ClientInfo.Version,
		"protocolVersion", p.ProtocolVersion,
	)

	return &InitializeResult{
		ProtocolVersion: MCPVersion,
		Capabilities: ServerCapabilities{
			Tools: &ToolsCapability{},
		},
		ServerInfo: ServerInfo{
			Name:    ServerName,
			Version: ServerVersion,
		},
	}, nil
}

// Tools returns the tool definitions served by tools/list.
func Tools() []Tool {
	zero := 0
	one := 1

	return []Tool{
		{
			Name:        "inventory_search",
			Description: "Search components by case-insensitive substring, e.g. '10k' or 'electrolytic'.",
			InputSchema: JSONSchema{
				Type: "object",
				Properties: map[string]Property{
					"query": {
						Type:        "string",
						Description: "Text to look for",
					},
					"field": {
						Type:        "string",
						Description: "Only search this field (type, value, description, ...). Default searches description, type, value and part number.",
					},
					"limit": {
						Type:        "integer",
						Description: "Maximum number of results to return",
						Default:     defaultSearchLimit,
						Minimum:     &one,
					},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        "inventory_get_component",
			Description: "Get every stored field of one component by id.",
			InputSchema: JSONSchema{
				Type: "object",
				Properties: map[string]Property{
					"component_id": {
						Type:        "string",
						Description: "The component id",
					},
				},
				Required: []string{"component_id"},
			},
		},
		{
			Name:        "inventory_list",
			Description: "List components in insertion order with pagination and an optional type filter.",
			InputSchema: JSONSchema{
				Type: "object",
				Properties: map[string]Property{
					"limit": {
						Type:        "integer",
						Description: "Maximum number of components to return",
						Default:     defaultListLimit,
						Minimum:     &one,
					},
					"offset": {
						Type:        "integer",
						Description: "Number of components to skip",
						Default:     0,
						Minimum:     &zero,
					},
					"component_type": {
						Type:        "string",
						Description: "Only list components of this type (resistor, capacitor, ...)",
					},
				},
			},
		},
		{
			Name:        "inventory_stats",
			Description: "Totals, quantity sum and per-type counts for the inventory.",
			InputSchema: JSONSchema{Type: "object"},
		},
		{
			Name:        "inventory_parse_text",
			Description: "Extract value, quantity, price and description from recognized label text without storing anything.",
			InputSchema: JSONSchema{
				Type: "object",
				Properties: map[string]Property{
					"text": {
						Type:        "string",
						Description: "Text read from a label or bag",
					},
				},
				Required: []string{"text"},
			},
		},
	}
}

// handleListTools returns the list of available tools.
func (s *Server) handleListTools() *ListToolsResult {
	return &ListToolsResult{Tools: Tools()}
}

// handleCallTool executes a tool and returns the result. Tool failures are
// reported in the result, not as protocol errors.
func (s *Server) handleCallTool(ctx context.Context, params json.RawMessage) (*CallToolResult, error) {
	var p CallToolParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &paramsError{err}
	}
	if p.Arguments == nil {
		p.Arguments = map[string]any{}
	}

	log.Debug("Calling tool", "name", p.Name, "arguments", p.Arguments)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		payload any
		err     error
	)

	switch p.Name {
	case "inventory_search":
		payload, err = s.toolSearch(p.Arguments)
	case "inventory_get_component":
		payload, err = s.toolGetComponent(p.Arguments)
	case "inventory_list":
		payload, err = s.toolList(p.Arguments)
	case "inventory_stats":
		payload, err = s.store.GetStats()
	case "inventory_parse_text":
		payload, err = toolParseText(p.Arguments)
	default:
		return textResult(fmt.Sprintf("Unknown tool: %s", p.Name), true), nil
	}

	if err != nil {
		log.Debug("Tool failed", "name", p.Name, "error", err)
		return textResult("Error: "+err.Error(), true), nil
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return textResult(string(data), false), nil
}

// SearchResult is the payload of inventory_search.
type SearchResult struct {
	Query      string                `json:"query"`
	Field      string                `json:"field,omitempty"`
	Total      int                   `json:"total"`
	Components []component.Component `json:"components"`
}

// ListResult is the payload of inventory_list.
type ListResult struct {
	Total      int                   `json:"total"`
	Offset     int                   `json:"offset"`
	Type       string                `json:"component_type,omitempty"`
	Components []component.Component `json:"components"`
}

func (s *Server) toolSearch(args map[string]any) (*SearchResult, error) {
	query := stringArg(args, "query")
	if query == "" {
		return nil, errors.New("query is required")
	}
	field := stringArg(args, "field")
	limit, err := intArg(args, "limit", defaultSearchLimit)
	if err != nil {
		return nil, err
	}

	results, err := s.store.Search(query, field)
	if err != nil {
		return nil, err
	}

	out := &SearchResult{Query: query, Field: field, Total: len(results)}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	out.Components = results
	return out, nil
}

func (s *Server) toolGetComponent(args map[string]any) (component.Component, error) {
	id := stringArg(args, "component_id")
	if id == "" {
		return nil, errors.New("component_id is required")
	}

	c, err := s.store.GetByID(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("component with id %q not found", id)
	}
	return c, nil
}

func (s *Server) toolList(args map[string]any) (*ListResult, error) {
	limit, err := intArg(args, "limit", defaultListLimit)
	if err != nil {
		return nil, err
	}
	offset, err := intArg(args, "offset", 0)
	if err != nil {
		return nil, err
	}
	typ := component.NormalizeType(stringArg(args, "component_type"))

	out := &ListResult{Offset: offset, Type: typ}

	if typ == "" {
		total, err := s.store.Count()
		if err != nil {
			return nil, err
		}
		page, err := s.store.ListAll(&store.ListOptions{Limit: limit, Offset: offset})
		if err != nil {
			return nil, err
		}
		out.Total = total
		out.Components = page
		return out, nil
	}

	all, err := s.store.ListAll(nil)
	if err != nil {
		return nil, err
	}
	filtered := []component.Component{}
	for _, c := range all {
		if c.Type() == typ {
			filtered = append(filtered, c)
		}
	}
	out.Total = len(filtered)

	if offset >= len(filtered) {
		out.Components = []component.Component{}
		return out, nil
	}
	filtered = filtered[offset:]
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	out.Components = filtered
	return out, nil
}

func toolParseText(args map[string]any) (map[string]string, error) {
	text := stringArg(args, "text")
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("text is required")
	}
	return fields.Parse(text), nil
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}

// intArg reads a non-negative integer argument. Clients send JSON numbers,
// but some send numeric strings.
func intArg(args map[string]any, key string, def int) (int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return def, nil
	}

	var n int
	switch v := raw.(type) {
	case float64:
		n = int(v)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer", key)
		}
		n = parsed
	default:
		return 0, fmt.Errorf("%s must be an integer", key)
	}

	if n < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return n, nil
}

// sendResult sends a successful response.
func (s *Server) sendResult(id any, result any) {
	s.send(Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  result,
	})
}

// sendError sends an error response.
func (s *Server) sendError(id any, code int, message, data string) {
	s.send(Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error: &Error{
			Code:    code,
			Message: message,
			Data:    data,
		},
	})
}

// send writes one response line.
func (s *Server) send(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error("Failed to marshal response", "error", err)
		return
	}
	fmt.Fprintln(s.writer, string(data))
}
