package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsbin/partsbin/internal/component"
	"github.com/partsbin/partsbin/internal/store"
)

func setupTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "metadata.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	seed := []struct {
		c          component.Component
		file, hash string
	}{
		{component.Component{"id": "r1", "type": "resistor", "value": "10kΩ", "qty": 50, "description": "carbon film"}, "a.png", "h1"},
		{component.Component{"id": "r2", "type": "resistor", "value": "220Ω", "qty": 10}, "b.png", "h2"},
		{component.Component{"id": "c1", "type": "capacitor", "value": "100nF", "qty": 25, "description": "ceramic X7R"}, "c.png", "h3"},
	}
	for _, s := range seed {
		added, err := st.Add(s.c, s.file, s.hash)
		require.NoError(t, err)
		require.True(t, added)
	}
	return st
}

// runServer feeds one request per line and returns the decoded responses.
func runServer(t *testing.T, st store.Store, requests ...string) []Response {
	t.Helper()
	var out bytes.Buffer
	srv := NewServer(st, strings.NewReader(strings.Join(requests, "\n")), &out)
	require.NoError(t, srv.Run(context.Background()))

	var responses []Response
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var resp Response
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
		responses = append(responses, resp)
	}
	return responses
}

// callTool runs a single tools/call and returns the result.
func callTool(t *testing.T, st store.Store, name string, args map[string]any) CallToolResult {
	t.Helper()
	params, err := json.Marshal(CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	req, err := json.Marshal(Request{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: params})
	require.NoError(t, err)

	responses := runServer(t, st, string(req))
	require.Len(t, responses, 1)
	require.Nil(t, responses[0].Error)

	raw, err := json.Marshal(responses[0].Result)
	require.NoError(t, err)
	var result CallToolResult
	require.NoError(t, json.Unmarshal(raw, &result))
	require.Len(t, result.Content, 1)
	assert.Equal(t, "text", result.Content[0].Type)
	return result
}

func decodeText(t *testing.T, result CallToolResult, v any) {
	t.Helper()
	require.False(t, result.IsError, result.Content[0].Text)
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), v))
}

func TestInitializeAndListTools(t *testing.T) {
	st := setupTestStore(t)
	responses := runServer(t, st,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"test"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"ping"}`,
	)
	require.Len(t, responses, 3, "notifications get no response")

	initResult := responses[0].Result.(map[string]any)
	assert.Equal(t, MCPVersion, initResult["protocolVersion"])
	assert.Equal(t, ServerName, initResult["serverInfo"].(map[string]any)["name"])

	tools := responses[1].Result.(map[string]any)["tools"].([]any)
	var names []string
	for _, tool := range tools {
		names = append(names, tool.(map[string]any)["name"].(string))
	}
	assert.Equal(t, []string{
		"inventory_search",
		"inventory_get_component",
		"inventory_list",
		"inventory_stats",
		"inventory_parse_text",
	}, names)

	assert.EqualValues(t, 3, responses[2].ID)
	assert.Nil(t, responses[2].Error)
}

func TestProtocolErrors(t *testing.T) {
	st := setupTestStore(t)
	responses := runServer(t, st,
		`not json`,
		`{"jsonrpc":"2.0","id":7,"method":"resources/list"}`,
		`{"jsonrpc":"1.0","id":8,"method":"ping"}`,
		`{"jsonrpc":"2.0","id":9,"method":"tools/call","params":"oops"}`,
	)
	require.Len(t, responses, 4)

	assert.Equal(t, ErrorCodeParse, responses[0].Error.Code)
	assert.Equal(t, ErrorCodeMethodNotFound, responses[1].Error.Code)
	assert.Equal(t, ErrorCodeInvalidRequest, responses[2].Error.Code)
	assert.Equal(t, ErrorCodeInvalidParams, responses[3].Error.Code)
}

func TestToolSearch(t *testing.T) {
	st := setupTestStore(t)

	var res SearchResult
	decodeText(t, callTool(t, st, "inventory_search", map[string]any{"query": "RESISTOR"}), &res)
	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Components, 2)
	assert.Equal(t, "r1", res.Components[0].ID())

	decodeText(t, callTool(t, st, "inventory_search", map[string]any{"query": "resistor", "limit": 1}), &res)
	assert.Equal(t, 2, res.Total)
	assert.Len(t, res.Components, 1)

	decodeText(t, callTool(t, st, "inventory_search", map[string]any{"query": "x7r", "field": "value"}), &res)
	assert.Equal(t, 0, res.Total)
	assert.Empty(t, res.Components)

	result := callTool(t, st, "inventory_search", map[string]any{})
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "query is required")
}

func TestToolGetComponent(t *testing.T) {
	st := setupTestStore(t)

	var c component.Component
	decodeText(t, callTool(t, st, "inventory_get_component", map[string]any{"component_id": "c1"}), &c)
	assert.Equal(t, "capacitor", c.Type())
	assert.Equal(t, "c.png", c.File())

	result := callTool(t, st, "inventory_get_component", map[string]any{"component_id": "nope"})
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "not found")
}

func TestToolList(t *testing.T) {
	st := setupTestStore(t)

	var res ListResult
	decodeText(t, callTool(t, st, "inventory_list", map[string]any{"limit": 2, "offset": 1}), &res)
	assert.Equal(t, 3, res.Total)
	require.Len(t, res.Components, 2)
	assert.Equal(t, "r2", res.Components[0].ID())
	assert.Equal(t, "c1", res.Components[1].ID())

	decodeText(t, callTool(t, st, "inventory_list", map[string]any{"component_type": "Resistor"}), &res)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, "resistor", res.Type)

	decodeText(t, callTool(t, st, "inventory_list", map[string]any{"offset": "10"}), &res)
	assert.Empty(t, res.Components)

	result := callTool(t, st, "inventory_list", map[string]any{"limit": -1})
	assert.True(t, result.IsError)
}

func TestToolStats(t *testing.T) {
	st := setupTestStore(t)

	var stats map[string]any
	decodeText(t, callTool(t, st, "inventory_stats", nil), &stats)
	assert.EqualValues(t, 3, stats["total_components"])
	assert.EqualValues(t, 85, stats["total_quantity"])
	assert.Equal(t, "resistor", stats["most_common_type"])
}

func TestToolParseText(t *testing.T) {
	st := setupTestStore(t)

	var parsed map[string]string
	decodeText(t, callTool(t, st, "inventory_parse_text", map[string]any{"text": "10kΩ resistor 25 pcs $1.50"}), &parsed)
	assert.Equal(t, "10kΩ", parsed["value"])
	assert.Equal(t, "25", parsed["qty"])
	assert.Equal(t, "$1.50", parsed["price"])

	result := callTool(t, st, "inventory_parse_text", map[string]any{"text": "  "})
	assert.True(t, result.IsError)
}

func TestUnknownTool(t *testing.T) {
	result := callTool(t, setupTestStore(t), "inventory_delete", nil)
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "Unknown tool")
}
