package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// JSONRPCRequest represents a JSON-RPC request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      json.RawMessage `json:"id"`
}

// RPCHandler answers one JSON-RPC method. It returns the result value to be
// JSON-encoded, or an error that becomes a JSON-RPC error response.
type RPCHandler func(params json.RawMessage) (any, error)

// MockEthRPC is an httptest JSON-RPC node. eth_chainId is answered from
// ChainID; other methods need a handler.
type MockEthRPC struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]RPCHandler
	calls    map[string]int
}

// StartMockEthRPC starts a mock node reporting chainID. It is closed on test cleanup.
func StartMockEthRPC(t *testing.T, chainID int64) *MockEthRPC {
	t.Helper()

	m := &MockEthRPC{
		handlers: map[string]RPCHandler{
			"eth_chainId": func(json.RawMessage) (any, error) {
				return fmt.Sprintf("0x%x", chainID), nil
			},
		},
		calls: make(map[string]int),
	}

	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")

		var req JSONRPCRequest
		if err := json.Unmarshal(body, &req); err != nil {
			WriteRPCError(w, json.RawMessage(`1`), -32700, "parse error")
			return
		}

		m.mu.Lock()
		handler, ok := m.handlers[req.Method]
		m.calls[req.Method]++
		m.mu.Unlock()

		if !ok {
			WriteRPCError(w, req.ID, -32601, "method not found: "+req.Method)
			return
		}
		result, err := handler(req.Params)
		if err != nil {
			WriteRPCError(w, req.ID, -32000, err.Error())
			return
		}
		resultJSON, err := json.Marshal(result)
		if err != nil {
			WriteRPCError(w, req.ID, -32603, err.Error())
			return
		}
		WriteRPCResult(w, req.ID, resultJSON)
	}))
	t.Cleanup(m.Close)
	return m
}

// On registers a handler for method.
func (m *MockEthRPC) On(method string, h RPCHandler) {
	m.mu.Lock()
	m.handlers[method] = h
	m.mu.Unlock()
}

// Calls returns how many times method was requested.
func (m *MockEthRPC) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// WriteRPCResult writes a JSON-RPC success response.
func WriteRPCResult(w http.ResponseWriter, id, result json.RawMessage) {
	_ = json.NewEncoder(w).Encode(map[string]json.RawMessage{
		"jsonrpc": json.RawMessage(`"2.0"`),
		"id":      id,
		"result":  result,
	})
}

// WriteRPCError writes a JSON-RPC error response.
func WriteRPCError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	errJSON, _ := json.Marshal(map[string]interface{}{"code": code, "message": message})
	_ = json.NewEncoder(w).Encode(map[string]json.RawMessage{
		"jsonrpc": json.RawMessage(`"2.0"`),
		"id":      id,
		"error":   json.RawMessage(errJSON),
	})
}
