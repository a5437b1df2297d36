package uia2

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/devicelab-dev/droidpilot/pkg/core"
	"github.com/devicelab-dev/droidpilot/pkg/logger"
)

// Client communicates with the automation agent over the adb forward.
type Client struct {
	http      *http.Client
	baseURL   string
	sessionID string
}

// NewClient creates a client using a Unix socket forward (Linux/Mac).
func NewClient(socketPath string) *Client {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			return net.Dial("unix", socketPath)
		},
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		baseURL: "http://localhost",
	}
}

// NewClientTCP creates a client using a TCP port forward (Windows).
func NewClientTCP(port int) *Client {
	return &Client{
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: fmt.Sprintf("http://127.0.0.1:%d", port),
	}
}

// SessionID returns the current session ID.
func (c *Client) SessionID() string {
	return c.sessionID
}

// HasSession returns true if a session is active.
func (c *Client) HasSession() bool {
	return c.sessionID != ""
}

// request makes an HTTP request to the agent.
func (c *Client) request(method, path string, body interface{}) ([]byte, error) {
	start := time.Now()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		logger.Debug("agent request failed", "method", method, "path", path, "elapsed", elapsed, "err", err)
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	logger.Debug("agent request", "method", method, "path", path, "elapsed", elapsed, "status", resp.StatusCode)

	if resp.StatusCode >= 400 {
		var errResp Response
		if json.Unmarshal(respBody, &errResp) == nil {
			if errVal, ok := errResp.Value.(map[string]interface{}); ok {
				errMsg, _ := errVal["message"].(string)
				errType, _ := errVal["error"].(string)
				return nil, fmt.Errorf("%s: %s", errType, errMsg)
			}
		}
		return nil, fmt.Errorf("agent error %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// decode unmarshals an agent response body. An empty or non-JSON body
// means the agent process crashed or was never provisioned correctly,
// which the dispatcher answers with an agent reinstall.
func decode(data []byte, out interface{}) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return core.ErrMalformedResponse.WithDetails(map[string]interface{}{"body": "empty"})
	}
	if err := json.Unmarshal(data, out); err != nil {
		return core.ErrMalformedResponse.WithCause(err)
	}
	return nil
}

// sessionPath returns path with session ID prefix.
func (c *Client) sessionPath(path string) string {
	return fmt.Sprintf("/session/%s%s", c.sessionID, path)
}

// Status checks if the agent is ready.
func (c *Client) Status() (bool, error) {
	data, err := c.request("GET", "/status", nil)
	if err != nil {
		return false, err
	}

	var resp struct {
		Value struct {
			Ready   bool   `json:"ready"`
			Message string `json:"message"`
		} `json:"value"`
	}
	if err := decode(data, &resp); err != nil {
		return false, err
	}

	return resp.Value.Ready, nil
}

// CreateSession starts a new automation session.
func (c *Client) CreateSession(caps Capabilities) error {
	req := SessionRequest{Capabilities: caps}
	data, err := c.request("POST", "/session", req)
	if err != nil {
		return err
	}

	var resp struct {
		SessionID string `json:"sessionId"`
	}
	if err := decode(data, &resp); err != nil {
		return err
	}

	if resp.SessionID == "" {
		// Try alternate response format
		var altResp struct {
			Value struct {
				SessionID string `json:"sessionId"`
			} `json:"value"`
		}
		if json.Unmarshal(data, &altResp) == nil && altResp.Value.SessionID != "" {
			resp.SessionID = altResp.Value.SessionID
		}
	}

	if resp.SessionID == "" {
		return core.ErrMalformedResponse.WithMessage("no session ID in agent response")
	}

	c.sessionID = resp.SessionID
	return nil
}

// DeleteSession ends the current session.
func (c *Client) DeleteSession() error {
	if c.sessionID == "" {
		return nil
	}

	_, err := c.request("DELETE", c.sessionPath(""), nil)
	c.sessionID = ""
	return err
}

// Close ends the session and cleans up.
func (c *Client) Close() error {
	return c.DeleteSession()
}

// SetCommandTimeout raises the agent's idle command timeout so it does
// not self-terminate between actions during long unattended runs.
func (c *Client) SetCommandTimeout(timeout time.Duration) error {
	if c.sessionID == "" {
		return fmt.Errorf("no active session")
	}

	_, err := c.request("POST", c.sessionPath("/timeouts"), map[string]interface{}{
		"implicit": timeout.Milliseconds(),
	})
	return err
}
