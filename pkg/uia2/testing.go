package uia2

import "net/http"

// NewTestClient creates a Client pointed at an arbitrary base URL.
// This should only be used in tests.
func NewTestClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		http:    httpClient,
		baseURL: baseURL,
	}
}

// SetSession sets the session ID for testing purposes.
// This should only be used in tests.
func (c *Client) SetSession(sessionID string) {
	c.sessionID = sessionID
}
