package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/crucial707/expense-tracker/cmd/cli/config"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	if len(e.Fields) == 0 {
		return msg
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return msg + ": " + strings.Join(parts, ", ")
}

// Client calls the expense API at BaseURL, sending Token as a bearer token when set.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// New returns a client for config.APIURL() without a token.
func New() *Client {
	return &Client{BaseURL: config.APIURL(), HTTP: &http.Client{Timeout: 15 * time.Second}}
}

// NewAuthed returns a client carrying the saved login token.
func NewAuthed() (*Client, error) {
	token, err := config.LoadToken()
	if err != nil {
		return nil, err
	}
	c := New()
	c.Token = token
	return c, nil
}

func (c *Client) Get(path string, query url.Values, out any) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.Do(http.MethodGet, path, nil, out)
}

func (c *Client) Post(path string, payload, out any) error {
	return c.Do(http.MethodPost, path, payload, out)
}

func (c *Client) Delete(path string, out any) error {
	return c.Do(http.MethodDelete, path, nil, out)
}

// Do sends payload as JSON (when non-nil) and decodes a 2xx body into out (when non-nil).
func (c *Client) Do(method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cannot reach API at %s: %w", c.BaseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{Status: resp.StatusCode}
		var errBody struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		if json.Unmarshal(data, &errBody) == nil && errBody.Error != "" {
			apiErr.Message, apiErr.Fields = errBody.Error, errBody.Fields
		} else {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
