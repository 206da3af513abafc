// Package gradio calls named endpoints of a Gradio web UI over its HTTP API.
//
// Two API generations are supported. The queue API posts the arguments to
// /call/{api}, receives an event id and then reads the outputs from a
// server-sent-events stream. Older servers expose a synchronous /run/{api}.
package gradio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"voicescout/internal/logging"
)

// VoicesAPI is the endpoint that returns the speaker choices of the speech UI
const VoicesAPI = "change_choices"

// ErrNotFound means the server has no endpoint with the requested name
var ErrNotFound = errors.New("gradio: endpoint not found")

// maxBody bounds how much of any response is read
const maxBody = 4 << 20

// queuePrefixes are tried in order; Gradio 4+ serves under /gradio_api
var queuePrefixes = []string{"/gradio_api", ""}

// Client calls Gradio endpoints
type Client struct {
	http   *http.Client
	logger *log.Logger
}

// New creates a client. A nil http.Client means http.DefaultClient;
// callers bound each call through the context.
func New(httpClient *http.Client, logger *log.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		http:   httpClient,
		logger: logging.Component(logger, "gradio"),
	}
}

// Predict calls apiName with args and returns the raw JSON array of outputs
func (c *Client) Predict(ctx context.Context, baseURL, apiName string, args ...any) (json.RawMessage, error) {
	base := strings.TrimRight(baseURL, "/")
	api := strings.TrimLeft(apiName, "/")
	if args == nil {
		args = []any{}
	}

	for _, prefix := range queuePrefixes {
		out, err := c.callQueue(ctx, base+prefix+"/call/"+api, args)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	c.logger.Debug("Queue API unavailable, trying legacy endpoint", "base", base, "api", api)
	return c.callLegacy(ctx, base+"/run/"+api, args)
}

// ListVoices returns the voice names offered by the speech UI at baseURL
func (c *Client) ListVoices(ctx context.Context, baseURL string) ([]string, error) {
	raw, err := c.Predict(ctx, baseURL, VoicesAPI)
	if err != nil {
		return nil, err
	}

	var outputs []json.RawMessage
	if err := json.Unmarshal(raw, &outputs); err != nil {
		return nil, fmt.Errorf("decode outputs: %w", err)
	}
	if len(outputs) == 0 {
		return nil, nil
	}

	voices, err := ParseChoices(outputs[0])
	if err != nil {
		// Some servers return the bare list as the whole output array
		if all, allErr := ParseChoices(raw); allErr == nil {
			return all, nil
		}
		return nil, err
	}
	return voices, nil
}

// callQueue performs the two-step queue call
func (c *Client) callQueue(ctx context.Context, url string, args []any) (json.RawMessage, error) {
	body, err := c.post(ctx, url, args)
	if err != nil {
		return nil, err
	}

	var started struct {
		EventID string `json:"event_id"`
	}
	if err := json.Unmarshal(body, &started); err != nil {
		return nil, fmt.Errorf("decode event id: %w", err)
	}
	if started.EventID == "" {
		return nil, fmt.Errorf("gradio: empty event id from %s", url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/"+started.EventID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gradio: stream status %d", resp.StatusCode)
	}
	return ReadResult(io.LimitReader(resp.Body, maxBody))
}

// callLegacy performs a synchronous /run call and unwraps {"data": [...]}
func (c *Client) callLegacy(ctx context.Context, url string, args []any) (json.RawMessage, error) {
	body, err := c.post(ctx, url, args)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data  json.RawMessage `json:"data"`
		Error string          `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode legacy response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("gradio: %s", resp.Error)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("gradio: legacy response without data")
	}
	return resp.Data, nil
}

// post sends {"data": args} and returns the body of a 200 response
func (c *Client) post(ctx context.Context, url string, args []any) ([]byte, error) {
	payload, err := json.Marshal(map[string]any{"data": args})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusMethodNotAllowed:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("gradio: %s returned %d", url, resp.StatusCode)
	}
	return body, nil
}

// ReadResult consumes a Gradio event stream until the complete or error event
func ReadResult(r io.Reader) (json.RawMessage, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxBody)

	var (
		event string
		data  strings.Builder
	)
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "":
			// Blank line dispatches the event
			switch event {
			case "complete":
				return json.RawMessage(data.String()), nil
			case "error":
				msg := strings.TrimSpace(data.String())
				if msg == "" || msg == "null" {
					msg = "remote error"
				}
				return nil, fmt.Errorf("gradio: %s", msg)
			}
			event = ""
			data.Reset()
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// Stream ended without a trailing blank line
	if event == "complete" && data.Len() > 0 {
		return json.RawMessage(data.String()), nil
	}
	return nil, fmt.Errorf("gradio: stream ended before completion")
}

// ParseChoices extracts names from a dropdown value: a list of strings, a list
// of [label, value] pairs, or an update object carrying "choices"
func ParseChoices(raw json.RawMessage) ([]string, error) {
	var update struct {
		Choices json.RawMessage `json:"choices"`
	}
	if err := json.Unmarshal(raw, &update); err == nil {
		if len(update.Choices) == 0 {
			return nil, fmt.Errorf("gradio: object without choices")
		}
		raw = update.Choices
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("gradio: unsupported choices format")
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		if name, ok := choiceName(item); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// choiceName reads a bare string or the label of a [label, value] pair
func choiceName(item json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(item, &s); err == nil {
		s = strings.TrimSpace(s)
		return s, s != ""
	}

	var pair []json.RawMessage
	if err := json.Unmarshal(item, &pair); err == nil && len(pair) > 0 {
		if err := json.Unmarshal(pair[0], &s); err == nil {
			s = strings.TrimSpace(s)
			return s, s != ""
		}
	}
	return "", false
}
