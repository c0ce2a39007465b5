package gym

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// sessionTimeout bounds individual gateway calls. Resets spawn a browser and
// load the task page, so the budget is generous.
const sessionTimeout = 90 * time.Second

// Client talks to the benchmark gateway, which hosts environment sessions
// over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a gateway client.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: sessionTimeout},
		logger:     logger.Named("gym"),
	}
}

// OpenSession creates a new environment session for the given task. The
// returned Env is exclusive to the caller until closed.
func (c *Client) OpenSession(ctx context.Context, taskID string) (Env, error) {
	var resp struct {
		SessionID string `json:"session_id"`
	}
	err := c.post(ctx, "/sessions", map[string]any{"task_id": taskID}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to open session for task %s: %w", taskID, err)
	}
	if resp.SessionID == "" {
		return nil, fmt.Errorf("gateway returned empty session id for task %s", taskID)
	}
	c.logger.Debug("opened environment session",
		zap.String("task_id", taskID), zap.String("session_id", resp.SessionID))
	return &session{client: c, id: resp.SessionID, taskID: taskID}, nil
}

type session struct {
	client *Client
	id     string
	taskID string
}

func (s *session) Reset(ctx context.Context, seed int) (Observation, error) {
	var resp struct {
		Observation Observation `json:"observation"`
	}
	err := s.client.post(ctx, "/sessions/"+s.id+"/reset", map[string]any{"seed": seed}, &resp)
	if err != nil {
		return Observation{}, fmt.Errorf("reset failed for session %s: %w", s.id, err)
	}
	return resp.Observation, nil
}

func (s *session) Step(ctx context.Context, actionText string) (StepResult, error) {
	var resp StepResult
	err := s.client.post(ctx, "/sessions/"+s.id+"/step", map[string]any{"action": actionText}, &resp)
	if err != nil {
		return StepResult{}, fmt.Errorf("step failed for session %s: %w", s.id, err)
	}
	return resp, nil
}

func (s *session) Close(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.client.baseURL+"/sessions/"+s.id, nil)
	if err != nil {
		return fmt.Errorf("failed to build close request: %w", err)
	}
	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("close failed for session %s: %w", s.id, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("close failed for session %s: gateway returned %d", s.id, resp.StatusCode)
	}
	s.client.logger.Debug("closed environment session", zap.String("session_id", s.id))
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, respBody)
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode gateway response: %w", err)
		}
	}
	return nil
}
