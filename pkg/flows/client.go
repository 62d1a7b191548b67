package flows

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Client is an HTTP client for the workflow engine's registration API. It
// implements the registrar's WorkflowEngineClient and AutomationHookRegistrar
// capabilities.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient creates a workflow engine client for the given API base URL.
// token is sent as a bearer credential on every request.
func NewClient(baseURL, token string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 60 * time.Second},
		logger:  logger.With().Str("component", "engine-client").Logger(),
	}
}

type registerFlowRequest struct {
	Project string `json:"project"`
	Flow    *Flow  `json:"flow"`
}

type idResponse struct {
	ID string `json:"id"`
}

// RegisterFlow registers an assembled flow under the given project and
// returns the engine-assigned flow id.
func (c *Client) RegisterFlow(ctx context.Context, project string, flow *Flow) (string, error) {
	var resp idResponse
	err := c.post(ctx, "/flows", registerFlowRequest{Project: project, Flow: flow}, &resp)
	if err != nil {
		return "", fmt.Errorf("register flow %q: %w", flow.Name, err)
	}
	c.logger.Info().Str("flow", flow.Name).Str("flow_id", resp.ID).Msg("Flow registered")
	return resp.ID, nil
}

type createRunRequest struct {
	RunName string `json:"run_name"`
}

// CreateFlowRun triggers an immediate run of a registered flow under the
// given run name and returns the run id.
func (c *Client) CreateFlowRun(ctx context.Context, flowID, runName string) (string, error) {
	var resp idResponse
	err := c.post(ctx, "/flows/"+flowID+"/runs", createRunRequest{RunName: runName}, &resp)
	if err != nil {
		return "", fmt.Errorf("create run for flow %s: %w", flowID, err)
	}
	c.logger.Info().Str("flow_id", flowID).Str("run_id", resp.ID).Msg("Flow run created")
	return resp.ID, nil
}

type registerHookRequest struct {
	FlowID   string `json:"flow_id"`
	BotToken string `json:"bot_token"`
}

// RegisterHook registers a follow-up automation hook that reacts to the
// outcome of runs of the given flow, authenticated with the bot credential.
func (c *Client) RegisterHook(ctx context.Context, flowID, botToken string) (string, error) {
	var resp idResponse
	err := c.post(ctx, "/automations", registerHookRequest{FlowID: flowID, BotToken: botToken}, &resp)
	if err != nil {
		return "", fmt.Errorf("register automation hook for flow %s: %w", flowID, err)
	}
	c.logger.Info().Str("flow_id", flowID).Str("hook_id", resp.ID).Msg("Automation hook registered")
	return resp.ID, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("engine returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
