package guardian

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/astralhq/chatgate/pkg/infra/httpx"
	"github.com/sirupsen/logrus"
)

const (
	inputPath  = "/v1/moderation/input"
	outputPath = "/v1/moderation/output"
)

type httpGuardian struct {
	client  httpx.Client
	logger  *logrus.Logger
	baseURL string
	token   string
	timeout time.Duration
}

// NewHTTPGuardian talks to the moderation service over HTTP. Every call
// carries its own timeout so a slow moderation backend cannot eat the whole
// pipeline deadline.
func NewHTTPGuardian(
	logger *logrus.Logger,
	client httpx.Client,
	baseURL, token string,
	timeout time.Duration,
) Guardian {
	if client == nil {
		client = &http.Client{}
	}
	return &httpGuardian{
		client:  client,
		logger:  logger,
		baseURL: baseURL,
		token:   token,
		timeout: timeout,
	}
}

type inputRequest struct {
	Input  string `json:"input"`
	UserID string `json:"user_id"`
}

type outputRequest struct {
	Output string `json:"output"`
	UserID string `json:"user_id"`
}

func (g *httpGuardian) ProcessInput(ctx context.Context, text, userID string) (InputResult, error) {
	var result InputResult
	err := g.post(ctx, inputPath, inputRequest{Input: text, UserID: userID}, &result)
	if err != nil {
		return InputResult{}, err
	}
	return result, nil
}

func (g *httpGuardian) ProcessOutput(ctx context.Context, content, userID string) (OutputResult, error) {
	var result OutputResult
	err := g.post(ctx, outputPath, outputRequest{Output: content, UserID: userID}, &result)
	if err != nil {
		return OutputResult{}, err
	}
	return result, nil
}

func (g *httpGuardian) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal guardian request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build guardian request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("guardian unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("guardian returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode guardian response: %w", err)
	}
	return nil
}
