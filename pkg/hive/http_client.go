package hive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/astralhq/chatgate/pkg/infra/httpx"
	"github.com/astralhq/chatgate/pkg/types"
	"github.com/sirupsen/logrus"
)

const generatePath = "/v1/generate"

type httpGenerator struct {
	client  httpx.Client
	breaker httpx.CircuitBreaker
	logger  *logrus.Logger
	baseURL string
	token   string
	timeout time.Duration
}

// NewHTTPGenerator talks to the orchestrator over HTTP behind a circuit
// breaker. The per-call timeout must stay below the pipeline deadline so a
// slow provider still leaves room for a timely error envelope.
func NewHTTPGenerator(
	logger *logrus.Logger,
	client httpx.Client,
	breaker httpx.CircuitBreaker,
	baseURL, token string,
	timeout time.Duration,
) Generator {
	if client == nil {
		client = &http.Client{}
	}
	return &httpGenerator{
		client:  client,
		breaker: breaker,
		logger:  logger,
		baseURL: baseURL,
		token:   token,
		timeout: timeout,
	}
}

type generateRequest struct {
	Messages    []types.Message `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
	TaskType    string          `json:"task_type"`
}

func (h *httpGenerator) Generate(ctx context.Context, params GenerateParams) (types.ProviderResponse, error) {
	var result types.ProviderResponse

	call := func() error {
		payload, err := json.Marshal(generateRequest{
			Messages:    params.Messages,
			MaxTokens:   params.MaxTokens,
			Temperature: params.Temperature,
			TaskType:    params.TaskType,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal generate request: %w", err)
		}

		callCtx, cancel := context.WithTimeout(ctx, h.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(callCtx, http.MethodPost, h.baseURL+generatePath, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to build generate request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if h.token != "" {
			req.Header.Set("Authorization", "Bearer "+h.token)
		}

		resp, err := h.client.Do(req)
		if err != nil {
			return fmt.Errorf("hive unreachable: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("hive returned status %d", resp.StatusCode)
		}

		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("failed to decode hive response: %w", err)
		}
		return nil
	}

	var err error
	if h.breaker != nil {
		err = h.breaker.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		return types.ProviderResponse{}, err
	}

	if result.TokensUsed < 0 {
		return types.ProviderResponse{}, fmt.Errorf("hive reported negative token usage %d", result.TokensUsed)
	}
	return result, nil
}
