package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrValidatorStatus indicates the validation service answered with a non-2xx status.
var ErrValidatorStatus = errors.New("policy validator returned unexpected status")

// Validation is the validation service's verdict on a policy.
type Validation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validator submits generated policies for validation.
type Validator interface {
	Validate(ctx context.Context, policy string) (*Validation, error)
	Endpoint() string
}

type httpValidator struct {
	endpoint string
	client   *http.Client
}

// NewValidator returns a Validator for cfg, or nil when no endpoint is configured.
func NewValidator(cfg *Config, client *http.Client) Validator {
	if cfg.Endpoint == "" {
		return nil
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.TimeoutDuration()}
	}
	return &httpValidator{endpoint: cfg.Endpoint, client: client}
}

func (v *httpValidator) Endpoint() string {
	return v.endpoint
}

func (v *httpValidator) Validate(ctx context.Context, policy string) (*Validation, error) {
	body, err := json.Marshal(map[string]string{"policy": policy})
	if err != nil {
		return nil, fmt.Errorf("marshal policy: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create validation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("validate policy: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %d", ErrValidatorStatus, resp.StatusCode)
	}

	var result Validation
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode validation: %w", err)
	}
	return &result, nil
}
