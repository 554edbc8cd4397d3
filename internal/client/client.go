package client

import (
	"alcyxob/workout-engine/internal/domain"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrUnauthorized is returned when the server rejects the token.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx response carrying the server's {"error": ...} body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// SubmitLogRequest mirrors the body accepted by POST /api/v1/workout-logs.
type SubmitLogRequest struct {
	PlanID   string                    `json:"planId"`
	Duration int                       `json:"duration"`
	Notes    string                    `json:"notes,omitempty"`
	Entries  domain.CategorizedEntries `json:"entries"`
}

// Client talks to the workout API on behalf of one user.
type Client struct {
	client  *http.Client
	baseURL string
	token   string
}

// New creates a client for baseURL (e.g. http://localhost:8080). A nil
// httpClient uses http.DefaultClient.
func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		client:  httpClient,
		baseURL: strings.TrimSuffix(baseURL, "/") + "/api/v1",
		token:   token,
	}
}

// Token returns the bearer token in use.
func (c *Client) Token() string {
	return c.token
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, http.StatusOK, &resp); err != nil {
		return err
	}
	c.token = resp.Token
	return nil
}

// GetPlan fetches a plan with its exercises resolved.
func (c *Client) GetPlan(ctx context.Context, planID string) (*domain.Plan, error) {
	var plan domain.Plan
	if err := c.do(ctx, http.MethodGet, "/plans/"+url.PathEscape(planID), nil, http.StatusOK, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// SubmitLog posts a finished session and returns the new log id.
func (c *Client) SubmitLog(ctx context.Context, req SubmitLogRequest) (primitive.ObjectID, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/workout-logs", req, http.StatusCreated, &resp); err != nil {
		return primitive.NilObjectID, err
	}
	return primitive.ObjectIDFromHex(resp.ID)
}

func (c *Client) do(ctx context.Context, method, path string, in any, wantStatus int, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var payload struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		apiErr.Message = payload.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}
