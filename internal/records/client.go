// Package records is the client for the upstream clinical-records API, the
// console's only remote collaborator. The console never interprets clinical
// data; it forwards it between the browser and this API.
package records

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clinicore.org/internal/session"
)

// ErrSessionExpired indicates the upstream rejected the bearer credential.
// A 401 from any endpoint means the session is no longer valid; the caller
// must clear it and force re-authentication.
var ErrSessionExpired = errors.New("records: session expired")

// APIError carries the upstream's human-readable failure message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("records: upstream returned %d", e.Status)
}

const defaultTimeout = 15 * time.Second

// Client talks to the clinical-records API.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) {
		if httpc != nil {
			c.httpc = httpc
		}
	}
}

// New returns a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpc:   &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges credentials for a token. Implements session.LoginClient.
func (c *Client) Login(ctx context.Context, email, password string) (session.LoginResult, error) {
	var res session.LoginResult
	payload := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", payload, &res); err != nil {
		return session.LoginResult{}, err
	}
	return res, nil
}

// Patients -----------------------------------------------------------------

func (c *Client) ListPatients(ctx context.Context) ([]Patient, error) {
	var out []Patient
	err := c.do(ctx, http.MethodGet, "/patients", nil, &out)
	return out, err
}

func (c *Client) GetPatient(ctx context.Context, id string) (Patient, error) {
	var out Patient
	err := c.do(ctx, http.MethodGet, "/patients/"+id, nil, &out)
	return out, err
}

func (c *Client) CreatePatient(ctx context.Context, in CreatePatient) (Patient, error) {
	var out Patient
	err := c.do(ctx, http.MethodPost, "/patients", in, &out)
	return out, err
}

func (c *Client) UpdatePatient(ctx context.Context, id string, in UpdatePatient) (Patient, error) {
	var out Patient
	err := c.do(ctx, http.MethodPut, "/patients/"+id, in, &out)
	return out, err
}

func (c *Client) PatchPatient(ctx context.Context, id string, in UpdatePatient) (Patient, error) {
	var out Patient
	err := c.do(ctx, http.MethodPatch, "/patients/"+id, in, &out)
	return out, err
}

func (c *Client) DeletePatient(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/patients/"+id, nil, nil)
}

// Treatments ---------------------------------------------------------------

func (c *Client) ListTreatments(ctx context.Context) ([]Treatment, error) {
	var out []Treatment
	err := c.do(ctx, http.MethodGet, "/treatments", nil, &out)
	return out, err
}

func (c *Client) GetTreatment(ctx context.Context, id string) (Treatment, error) {
	var out Treatment
	err := c.do(ctx, http.MethodGet, "/treatments/"+id, nil, &out)
	return out, err
}

func (c *Client) CreateTreatment(ctx context.Context, in CreateTreatment) (Treatment, error) {
	var out Treatment
	err := c.do(ctx, http.MethodPost, "/treatments", in, &out)
	return out, err
}

func (c *Client) ListTreatmentOptions(ctx context.Context) ([]TreatmentOption, error) {
	var out []TreatmentOption
	err := c.do(ctx, http.MethodGet, "/treatment-options", nil, &out)
	return out, err
}

// Medications --------------------------------------------------------------

func (c *Client) ListMedications(ctx context.Context) ([]Medication, error) {
	var out []Medication
	err := c.do(ctx, http.MethodGet, "/medications", nil, &out)
	return out, err
}

func (c *Client) CreatePrescription(ctx context.Context, in CreatePrescription) (Prescription, error) {
	var out Prescription
	err := c.do(ctx, http.MethodPost, "/prescriptions", in, &out)
	return out, err
}

// Users --------------------------------------------------------------------

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	err := c.do(ctx, http.MethodGet, "/users", nil, &out)
	return out, err
}

func (c *Client) GetUser(ctx context.Context, id string) (User, error) {
	var out User
	err := c.do(ctx, http.MethodGet, "/users/"+id, nil, &out)
	return out, err
}

func (c *Client) CreateUser(ctx context.Context, in CreateUser) (User, error) {
	var out User
	err := c.do(ctx, http.MethodPost, "/users", in, &out)
	return out, err
}

func (c *Client) UpdateUser(ctx context.Context, id string, in UpdateUser) (User, error) {
	var out User
	err := c.do(ctx, http.MethodPut, "/users/"+id, in, &out)
	return out, err
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+id, nil, nil)
}

// ---------------------------------------------------------------------------

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("records: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("records: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok, ok := session.TokenFromContext(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("records: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrSessionExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: upstreamMessage(resp.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("records: decode response: %w", err)
	}
	return nil
}

// upstreamMessage extracts the {"message": ...} field errors carry.
func upstreamMessage(body io.Reader) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 1<<16)).Decode(&payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
