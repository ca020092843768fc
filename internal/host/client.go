package host

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	attestationModels "ghostpost/internal/attestation/models"
	"ghostpost/internal/continuation"
	forumModels "ghostpost/internal/forum/models"
	"ghostpost/internal/prover"
	"ghostpost/pkg/domain"
	"ghostpost/pkg/platform/httputil"
)

const defaultClientTimeout = 30 * time.Second

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status      int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("server returned %d %s: %s", e.Status, e.Code, e.Description)
	}
	return fmt.Sprintf("server returned %d %s", e.Status, e.Code)
}

// ServerKey is what the server advertises for building and checking inputs.
type ServerKey struct {
	PublicKey []byte
	ProgramID prover.ProgramID
}

// Submission is the server's acceptance of a continuation receipt.
type Submission struct {
	Attestation Attestation
	NewTicket   domain.Ticket
	ReplayNonce domain.Nonce
}

// Client talks to the GhostPost server.
type Client struct {
	baseURL string
	http    *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultClientTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ServerKey(ctx context.Context) (*ServerKey, error) {
	var resp attestationModels.ServerKeyResponse
	if err := c.do(ctx, http.MethodGet, "/zk/server-key", "", nil, &resp); err != nil {
		return nil, err
	}
	key, err := hex.DecodeString(resp.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("server public key: %w", err)
	}
	program, err := prover.ParseProgramID(resp.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("server program id: %w", err)
	}
	return &ServerKey{PublicKey: key, ProgramID: program}, nil
}

// Callbacks fetches the callback board.
func (c *Client) Callbacks(ctx context.Context) ([]domain.Ticket, error) {
	var raw []string
	if err := c.do(ctx, http.MethodGet, "/zk/callbacks", "", nil, &raw); err != nil {
		return nil, err
	}
	tickets, err := domain.ParseTickets(raw)
	if err != nil {
		return nil, fmt.Errorf("callback board: %w", err)
	}
	return tickets, nil
}

// Login exchanges forum credentials for a session token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp forumModels.LoginResponse
	req := forumModels.CredentialsRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, "/forum/login", "", req, &resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

// Enroll registers the first commitment for the forum user behind token.
func (c *Client) Enroll(ctx context.Context, token string, commitment continuation.Commitment) (*Attestation, error) {
	var resp attestationModels.AttestationResponse
	req := attestationModels.EnrollRequest{Commitment: commitment.String()}
	if err := c.do(ctx, http.MethodPost, "/zk/enroll", token, req, &resp); err != nil {
		return nil, err
	}
	return decodeAttestation(resp.Commitment, resp.Signature, resp.PublicKey)
}

// SubmitReceipt hands a continuation receipt to the server.
func (c *Client) SubmitReceipt(ctx context.Context, receipt *prover.Receipt) (*Submission, error) {
	var resp attestationModels.SubmitResponse
	if err := c.do(ctx, http.MethodPost, "/zk/submit-proof", "", receipt, &resp); err != nil {
		return nil, err
	}
	att, err := decodeAttestation(resp.Commitment, resp.Signature, resp.PublicKey)
	if err != nil {
		return nil, err
	}
	ticket, err := domain.ParseTicket(resp.NewTicket)
	if err != nil {
		return nil, fmt.Errorf("new ticket: %w", err)
	}
	nonce, err := domain.ParseNonce(resp.ReplayNonce)
	if err != nil {
		return nil, fmt.Errorf("replay nonce: %w", err)
	}
	return &Submission{Attestation: *att, NewTicket: ticket, ReplayNonce: nonce}, nil
}

func decodeAttestation(commitmentHex, signatureHex, keyHex string) (*Attestation, error) {
	c, err := continuation.ParseCommitment(commitmentHex)
	if err != nil {
		return nil, fmt.Errorf("attested commitment: %w", err)
	}
	sig, err := hex.DecodeString(signatureHex)
	if err != nil {
		return nil, fmt.Errorf("attestation signature: %w", err)
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("attestation key: %w", err)
	}
	return &Attestation{Commitment: c, Signature: sig, PublicKey: key}, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, httputil.MaxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var e httputil.ErrorResponse
		if json.Unmarshal(payload, &e) == nil {
			apiErr.Code = e.Error
			apiErr.Description = e.Description
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
