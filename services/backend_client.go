package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yeremiapane/restaurant-floor/apperrors"
	"github.com/yeremiapane/restaurant-floor/models"
)

// Backend is the reservation REST API as seen by the floor board.
type Backend interface {
	ListReservations(ctx context.Context, date string) ([]models.Reservation, error)
	ListAreas(ctx context.Context) ([]models.Area, error)
	UpdateStatus(ctx context.Context, actor models.Actor, id models.ReservationID, status models.Status) error
	CreateWalkIn(ctx context.Context, actor models.Actor, req WalkInRequest) (models.Reservation, error)
	CreatePhoneReservation(ctx context.Context, actor models.Actor, req PhoneReservationRequest) (models.Reservation, error)
	CreateWaitlistEntry(ctx context.Context, actor models.Actor, req WaitlistRequest) (models.WaitlistEntry, error)
	AuditLog(ctx context.Context, id models.ReservationID, limit int) ([]models.AuditLogEntry, error)
}

// BackendConfig holds the reservation backend connection settings.
type BackendConfig struct {
	BaseURL string
	// ServiceToken authenticates reads made by the sync loop, which has no
	// staff member behind it.
	ServiceToken string
	Timeout      time.Duration
}

// BackendClient talks JSON over HTTP to the reservation backend.
type BackendClient struct {
	config     BackendConfig
	httpClient *http.Client
}

func NewBackendClient(cfg BackendConfig) *BackendClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &BackendClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type requestIDKey struct{}

// WithRequestID attaches the id forwarded to the backend as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

func (bc *BackendClient) ListReservations(ctx context.Context, date string) ([]models.Reservation, error) {
	var out []models.Reservation
	q := url.Values{"date": {date}}
	if err := bc.do(ctx, "list reservations", http.MethodGet, "/reservations", q, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (bc *BackendClient) ListAreas(ctx context.Context) ([]models.Area, error) {
	var out []models.Area
	if err := bc.do(ctx, "list areas", http.MethodGet, "/areas", nil, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (bc *BackendClient) UpdateStatus(ctx context.Context, actor models.Actor, id models.ReservationID, status models.Status) error {
	path := "/reservations/" + url.PathEscape(string(id)) + "/status"
	q := url.Values{"new_status": {string(status)}}
	return bc.do(ctx, "update status", http.MethodPatch, path, q, &actor, nil, nil)
}

func (bc *BackendClient) CreateWalkIn(ctx context.Context, actor models.Actor, req WalkInRequest) (models.Reservation, error) {
	var out models.Reservation
	err := bc.do(ctx, "create walk-in", http.MethodPost, "/walk-ins", nil, &actor, req, &out)
	return out, err
}

func (bc *BackendClient) CreatePhoneReservation(ctx context.Context, actor models.Actor, req PhoneReservationRequest) (models.Reservation, error) {
	var out models.Reservation
	req.Source = models.SourceTelefon
	err := bc.do(ctx, "create phone reservation", http.MethodPost, "/reservations", nil, &actor, req, &out)
	return out, err
}

func (bc *BackendClient) CreateWaitlistEntry(ctx context.Context, actor models.Actor, req WaitlistRequest) (models.WaitlistEntry, error) {
	var out models.WaitlistEntry
	err := bc.do(ctx, "create waitlist entry", http.MethodPost, "/waitlist", nil, &actor, req, &out)
	return out, err
}

func (bc *BackendClient) AuditLog(ctx context.Context, id models.ReservationID, limit int) ([]models.AuditLogEntry, error) {
	var out []models.AuditLogEntry
	q := url.Values{
		"entity":    {"reservation"},
		"entity_id": {string(id)},
		"limit":     {strconv.Itoa(limit)},
	}
	if err := bc.do(ctx, "audit log", http.MethodGet, "/audit-logs", q, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// do performs one request and maps failures onto the error taxonomy:
// transport errors and 5xx are transient, other non-2xx answers are
// rejections.
func (bc *BackendClient) do(ctx context.Context, op, method, path string, q url.Values, actor *models.Actor, body, out interface{}) error {
	endpoint := bc.config.BaseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: error marshaling request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: error creating request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", requestIDFrom(ctx))
	bc.authorize(req, actor)

	resp, err := bc.httpClient.Do(req)
	if err != nil {
		return &apperrors.TransientError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return &apperrors.TransientError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	switch {
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusRequestTimeout, resp.StatusCode == http.StatusTooManyRequests:
		return &apperrors.TransientError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(errorMessage(raw, resp.Status))}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &apperrors.RejectionError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(raw, resp.Status)}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := decodeBody(raw, out); err != nil {
		return fmt.Errorf("%s: error decoding response: %w", op, err)
	}
	return nil
}

func (bc *BackendClient) authorize(req *http.Request, actor *models.Actor) {
	token := bc.config.ServiceToken
	if actor != nil {
		if actor.Token != "" {
			token = actor.Token
		}
		if actor.ID != 0 {
			req.Header.Set("X-Staff-ID", strconv.FormatUint(uint64(actor.ID), 10))
		}
		if actor.Name != "" {
			req.Header.Set("X-Staff-Name", actor.Name)
		}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// decodeBody accepts both bare payloads and {"data": ...} envelopes.
func decodeBody(raw []byte, out interface{}) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err == nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
			return json.Unmarshal(envelope.Data, out)
		}
	}
	return json.Unmarshal(trimmed, out)
}

func errorMessage(raw []byte, fallback string) string {
	var body struct {
		Detail  interface{} `json:"detail"`
		Message string      `json:"message"`
		Error   string      `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		switch {
		case body.Message != "":
			return body.Message
		case body.Error != "":
			return body.Error
		case body.Detail != nil:
			if s, ok := body.Detail.(string); ok {
				return s
			}
			if b, err := json.Marshal(body.Detail); err == nil {
				return string(b)
			}
		}
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return fallback
	}
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
