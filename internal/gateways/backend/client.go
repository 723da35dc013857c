package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/lovequest/questsync/internal/domain/content"
	"github.com/lovequest/questsync/internal/domain/identity"
	"github.com/lovequest/questsync/internal/domain/ledger"
	"github.com/lovequest/questsync/internal/domain/partnersync"
)

const DefaultTimeout = 10 * time.Second

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s %s returned %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Client talks to the couples backend. It implements every remote interface
// the engine needs.
type Client struct {
	baseURL    *url.URL
	tokens     TokenSource
	httpClient *http.Client
}

var (
	_ partnersync.Backend = (*Client)(nil)
	_ ledger.Remote       = (*Client)(nil)
	_ identity.Remote     = (*Client)(nil)
	_ content.Source      = (*Client)(nil)
)

func New(baseURL string, tokens TokenSource, timeout time.Duration) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q: scheme and host required", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if tokens == nil {
		tokens = StaticToken("")
	}
	return &Client{
		baseURL:    base,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) QuestStatus(ctx context.Context, coupleID, date, userID string) ([]partnersync.StatusRecord, error) {
	q := url.Values{}
	q.Set("date", date)
	q.Set("user_id", userID)

	var resp QuestStatusResponse
	if err := c.do(ctx, http.MethodGet, []string{"api", "v1", "couples", coupleID, "quest-status"}, q, nil, &resp); err != nil {
		return nil, err
	}

	out := make([]partnersync.StatusRecord, 0, len(resp.Quests))
	for _, r := range resp.Quests {
		out = append(out, partnersync.StatusRecord{
			QuestType:        r.QuestType,
			FormatType:       r.FormatType,
			PartnerCompleted: r.PartnerCompleted,
			Status:           r.Status,
		})
	}
	return out, nil
}

func (c *Client) ReportCompletion(ctx context.Context, coupleID string, report partnersync.CompletionReport) error {
	body := CompletionRequest{
		Date:       report.Date,
		QuestType:  report.QuestType,
		FormatType: report.FormatType,
		UserID:     report.UserID,
	}
	return c.do(ctx, http.MethodPost, []string{"api", "v1", "couples", coupleID, "quest-completions"}, nil, body, nil)
}

func (c *Client) FetchLedger(ctx context.Context, userID string) (*ledger.Snapshot, error) {
	var resp LedgerResponse
	if err := c.do(ctx, http.MethodGet, []string{"api", "v1", "users", userID, "ledger"}, nil, nil, &resp); err != nil {
		return nil, err
	}

	snap := &ledger.Snapshot{
		Balance:      resp.Balance,
		Transactions: make([]*ledger.Transaction, 0, len(resp.Transactions)),
	}
	for _, t := range resp.Transactions {
		snap.Transactions = append(snap.Transactions, &ledger.Transaction{
			ID:        t.ID,
			UserID:    t.UserID,
			Amount:    t.Amount,
			Reason:    t.Reason,
			RelatedID: t.RelatedID,
			Timestamp: t.Timestamp,
			Confirmed: true,
		})
	}
	return snap, nil
}

func (c *Client) PushLedger(ctx context.Context, userID string, txns []*ledger.Transaction) error {
	body := PushLedgerRequest{Transactions: make([]Transaction, 0, len(txns))}
	for _, t := range txns {
		body.Transactions = append(body.Transactions, Transaction{
			ID:        t.ID,
			UserID:    t.UserID,
			Amount:    t.Amount,
			Reason:    t.Reason,
			RelatedID: t.RelatedID,
			Timestamp: t.Timestamp,
		})
	}
	return c.do(ctx, http.MethodPost, []string{"api", "v1", "users", userID, "ledger"}, nil, body, nil)
}

func (c *Client) PairingStatus(ctx context.Context, userID string) (*identity.Couple, error) {
	q := url.Values{}
	q.Set("user_id", userID)

	var resp PairingResponse
	if err := c.do(ctx, http.MethodGet, []string{"api", "v1", "pairing", "status"}, q, nil, &resp); err != nil {
		return nil, err
	}

	couple := &identity.Couple{
		ID:   resp.CoupleID,
		User: identity.User{ID: resp.User.ID, LegacyID: resp.User.LegacyID, DisplayName: resp.User.DisplayName},
	}
	if resp.Partner != nil && resp.Partner.ID != "" {
		couple.Partner = &identity.User{ID: resp.Partner.ID, LegacyID: resp.Partner.LegacyID, DisplayName: resp.Partner.DisplayName}
	}
	return couple, nil
}

func (c *Client) Fetch(ctx context.Context, req content.Request) (*content.Item, error) {
	q := url.Values{}
	q.Set("date", req.Date)
	if req.Format != "" {
		q.Set("format", req.Format)
	}

	var resp ContentResponse
	err := c.do(ctx, http.MethodGet, []string{"api", "v1", "content", req.Type}, q, nil, &resp)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s/%s", content.ErrNotFound, req.Type, req.Format)
	}
	if err != nil {
		return nil, err
	}
	return &content.Item{
		ID:         resp.ID,
		Type:       resp.Type,
		FormatType: resp.FormatType,
		Title:      resp.Title,
		Payload:    resp.Payload,
	}, nil
}

func (c *Client) do(ctx context.Context, method string, path []string, query url.Values, body, out any) error {
	endpoint := c.baseURL.JoinPath(path...)
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to create request to %s: %w", endpoint.Path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", endpoint.Path, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	slog.Debug("Backend request",
		slog.String("type", "sync"),
		slog.String("method", method),
		slog.String("path", endpoint.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		var apiErr ErrorResponse
		if json.Unmarshal(msg, &apiErr) == nil && apiErr.Error != "" {
			msg = []byte(apiErr.Error)
		}
		return &StatusError{Method: method, Path: endpoint.Path, Code: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", endpoint.Path, err)
	}
	return nil
}
