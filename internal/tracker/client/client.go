// Package client talks to the tracker record API over HTTP. Failures surface
// as domain errors so callers branch on the code rather than on status
// numbers or message text.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"driverdesk/internal/onboarding/gate"
	"driverdesk/internal/onboarding/staging"
	"driverdesk/internal/platform/config"
	"driverdesk/internal/tracker/models"
	"driverdesk/pkg/domain"
	dErrors "driverdesk/pkg/domain-errors"
	"driverdesk/pkg/platform/circuit"
	"driverdesk/pkg/platform/httputil"
	"driverdesk/pkg/requestcontext"
)

// Client implements the dashboard's record API against the tracker service.
type Client struct {
	baseURL    string
	http       *http.Client
	adminID    string
	maxElapsed time.Duration
	breaker    *circuit.Breaker
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithAdminID attributes every write to adminID unless the request context
// names another administrator.
func WithAdminID(adminID string) Option {
	return func(c *Client) {
		c.adminID = adminID
	}
}

// WithBreaker fails calls fast while b is open. Network failures open it;
// any answer from the server counts as a success.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New builds a client. Reads are retried on network failures for up to
// cfg.MaxElapsedTime; writes are never retried.
func New(cfg config.Client, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		http:       &http.Client{Timeout: timeout},
		maxElapsed: cfg.MaxElapsedTime,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type trackerEnvelope struct {
	Tracker *models.Tracker `json:"tracker"`
}

type sectionEnvelope struct {
	Data    staging.Fields `json:"data"`
	Version int64          `json:"version"`
}

// FetchTracker loads a tracker snapshot.
func (c *Client) FetchTracker(ctx context.Context, id domain.TrackerID) (*models.Tracker, error) {
	var env trackerEnvelope
	if err := c.get(ctx, "/trackers/"+id.String(), &env); err != nil {
		return nil, err
	}
	if env.Tracker == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "record API returned no tracker")
	}
	return env.Tracker, nil
}

// FetchSection loads one section. A section the driver has not reached
// yields an Unauthorized error.
func (c *Client) FetchSection(ctx context.Context, id domain.TrackerID, section gate.Section) (staging.Fields, error) {
	var env sectionEnvelope
	if err := c.get(ctx, sectionPath(id, section), &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		env.Data = staging.Fields{}
	}
	return env.Data, nil
}

// PatchSection writes payload to a section and returns the stored section
// and the new tracker version. A positive expectedVersion is sent as
// If-Match.
func (c *Client) PatchSection(ctx context.Context, id domain.TrackerID, section gate.Section, payload staging.Fields, expectedVersion int64) (staging.Fields, int64, error) {
	header := http.Header{}
	if expectedVersion > 0 {
		header.Set("If-Match", `"`+strconv.FormatInt(expectedVersion, 10)+`"`)
	}
	var env sectionEnvelope
	if err := c.send(ctx, http.MethodPatch, sectionPath(id, section), payload, header, &env); err != nil {
		return nil, 0, err
	}
	if env.Data == nil {
		env.Data = staging.Fields{}
	}
	return env.Data, env.Version, nil
}

// ChangeCompany moves a tracker to another company. The dashboard has
// already asked the operator to confirm.
func (c *Client) ChangeCompany(ctx context.Context, id domain.TrackerID, companyID domain.CompanyID) (*models.Tracker, error) {
	body := map[string]any{"company_id": companyID.String(), "confirm": true}
	var t models.Tracker
	if err := c.send(ctx, http.MethodPost, "/trackers/"+id.String()+"/company", body, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func sectionPath(id domain.TrackerID, section gate.Section) string {
	return "/trackers/" + id.String() + "/forms/" + url.PathEscape(section.String())
}

// get performs an idempotent read, retrying network failures.
func (c *Client) get(ctx context.Context, path string, out any) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = c.maxElapsed

	attempt := 0
	op := func() error {
		attempt++
		err := c.do(ctx, http.MethodGet, path, nil, nil, out)
		if err == nil {
			return nil
		}
		if dErrors.HasCode(err, dErrors.CodeNetwork) && c.maxElapsed > 0 {
			c.logger.DebugContext(ctx, "record API read failed, retrying",
				"path", path,
				"attempt", attempt,
				"error", err,
			)
			return err
		}
		return backoff.Permanent(err)
	}
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}

func (c *Client) send(ctx context.Context, method, path string, body any, header http.Header, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "payload is not serializable")
	}
	return c.do(ctx, method, path, raw, header, out)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, header http.Header, out any) error {
	if c.breaker == nil {
		return c.roundTrip(ctx, method, path, body, header, out)
	}
	if !c.breaker.Allow() {
		return dErrors.New(dErrors.CodeNetwork, "record API unavailable")
	}
	err := c.roundTrip(ctx, method, path, body, header, out)
	if ctx.Err() != nil {
		return err
	}
	if dErrors.HasCode(err, dErrors.CodeNetwork) {
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.logger.WarnContext(ctx, "record API circuit opened", "breaker", c.breaker.Name(), "error", err)
		}
		return err
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "record API circuit closed", "breaker", c.breaker.Name())
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body []byte, header http.Header, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build request")
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := requestcontext.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	adminID := requestcontext.AdminID(ctx)
	if adminID == "" {
		adminID = c.adminID
	}
	if adminID != "" {
		req.Header.Set("X-Admin-ID", adminID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return dErrors.Wrap(ctxErr, dErrors.CodeNetwork, "request cancelled")
		}
		return dErrors.Wrap(err, dErrors.CodeNetwork, "record API unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return httputil.ReadError(resp.StatusCode, resp.Body)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeNetwork, fmt.Sprintf("malformed response from %s", path))
	}
	return nil
}
