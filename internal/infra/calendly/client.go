// Package calendly talks to the Calendly REST API and decodes its webhooks.
package calendly

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/finzie/booking-coordinator/internal/config"
	"github.com/finzie/booking-coordinator/internal/httperr"
)

// LinkRequest describes a single-use scheduling link for one submission.
type LinkRequest struct {
	OwnerURI     string
	SubmissionID string
	FormID       string
	ClientID     string
	InviteeName  string
	InviteeEmail string
}

type Link struct {
	BookingURL string
	OwnerURI   string
}

type Client struct {
	http         *http.Client
	baseURL      string
	defaultOwner string
	timeout      time.Duration
}

func NewClient(cfg *config.Config) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.CalendlyToken,
		TokenType:   "Bearer",
	})

	return &Client{
		http:         oauth2.NewClient(context.Background(), ts),
		baseURL:      strings.TrimRight(cfg.CalendlyAPIURL, "/"),
		defaultOwner: cfg.CalendlyEventTypeURI,
		timeout:      cfg.CalendlyTimeout,
	}
}

type schedulingLinkBody struct {
	MaxEventCount int    `json:"max_event_count"`
	Owner         string `json:"owner"`
	OwnerType     string `json:"owner_type"`
}

type schedulingLinkResponse struct {
	Resource struct {
		BookingURL string `json:"booking_url"`
		Owner      string `json:"owner"`
		OwnerType  string `json:"owner_type"`
	} `json:"resource"`
}

type apiError struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// CreateSchedulingLink asks Calendly for a one-booking link and returns it
// with the correlation ids and invitee details prefilled.
func (c *Client) CreateSchedulingLink(ctx context.Context, req LinkRequest) (*Link, error) {
	owner := req.OwnerURI
	if owner == "" {
		owner = c.defaultOwner
	}
	if owner == "" {
		return nil, httperr.Gateway("calendly_not_configured", errors.New("no event type configured for link owner"))
	}

	payload, err := json.Marshal(schedulingLinkBody{
		MaxEventCount: 1,
		Owner:         owner,
		OwnerType:     "EventType",
	})
	if err != nil {
		return nil, httperr.Gateway("calendly_link_failed", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scheduling_links", bytes.NewReader(payload))
	if err != nil {
		return nil, httperr.Gateway("calendly_link_failed", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, httperr.Gateway("calendly_timeout", err)
		}
		return nil, httperr.Gateway("calendly_link_failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, httperr.Gateway("calendly_link_failed", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ae apiError
		_ = json.Unmarshal(body, &ae)
		msg := ae.Message
		if msg == "" {
			msg = ae.Title
		}
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return nil, httperr.Gateway("calendly_link_failed", fmt.Errorf("calendly %d: %s", resp.StatusCode, msg))
	}

	var out schedulingLinkResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, httperr.Gateway("calendly_link_failed", fmt.Errorf("decode response: %w", err))
	}
	if out.Resource.BookingURL == "" {
		return nil, httperr.Gateway("calendly_link_failed", errors.New("response has no booking_url"))
	}

	bookingURL, err := WithPrefill(out.Resource.BookingURL, req)
	if err != nil {
		return nil, httperr.Gateway("calendly_link_failed", err)
	}

	return &Link{BookingURL: bookingURL, OwnerURI: out.Resource.Owner}, nil
}

// WithPrefill appends custom answers a1..a3 and invitee prefill parameters.
func WithPrefill(bookingURL string, req LinkRequest) (string, error) {
	u, err := url.Parse(bookingURL)
	if err != nil {
		return "", fmt.Errorf("parse booking url: %w", err)
	}

	q := u.Query()
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("a1", req.SubmissionID)
	set("a2", req.FormID)
	set("a3", req.ClientID)
	set("name", req.InviteeName)
	set("email", req.InviteeEmail)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
