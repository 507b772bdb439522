// Package magister implements the portal REST client. Endpoints and payload
// shapes follow the Magister 6 API: person-scoped resources are discovered
// through /api/account and the JSON uses Dutch field names.
package magister

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	dm "magister_monitor/internal/domain/magister"

	"github.com/sirupsen/logrus"
)

const userAgent = "MagisterMonitor/1.0"

// Client is the HTTP implementation of the domain magister.Client interface.
// Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	token   func() string
	retry   RetryPolicy
	logger  *logrus.Entry

	mu       sync.Mutex
	personID int64
}

// NewClient builds a portal client. token is called per request so a
// refreshed bearer token is picked up without rebuilding the client.
func NewClient(baseURL string, token func() string, log *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		token:   token,
		retry:   DefaultRetryPolicy(),
		logger:  log.WithField("component", "magister_client"),
	}
}

type accountResponse struct {
	Person struct {
		ID int64 `json:"Id"`
	} `json:"Persoon"`
}

type itemsLower[T any] struct {
	Items []T `json:"items"`
}

type itemsUpper[T any] struct {
	Items []T `json:"Items"`
}

// Grades returns the most recently entered grades.
func (c *Client) Grades(ctx context.Context, limit int) ([]dm.Grade, error) {
	pid, err := c.me(ctx)
	if err != nil {
		return nil, err
	}
	var out itemsLower[dm.Grade]
	params := url.Values{"top": {strconv.Itoa(limit)}, "skip": {"0"}}
	if err := c.get(ctx, fmt.Sprintf("/api/personen/%d/cijfers/laatste", pid), params, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Folders returns the student's message folders.
func (c *Client) Folders(ctx context.Context) ([]dm.MessageFolder, error) {
	var out itemsLower[dm.MessageFolder]
	if err := c.get(ctx, "/api/berichten/mappen", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Messages returns the newest messages in a folder.
func (c *Client) Messages(ctx context.Context, folderID int64, limit int) ([]dm.Message, error) {
	var out itemsLower[dm.Message]
	params := url.Values{"top": {strconv.Itoa(limit)}, "skip": {"0"}}
	if err := c.get(ctx, fmt.Sprintf("/api/berichten/mappen/%d/berichten", folderID), params, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Schedule returns appointments between from and to (inclusive dates).
func (c *Client) Schedule(ctx context.Context, from, to time.Time) ([]dm.Appointment, error) {
	pid, err := c.me(ctx)
	if err != nil {
		return nil, err
	}
	var out itemsUpper[dm.Appointment]
	params := url.Values{
		"van": {from.Format("2006-01-02")},
		"tot": {to.Format("2006-01-02")},
	}
	if err := c.get(ctx, fmt.Sprintf("/api/personen/%d/afspraken", pid), params, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Assignments returns handed-out assignments, newest first.
func (c *Client) Assignments(ctx context.Context, limit int) ([]dm.Assignment, error) {
	pid, err := c.me(ctx)
	if err != nil {
		return nil, err
	}
	var out itemsUpper[dm.Assignment]
	params := url.Values{"top": {strconv.Itoa(limit)}, "skip": {"0"}}
	if err := c.get(ctx, fmt.Sprintf("/api/personen/%d/opdrachten", pid), params, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// me resolves and caches the person ID behind the account.
func (c *Client) me(ctx context.Context) (int64, error) {
	c.mu.Lock()
	cached := c.personID
	c.mu.Unlock()
	if cached != 0 {
		return cached, nil
	}

	var acct accountResponse
	if err := c.get(ctx, "/api/account", nil, &acct); err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.personID = acct.Person.ID
	c.mu.Unlock()
	c.logger.Debugf("Resolved account to person ID %d", acct.Person.ID)
	return acct.Person.ID, nil
}

// get performs one GET with the uniform retry policy and decodes the body
// into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	return c.retry.Do(ctx, func(ctx context.Context) error {
		return c.getOnce(ctx, path, params, out)
	})
}

func (c *Client) getOnce(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &dm.TransientError{Op: "GET " + path, Err: err}
	}
	req.Header.Set("Authorization", bearer(c.token()))
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &dm.TransientError{Op: "GET " + path, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &dm.AuthError{StatusCode: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &dm.TransientError{Op: "GET " + path, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &dm.TransientError{Op: "decode " + path, Err: err}
	}
	return nil
}

func bearer(token string) string {
	if strings.HasPrefix(token, "Bearer ") {
		return token
	}
	return "Bearer " + token
}
