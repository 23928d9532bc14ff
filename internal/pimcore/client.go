// Package pimcore is a thin authenticated client for the Pimcore admin JSON
// API. It holds the two per-session credentials (session cookie and CSRF
// token) for its whole lifetime and never refreshes them; when the session
// expires the operator has to copy fresh values out of the browser.
package pimcore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/markuskkkl/dav-pimcore/config"
	"github.com/markuskkkl/dav-pimcore/internal/models"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrEditLocked is returned when an object stays edit-locked after the
// single unlock-and-retry attempt.
var ErrEditLocked = errors.New("object is edit-locked by another session")

// Client talks to one Pimcore admin API origin.
type Client struct {
	cfg        config.BackendConfig
	httpClient *http.Client
}

// NewClient creates a new Pimcore admin API client
func NewClient(cfg config.BackendConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// newRequest builds a request carrying the session cookie, CSRF token and
// XHR headers. Pimcore only validates the token on state-changing calls but
// it is harmless on reads, so every request carries the full set.
func (c *Client) newRequest(ctx context.Context, method, path string, body string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.BaseURL, "/")+path, strings.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}

	req.Header.Set("Cookie", c.cfg.Cookie)
	req.Header.Set("Referer", strings.TrimRight(c.cfg.BaseURL, "/")+"/admin")
	req.Header.Set("X-pimcore-csrf-token", c.cfg.CSRFToken)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	return req, nil
}

// Probe checks that the session credentials still work by issuing a benign
// unlock against a known stable element. It reports a plain bool: any
// transport failure or unsuccessful response means false, never an error.
func (c *Client) Probe(ctx context.Context) bool {
	if err := c.Unlock(ctx, c.cfg.ProbeID, c.cfg.ProbeType); err != nil {
		log.Debug().Err(err).Msg("Connectivity probe failed")
		return false
	}
	return true
}

// Unlock releases the edit lock on one element. Pimcore enforces the CSRF
// token on this call.
func (c *Client) Unlock(ctx context.Context, id int64, elementType string) error {
	body := url.Values{
		"id":   {strconv.FormatInt(id, 10)},
		"type": {elementType},
	}.Encode()

	req, err := c.newRequest(ctx, http.MethodPut, "/admin/element/unlock-element", body)
	if err != nil {
		return err
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "unlock request failed")
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return errors.Errorf("unlock returned status %d", res.StatusCode)
	}

	var decoded struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return errors.Wrap(err, "failed to decode unlock response")
	}
	if !decoded.Success {
		return errors.New("unlock reported success=false")
	}

	return nil
}

// ListObjects returns the published objects of one class inside one folder.
// The grid proxy has no "fetch all" mode, so a single oversized page stands
// in for pagination; callers never see more than this one page.
func (c *Client) ListObjects(ctx context.Context, folderID int64, classID string) ([]models.ObjectListing, error) {
	path := fmt.Sprintf("/admin/object/grid-proxy?xaction=read&classId=%s&folderId=%d&_dc=%d",
		url.QueryEscape(classID), folderID, time.Now().UnixMilli())

	limit := c.cfg.PageLimit
	if limit == 0 {
		limit = 100000
	}
	body := url.Values{
		"fields": {"id"},
		"page":   {"1"},
		"start":  {"0"},
		"limit":  {strconv.Itoa(limit)},
	}.Encode()

	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "listing request failed")
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, errors.Errorf("listing returned status %d", res.StatusCode)
	}

	var decoded struct {
		Data []models.ObjectListing `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, errors.Wrap(err, "failed to decode listing response")
	}

	published := make([]models.ObjectListing, 0, len(decoded.Data))
	for _, row := range decoded.Data {
		if row.Published {
			published = append(published, row)
		}
	}

	log.Debug().
		Str("class_id", classID).
		Int("total", len(decoded.Data)).
		Int("published", len(published)).
		Msg("Listed objects")

	return published, nil
}

// FetchObject retrieves the full detail of one object. When another session
// holds an edit lock the client tries exactly one unlock-and-refetch; a lock
// that survives that, or an unlock that fails, yields ErrEditLocked.
func (c *Client) FetchObject(ctx context.Context, id int64) (map[string]interface{}, error) {
	return c.fetchObject(ctx, id, true)
}

func (c *Client) fetchObject(ctx context.Context, id int64, tryUnlock bool) (map[string]interface{}, error) {
	path := fmt.Sprintf("/admin/object/get?_dc=%d&id=%d", time.Now().UnixMilli(), id)

	req, err := c.newRequest(ctx, http.MethodGet, path, "")
	if err != nil {
		return nil, err
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "detail request failed")
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, errors.Errorf("detail returned status %d", res.StatusCode)
	}

	var decoded struct {
		Data     map[string]interface{} `json:"data"`
		Editlock json.RawMessage        `json:"editlock"`
	}
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, errors.Wrap(err, "failed to decode detail response")
	}

	if locked(decoded.Editlock) {
		if !tryUnlock {
			return nil, ErrEditLocked
		}

		log.Debug().Int64("id", id).Msg("Object is edit-locked, attempting unlock")
		if err := c.Unlock(ctx, id, "object"); err != nil {
			return nil, ErrEditLocked
		}
		return c.fetchObject(ctx, id, false)
	}

	return decoded.Data, nil
}

func locked(editlock json.RawMessage) bool {
	s := strings.TrimSpace(string(editlock))
	return s != "" && s != "null" && s != "false"
}
