package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
)

// Package sheets reads cell ranges from the Google Sheets v4 values API.
// Auth comes either from a service account JSON key or a ready access token.

const (
	DefaultBaseURL = "https://sheets.googleapis.com"
	readOnlyScope  = "https://www.googleapis.com/auth/spreadsheets.readonly"
	maxRetries     = 5
	baseBackoff    = time.Second
	// The values API allows 60 reads per minute per user.
	requestsPerSecond = 1
	requestBurst      = 5
)

// ErrMissingCredentials is returned by FromEnv when neither variable is set.
var ErrMissingCredentials = errors.New("set GOOGLE_APPLICATION_CREDENTIALS_JSON or SHEETS_ACCESS_TOKEN")

// Client is a thin wrapper over an authenticated http.Client.
type Client struct {
	c       *http.Client
	baseURL string
	limiter *rate.Limiter
	sleep   func(time.Duration)
}

// New wraps c. A nil c uses a plain client with a 30s timeout, which is only
// useful against servers that need no auth.
func New(c *http.Client, baseURL string) *Client {
	if c == nil {
		c = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		c:       c,
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst),
		sleep:   time.Sleep,
	}
}

// NewServiceAccount authenticates with a service account JSON key.
func NewServiceAccount(ctx context.Context, keyJSON []byte) (*Client, error) {
	creds, err := google.CredentialsFromJSON(ctx, keyJSON, readOnlyScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account JSON: %w", err)
	}
	hc := oauth2.NewClient(ctx, creds.TokenSource)
	hc.Timeout = 30 * time.Second
	return New(hc, ""), nil
}

// NewToken authenticates every request with a fixed bearer token.
func NewToken(ctx context.Context, token string) *Client {
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	hc.Timeout = 30 * time.Second
	return New(hc, "")
}

// FromEnv builds a client from GOOGLE_APPLICATION_CREDENTIALS_JSON, falling
// back to SHEETS_ACCESS_TOKEN.
func FromEnv(ctx context.Context, getenv func(string) string) (*Client, error) {
	if key := getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"); key != "" {
		return NewServiceAccount(ctx, []byte(key))
	}
	if tok := getenv("SHEETS_ACCESS_TOKEN"); tok != "" {
		return NewToken(ctx, tok), nil
	}
	return nil, ErrMissingCredentials
}

type valueRange struct {
	Range          string  `json:"range"`
	MajorDimension string  `json:"majorDimension"`
	Values         [][]any `json:"values"`
}

// GetValues returns the formatted cell values of rangeA1, row by row. Rows
// keep the API's ragged shape: trailing empty cells are absent.
func (sc *Client) GetValues(ctx context.Context, spreadsheetID, rangeA1 string) ([][]string, error) {
	u := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s?majorDimension=ROWS&valueRenderOption=FORMATTED_VALUE",
		sc.baseURL, url.PathEscape(spreadsheetID), url.PathEscape(rangeA1))
	resp, err := sc.do(ctx, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var vr valueRange
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, fmt.Errorf("failed to decode values of %s: %w", rangeA1, err)
	}
	out := make([][]string, len(vr.Values))
	for i, row := range vr.Values {
		out[i] = make([]string, len(row))
		for j, v := range row {
			switch t := v.(type) {
			case nil:
			case string:
				out[i][j] = t
			case float64:
				out[i][j] = strconv.FormatFloat(t, 'f', -1, 64)
			default:
				out[i][j] = fmt.Sprint(t)
			}
		}
	}
	return out, nil
}

func (sc *Client) do(ctx context.Context, rawURL string) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if err := sc.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		resp, err := sc.c.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		if retryable && attempt < maxRetries {
			wait := retryAfter(resp.Header.Get("Retry-After"), attempt)
			_ = drainAndClose(resp.Body)
			slog.Warn("sheets.retry.sleep", "status", resp.StatusCode, "attempt", attempt+1, "wait", wait)
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			sc.sleep(wait)
			continue
		}
		b, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("sheets API GET %s returned %d: %s", req.URL.Path, resp.StatusCode, string(b))
	}
}

// retryAfter honours a Retry-After seconds header, else backs off exponentially.
func retryAfter(header string, attempt int) time.Duration {
	if sec, err := strconv.Atoi(header); err == nil && sec >= 0 {
		return time.Duration(sec) * time.Second
	}
	return baseBackoff << attempt
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, rc)
	return rc.Close()
}
