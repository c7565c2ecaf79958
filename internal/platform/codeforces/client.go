package codeforces

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/common"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/logger"

	"github.com/pkg/errors"
)

const (
	VerdictOK             = "OK"
	ParticipantContestant = "CONTESTANT"

	maxErrorBody = 512
)

// User is the subset of user.info the tracker reads.
type User struct {
	Handle    string `json:"handle"`
	Rating    int    `json:"rating"`
	MaxRating int    `json:"maxRating"`
	Rank      string `json:"rank"`
	MaxRank   string `json:"maxRank"`
}

type RatingChange struct {
	ContestID               int    `json:"contestId"`
	ContestName             string `json:"contestName"`
	Handle                  string `json:"handle"`
	Rank                    int    `json:"rank"`
	RatingUpdateTimeSeconds int64  `json:"ratingUpdateTimeSeconds"`
	OldRating               *int   `json:"oldRating"`
	NewRating               *int   `json:"newRating"`
}

type Problem struct {
	ContestID int      `json:"contestId"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Rating    *int     `json:"rating"`
	Tags      []string `json:"tags"`
}

// Key identifies a problem as "<contestId>-<index>".
func (p Problem) Key() string {
	return strconv.Itoa(p.ContestID) + "-" + p.Index
}

type Party struct {
	ParticipantType string `json:"participantType"`
}

type Submission struct {
	ID                  int64   `json:"id"`
	ContestID           int     `json:"contestId"`
	CreationTimeSeconds int64   `json:"creationTimeSeconds"`
	Problem             Problem `json:"problem"`
	Author              Party   `json:"author"`
	ProgrammingLanguage string  `json:"programmingLanguage"`
	Verdict             string  `json:"verdict"`
}

func (s Submission) CreatedAt() time.Time {
	return time.Unix(s.CreationTimeSeconds, 0).UTC()
}

type envelope struct {
	Status  string          `json:"status"`
	Comment string          `json:"comment"`
	Result  json.RawMessage `json:"result"`
}

// APIError is any failed Codeforces call. It matches common.ErrUpstream.
type APIError struct {
	Method     string
	StatusCode int
	Comment    string
	Err        error
}

func (e *APIError) Error() string {
	msg := "codeforces " + e.Method
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Comment != "" {
		msg += ": " + e.Comment
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Is(target error) bool { return target == common.ErrUpstream }

// API is what the sync service needs from Codeforces.
type API interface {
	GetUserInfo(ctx context.Context, handle string) (*User, error)
	GetRatingHistory(ctx context.Context, handle string) ([]RatingChange, error)
	GetSubmissions(ctx context.Context, handle string, count int) ([]Submission, error)
}

type Client struct {
	client  *http.Client
	baseURL string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

func (c *Client) GetUserInfo(ctx context.Context, handle string) (*User, error) {
	var users []User
	if err := c.call(ctx, "user.info", url.Values{"handles": {handle}}, &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, errors.WithStack(&APIError{Method: "user.info", Comment: "no user returned for handle " + handle})
	}
	return &users[0], nil
}

func (c *Client) GetRatingHistory(ctx context.Context, handle string) ([]RatingChange, error) {
	var changes []RatingChange
	if err := c.call(ctx, "user.rating", url.Values{"handle": {handle}}, &changes); err != nil {
		return nil, err
	}
	return changes, nil
}

func (c *Client) GetSubmissions(ctx context.Context, handle string, count int) ([]Submission, error) {
	params := url.Values{
		"handle": {handle},
		"from":   {"1"},
		"count":  {strconv.Itoa(count)},
	}
	var subs []Submission
	if err := c.call(ctx, "user.status", params, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (c *Client) call(ctx context.Context, method string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + "/" + method + "?" + params.Encode()
	logger.Debug("Fetching codeforces %s: %s", method, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "building codeforces request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.WithStack(&APIError{Method: method, Err: err})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WithStack(&APIError{Method: method, StatusCode: resp.StatusCode, Err: err})
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		// Non-JSON bodies show up on 5xx pages and proxies.
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return errors.WithStack(&APIError{Method: method, StatusCode: resp.StatusCode, Comment: truncate(string(body))})
		}
		return errors.WithStack(&APIError{Method: method, StatusCode: resp.StatusCode, Err: errors.Wrap(err, "decoding envelope")})
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || env.Status != "OK" {
		return errors.WithStack(&APIError{Method: method, StatusCode: resp.StatusCode, Comment: env.Comment})
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return errors.WithStack(&APIError{Method: method, StatusCode: resp.StatusCode, Err: errors.Wrap(err, "decoding result")})
	}
	return nil
}

// truncate caps s at maxErrorBody bytes without splitting a UTF-8 sequence.
func truncate(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	cut := maxErrorBody
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
