package idt

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/guideforge/internal/fetch"
	"github.com/jonathan/guideforge/internal/logging"
	"github.com/jonathan/guideforge/internal/retry"
	"github.com/jonathan/guideforge/internal/types"
)

// DefaultBaseURL is the IDT CRISPR design service root; search/ and getresult/ hang off it.
const DefaultBaseURL = "https://eu.idtdna.com/sciservices/sherlock/crispr"

const acceptHeader = "application/json, text/javascript, */*; q=0.01"

// Options configures the Client. Durations of zero take the defaults noted per field.
type Options struct {
	BaseURL       string
	SessionCookie string
	Species       string
	Genome        string

	BatchSize   int // default 10
	Concurrency int // default 1

	Timeout      time.Duration // default 60s
	DelayMin     time.Duration
	DelayMax     time.Duration
	PollInterval time.Duration // default 2s
	PollMax      int           // default 30

	Retry   retry.Policy
	Weights types.ScoreWeights

	HTTPClient *http.Client
	// Sleep waits between batches and polls. Defaults to retry.Wait.
	Sleep func(ctx context.Context, d time.Duration) error
	// Jitter returns a value in [0,1) used to spread inter-batch delays.
	Jitter func() float64
}

// Client talks to the IDT service.
type Client struct {
	opts  Options
	fetch *fetch.Options
	log   *logging.Logger
}

// NewClient creates a Client. A missing session cookie is reported as AuthExpired.
func NewClient(o Options) (*Client, error) {
	if strings.TrimSpace(o.SessionCookie) == "" {
		return nil, &ScoringError{Kind: KindAuthExpired, Message: "no session cookie configured; " + AuthGuidance}
	}
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Species == "" {
		o.Species, o.Genome = "human", "hg38"
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 10
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	if o.DelayMax < o.DelayMin {
		o.DelayMax = o.DelayMin
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 2 * time.Second
	}
	if o.PollMax <= 0 {
		o.PollMax = 30
	}
	if o.Retry.MaxAttempts <= 0 {
		o.Retry = retry.Default()
	}
	if o.Weights == (types.ScoreWeights{}) {
		o.Weights = types.DefaultScoreWeights
	}
	if o.Sleep == nil {
		o.Sleep = retry.Wait
	}
	if o.Jitter == nil {
		o.Jitter = rand.Float64
	}

	fo := fetch.DefaultOptions()
	fo.Timeout = o.Timeout
	fo.Client = o.HTTPClient
	fo.UserAgent = "Mozilla/5.0 (compatible; IDT-CRISPR-BatchBot/2.0)"
	fo.Headers = map[string]string{
		"Accept": acceptHeader,
		"Cookie": o.SessionCookie,
	}

	c := &Client{opts: o, fetch: fo, log: logging.Named("idt")}
	c.opts.Retry.Sleep = o.Sleep
	c.opts.Retry.Retryable = func(err error) bool {
		var se *ScoringError
		return errors.As(err, &se) && se.Kind == KindTransient
	}
	c.opts.Retry.OnRetry = func(attempt int, wait time.Duration, err error) {
		c.log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", wait).Msg("idt request failed, retrying")
	}
	return c, nil
}

// BatchSize returns the effective batch size.
func (c *Client) BatchSize() int {
	return c.opts.BatchSize
}

// SubmitBatch scores one batch. Every candidate gets exactly one result, in
// input order; candidates the service did not score carry an Err marker.
// The returned error is non-nil only when the batch as a whole failed.
func (c *Client) SubmitBatch(ctx context.Context, candidates []types.PamCandidate) ([]types.ScoreResult, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	seqs := make([]namedSequence, len(candidates))
	for i, cand := range candidates {
		seqs[i] = namedSequence{Name: cand.ID, Sequence: cand.Sequence()}
	}
	payload := newSearchRequest(c.opts.Species, c.opts.Genome, seqs)

	var resp searchResponse
	err := retry.Do(ctx, c.opts.Retry, func(ctx context.Context) error {
		res, err := fetch.PostJSON(ctx, c.opts.BaseURL+"/search/", payload, c.fetch)
		if err != nil {
			return classify(res, err)
		}
		resp, err = c.decode(res)
		return err
	})
	if err != nil {
		return nil, unwrapExhausted(err)
	}

	scores := resp.scores()
	if !anyScored(scores) && resp.LookupKey != "" {
		c.log.Debug().Str("lookup_key", resp.LookupKey).Msg("no immediate scores, polling")
		scores, err = c.poll(ctx, resp.LookupKey)
		if err != nil {
			return nil, err
		}
	}

	return c.match(candidates, scores), nil
}

func (c *Client) decode(res *fetch.Result) (searchResponse, error) {
	if res.IsHTML() {
		return searchResponse{}, htmlError(res)
	}
	resp, err := parseResponse(res.Body)
	if err != nil {
		return resp, &ScoringError{Kind: KindFailed, StatusCode: res.StatusCode, Message: "unparseable response", Cause: err}
	}
	return resp, nil
}

// poll queries getresult/<key> until a response carries scores or PollMax is reached.
func (c *Client) poll(ctx context.Context, key string) ([]rawScore, error) {
	endpoint := c.opts.BaseURL + "/getresult/" + key
	for attempt := 1; attempt <= c.opts.PollMax; attempt++ {
		if err := c.opts.Sleep(ctx, c.opts.PollInterval); err != nil {
			return nil, err
		}
		res, err := fetch.URL(ctx, endpoint, c.fetch)
		if err != nil {
			serr := classify(res, err)
			if IsAuthExpired(serr) || ctx.Err() != nil {
				return nil, serr
			}
			c.log.Warn().Err(err).Int("poll", attempt).Msg("idt poll failed")
			continue
		}
		resp, err := c.decode(res)
		if err != nil {
			if IsAuthExpired(err) {
				return nil, err
			}
			c.log.Warn().Err(err).Int("poll", attempt).Msg("idt poll returned unreadable body")
			continue
		}
		if scores := resp.scores(); anyScored(scores) {
			c.log.Debug().Int("polls", attempt).Msg("idt scores ready")
			return scores, nil
		}
	}
	return nil, &ScoringError{Kind: KindFailed, Message: fmt.Sprintf("no scores after %d polls of %s", c.opts.PollMax, key)}
}

func (c *Client) match(candidates []types.PamCandidate, scores []rawScore) []types.ScoreResult {
	byName := make(map[string]rawScore, len(scores))
	for _, s := range scores {
		byName[s.Name] = s
	}

	results := make([]types.ScoreResult, len(candidates))
	for i, cand := range candidates {
		results[i] = types.ScoreResult{Candidate: cand}
		s, ok := byName[cand.ID]
		if !ok {
			results[i].Err = "no result returned"
			continue
		}
		on, okOn := ExtractScore(s.OnTarget)
		off, okOff := ExtractScore(s.OffTarget)
		if !okOn || !okOff {
			results[i].Err = fmt.Sprintf("missing score (on=%q, off=%q)", s.OnTarget, s.OffTarget)
			continue
		}
		scored := types.NewScoredCandidate(cand, on, off, c.opts.Weights)
		results[i].Scored = &scored
	}
	return results
}

func anyScored(scores []rawScore) bool {
	for _, s := range scores {
		if s.hasScores() {
			return true
		}
	}
	return false
}

// classify maps a fetch failure onto a ScoringError kind.
func classify(res *fetch.Result, err error) error {
	var fe *fetch.Error
	if !errors.As(err, &fe) {
		return &ScoringError{Kind: KindFailed, Message: "request failed", Cause: err}
	}
	switch {
	case fe.StatusCode == http.StatusUnauthorized || fe.StatusCode == http.StatusForbidden:
		return &ScoringError{Kind: KindAuthExpired, StatusCode: fe.StatusCode, Message: "session rejected; " + AuthGuidance}
	case res != nil && res.IsHTML() && fetch.IsLoginPage(res.Body):
		return &ScoringError{Kind: KindAuthExpired, StatusCode: fe.StatusCode, Message: "redirected to login page; " + AuthGuidance}
	case fe.Transient():
		return &ScoringError{Kind: KindTransient, StatusCode: fe.StatusCode, Message: "service unavailable", Cause: err}
	default:
		return &ScoringError{Kind: KindFailed, StatusCode: fe.StatusCode, Message: "request rejected", Cause: err}
	}
}

// htmlError handles a 2xx HTML body where JSON was expected. An expired
// session typically lands on the sign-in page.
func htmlError(res *fetch.Result) error {
	if fetch.IsLoginPage(res.Body) {
		return &ScoringError{Kind: KindAuthExpired, StatusCode: res.StatusCode, Message: "received login page instead of JSON; " + AuthGuidance}
	}
	title := fetch.PageTitle(res.Body)
	return &ScoringError{Kind: KindFailed, StatusCode: res.StatusCode, Message: fmt.Sprintf("received HTML page %q instead of JSON", title)}
}

// unwrapExhausted surfaces the last ScoringError behind a retry exhaustion.
func unwrapExhausted(err error) error {
	var ex *retry.ExhaustedError
	var se *ScoringError
	if errors.As(err, &ex) && errors.As(ex.Last, &se) {
		return &ScoringError{
			Kind:       se.Kind,
			StatusCode: se.StatusCode,
			Message:    fmt.Sprintf("%s after %d attempts", se.Message, ex.Attempts),
			Cause:      se.Cause,
		}
	}
	return err
}
