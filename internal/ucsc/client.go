package ucsc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/guideforge/internal/fetch"
	"github.com/jonathan/guideforge/internal/logging"
	"github.com/jonathan/guideforge/internal/pam"
	"github.com/jonathan/guideforge/internal/retry"
	"github.com/jonathan/guideforge/internal/types"
)

// DefaultBaseURL is the public UCSC REST endpoint.
const DefaultBaseURL = "https://api.genome.ucsc.edu"

// Options configures the Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	Retry      retry.Policy
	HTTPClient *http.Client
}

// Flanks holds the two sequences around one target.
type Flanks struct {
	Upstream   types.SequenceRecord
	Downstream types.SequenceRecord
}

// Records returns the flanks in upstream, downstream order.
func (f Flanks) Records() []types.SequenceRecord {
	return []types.SequenceRecord{f.Upstream, f.Downstream}
}

// Client retrieves DNA from the getData/sequence endpoint.
type Client struct {
	opts  Options
	fetch *fetch.Options
	log   *logging.Logger
}

// NewClient creates a Client, filling unset options with defaults.
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Timeout <= 0 {
		o.Timeout = fetch.DefaultTimeout
	}
	if o.Retry.MaxAttempts <= 0 {
		o.Retry = retry.Default()
	}
	fo := fetch.DefaultOptions()
	fo.Timeout = o.Timeout
	fo.Client = o.HTTPClient
	fo.Headers = map[string]string{"Accept": "application/json"}

	c := &Client{opts: o, fetch: fo, log: logging.Named("ucsc")}
	c.opts.Retry.Retryable = fetch.IsTransient
	c.opts.Retry.OnRetry = func(attempt int, wait time.Duration, err error) {
		c.log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", wait).Msg("ucsc request failed, retrying")
	}
	return c
}

// Windows returns the half-open upstream and downstream ranges around coord.
// The upstream window is clipped at 0.
func Windows(coord types.Coordinate, upstream, downstream int) (upStart, upEnd, downStart, downEnd int) {
	return max(0, coord.Start-upstream), coord.Start, coord.End, coord.End + downstream
}

// Fetch retrieves both flanks of coord. Minus-strand targets are reverse
// complemented. Sequences are upper-cased with any base outside ACGT mapped to N.
func (c *Client) Fetch(ctx context.Context, coord types.Coordinate, upstream, downstream int, genome string) (Flanks, error) {
	upStart, upEnd, downStart, downEnd := Windows(coord, upstream, downstream)

	up, err := c.flank(ctx, coord, types.Upstream, genome, upStart, upEnd)
	if err != nil {
		return Flanks{}, err
	}
	down, err := c.flank(ctx, coord, types.Downstream, genome, downStart, downEnd)
	if err != nil {
		return Flanks{}, err
	}
	return Flanks{Upstream: up, Downstream: down}, nil
}

func (c *Client) flank(ctx context.Context, coord types.Coordinate, o types.Orientation, genome string, start, end int) (types.SequenceRecord, error) {
	rec := types.SequenceRecord{
		Identifier:  coord.Label() + "_" + string(o),
		Source:      coord,
		Orientation: o,
	}
	if start >= end {
		return rec, nil
	}

	seq, err := c.Sequence(ctx, genome, coord.Chromosome, start, end)
	if err != nil {
		return rec, &FetchError{Coordinate: coord, Orientation: o, Message: fmt.Sprintf("%s:%d-%d", coord.Chromosome, start, end), Cause: err}
	}
	if coord.Strand == types.StrandMinus {
		seq = pam.ReverseComplement(seq)
	}
	rec.Sequence = normalize(seq)
	return rec, nil
}

type sequenceResponse struct {
	DNA   string `json:"dna"`
	Error string `json:"error"`
}

// Sequence fetches the raw DNA of chrom:[start,end) in genome, retrying transient failures.
func (c *Client) Sequence(ctx context.Context, genome, chrom string, start, end int) (string, error) {
	q := url.Values{}
	q.Set("genome", genome)
	q.Set("chrom", chrom)
	q.Set("start", strconv.Itoa(start))
	q.Set("end", strconv.Itoa(end))
	endpoint := c.opts.BaseURL + "/getData/sequence?" + q.Encode()

	var dna string
	err := retry.Do(ctx, c.opts.Retry, func(ctx context.Context) error {
		started := time.Now()
		res, err := fetch.URL(ctx, endpoint, c.fetch)
		if res != nil {
			c.log.Debug().Str("chrom", chrom).Int("start", start).Int("end", end).
				Int("status", res.StatusCode).Dur("latency", time.Since(started)).Msg("ucsc http response")
		}
		if err != nil {
			return err
		}

		var body sequenceResponse
		if err := json.Unmarshal(res.Body, &body); err != nil {
			return fmt.Errorf("failed to decode UCSC response: %w", err)
		}
		if body.DNA == "" {
			if body.Error != "" {
				return errors.New(body.Error)
			}
			return errors.New("empty sequence returned")
		}
		dna = body.DNA
		return nil
	})
	return dna, err
}

func normalize(seq string) string {
	b := []byte(strings.ToUpper(seq))
	for i, c := range b {
		switch c {
		case 'A', 'C', 'G', 'T', 'N':
		default:
			b[i] = 'N'
		}
	}
	return string(b)
}
