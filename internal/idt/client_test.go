package idt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonathan/guideforge/internal/retry"
	"github.com/jonathan/guideforge/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func newTestClient(t *testing.T, url string, mutate ...func(*Options)) *Client {
	t.Helper()
	o := Options{
		BaseURL:       url,
		SessionCookie: "session=abc",
		Species:       "mouse",
		Genome:        "mm10",
		BatchSize:     10,
		PollMax:       3,
		Retry:         retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond},
		Sleep:         noSleep,
		Jitter:        func() float64 { return 0.5 },
	}
	for _, m := range mutate {
		m(&o)
	}
	c, err := NewClient(o)
	require.NoError(t, err)
	return c
}

func candidates(ids ...string) []types.PamCandidate {
	out := make([]types.PamCandidate, len(ids))
	for i, id := range ids {
		out[i] = types.PamCandidate{ID: id, Protospacer: "ACGTACGTACGTACGTACGT", PAM: "AGG", SourceIdentifier: "src"}
	}
	return out
}

type detailFixture struct {
	Name string
	On   any
	Off  any
}

func responseBody(key string, details ...detailFixture) string {
	ds := make([]map[string]any, 0, len(details))
	for _, d := range details {
		props := []map[string]any{{"FieldName": "SearchField", "FieldValue": d.Name}}
		if d.On != nil {
			props = append(props, map[string]any{"FieldName": "OnTargetPotential", "FieldValue": d.On})
		}
		if d.Off != nil {
			props = append(props, map[string]any{"FieldName": "OffTargetRiskSpecificity", "FieldValue": d.Off})
		}
		ds = append(ds, map[string]any{"Props": props})
	}
	b, _ := json.Marshal([]map[string]any{{"LookupKey": key, "Details": ds}})
	return string(b)
}

func decodeNames(t *testing.T, r *http.Request) []string {
	var req searchRequest
	require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	names := make([]string, len(req.NamedSequences))
	for i, s := range req.NamedSequences {
		names[i] = s.Name
	}
	return names
}

func TestNewClient_RequiresCookie(t *testing.T) {
	_, err := NewClient(Options{})
	require.Error(t, err)
	assert.True(t, IsAuthExpired(err))
}

func TestSubmitBatch_ImmediateScores(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/", r.URL.Path)
		assert.Equal(t, "session=abc", r.Header.Get("Cookie"))

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "CRISPR_SEQUENCE", req.ToolName)
		assert.Equal(t, "mouse", req.Species)
		assert.Equal(t, "mm10", req.Genome)
		require.Len(t, req.NamedSequences, 2)
		assert.Equal(t, "ACGTACGTACGTACGTACGTAGG", req.NamedSequences[0].Sequence)

		_, _ = w.Write([]byte(responseBody("k1", detailFixture{Name: "c1", On: "72 (Good)", Off: 88.5})))
	}))
	defer server.Close()

	results, err := newTestClient(t, server.URL).SubmitBatch(context.Background(), candidates("c1", "c2"))
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.True(t, results[0].OK())
	assert.Equal(t, 72.0, results[0].Scored.OnTargetScore)
	assert.Equal(t, 88.5, results[0].Scored.OffTargetScore)
	assert.Equal(t, 160.5, results[0].Scored.OnPlusOff)

	assert.False(t, results[1].OK())
	assert.Equal(t, "c2", results[1].Candidate.ID)
	assert.Equal(t, "no result returned", results[1].Err)
}

func TestSubmitBatch_PollsUntilScored(t *testing.T) {
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/":
			_, _ = w.Write([]byte(responseBody("abc", detailFixture{Name: "c1"})))
		case "/getresult/abc":
			if polls.Add(1) < 2 {
				_, _ = w.Write([]byte(responseBody("abc", detailFixture{Name: "c1"})))
				return
			}
			_, _ = w.Write([]byte(responseBody("abc", detailFixture{Name: "c1", On: "55", Off: "61"})))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	results, err := newTestClient(t, server.URL).SubmitBatch(context.Background(), candidates("c1"))
	require.NoError(t, err)
	require.True(t, results[0].OK())
	assert.Equal(t, 116.0, results[0].Scored.OnPlusOff)
	assert.Equal(t, int32(2), polls.Load())
}

func TestSubmitBatch_PollTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(responseBody("slow", detailFixture{Name: "c1"})))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).SubmitBatch(context.Background(), candidates("c1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scores after 3 polls")
	assert.False(t, IsAuthExpired(err))
}

func TestSubmitBatch_UnauthorizedNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).SubmitBatch(context.Background(), candidates("c1"))
	require.Error(t, err)
	assert.True(t, IsAuthExpired(err))
	assert.Contains(t, err.Error(), "session cookie")
	assert.Equal(t, int32(1), calls.Load())
}

func TestSubmitBatch_LoginPageIsAuthExpired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Log In</title></head><body><form><input type="password"></form></body></html>`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).SubmitBatch(context.Background(), candidates("c1"))
	require.Error(t, err)
	assert.True(t, IsAuthExpired(err))
}

func TestSubmitBatch_TransientRetriedThenReported(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).SubmitBatch(context.Background(), candidates("c1"))
	require.Error(t, err)

	var se *ScoringError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, KindTransient, se.Kind)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, int32(3), calls.Load())
}

func TestScoreAll_FailedBatchReportedOthersContinue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		names := decodeNames(t, r)
		if names[0] == "c3" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var ds []detailFixture
		for i, n := range names {
			ds = append(ds, detailFixture{Name: n, On: fmt.Sprint(50 + i), Off: "40"})
		}
		_, _ = w.Write([]byte(responseBody("k", ds...)))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, func(o *Options) {
		o.BatchSize = 2
		o.Concurrency = 2
	})
	results, failures, err := client.ScoreAll(context.Background(), candidates("c1", "c2", "c3", "c4", "c5"))
	require.NoError(t, err)
	require.Len(t, results, 5)

	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("c%d", i+1), r.Candidate.ID)
	}
	assert.True(t, results[0].OK())
	assert.True(t, results[1].OK())
	assert.False(t, results[2].OK())
	assert.False(t, results[3].OK())
	assert.True(t, results[4].OK())

	require.Len(t, failures, 1)
	assert.Equal(t, 2, failures[0].Batch)
	assert.Equal(t, []string{"c3", "c4"}, failures[0].CandidateIDs)
}

func TestScoreAll_AuthExpiredAbortsPhase(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, func(o *Options) { o.BatchSize = 1 })
	results, failures, err := client.ScoreAll(context.Background(), candidates("c1", "c2", "c3"))
	require.Error(t, err)
	assert.True(t, IsAuthExpired(err))
	assert.Nil(t, results)
	assert.Nil(t, failures)
}

func TestScoreAll_DelaysBetweenBatches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		names := decodeNames(t, r)
		_, _ = w.Write([]byte(responseBody("k", detailFixture{Name: names[0], On: "1", Off: "1"})))
	}))
	defer server.Close()

	var waits atomic.Int64
	var count atomic.Int32
	client := newTestClient(t, server.URL, func(o *Options) {
		o.BatchSize = 1
		o.DelayMin = time.Second
		o.DelayMax = 3 * time.Second
		o.Sleep = func(ctx context.Context, d time.Duration) error {
			waits.Add(int64(d))
			count.Add(1)
			return ctx.Err()
		}
	})

	_, _, err := client.ScoreAll(context.Background(), candidates("c1", "c2", "c3"))
	require.NoError(t, err)
	assert.Equal(t, int32(2), count.Load())
	assert.Equal(t, int64(4*time.Second), waits.Load())
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.NamedSequences, 1)
		assert.Equal(t, PingSpacer, req.NamedSequences[0].Sequence)
		_, _ = w.Write([]byte(responseBody("k", detailFixture{Name: "TinyTest", On: "60", Off: "70"})))
	}))
	defer server.Close()

	r, err := newTestClient(t, server.URL).Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 130.0, r.Scored.OnPlusOff)
}

func TestExtractScore(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"72 (Good)", 72, true},
		{"-3.5", -3.5, true},
		{"Score: 12.", 12, true},
		{"88.5", 88.5, true},
		{"n/a", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ExtractScore(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestScores_CardMessagesFallback(t *testing.T) {
	body := `{"LookupKey":"x","Details":[{"Props":[
		{"FieldName":"SearchField","FieldValue":"g1"},
		{"FieldName":"CardMessages","FieldValue":[
			{"deviation":"BAD_FOR_POTENCY","description":"On-target score 31"},
			{"deviation":"BAD_FOR_OFF_TARGET","description":"Off-target score 22"}
		]}
	]}]}`

	resp, err := parseResponse([]byte(body))
	require.NoError(t, err)
	scores := resp.scores()
	require.Len(t, scores, 1)
	assert.Equal(t, "g1", scores[0].Name)
	assert.True(t, strings.HasSuffix(scores[0].OnTarget, "31"))
	assert.True(t, strings.HasSuffix(scores[0].OffTarget, "22"))
}
