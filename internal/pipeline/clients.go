package pipeline

import (
	"context"
	"net/http"
	"time"

	"github.com/jonathan/guideforge/internal/config"
	"github.com/jonathan/guideforge/internal/idt"
	"github.com/jonathan/guideforge/internal/retry"
	"github.com/jonathan/guideforge/internal/ucsc"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func retryPolicy(attempts int, sleep SleepFunc) retry.Policy {
	p := retry.Default()
	p.MaxAttempts = attempts
	p.Sleep = sleep
	return p
}

// NewUCSCClient builds a sequence fetcher from the ucsc section of cfg.
func NewUCSCClient(cfg *config.Config, hc *http.Client, sleep SleepFunc) *ucsc.Client {
	return ucsc.NewClient(ucsc.Options{
		BaseURL:    cfg.UCSC.BaseURL,
		Timeout:    config.Seconds(cfg.UCSC.Timeout),
		Retry:      retryPolicy(cfg.UCSC.Retries, sleep),
		HTTPClient: hc,
	})
}

// NewIDTClient builds a scoring client from the idt section of cfg. It fails
// with a config error when no session cookie is configured.
func NewIDTClient(cfg *config.Config, hc *http.Client, sleep SleepFunc) (*idt.Client, error) {
	if err := cfg.RequireSessionCookie(); err != nil {
		return nil, err
	}
	species, genome, err := config.IDTSpecies(cfg.UCSC.GenomeAssembly)
	if err != nil {
		return nil, err
	}
	return idt.NewClient(idt.Options{
		BaseURL:       cfg.IDT.BaseURL,
		SessionCookie: cfg.IDT.SessionCookie,
		Species:       species,
		Genome:        genome,
		BatchSize:     cfg.IDT.BatchSize,
		Concurrency:   cfg.IDT.Concurrency,
		Timeout:       config.Seconds(cfg.IDT.Timeout),
		DelayMin:      config.Seconds(cfg.IDT.DelayMin),
		DelayMax:      config.Seconds(cfg.IDT.DelayMax),
		PollInterval:  config.Seconds(cfg.IDT.PollInterval),
		PollMax:       cfg.IDT.PollMax,
		Retry:         retryPolicy(cfg.IDT.RetryAttempts, sleep),
		Weights:       cfg.Policy.Scoring,
		HTTPClient:    hc,
		Sleep:         sleep,
	})
}
