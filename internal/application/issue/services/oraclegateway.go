package services

import (
	"context"
	"errors"
	"time"

	"github.com/civiclens/civiclens/internal/infrastructure/metrics"
	"github.com/civiclens/civiclens/internal/infrastructure/oracle"
)

const (
	purposeDuplicate  = "duplicate"
	purposeTriage     = "triage"
	purposeResolution = "resolution"

	defaultTemperature = 0.1
)

// OracleGateway wraps the oracle client with the pipeline's decoding settings
// and per-purpose call metrics.
type OracleGateway struct {
	client      oracle.Client
	temperature float64
	metrics     *metrics.Metrics
}

func NewOracleGateway(client oracle.Client, temperature float64, m *metrics.Metrics) *OracleGateway {
	if client == nil {
		client = oracle.Disabled{}
	}
	if temperature <= 0 {
		temperature = defaultTemperature
	}
	return &OracleGateway{client: client, temperature: temperature, metrics: m}
}

func (g *OracleGateway) Model() string {
	return g.client.Model()
}

func (g *OracleGateway) ask(ctx context.Context, purpose, prompt string, jsonResponse bool, images ...oracle.Image) (string, error) {
	start := time.Now()
	reply, err := g.client.Generate(ctx, oracle.Request{
		Prompt:       prompt,
		Images:       images,
		Temperature:  g.temperature,
		JSONResponse: jsonResponse,
	})

	outcome := "ok"
	switch {
	case errors.Is(err, oracle.ErrNotConfigured):
		outcome = "disabled"
	case err != nil:
		outcome = "error"
	}
	g.metrics.ObserveOracleCall(purpose, outcome, time.Since(start).Seconds())
	return reply, err
}
