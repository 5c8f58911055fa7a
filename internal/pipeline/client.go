// Package pipeline triggers the remote provisioning and deprovisioning
// pipelines. Each trigger is a single authenticated POST; the remote system
// owns everything that happens afterwards.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	ProvisionPath   = "/provision-pipeline"
	DeprovisionPath = "/deprovision-pipeline"
)

// Name identifies one of the two pipelines.
type Name string

const (
	Provisioning   Name = "provisioning"
	Deprovisioning Name = "deprovisioning"
)

// ErrPipelineTrigger matches every error returned by a trigger call.
var ErrPipelineTrigger = errors.New("pipeline trigger failed")

// TriggerError describes a failed trigger. StatusCode is zero when the
// request never produced a response.
type TriggerError struct {
	Pipeline   Name
	StatusCode int
	Err        error
}

func (e *TriggerError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to trigger %s pipeline: unexpected status %d", e.Pipeline, e.StatusCode)
	}
	return fmt.Sprintf("failed to trigger %s pipeline: %v", e.Pipeline, e.Err)
}

func (e *TriggerError) Unwrap() error { return e.Err }

func (e *TriggerError) Is(target error) bool { return target == ErrPipelineTrigger }

// Parameters are forwarded to the pipeline run.
type Parameters struct {
	SystemNames []string
	Version     string
}

// Config holds the client settings. Token is sent as a bearer token.
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client

	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
}

// Client posts pipeline trigger requests.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	tracer  trace.Tracer
}

// NewClient builds a Client from cfg. A nil HTTPClient gets a fresh
// http.Client using cfg.Timeout.
func NewClient(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    hc,
		tracer:  tp.Tracer("provisioning-portal/internal/pipeline"),
	}
}

type triggerBody struct {
	Parameters triggerParameters `json:"parameters"`
}

type triggerParameters struct {
	Systems string `json:"systems"`
	Version string `json:"version"`
}

// TriggerProvisioningPipeline starts the provisioning pipeline.
func (c *Client) TriggerProvisioningPipeline(ctx context.Context, params Parameters) error {
	return c.trigger(ctx, Provisioning, ProvisionPath, params)
}

// TriggerDeprovisioningPipeline starts the deprovisioning pipeline.
func (c *Client) TriggerDeprovisioningPipeline(ctx context.Context, params Parameters) error {
	return c.trigger(ctx, Deprovisioning, DeprovisionPath, params)
}

func (c *Client) trigger(ctx context.Context, name Name, path string, params Parameters) (err error) {
	ctx, span := c.tracer.Start(ctx, "pipeline.trigger", trace.WithAttributes(
		attribute.String("pipeline.name", string(name)),
		attribute.Int("pipeline.system_count", len(params.SystemNames)),
		attribute.String("pipeline.version", params.Version),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	body, err := json.Marshal(triggerBody{Parameters: triggerParameters{
		Systems: strings.Join(params.SystemNames, ","),
		Version: params.Version,
	}})
	if err != nil {
		return &TriggerError{Pipeline: name, Err: fmt.Errorf("marshal body: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return &TriggerError{Pipeline: name, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return &TriggerError{Pipeline: name, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TriggerError{Pipeline: name, StatusCode: resp.StatusCode}
	}
	return nil
}
