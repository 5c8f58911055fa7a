package pipeline_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"provisioning-portal/internal/pipeline"
)

type recordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   string
}

type fakePipeline struct {
	mu       sync.Mutex
	status   int
	requests []recordedRequest
}

func newFakePipeline(t *testing.T, status int) (*fakePipeline, *httptest.Server) {
	t.Helper()
	fp := &fakePipeline{status: status}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fp.mu.Lock()
		fp.requests = append(fp.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   string(body),
		})
		fp.mu.Unlock()
		w.WriteHeader(fp.status)
		_, _ = w.Write([]byte(`{"ignored":true}`))
	}))
	t.Cleanup(srv.Close)
	return fp, srv
}

func (f *fakePipeline) Requests() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func TestTriggerProvisioningPipelineSendsContract(t *testing.T) {
	fp, srv := newFakePipeline(t, http.StatusOK)
	client := pipeline.NewClient(pipeline.Config{BaseURL: srv.URL + "/", Token: "tkn"})

	err := client.TriggerProvisioningPipeline(context.Background(), pipeline.Parameters{
		SystemNames: []string{"system1", "system2"},
		Version:     "2",
	})
	if err != nil {
		t.Fatalf("TriggerProvisioningPipeline: %v", err)
	}

	reqs := fp.Requests()
	if len(reqs) != 1 {
		t.Fatalf("requests = %d, want 1", len(reqs))
	}
	got := reqs[0]
	if got.Method != http.MethodPost {
		t.Fatalf("method = %s, want POST", got.Method)
	}
	if got.Path != "/provision-pipeline" {
		t.Fatalf("path = %q, want /provision-pipeline", got.Path)
	}
	if ct := got.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q", ct)
	}
	if auth := got.Header.Get("Authorization"); auth != "Bearer tkn" {
		t.Fatalf("Authorization = %q, want %q", auth, "Bearer tkn")
	}
	want := `{"parameters":{"systems":"system1,system2","version":"2"}}`
	if got.Body != want {
		t.Fatalf("body = %s, want %s", got.Body, want)
	}
}

func TestTriggerDeprovisioningPipelineSendsEmptyVersion(t *testing.T) {
	fp, srv := newFakePipeline(t, http.StatusAccepted)
	client := pipeline.NewClient(pipeline.Config{BaseURL: srv.URL})

	err := client.TriggerDeprovisioningPipeline(context.Background(), pipeline.Parameters{
		SystemNames: []string{"system3"},
	})
	if err != nil {
		t.Fatalf("TriggerDeprovisioningPipeline: %v", err)
	}

	reqs := fp.Requests()
	if len(reqs) != 1 || reqs[0].Path != "/deprovision-pipeline" {
		t.Fatalf("requests = %+v", reqs)
	}
	want := `{"parameters":{"systems":"system3","version":""}}`
	if reqs[0].Body != want {
		t.Fatalf("body = %s, want %s", reqs[0].Body, want)
	}
}

func TestTriggerNon2xxReturnsTriggerError(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusInternalServerError, http.StatusMultipleChoices} {
		fp, srv := newFakePipeline(t, status)
		client := pipeline.NewClient(pipeline.Config{BaseURL: srv.URL})

		err := client.TriggerProvisioningPipeline(context.Background(), pipeline.Parameters{SystemNames: []string{"a"}, Version: "1"})
		if !errors.Is(err, pipeline.ErrPipelineTrigger) {
			t.Fatalf("status %d: error = %v, want ErrPipelineTrigger", status, err)
		}
		var te *pipeline.TriggerError
		if !errors.As(err, &te) {
			t.Fatalf("status %d: error %T is not *TriggerError", status, err)
		}
		if te.StatusCode != status || te.Pipeline != pipeline.Provisioning {
			t.Fatalf("TriggerError = %+v, want status %d", te, status)
		}
		if n := len(fp.Requests()); n != 1 {
			t.Fatalf("status %d: requests = %d, want exactly one attempt", status, n)
		}
	}
}

func TestTriggerTransportFailure(t *testing.T) {
	_, srv := newFakePipeline(t, http.StatusOK)
	url := srv.URL
	srv.Close()

	client := pipeline.NewClient(pipeline.Config{BaseURL: url})
	err := client.TriggerDeprovisioningPipeline(context.Background(), pipeline.Parameters{SystemNames: []string{"a"}})
	if !errors.Is(err, pipeline.ErrPipelineTrigger) {
		t.Fatalf("error = %v, want ErrPipelineTrigger", err)
	}
	var te *pipeline.TriggerError
	if !errors.As(err, &te) || te.StatusCode != 0 || te.Err == nil {
		t.Fatalf("TriggerError = %+v, want transport error", te)
	}
}

func TestTriggerHonoursContextCancellation(t *testing.T) {
	_, srv := newFakePipeline(t, http.StatusOK)
	client := pipeline.NewClient(pipeline.Config{BaseURL: srv.URL})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := client.TriggerProvisioningPipeline(ctx, pipeline.Parameters{SystemNames: []string{"a"}, Version: "1"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestTriggerRecordsSpan(t *testing.T) {
	_, srv := newFakePipeline(t, http.StatusBadGateway)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	client := pipeline.NewClient(pipeline.Config{BaseURL: srv.URL, TracerProvider: tp})
	_ = client.TriggerProvisioningPipeline(context.Background(), pipeline.Parameters{SystemNames: []string{"a", "b"}, Version: "3"})

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	span := spans[0]
	if span.Name() != "pipeline.trigger" {
		t.Fatalf("span name = %q", span.Name())
	}
	if span.Status().Code != codes.Error {
		t.Fatalf("span status = %v, want Error", span.Status().Code)
	}
	attrs := map[string]string{}
	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs["pipeline.name"] != "provisioning" || attrs["pipeline.system_count"] != "2" || attrs["http.response.status_code"] != "502" {
		t.Fatalf("span attributes = %v", attrs)
	}
}
