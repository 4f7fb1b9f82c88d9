package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AltairaLabs/rehearsal/pkg/config"
	rerrors "github.com/AltairaLabs/rehearsal/pkg/errors"
	"github.com/AltairaLabs/rehearsal/pkg/httputil"
	"github.com/AltairaLabs/rehearsal/runtime/credentials"
	"github.com/AltairaLabs/rehearsal/runtime/logger"
	metrics "github.com/AltairaLabs/rehearsal/runtime/metrics/prometheus"
	"github.com/AltairaLabs/rehearsal/runtime/report"
	"github.com/AltairaLabs/rehearsal/runtime/telemetry"
	"github.com/AltairaLabs/rehearsal/runtime/tools"
)

const (
	// DefaultReportTimeout bounds one generateContent call.
	DefaultReportTimeout = httputil.DefaultReportTimeout

	// maxErrorBody caps how much of an error response is kept.
	maxErrorBody = 4096
)

// Report errors.
var (
	ErrNoCandidates  = errors.New("response contained no candidates")
	ErrEmptyResponse = errors.New("response contained no text")
	ErrInvalidReport = errors.New("report does not match schema")
)

// ReportConfig configures a ReportClient.
type ReportConfig struct {
	// BaseURL is the REST API root. Defaults to config.DefaultAPIBaseURL.
	BaseURL string

	// Model is the report model. Defaults to config.DefaultReportModel.
	Model string

	// Credential authenticates requests. Required.
	Credential credentials.Credential

	// HTTPClient overrides the default otelhttp-instrumented client.
	HTTPClient *http.Client

	// TracerProvider for the report span and HTTP client spans. Defaults to the global provider.
	TracerProvider trace.TracerProvider
}

// ReportClient requests structured reports from generateContent.
// It implements report.Requestor.
type ReportClient struct {
	cfg    ReportConfig
	client *http.Client
	tracer trace.Tracer
}

var _ report.Requestor = (*ReportClient)(nil)

// NewReportClient creates a ReportClient.
func NewReportClient(cfg ReportConfig) *ReportClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultAPIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = config.DefaultReportModel
	}
	client := cfg.HTTPClient
	if client == nil {
		client = httputil.NewTracedClient(DefaultReportTimeout, cfg.TracerProvider)
	}
	return &ReportClient{
		cfg:    cfg,
		client: client,
		tracer: telemetry.Tracer(cfg.TracerProvider),
	}
}

// Model returns the configured report model.
func (c *ReportClient) Model() string {
	return c.cfg.Model
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string     `json:"role,omitempty"`
	Parts []textPart `json:"parts"`
}

type textPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string          `json:"responseMimeType"`
	ResponseSchema   json.RawMessage `json:"responseSchema"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason,omitempty"`
	} `json:"candidates"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
}

// Generate requests a report for req. An empty transcript returns nil, nil
// without a network call. Every failure is a report error.
func (c *ReportClient) Generate(ctx context.Context, req *report.Request) (*report.Report, error) {
	if req.Empty() {
		metrics.RecordReport(c.cfg.Model, metrics.StatusSkipped, 0)
		return nil, nil
	}
	if c.cfg.Credential == nil {
		return nil, rerrors.Report(component, "GenerateReport", credentials.ErrNoCredential)
	}

	ctx, span := c.tracer.Start(ctx, telemetry.SpanReport,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("report.model", c.cfg.Model),
			attribute.Int("report.transcript_entries", len(req.Transcript)),
		),
	)
	defer span.End()

	start := time.Now()
	rep, err := c.generate(ctx, req)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		metrics.RecordReport(c.cfg.Model, metrics.StatusError, elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, rerrors.Report(component, "GenerateReport", err)
	}
	metrics.RecordReport(c.cfg.Model, metrics.StatusSuccess, elapsed)
	span.SetStatus(codes.Ok, "")
	return rep, nil
}

func (c *ReportClient) generate(ctx context.Context, req *report.Request) (*report.Report, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []textPart{{Text: report.Prompt(req)}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   report.Schema,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if err := c.cfg.Credential.Apply(ctx, httpReq); err != nil {
		return nil, fmt.Errorf("failed to apply credential: %w", err)
	}
	logger.APIRequest(component, http.MethodPost, url, nil, nil)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		logger.APIResponse(component, 0, "", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		apiErr := ParseAPIError(resp.StatusCode, truncate(respBody, maxErrorBody))
		logger.APIResponse(component, resp.StatusCode, "", apiErr)
		return nil, ClassifyError(apiErr)
	}
	logger.APIResponse(component, resp.StatusCode, string(truncate(respBody, maxErrorBody)), nil)

	return parseReportResponse(respBody)
}

func parseReportResponse(body []byte) (*report.Report, error) {
	var gr generateResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if gr.PromptFeedback.IsBlocked() {
		return nil, fmt.Errorf("%w: prompt blocked (%s)", ErrPolicyViolation, gr.PromptFeedback.BlockReason)
	}
	if len(gr.Candidates) == 0 {
		return nil, ErrNoCandidates
	}

	var text strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	raw := strings.TrimSpace(text.String())
	if raw == "" {
		return nil, ErrEmptyResponse
	}

	if err := validateReport([]byte(raw)); err != nil {
		return nil, err
	}
	var rep report.Report
	if err := json.Unmarshal([]byte(raw), &rep); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &rep, nil
}

var (
	reportSchemaOnce sync.Once
	reportSchema     *gojsonschema.Schema
	reportSchemaErr  error
)

func validateReport(doc []byte) error {
	reportSchemaOnce.Do(func() {
		reportSchema, reportSchemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(report.Schema))
	})
	if reportSchemaErr != nil {
		return fmt.Errorf("invalid report schema: %w", reportSchemaErr)
	}
	result, err := reportSchema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidReport, err)
	}
	if !result.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidReport, tools.ResultErrors(result))
	}
	return nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
