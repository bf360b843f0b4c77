package planner

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/2beens/shapepro/internal/shape"
	"github.com/2beens/shapepro/internal/telemetry/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/"
	DefaultModel   = "gemini-2.5-flash"
	DefaultTimeout = 90 * time.Second
)

type GeminiParams struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	// Transport is wrapped with otelhttp; http.DefaultTransport when nil.
	Transport http.RoundTripper
}

// GeminiClient generates plans with a Gemini model, asking for a JSON
// answer constrained by the plan schema.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiClient(ctx context.Context, params GeminiParams) (*GeminiClient, error) {
	if params.BaseURL == "" {
		params.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(params.BaseURL, "/") {
		params.BaseURL += "/"
	}
	if params.Model == "" {
		params.Model = DefaultModel
	}
	if params.Timeout <= 0 {
		params.Timeout = DefaultTimeout
	}
	if params.Transport == nil {
		params.Transport = http.DefaultTransport
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  params.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPClient: &http.Client{
			Transport: otelhttp.NewTransport(params.Transport),
		},
		HTTPOptions: genai.HTTPOptions{
			BaseURL: params.BaseURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("new genai client: %w", err)
	}

	return &GeminiClient{
		client:  client,
		model:   strings.TrimPrefix(params.Model, "models/"),
		timeout: params.Timeout,
	}, nil
}

func (c *GeminiClient) GeneratePlan(ctx context.Context, profile shape.Profile) (_ *shape.Plan, err error) {
	requestID := uuid.NewString()
	ctx, span := tracing.GlobalTracer.Start(ctx, "planner.gemini.generate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("plan.request_id", requestID),
		attribute.String("plan.model", c.model),
		attribute.String("plan.goal", profile.Goal.String()),
	)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(BuildPrompt(profile), genai.RoleUser),
	}
	genConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   planSchema(),
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, genConfig)
	if err != nil {
		log.Errorf("[%s] generate plan with [%s]: %s", requestID, c.model, err)
		return nil, classify(fmt.Errorf("generate content: %w", err))
	}
	log.Debugf("[%s] plan response received in %s", requestID, time.Since(start))

	text, err := responseText(resp)
	if err != nil {
		return nil, NewFatalError(err)
	}

	plan, err := ParsePlan(text)
	if err != nil {
		log.Warnf("[%s] rejected plan response: %s", requestID, err)
		return nil, NewFatalError(err)
	}

	span.SetAttributes(
		attribute.Int("plan.workouts", len(plan.Workouts)),
		attribute.Int("plan.meals", len(plan.Meals)),
	)
	return plan, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyResponse
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked [%s]", ErrEmptyResponse, resp.PromptFeedback.BlockReason)
	}

	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			// thought summaries are not part of the answer
			if part != nil && !part.Thought {
				b.WriteString(part.Text)
			}
		}
		// the first candidate with content is the answer
		if b.Len() > 0 {
			break
		}
	}

	if b.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}
