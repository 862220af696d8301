package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/audit"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/command"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/credentials"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/executor"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/infrastructure/logging"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/intent"
)

// DefaultMaxBatchSize bounds a command batch when none is configured.
const DefaultMaxBatchSize = 100

// inputSampleLength is how much rejected input is copied into audit context.
const inputSampleLength = 100

var tracer = otel.Tracer("github.com/EPdacoder05/Jarvis-AI-Assistant/internal/pipeline")

// CredentialSource supplies device-control credentials.
// *credentials.Provider satisfies it.
type CredentialSource interface {
	Get(ctx context.Context) (credentials.Credential, error)
}

// Options configures a Pipeline.
type Options struct {
	MaxInputLength int
	MaxBatchSize   int
	Recorder       audit.Recorder
	Logger         *logging.Logger
	Now            func() time.Time
}

// Pipeline wires the parser, validator and executor together.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Each call owns its Session.
type Pipeline struct {
	validator *command.Validator
	executor  *executor.Executor
	creds     CredentialSource

	maxInputLength int
	maxBatchSize   int
	recorder       audit.Recorder
	logger         *logging.Logger
	now            func() time.Time
}

// New creates a Pipeline.
func New(v *command.Validator, ex *executor.Executor, creds CredentialSource, opts Options) *Pipeline {
	if opts.MaxInputLength <= 0 {
		opts.MaxInputLength = DefaultMaxInputLength
	}
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = DefaultMaxBatchSize
	}
	if opts.Recorder == nil {
		opts.Recorder = audit.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}

	return &Pipeline{
		validator:      v,
		executor:       ex,
		creds:          creds,
		maxInputLength: opts.MaxInputLength,
		maxBatchSize:   opts.MaxBatchSize,
		recorder:       opts.Recorder,
		logger:         opts.Logger.With("component", "pipeline"),
		now:            opts.Now,
	}
}

// ProcessText handles a free-text command: screen, parse, validate, then
// execute.
func (p *Pipeline) ProcessText(ctx context.Context, text string, info RequestInfo) (*Response, error) {
	ctx, span := tracer.Start(ctx, "pipeline.text")
	defer span.End()

	s := command.NewSession()
	span.SetAttributes(attribute.String("jarvis.session_id", s.ID))

	evCtx := info.Context()
	evCtx["command_type"] = "natural_language"
	evCtx["command_length"] = utf8.RuneCountInString(text)
	p.record(ctx, s, audit.EventCommandReceived, "Command received for processing", audit.SeverityInfo, evCtx)

	if strings.TrimSpace(text) == "" {
		return p.reject(s, CodeMissingBody, "Bad Request: command parameter is required"), nil
	}

	if res := screen(text, p.maxInputLength); !res.ok() {
		p.recordScreening(ctx, s, text, res)
		return p.reject(s, CodeInvalidInput, "Invalid input detected. Please check your command and try again."), nil
	}

	_, parseSpan := tracer.Start(ctx, "intent.parse")
	in, params := intent.Parse(text)
	parseSpan.SetAttributes(attribute.String("jarvis.intent", string(in)))
	parseSpan.End()

	p.logger.Info("intent parsed", "session_id", s.ID, "intent", string(in), "parameters", map[string]any(params))
	p.record(ctx, s, audit.EventIntentParsed, "Parsed intent: "+string(in), audit.SeverityInfo,
		map[string]any{"intent": string(in), "parameters": map[string]any(params)})

	if in == intent.Unknown {
		p.record(ctx, s, audit.EventUnknownCommand, "Command did not match any known intent", audit.SeverityLow,
			map[string]any{"input_sample": sample(text, inputSampleLength)})
		return p.respond(s, executor.UnknownResult(params)), nil
	}

	cmd, _ := p.executor.CommandFor(in, params)
	if err := p.validate(ctx, s, cmd); err != nil {
		resp := p.reject(s, CodeInvalidCommand, "Command validation failed")
		resp.Intent = string(in)
		resp.Parameters = params
		return resp, nil
	}

	cred, err := p.creds.Get(ctx)
	if err != nil {
		return p.configFailure(span, s, err)
	}

	resp := p.respond(s, p.executor.Execute(ctx, s, in, params, cred))
	endSpan(span, resp)
	return resp, nil
}

// ProcessCommand handles one structured command in a new session.
func (p *Pipeline) ProcessCommand(ctx context.Context, cmd command.Command, info RequestInfo) (*Response, error) {
	ctx, span := tracer.Start(ctx, "pipeline.command")
	defer span.End()

	s := command.NewSession()
	span.SetAttributes(attribute.String("jarvis.session_id", s.ID))

	resp, err := p.processCommand(ctx, s, cmd, info)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "configuration error")
		return nil, err
	}
	endSpan(span, resp)
	return resp, nil
}

// ProcessBatch handles several structured commands in one shared session,
// in order. Once the session ceiling is passed every remaining command is
// rejected. A configuration error aborts the batch.
func (p *Pipeline) ProcessBatch(ctx context.Context, cmds []command.Command, info RequestInfo) (*BatchResponse, error) {
	ctx, span := tracer.Start(ctx, "pipeline.batch", trace.WithAttributes(
		attribute.Int("jarvis.batch_size", len(cmds)),
	))
	defer span.End()

	s := command.NewSession()
	span.SetAttributes(attribute.String("jarvis.session_id", s.ID))

	if len(cmds) > p.maxBatchSize {
		p.record(ctx, s, audit.EventCommandRejected, "Command batch exceeds maximum size", audit.SeverityMedium,
			map[string]any{"batch_size": len(cmds), "max_batch_size": p.maxBatchSize})
		return nil, fmt.Errorf("%w: %d commands exceeds limit of %d", ErrBatchTooLarge, len(cmds), p.maxBatchSize)
	}

	batch := &BatchResponse{
		Results:   make([]*Response, 0, len(cmds)),
		SessionID: s.ID,
		Timestamp: p.now(),
	}
	for _, cmd := range cmds {
		resp, err := p.processCommand(ctx, s, cmd, info)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "configuration error")
			return nil, err
		}
		batch.Results = append(batch.Results, resp)
		if resp.Success {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
	}
	batch.Success = len(cmds) > 0 && batch.Failed == 0

	span.SetAttributes(
		attribute.Int("jarvis.succeeded", batch.Succeeded),
		attribute.Int("jarvis.failed", batch.Failed),
	)
	return batch, nil
}

func (p *Pipeline) processCommand(ctx context.Context, s *command.Session, cmd command.Command, info RequestInfo) (*Response, error) {
	evCtx := info.Context()
	evCtx["command_type"] = cmd.EffectiveType()
	p.record(ctx, s, audit.EventCommandReceived, "Command received for processing", audit.SeverityInfo, evCtx)

	if err := p.validate(ctx, s, cmd); err != nil {
		resp := p.reject(s, CodeInvalidCommand, "Command validation failed")
		resp.Action = cmd.Action
		resp.Target = cmd.Target
		return resp, nil
	}

	if t := cmd.EffectiveType(); t != command.TypeHomeAssistant {
		p.record(ctx, s, audit.EventUnsupportedType, "Unsupported command type: "+t, audit.SeverityMedium,
			map[string]any{"command_type": t, "action": cmd.Action, "target": cmd.Target})
		resp := p.reject(s, CodeUnsupportedType, "Unsupported command type: "+t)
		resp.Action = cmd.Action
		resp.Target = cmd.Target
		return resp, nil
	}

	cred, err := p.creds.Get(ctx)
	if err != nil {
		p.logger.Error("credentials unavailable", "session_id", s.ID, "error", err)
		return nil, asConfigError(err)
	}

	return p.respond(s, p.executor.ExecuteCommand(ctx, s, cmd, cred)), nil
}

func (p *Pipeline) validate(ctx context.Context, s *command.Session, cmd command.Command) error {
	ctx, span := tracer.Start(ctx, "command.validate", trace.WithAttributes(
		attribute.String("jarvis.action", cmd.Action),
		attribute.Int("jarvis.command_count", s.CommandCount+1),
	))
	defer span.End()

	err := p.validator.Validate(ctx, s, cmd)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		p.logger.Warn("command rejected", "session_id", s.ID, "action", cmd.Action, "target", cmd.Target, "error", err)
	}
	return err
}

func (p *Pipeline) recordScreening(ctx context.Context, s *command.Session, text string, res screenResult) {
	if res.pattern != "" {
		p.record(ctx, s, audit.EventSuspiciousInput, "Potentially malicious input detected: "+res.pattern, audit.SeverityHigh,
			map[string]any{"input_sample": sample(text, inputSampleLength), "pattern": res.pattern})
	} else {
		n := utf8.RuneCountInString(text)
		p.record(ctx, s, audit.EventInputTooLong, fmt.Sprintf("Input exceeds maximum length: %d characters", n), audit.SeverityMedium,
			map[string]any{"input_length": n, "max_input_length": p.maxInputLength})
	}
	p.record(ctx, s, audit.EventCommandRejected, "Command rejected due to invalid input", audit.SeverityMedium,
		map[string]any{"rejection_reason": "input_validation_failed"})
}

// configFailure logs a credential failure. The cause is returned to the
// caller but never placed in a Response.
func (p *Pipeline) configFailure(span trace.Span, s *command.Session, err error) (*Response, error) {
	p.logger.Error("credentials unavailable", "session_id", s.ID, "error", err)
	span.RecordError(err)
	span.SetStatus(codes.Error, "configuration error")
	return nil, asConfigError(err)
}

func asConfigError(err error) error {
	if errors.Is(err, credentials.ErrConfiguration) {
		return err
	}
	return fmt.Errorf("%w: %w", credentials.ErrConfiguration, err)
}

func (p *Pipeline) reject(s *command.Session, code Code, message string) *Response {
	return &Response{
		Result:    executor.Result{Success: false, Error: message},
		ErrorCode: code,
		SessionID: s.ID,
		Timestamp: p.now(),
	}
}

func (p *Pipeline) respond(s *command.Session, res executor.Result) *Response {
	return &Response{
		Result:    res,
		ErrorCode: codeFor(res.Failure),
		SessionID: s.ID,
		Timestamp: p.now(),
	}
}

func (p *Pipeline) record(ctx context.Context, s *command.Session, eventType, message string, sev audit.Severity, evCtx map[string]any) {
	p.recorder.Record(ctx, audit.Event{
		Type:      eventType,
		Message:   message,
		Severity:  sev,
		SessionID: s.ID,
		Context:   evCtx,
	})
}

func endSpan(span trace.Span, resp *Response) {
	span.SetAttributes(attribute.Bool("jarvis.success", resp.Success))
	if resp.ErrorCode != "" {
		span.SetAttributes(attribute.String("jarvis.error_code", string(resp.ErrorCode)))
	}
}
