package executor

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/audit"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/command"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/credentials"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/entity"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/homeassistant"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/infrastructure/logging"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/intent"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultMediaPlayer        = "media_player.spotify"
	DefaultWeatherEntity      = "weather.home"
	DefaultIntentTemperature  = 70
	DefaultCommandTemperature = 20
	DefaultBrightness         = 255
	defaultMediaType          = "music"
	unknownIntentSuggestion   = `Try commands like "turn on lights", "set temperature to 72", or "play music"`
)

var tracer = otel.Tracer("github.com/EPdacoder05/Jarvis-AI-Assistant/internal/executor")

// Client is the device-control API used by the Executor.
// *homeassistant.Client satisfies it.
type Client interface {
	CallService(ctx context.Context, cred credentials.Credential, domain, service string, data map[string]any) (int, error)
	States(ctx context.Context, cred credentials.Credential) ([]homeassistant.State, error)
	State(ctx context.Context, cred credentials.Credential, entityID string) (*homeassistant.State, error)
}

// Options configures an Executor.
type Options struct {
	MediaPlayer               string
	WeatherEntity             string
	DefaultIntentTemperature  int
	DefaultCommandTemperature int
	DefaultBrightness         int
	Recorder                  audit.Recorder
	Logger                    *logging.Logger
}

// Executor dispatches intents and commands to the device-control API.
type Executor struct {
	client   Client
	opts     Options
	recorder audit.Recorder
	logger   *logging.Logger
}

// New creates an Executor.
func New(client Client, opts Options) *Executor {
	if opts.MediaPlayer == "" {
		opts.MediaPlayer = DefaultMediaPlayer
	}
	if opts.WeatherEntity == "" {
		opts.WeatherEntity = DefaultWeatherEntity
	}
	if opts.DefaultIntentTemperature == 0 {
		opts.DefaultIntentTemperature = DefaultIntentTemperature
	}
	if opts.DefaultCommandTemperature == 0 {
		opts.DefaultCommandTemperature = DefaultCommandTemperature
	}
	if opts.DefaultBrightness == 0 {
		opts.DefaultBrightness = DefaultBrightness
	}
	if opts.Recorder == nil {
		opts.Recorder = audit.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	return &Executor{
		client:   client,
		opts:     opts,
		recorder: opts.Recorder,
		logger:   opts.Logger.With("component", "executor"),
	}
}

// serviceCall is one POST to /api/services.
type serviceCall struct {
	domain  string
	service string
	target  string
	data    map[string]any
}

// Execute carries out a parsed intent.
func (e *Executor) Execute(ctx context.Context, s *command.Session, in intent.Intent, p intent.Params, cred credentials.Credential) Result {
	ctx, span := tracer.Start(ctx, "executor.execute", trace.WithAttributes(
		attribute.String("jarvis.intent", string(in)),
	))
	defer span.End()

	res := e.execute(ctx, s, in, p, cred)
	endSpan(span, res)
	return res
}

func (e *Executor) execute(ctx context.Context, s *command.Session, in intent.Intent, p intent.Params, cred credentials.Credential) Result {
	base := Result{Intent: string(in), Parameters: p}

	switch {
	case in == intent.Unknown:
		return UnknownResult(p)

	case in == intent.GetWeather:
		return e.readState(ctx, s, base, e.opts.WeatherEntity, cred, func(st *homeassistant.State) string {
			return "Current weather: " + st.State
		})

	case in.IsStatus():
		return e.status(ctx, s, base, in, cred)
	}

	call, ok := e.intentCall(in, p)
	if !ok {
		base.Error = fmt.Sprintf("Unknown intent: %s", in)
		base.Suggestion = unknownIntentSuggestion
		base.Failure = FailureUnknown
		return base
	}
	if call.target == "" {
		base.Error = fmt.Sprintf("Cannot resolve a target for %s", in)
		base.Failure = FailureInvalid
		return base
	}

	base.Target = call.target
	res := e.callService(ctx, s, base, string(in), call, cred)
	if res.Success {
		res.Message = fmt.Sprintf("Successfully executed: %s", in)
	}
	return res
}

// intentCall maps a service intent to its API call. ok is false for intents
// that are not service calls.
func (e *Executor) intentCall(in intent.Intent, p intent.Params) (serviceCall, bool) {
	switch in {
	case intent.TurnOnLight, intent.TurnOffLight:
		service := "turn_on"
		if in == intent.TurnOffLight {
			service = "turn_off"
		}
		target := entity.Light(p.String(intent.ParamLightName), p.String(intent.ParamRoom))
		return serviceCall{entity.DomainLight, service, target, map[string]any{"entity_id": target}}, true

	case intent.SetTemperature:
		target := entity.Climate(p.String(intent.ParamRoom))
		temp, ok := p.Int(intent.ParamTemperature)
		if !ok {
			temp = e.opts.DefaultIntentTemperature
		}
		return serviceCall{entity.DomainClimate, "set_temperature", target,
			map[string]any{"entity_id": target, "temperature": temp}}, true

	case intent.PlayMedia:
		mediaType := p.String(intent.ParamType)
		if mediaType == "" {
			mediaType = defaultMediaType
		}
		return serviceCall{entity.DomainMediaPlayer, "play_media", e.opts.MediaPlayer, map[string]any{
			"entity_id":          e.opts.MediaPlayer,
			"media_content_id":   p.String(intent.ParamQuery),
			"media_content_type": mediaType,
		}}, true

	case intent.StopMedia:
		return serviceCall{entity.DomainMediaPlayer, "media_stop", e.opts.MediaPlayer,
			map[string]any{"entity_id": e.opts.MediaPlayer}}, true

	case intent.ActivateScene:
		target := entity.Scene(p.String(intent.ParamSceneName))
		return serviceCall{entity.DomainScene, "turn_on", target, map[string]any{"entity_id": target}}, true

	case intent.LockDoor, intent.UnlockDoor:
		service := command.ActionLock
		if in == intent.UnlockDoor {
			service = command.ActionUnlock
		}
		door := p.String(intent.ParamDoor)
		if door == "" {
			door = intent.DefaultDoor
		}
		target := entity.Lock(door)
		return serviceCall{entity.DomainLock, service, target, map[string]any{"entity_id": target}}, true
	}

	return serviceCall{}, false
}

// ExecuteCommand carries out a validated structured command.
func (e *Executor) ExecuteCommand(ctx context.Context, s *command.Session, cmd command.Command, cred credentials.Credential) Result {
	ctx, span := tracer.Start(ctx, "executor.execute", trace.WithAttributes(
		attribute.String("jarvis.action", cmd.Action),
		attribute.String("jarvis.target", cmd.Target),
	))
	defer span.End()

	res := e.executeCommand(ctx, s, cmd, cred)
	endSpan(span, res)
	return res
}

func (e *Executor) executeCommand(ctx context.Context, s *command.Session, cmd command.Command, cred credentials.Credential) Result {
	base := Result{Action: cmd.Action, Target: cmd.Target}
	data := map[string]any{"entity_id": cmd.Target}

	var call serviceCall
	switch cmd.Action {
	case command.ActionTurnOn, command.ActionTurnOff, command.ActionToggle:
		call = serviceCall{entity.SwitchableDomain(cmd.Target), cmd.Action, cmd.Target, data}

	case command.ActionSetBrightness:
		brightness, ok := cmd.Int("brightness")
		if !ok {
			brightness = e.opts.DefaultBrightness
		}
		data["brightness"] = brightness
		call = serviceCall{entity.DomainLight, "turn_on", cmd.Target, data}

	case command.ActionSetTemperature:
		temp, ok := cmd.Int("temperature")
		if !ok {
			temp = e.opts.DefaultCommandTemperature
		}
		data["temperature"] = temp
		call = serviceCall{entity.DomainClimate, "set_temperature", cmd.Target, data}

	case command.ActionLock, command.ActionUnlock:
		call = serviceCall{entity.DomainLock, cmd.Action, cmd.Target, data}

	case command.ActionGetState:
		return e.readState(ctx, s, base, cmd.Target, cred, nil)

	default:
		base.Error = fmt.Sprintf("Failed to execute HA command: Unsupported action: %s", cmd.Action)
		base.Failure = FailureInvalid
		e.recordFailure(ctx, s, cmd.Action, cmd.Target, base.Error)
		return base
	}

	res := e.callService(ctx, s, base, cmd.Action, call, cred)
	if res.Success {
		res.Message = fmt.Sprintf("Successfully executed %s on %s", cmd.Action, cmd.Target)
	} else {
		res.Error = "Failed to execute HA command: " + res.Error
	}
	return res
}

func (e *Executor) callService(ctx context.Context, s *command.Session, res Result, action string, call serviceCall, cred credentials.Credential) Result {
	e.recorder.Record(ctx, audit.Event{
		Type:      audit.EventCommandExecuting,
		Message:   fmt.Sprintf("Executing HA command: %s on %s", action, call.target),
		Severity:  audit.SeverityInfo,
		SessionID: sessionID(s),
		Context: map[string]any{
			"action":        action,
			"target":        call.target,
			"service":       call.domain + "." + call.service,
			"ha_url_masked": cred.MaskedURL(),
		},
	})

	status, err := e.client.CallService(ctx, cred, call.domain, call.service, call.data)
	if err != nil {
		return e.upstreamFailure(ctx, s, res, action, call.target, err)
	}

	e.logger.Info("command executed", "action", action, "target", call.target, "status", status)
	e.recorder.Record(ctx, audit.Event{
		Type:      audit.EventCommandSuccess,
		Message:   fmt.Sprintf("HA command executed successfully: %s on %s", action, call.target),
		Severity:  audit.SeverityInfo,
		SessionID: sessionID(s),
		Context:   map[string]any{"action": action, "target": call.target, "status_code": status},
	})

	res.Success = true
	return res
}

// readState fetches one entity. A nil message func leaves Message empty and
// exposes the state and attributes directly.
func (e *Executor) readState(ctx context.Context, s *command.Session, res Result, entityID string, cred credentials.Credential, message func(*homeassistant.State) string) Result {
	label := res.Action
	if label == "" {
		label = res.Intent
	}
	res.Target = entityID

	st, err := e.client.State(ctx, cred, entityID)
	if err != nil {
		return e.upstreamFailure(ctx, s, res, label, entityID, err)
	}

	e.recorder.Record(ctx, audit.Event{
		Type:      audit.EventStateRetrieved,
		Message:   "Retrieved state for " + entityID,
		Severity:  audit.SeverityInfo,
		SessionID: sessionID(s),
		Context:   map[string]any{"target": entityID, "state": st.State},
	})

	res.Success = true
	if message != nil {
		res.Message = message(st)
		res.Data = st
	} else {
		res.State = st.State
		res.Attributes = st.Attributes
		if res.Attributes == nil {
			res.Attributes = map[string]any{}
		}
	}
	return res
}

func (e *Executor) status(ctx context.Context, s *command.Session, res Result, in intent.Intent, cred credentials.Credential) Result {
	states, err := e.client.States(ctx, cred)
	if err != nil {
		res = e.upstreamFailure(ctx, s, res, string(in), "", err)
		res.Error = "Failed to get status: " + res.Error
		return res
	}

	e.recorder.Record(ctx, audit.Event{
		Type:      audit.EventStateRetrieved,
		Message:   fmt.Sprintf("Retrieved %d entity states", len(states)),
		Severity:  audit.SeverityInfo,
		SessionID: sessionID(s),
		Context:   map[string]any{"intent": string(in), "entities": len(states)},
	})

	res.Success = true
	res.Data, res.Message = Summarize(in, states)
	return res
}

// upstreamFailure converts a client error into a failed Result and records it.
func (e *Executor) upstreamFailure(ctx context.Context, s *command.Session, res Result, action, target string, err error) Result {
	res.Success = false
	res.Failure = FailureUpstream

	var se *homeassistant.StatusError
	switch {
	case errors.Is(err, homeassistant.ErrTimeout):
		res.Error = "Home Assistant request timeout"
	case errors.Is(err, homeassistant.ErrConnection):
		res.Error = "Cannot connect to Home Assistant"
	case errors.As(err, &se):
		res.Error = fmt.Sprintf("Home Assistant error: %d", se.StatusCode)
		res.Details = se.Body
		res.StatusCode = se.StatusCode
	case errors.Is(err, homeassistant.ErrInvalidResponse):
		res.Error = "Invalid response from Home Assistant"
	default:
		res.Error = "Unexpected error: " + err.Error()
	}

	e.logger.Error("command execution failed", "action", action, "target", target, "error", err)
	e.recordFailure(ctx, s, action, target, err.Error())
	return res
}

func (e *Executor) recordFailure(ctx context.Context, s *command.Session, action, target, reason string) {
	e.recorder.Record(ctx, audit.Event{
		Type:      audit.EventCommandFailed,
		Message:   fmt.Sprintf("Failed to execute HA command: %s on %s", action, target),
		Severity:  audit.SeverityHigh,
		SessionID: sessionID(s),
		Context:   map[string]any{"action": action, "target": target, "error": reason},
	})
}

func endSpan(span trace.Span, res Result) {
	span.SetAttributes(attribute.Bool("jarvis.success", res.Success))
	if res.Target != "" {
		span.SetAttributes(attribute.String("jarvis.entity_id", res.Target))
	}
	if !res.Success {
		span.SetStatus(codes.Error, res.Error)
	}
}

func sessionID(s *command.Session) string {
	if s == nil {
		return ""
	}
	return s.ID
}
