package executor

import (
	"fmt"

	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/command"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/entity"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/intent"
)

// CommandFor expresses a parsed intent as the structured command the
// validator checks. Service intents outside the device allow-list map onto
// the nearest allowed action: media and scenes are turned on or off, and
// weather and status reads are get_state. ok is false for unknown_command.
//
// An intent that cannot be resolved to an entity (a scene with no name)
// yields an empty Target, which the validator rejects.
func (e *Executor) CommandFor(in intent.Intent, p intent.Params) (command.Command, bool) {
	cmd := command.Command{Type: command.TypeHomeAssistant}

	switch in {
	case intent.TurnOnLight, intent.TurnOffLight, intent.SetTemperature,
		intent.ActivateScene, intent.LockDoor, intent.UnlockDoor:
		call, _ := e.intentCall(in, p)
		cmd.Target = call.target
		cmd.Action = map[intent.Intent]string{
			intent.TurnOnLight:    command.ActionTurnOn,
			intent.TurnOffLight:   command.ActionTurnOff,
			intent.SetTemperature: command.ActionSetTemperature,
			intent.ActivateScene:  command.ActionTurnOn,
			intent.LockDoor:       command.ActionLock,
			intent.UnlockDoor:     command.ActionUnlock,
		}[in]

	case intent.PlayMedia:
		cmd.Action, cmd.Target = command.ActionTurnOn, e.opts.MediaPlayer
	case intent.StopMedia:
		cmd.Action, cmd.Target = command.ActionTurnOff, e.opts.MediaPlayer

	case intent.GetWeather:
		cmd.Action, cmd.Target = command.ActionGetState, e.opts.WeatherEntity
	case intent.GetLightStatus:
		cmd.Action, cmd.Target = command.ActionGetState, entity.DomainLight+".*"
	case intent.GetTemperatureStatus:
		cmd.Action, cmd.Target = command.ActionGetState, entity.DomainClimate+".*"
	case intent.GetSecurityStatus:
		cmd.Action, cmd.Target = command.ActionGetState, entity.DomainLock+".*"
	case intent.GetGeneralStatus:
		cmd.Action, cmd.Target = command.ActionGetState, "*"

	default:
		return command.Command{}, false
	}

	return cmd, true
}

// UnknownResult is the failed Result for an unrecognised command. It is
// built without touching the device-control API.
func UnknownResult(p intent.Params) Result {
	return Result{
		Intent:     string(intent.Unknown),
		Parameters: p,
		Error:      fmt.Sprintf("Unknown intent: %s", intent.Unknown),
		Suggestion: unknownIntentSuggestion,
		Failure:    FailureUnknown,
	}
}
