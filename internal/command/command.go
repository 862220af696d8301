package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
)

// Allowed actions.
const (
	ActionTurnOn         = "turn_on"
	ActionTurnOff        = "turn_off"
	ActionToggle         = "toggle"
	ActionSetBrightness  = "set_brightness"
	ActionSetTemperature = "set_temperature"
	ActionGetState       = "get_state"
	ActionLock           = "lock"
	ActionUnlock         = "unlock"
)

// TypeHomeAssistant is the only supported command type and the default.
const TypeHomeAssistant = "home_assistant"

// AllowedActions lists every action the validator accepts.
var AllowedActions = []string{
	ActionTurnOn,
	ActionTurnOff,
	ActionToggle,
	ActionSetBrightness,
	ActionSetTemperature,
	ActionGetState,
	ActionLock,
	ActionUnlock,
}

// Command is a structured device command.
//
// In JSON, action, target and type are top-level fields and every other
// field (brightness, temperature, ...) lands in Params.
type Command struct {
	Action string
	Target string
	Type   string
	Params map[string]any
}

// EffectiveType returns Type, defaulting to TypeHomeAssistant.
func (c Command) EffectiveType() string {
	if c.Type == "" {
		return TypeHomeAssistant
	}
	return c.Type
}

var reservedKeys = []string{"action", "target", "type"}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Command) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return errors.New("command must be a JSON object")
	}

	var out Command
	for _, key := range reservedKeys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("command field %q must be a string", key)
		}
		switch key {
		case "action":
			out.Action = s
		case "target":
			out.Target = s
		case "type":
			out.Type = s
		}
		delete(raw, key)
	}
	if len(raw) > 0 {
		out.Params = raw
	}

	*c = out
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c Command) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(c.Params)+3)
	maps.Copy(m, c.Params)
	if c.Action != "" {
		m["action"] = c.Action
	}
	if c.Target != "" {
		m["target"] = c.Target
	}
	if c.Type != "" {
		m["type"] = c.Type
	}
	return json.Marshal(m)
}

// Int returns the integer parameter key, accepting JSON numbers.
func (c Command) Int(key string) (int, bool) {
	switch v := c.Params[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	default:
		return 0, false
	}
}
