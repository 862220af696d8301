package intent

// Intent identifies what the user asked for.
type Intent string

// Recognised intents.
const (
	TurnOnLight          Intent = "turn_on_light"
	TurnOffLight         Intent = "turn_off_light"
	SetTemperature       Intent = "set_temperature"
	GetWeather           Intent = "get_weather"
	PlayMedia            Intent = "play_media"
	StopMedia            Intent = "stop_media"
	ActivateScene        Intent = "activate_scene"
	LockDoor             Intent = "lock_door"
	UnlockDoor           Intent = "unlock_door"
	GetLightStatus       Intent = "get_light_status"
	GetTemperatureStatus Intent = "get_temperature_status"
	GetSecurityStatus    Intent = "get_security_status"
	GetGeneralStatus     Intent = "get_general_status"
	Unknown              Intent = "unknown_command"
)

// Parameter keys.
const (
	ParamRoom            = "room"
	ParamLightName       = "light_name"
	ParamTemperature     = "temperature"
	ParamLocation        = "location"
	ParamQuery           = "query"
	ParamType            = "type"
	ParamSceneName       = "scene_name"
	ParamDoor            = "door"
	ParamOriginalCommand = "original_command"
)

// DefaultDoor is used when a lock command names no specific door.
// "lock all doors" therefore only targets the front door.
//
// TODO: target every lock.* entity for "all doors" once that is confirmed
// as the wanted behaviour.
const DefaultDoor = "front door"

// Params holds the values extracted for an intent. A key mapped to nil was
// looked for but not found in the text.
type Params map[string]any

// String returns the string value for key, or "" when absent or nil.
func (p Params) String(key string) string {
	if s, ok := p[key].(string); ok {
		return s
	}
	return ""
}

// Int returns the integer value for key and whether one was present.
// JSON-decoded numbers (float64) are accepted.
func (p Params) Int(key string) (int, bool) {
	switch v := p[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// IsStatus reports whether i is one of the read-only status intents.
func (i Intent) IsStatus() bool {
	switch i {
	case GetLightStatus, GetTemperatureStatus, GetSecurityStatus, GetGeneralStatus:
		return true
	}
	return false
}
