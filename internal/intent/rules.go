package intent

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Rule is one entry of the ordered rule table. Match and Extract receive
// normalised text.
type Rule struct {
	Name    string
	Match   func(text string) bool
	Extract func(text string) (Intent, Params)
}

var (
	lightOnRe  = regexp.MustCompile(`\b(turn on|switch on|on)\b.*\b(light|lights|lamp|lamps)\b`)
	lightOffRe = regexp.MustCompile(`\b(turn off|switch off|off)\b.*\b(light|lights|lamp|lamps)\b`)

	lightNameOnRe  = regexp.MustCompile(`\b(?:turn on|switch on|on)\s+(?:the\s+)?([a-z\s]+?)\s+(?:lights?|lamps?)\b`)
	lightNameOffRe = regexp.MustCompile(`\b(?:turn off|switch off|off)\s+(?:the\s+)?([a-z\s]+?)\s+(?:lights?|lamps?)\b`)

	roomRe = regexp.MustCompile(`\b(bedroom|living room|kitchen|bathroom|office|dining room|garage|basement)\b`)

	temperatureSetRe    = regexp.MustCompile(`\b(set|change)\b.*\btemperature\b`)
	temperatureDegreeRe = regexp.MustCompile(`\b(\d+)\s*(?:degrees?\b|°)`)
	integerRe           = regexp.MustCompile(`\b(\d+)\b`)

	weatherRe  = regexp.MustCompile(`\b(weather|temperature|forecast)\b`)
	locationRe = regexp.MustCompile(`\bin\s+([a-z\s]+)`)

	mediaPlayRe  = regexp.MustCompile(`\b(play|start|resume)\b.*\b(music|song|playlist|spotify|youtube)\b`)
	mediaQueryRe = regexp.MustCompile(`\bplay\s+([^,.]+)`)
	mediaStopRe  = regexp.MustCompile(`\b(stop|pause|halt)\b.*\b(music|song|media|playing)\b`)

	sceneRe       = regexp.MustCompile(`\b(activate|set|turn on)\b.*\bscene\b`)
	sceneBeforeRe = regexp.MustCompile(`\b(?:activate|set|turn on)\s+([a-z\s]+?)\s+scene\b`)
	sceneAfterRe  = regexp.MustCompile(`\bscene\s+([a-z\s]+)`)

	doorRe       = regexp.MustCompile(`\b(lock|unlock)\b.*\b(door|doors)\b`)
	unlockRe     = regexp.MustCompile(`\bunlock\b`)
	namedDoorRe  = regexp.MustCompile(`\b(front|back|side|garage)\s+door\b`)
	statusRe     = regexp.MustCompile(`\b(status|state|check)\b`)
	lightsWordRe = regexp.MustCompile(`\blights?\b`)
	climateRe    = regexp.MustCompile(`\b(temperature|thermostat|climate)\b`)
	securityRe   = regexp.MustCompile(`\b(doors?|locks?|security)\b`)
)

// fillerWords are dropped from extracted names.
var fillerWords = map[string]bool{
	"the": true,
	"all": true,
	"my":  true,
	"a":   true,
	"to":  true,
}

// rules is the priority-ordered rule table. Earlier entries win.
var rules = []Rule{
	{Name: "light_on", Match: lightOnRe.MatchString, Extract: lightExtractor(TurnOnLight, lightNameOnRe)},
	{Name: "light_off", Match: lightOffRe.MatchString, Extract: lightExtractor(TurnOffLight, lightNameOffRe)},
	{Name: "temperature_set", Match: temperatureSetRe.MatchString, Extract: extractTemperature},
	{Name: "weather_query", Match: weatherRe.MatchString, Extract: extractWeather},
	{Name: "media_play", Match: mediaPlayRe.MatchString, Extract: extractMediaPlay},
	{Name: "media_stop", Match: mediaStopRe.MatchString, Extract: func(string) (Intent, Params) {
		return StopMedia, Params{}
	}},
	{Name: "scene_activate", Match: sceneRe.MatchString, Extract: extractScene},
	{Name: "door_lock", Match: doorRe.MatchString, Extract: extractDoor},
	{Name: "status_query", Match: statusRe.MatchString, Extract: extractStatus},
}

// Rules returns a copy of the rule table in evaluation order.
func Rules() []Rule {
	return slices.Clone(rules)
}

func lightExtractor(in Intent, nameRe *regexp.Regexp) func(string) (Intent, Params) {
	return func(text string) (Intent, Params) {
		return in, Params{
			ParamRoom:      findRoom(text),
			ParamLightName: lightName(text, nameRe),
		}
	}
}

// lightName returns the words between the verb and the light noun, minus
// room names and filler. "turn on the living room lights" has no light name;
// "turn off the office desk lamp" names "desk".
func lightName(text string, nameRe *regexp.Regexp) any {
	m := nameRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	phrase := roomRe.ReplaceAllString(m[1], " ")
	return cleanPhrase(phrase)
}

func extractTemperature(text string) (Intent, Params) {
	var temperature any
	m := temperatureDegreeRe.FindStringSubmatch(text)
	if m == nil {
		m = integerRe.FindStringSubmatch(text)
	}
	if m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			temperature = n
		}
	}

	return SetTemperature, Params{
		ParamTemperature: temperature,
		ParamRoom:        findRoom(text),
	}
}

func extractWeather(text string) (Intent, Params) {
	var location any
	if m := locationRe.FindStringSubmatch(text); m != nil {
		if loc := strings.TrimSpace(m[1]); loc != "" {
			location = loc
		}
	}
	return GetWeather, Params{ParamLocation: location}
}

func extractMediaPlay(text string) (Intent, Params) {
	var query any
	if m := mediaQueryRe.FindStringSubmatch(text); m != nil {
		if q := strings.TrimSpace(m[1]); q != "" {
			query = q
		}
	}
	return PlayMedia, Params{
		ParamQuery: query,
		ParamType:  "music",
	}
}

func extractScene(text string) (Intent, Params) {
	var name any
	for _, re := range []*regexp.Regexp{sceneBeforeRe, sceneAfterRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			if n := cleanPhrase(m[1]); n != nil {
				name = n
				break
			}
		}
	}
	return ActivateScene, Params{ParamSceneName: name}
}

func extractDoor(text string) (Intent, Params) {
	in := LockDoor
	if unlockRe.MatchString(text) {
		in = UnlockDoor
	}

	door := DefaultDoor
	if m := namedDoorRe.FindString(text); m != "" {
		door = m
	}
	return in, Params{ParamDoor: door}
}

func extractStatus(text string) (Intent, Params) {
	switch {
	case lightsWordRe.MatchString(text):
		return GetLightStatus, Params{}
	case climateRe.MatchString(text):
		return GetTemperatureStatus, Params{}
	case securityRe.MatchString(text):
		return GetSecurityStatus, Params{}
	default:
		return GetGeneralStatus, Params{}
	}
}

func findRoom(text string) any {
	if m := roomRe.FindString(text); m != "" {
		return m
	}
	return nil
}

// cleanPhrase drops filler words and returns nil when nothing is left.
func cleanPhrase(phrase string) any {
	var kept []string
	for _, w := range strings.Fields(phrase) {
		if !fillerWords[w] {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return strings.Join(kept, " ")
}
