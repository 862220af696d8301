package executor

import (
	"fmt"
	"strings"

	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/entity"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/homeassistant"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/intent"
)

// LightStatus summarises every light entity.
type LightStatus struct {
	TotalLights int      `json:"total_lights"`
	LightsOn    int      `json:"lights_on"`
	OnLights    []string `json:"on_lights"`
}

// ClimateEntity is one thermostat reading.
type ClimateEntity struct {
	Entity      string `json:"entity"`
	CurrentTemp any    `json:"current_temp"`
	TargetTemp  any    `json:"target_temp"`
	State       string `json:"state"`
}

// TemperatureStatus lists every climate entity.
type TemperatureStatus struct {
	ClimateEntities []ClimateEntity `json:"climate_entities"`
}

// SecurityStatus summarises every lock entity.
type SecurityStatus struct {
	TotalLocks int      `json:"total_locks"`
	Locked     int      `json:"locked"`
	Unlocked   []string `json:"unlocked"`
}

// GeneralStatus counts every entity.
type GeneralStatus struct {
	TotalEntities int `json:"total_entities"`
}

// Summarize aggregates states for a status intent and returns the data
// payload and a human-readable message. Intents other than the light,
// temperature and security ones fall back to the general summary.
func Summarize(in intent.Intent, states []homeassistant.State) (any, string) {
	switch in {
	case intent.GetLightStatus:
		s := LightStatus{OnLights: []string{}}
		for _, st := range withDomain(states, entity.DomainLight) {
			s.TotalLights++
			if st.State == "on" {
				s.LightsOn++
				s.OnLights = append(s.OnLights, st.EntityID)
			}
		}
		return s, fmt.Sprintf("%d out of %d lights are currently on", s.LightsOn, s.TotalLights)

	case intent.GetTemperatureStatus:
		s := TemperatureStatus{ClimateEntities: []ClimateEntity{}}
		for _, st := range withDomain(states, entity.DomainClimate) {
			s.ClimateEntities = append(s.ClimateEntities, ClimateEntity{
				Entity:      st.EntityID,
				CurrentTemp: st.Attributes["current_temperature"],
				TargetTemp:  st.Attributes["temperature"],
				State:       st.State,
			})
		}
		return s, fmt.Sprintf("Retrieved status for %d climate entities", len(s.ClimateEntities))

	case intent.GetSecurityStatus:
		s := SecurityStatus{Unlocked: []string{}}
		for _, st := range withDomain(states, entity.DomainLock) {
			s.TotalLocks++
			if st.State == "locked" {
				s.Locked++
			} else {
				s.Unlocked = append(s.Unlocked, st.EntityID)
			}
		}
		return s, fmt.Sprintf("%d out of %d locks are locked", s.Locked, s.TotalLocks)

	default:
		return GeneralStatus{TotalEntities: len(states)},
			fmt.Sprintf("Retrieved general status for %d entities", len(states))
	}
}

func withDomain(states []homeassistant.State, domain string) []homeassistant.State {
	prefix := domain + "."
	var out []homeassistant.State
	for _, st := range states {
		if strings.HasPrefix(st.EntityID, prefix) {
			out = append(out, st)
		}
	}
	return out
}
