// Package entity turns human device descriptions into device-control entity ids.
//
// Resolution is purely syntactic: names are lower-cased and whitespace runs
// become underscores. Nothing is looked up in a device registry, so a
// resolved id may not exist upstream.
package entity

import "strings"

// Entity domains.
const (
	DomainLight       = "light"
	DomainSwitch      = "switch"
	DomainClimate     = "climate"
	DomainScene       = "scene"
	DomainLock        = "lock"
	DomainMediaPlayer = "media_player"
	DomainWeather     = "weather"
)

// Fallback ids when nothing more specific is known.
const (
	AllLights      = "light.all_lights"
	MainThermostat = "climate.main_thermostat"
)

// Normalize lower-cases s and replaces whitespace runs with "_".
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "_")
}

// Light resolves a light. A device name wins over a room; with neither the
// whole-house group is returned.
//
//	Light("desk lamp", "bedroom") // light.desk_lamp
//	Light("", "living room")      // light.living_room_lights
//	Light("", "")                 // light.all_lights
func Light(name, room string) string {
	if n := Normalize(name); n != "" {
		return DomainLight + "." + n
	}
	if r := Normalize(room); r != "" {
		return DomainLight + "." + r + "_lights"
	}
	return AllLights
}

// Climate resolves the thermostat for room, or the main thermostat.
func Climate(room string) string {
	if r := Normalize(room); r != "" {
		return DomainClimate + "." + r
	}
	return MainThermostat
}

// Scene resolves a scene by name. It returns "" for an empty name.
func Scene(name string) string {
	if n := Normalize(name); n != "" {
		return DomainScene + "." + n
	}
	return ""
}

// Lock resolves a door lock, e.g. "front door" -> lock.front_door.
// It returns "" for an empty name.
func Lock(door string) string {
	if d := Normalize(door); d != "" {
		return DomainLock + "." + d
	}
	return ""
}

// Domain returns the part of an entity id before the first ".".
func Domain(entityID string) string {
	domain, _, _ := strings.Cut(entityID, ".")
	return domain
}

// SwitchableDomain picks the service domain for on/off/toggle commands:
// "light" when the id mentions a light, "switch" otherwise.
func SwitchableDomain(entityID string) string {
	if strings.Contains(entityID, DomainLight) {
		return DomainLight
	}
	return DomainSwitch
}
