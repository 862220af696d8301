package executor

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/command"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/homeassistant"
	"github.com/EPdacoder05/Jarvis-AI-Assistant/internal/intent"
)

var houseStates = []homeassistant.State{
	{EntityID: "light.kitchen", State: "on"},
	{EntityID: "light.bedroom", State: "off"},
	{EntityID: "light.porch", State: "on"},
	{EntityID: "climate.main_thermostat", State: "heat", Attributes: map[string]any{
		"current_temperature": float64(19), "temperature": float64(21),
	}},
	{EntityID: "lock.front_door", State: "locked"},
	{EntityID: "lock.back_door", State: "unlocked"},
	{EntityID: "switch.light_strip", State: "on"},
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		intent      intent.Intent
		wantData    any
		wantMessage string
	}{
		{
			intent:      intent.GetLightStatus,
			wantData:    LightStatus{TotalLights: 3, LightsOn: 2, OnLights: []string{"light.kitchen", "light.porch"}},
			wantMessage: "2 out of 3 lights are currently on",
		},
		{
			intent: intent.GetTemperatureStatus,
			wantData: TemperatureStatus{ClimateEntities: []ClimateEntity{
				{Entity: "climate.main_thermostat", CurrentTemp: float64(19), TargetTemp: float64(21), State: "heat"},
			}},
			wantMessage: "Retrieved status for 1 climate entities",
		},
		{
			intent:      intent.GetSecurityStatus,
			wantData:    SecurityStatus{TotalLocks: 2, Locked: 1, Unlocked: []string{"lock.back_door"}},
			wantMessage: "1 out of 2 locks are locked",
		},
		{
			intent:      intent.GetGeneralStatus,
			wantData:    GeneralStatus{TotalEntities: 7},
			wantMessage: "Retrieved general status for 7 entities",
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.intent), func(t *testing.T) {
			data, msg := Summarize(tt.intent, houseStates)
			if diff := cmp.Diff(tt.wantData, data); diff != "" {
				t.Errorf("data mismatch (-want +got):\n%s", diff)
			}
			if msg != tt.wantMessage {
				t.Errorf("message = %q, want %q", msg, tt.wantMessage)
			}
		})
	}
}

func TestSummarize_Empty(t *testing.T) {
	data, msg := Summarize(intent.GetLightStatus, nil)
	want := LightStatus{OnLights: []string{}}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
	if msg != "0 out of 0 lights are currently on" {
		t.Errorf("message = %q", msg)
	}
}

func TestExecute_StatusReadsAllStatesOnce(t *testing.T) {
	client := &fakeClient{states: houseStates}
	res := New(client, Options{}).Execute(context.Background(), command.NewSession(),
		intent.GetLightStatus, intent.Params{}, testCred)

	if !res.Success {
		t.Fatalf("Execute() failed: %s", res.Error)
	}
	if diff := cmp.Diff([]string{"*"}, client.reads); diff != "" {
		t.Errorf("reads mismatch (-want +got):\n%s", diff)
	}
	if len(client.calls) != 0 {
		t.Errorf("status must not call services, calls = %v", client.calls)
	}
	if ls, ok := res.Data.(LightStatus); !ok || ls.LightsOn != 2 {
		t.Errorf("Data = %#v", res.Data)
	}
}
