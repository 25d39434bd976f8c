package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/leech-actions/internal/model"
)

func TestParseActions(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []model.Action
		wantErr bool
	}{
		{
			name:  "composite",
			input: "remove_tag,reset_lapses,delay:30",
			want:  []model.Action{model.RemoveLeechTag{}, model.ResetLapses{}, model.Delay{Days: 30}},
		},
		{
			name:  "spacing and case",
			input: " Reset , DELETE ",
			want:  []model.Action{model.ResetProgress{}, model.Delete{}},
		},
		{name: "suspend", input: "suspend", want: []model.Action{model.Suspend{}}},
		{name: "empty", input: " , ", wantErr: true},
		{name: "delay without days", input: "delay", wantErr: true},
		{name: "delay not a number", input: "delay:soon", wantErr: true},
		{name: "argument on reset", input: "reset:3", wantErr: true},
		{name: "unknown", input: "explode", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseActions(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatActionsParsesBack(t *testing.T) {
	actions := []model.Action{model.ResetLapses{}, model.Delay{Days: 12}, model.RemoveLeechTag{}}

	text := FormatActions(actions)
	assert.Equal(t, "reset_lapses,delay:12,remove_tag", text)

	parsed, err := ParseActions(text)
	require.NoError(t, err)
	assert.Equal(t, actions, parsed)
}
