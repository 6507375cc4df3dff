package action

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepStrings(steps []Step) []string {
	var out []string
	for _, s := range steps {
		if s.Kind == StepLog {
			continue
		}
		out = append(out, s.String())
	}
	return out
}

func TestStepsStartWithBothOff(t *testing.T) {
	for _, cmd := range Commands() {
		t.Run(string(cmd), func(t *testing.T) {
			steps, err := Steps(cmd, DefaultTimings())
			require.NoError(t, err)
			require.GreaterOrEqual(t, len(steps), 3)
			assert.Equal(t, Write(PinUp, false), steps[0])
			assert.Equal(t, Write(PinDown, false), steps[1])
		})
	}
}

func TestStepsUnknownCommand(t *testing.T) {
	steps, err := Steps("JALOUSIE_DANCE", DefaultTimings())
	assert.Nil(t, steps)
	assert.True(t, errors.Is(err, ErrUnknownCommand))
}

func TestStepsTables(t *testing.T) {
	tm := DefaultTimings()
	tests := []struct {
		cmd  Command
		want []string
	}{
		{CommandOff, []string{"UP OFF", "DOWN OFF", "UP OFF", "DOWN OFF"}},
		{CommandStop, []string{"UP OFF", "DOWN OFF", "UP ON", "140ms", "UP OFF"}},
		{CommandFullUp, []string{"UP OFF", "DOWN OFF", "UP ON", "3s", "UP OFF"}},
		{CommandFullDown, []string{"UP OFF", "DOWN OFF", "DOWN ON", "3s", "DOWN OFF"}},
		{CommandUpOn, []string{"UP OFF", "DOWN OFF", "UP ON"}},
		{CommandDownOff, []string{"UP OFF", "DOWN OFF", "DOWN OFF"}},
		{CommandShadow, []string{
			"UP OFF", "DOWN OFF",
			"DOWN ON", "3s", "DOWN OFF", "1m3s",
			"UP ON", "1.3s", "UP OFF",
			"DOWN ON", "140ms", "DOWN OFF",
		}},
		{CommandTurn, []string{
			"UP OFF", "DOWN OFF",
			"DOWN ON", "2.6s", "DOWN OFF",
			"UP ON", "1.3s", "UP OFF",
			"DOWN ON", "140ms", "DOWN OFF",
		}},
		{CommandIndividual, []string{
			"UP OFF", "DOWN OFF",
			"DOWN ON", "200ms", "DOWN OFF", "200ms", "DOWN ON", "200ms", "DOWN OFF",
		}},
		{CommandAllUp, []string{"UP OFF", "DOWN OFF", "UP ON", "5s", "UP OFF"}},
		{CommandAllDown, []string{"UP OFF", "DOWN OFF", "DOWN ON", "5s", "DOWN OFF"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.cmd), func(t *testing.T) {
			steps, err := Steps(tt.cmd, tm)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stepStrings(steps))
		})
	}
}

func TestStepsUseTimings(t *testing.T) {
	steps, err := Steps(CommandStop, Timings{Stop: 7 * time.Millisecond})
	require.NoError(t, err)
	assert.Contains(t, stepStrings(steps), "7ms")
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want Command
	}{
		{"JALOUSIE_FULL_UP", CommandFullUp},
		{"full_down", CommandFullDown},
		{"STOP", CommandStop},
		{" shadow ", CommandShadow},
		{"off", CommandOff},
	}
	for _, tt := range tests {
		got, err := ParseCommand(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseCommand("sideways")
	assert.ErrorIs(t, err, ErrUnknownCommand)
}
