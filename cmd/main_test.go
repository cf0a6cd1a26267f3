package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kovalyov-valentin/news-digest-bot/internal/config"
	"github.com/kovalyov-valentin/news-digest-bot/internal/model"
	"github.com/kovalyov-valentin/news-digest-bot/internal/scheduler"
)

func TestParseSlot(t *testing.T) {
	tests := []struct {
		input string
		want  model.Slot
		err   bool
	}{
		{"morning", model.SlotMorning, false},
		{" Noon ", model.SlotNoon, false},
		{"EVENING", model.SlotEvening, false},
		{"manual", model.SlotManual, false},
		{"midnight", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := parseSlot(tt.input)
		if tt.err {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestScheduleSlots(t *testing.T) {
	slots, err := scheduleSlots(config.Config{MorningAt: "07:30", NoonAt: "12:45", EveningAt: "20:00"})
	require.NoError(t, err)

	assert.Equal(t, []scheduler.Slot{
		{Name: model.SlotMorning, Hour: 7, Minute: 30},
		{Name: model.SlotNoon, Hour: 12, Minute: 45},
		{Name: model.SlotEvening, Hour: 20, Minute: 0},
	}, slots)

	_, err = scheduleSlots(config.Config{MorningAt: "7h30", NoonAt: "12:45", EveningAt: "20:00"})
	assert.Error(t, err)
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)

	assert.Equal(t, "news-digest-bot dev (commit: none)\n", out.String())
}
