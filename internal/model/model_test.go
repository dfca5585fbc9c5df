package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntervalSeconds(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		every  int64
		period string
		want   int64
		ok     bool
	}{
		{name: "seconds", every: 30, period: PeriodSeconds, want: 30, ok: true},
		{name: "minutes", every: 5, period: PeriodMinutes, want: 300, ok: true},
		{name: "hours", every: 2, period: PeriodHours, want: 7200, ok: true},
		{name: "days", every: 1, period: PeriodDays, want: 86400, ok: true},
		{name: "unknown", every: 1, period: "weeks", want: 0, ok: false},
		{name: "empty", every: 1, period: "", want: 0, ok: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, ok := IntervalSeconds(tt.every, tt.period)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
