package intake_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmorgal/bankfeed/internal/intake"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	type testCase struct {
		from intake.Status
		to   intake.Status
		want bool
	}

	tests := []testCase{
		{intake.StatusIdle, intake.StatusUploading, true},
		{intake.StatusIdle, intake.StatusProcessing, false},
		{intake.StatusIdle, intake.StatusError, false},
		{intake.StatusUploading, intake.StatusProcessing, true},
		{intake.StatusUploading, intake.StatusError, true},
		{intake.StatusUploading, intake.StatusSuccess, false},
		{intake.StatusProcessing, intake.StatusSuccess, true},
		{intake.StatusProcessing, intake.StatusError, true},
		{intake.StatusProcessing, intake.StatusUploading, false},
		{intake.StatusError, intake.StatusIdle, true},
		{intake.StatusError, intake.StatusUploading, false},
		{intake.StatusSuccess, intake.StatusIdle, false},
		{intake.StatusSuccess, intake.StatusError, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, intake.StatusSuccess.Terminal())
	assert.True(t, intake.StatusError.Terminal())
	assert.False(t, intake.StatusIdle.Terminal())
	assert.False(t, intake.StatusUploading.Terminal())
	assert.False(t, intake.StatusProcessing.Terminal())
}
