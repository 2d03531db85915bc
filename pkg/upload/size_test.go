package upload_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/intake/pkg/upload"
)

func TestHumanReadableToBytes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input string
		want  int64
	}{
		{"10M", 10 * 1048576},
		{"10m", 10 * 1048576},
		{"5", 5},
		{"512K", 512 * 1024},
		{"2G", 2 * 1073741824},
		{"100b", 100},
		{"7x", 7},
		{" 3k ", 3 * 1024},
		{"", 0},
		{"M", 0},
		{"abc", 0},
		{"9999999999G", math.MaxInt64},
		{"8589934592G", math.MaxInt64},
		{"99999999999999999999999", math.MaxInt64},
		{"-9999999999G", math.MinInt64},
		{"-3k", -3 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, upload.HumanReadableToBytes(tt.input))
		})
	}
}
