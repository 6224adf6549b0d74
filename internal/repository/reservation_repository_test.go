package repository

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBookingCode(t *testing.T) {
	cases := []struct {
		in   string
		code string
		id   uint64
	}{
		{"6", "", 6},
		{"RES6", "", 6},
		{"RES-6", "", 6},
		{"res 6", "", 6},
		{"  res-42 ", "", 42},
		{"RES260102XKPT", "RES260102XKPT", 0},
		{"res260102xkpt", "RES260102XKPT", 0},
	}
	for _, tc := range cases {
		code, id := NormalizeBookingCode(tc.in)
		assert.Equal(t, tc.code, code, "input %q", tc.in)
		assert.Equal(t, tc.id, id, "input %q", tc.in)
	}
}

func TestNewBookingCodeFormat(t *testing.T) {
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	re := regexp.MustCompile(`^RES260102[A-HJ-NP-Z2-9]{4}$`)
	for i := 0; i < 50; i++ {
		code := newBookingCode(now)
		assert.Regexp(t, re, code)
	}
}
