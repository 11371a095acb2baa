package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumberFormat(t *testing.T) {
	tests := map[string]string{
		"":                     "",
		"0":                    "0",
		"999":                  "999",
		"1000":                 "1,000",
		"100000000":            "100,000,000",
		"1234567.891":          "1,234,567.891",
		"-12345":               "-12,345",
		"36893488147419103232": "36,893,488,147,419,103,232",
	}
	for in, want := range tests {
		assert.Equal(t, want, NumberFormat(in), in)
	}
}
