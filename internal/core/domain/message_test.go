package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessage_Predicates(t *testing.T) {
	tests := []struct {
		name     string
		msg      Message
		hasText  bool
		inThread bool
	}{
		{"plain message", Message{TS: "1.0", User: "U1", Text: "hi"}, true, false},
		{"thread reply", Message{TS: "2.0", Text: "reply", ThreadTS: "1.0"}, true, true},
		{"empty text", Message{TS: "3.0"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.hasText, tt.msg.HasText())
			assert.Equal(t, tt.inThread, tt.msg.InThread())
		})
	}
}

func TestParseTS(t *testing.T) {
	assert.InDelta(t, 1700000000.000100, ParseTS("1700000000.000100"), 1e-6)
	assert.Equal(t, float64(0), ParseTS(""))
	assert.Equal(t, float64(0), ParseTS("not-a-ts"))
}

func TestMinutesBetween(t *testing.T) {
	assert.InDelta(t, 10.0, MinutesBetween("1000.000000", "1600.000000"), 1e-9)
	assert.InDelta(t, 0.5, MinutesBetween("1000.0", "1030.0"), 1e-9)
}
