package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactPII(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no pii", "How do I invite a teammate?", "How do I invite a teammate?"},
		{"email", "Invite jane.doe@example.com to my team", "Invite [EMAIL_REDACTED] to my team"},
		{"phone", "Call me at 555-123-4567 please", "Call me at [PHONE_REDACTED] please"},
		{"ssn", "My SSN is 123-45-6789", "My SSN is [SSN_REDACTED]"},
		{"valid card", "Charge 4111 1111 1111 1111 for Pro", "Charge [CREDIT_CARD_REDACTED] for Pro"},
		{"ip", "Login fails from 192.168.1.20", "Login fails from [IP_ADDRESS_REDACTED]"},
		{
			"multiple",
			"a@b.io and 10.0.0.1",
			"[EMAIL_REDACTED] and [IP_ADDRESS_REDACTED]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RedactPII(tt.input))
		})
	}
}

func TestFindPII_LuhnRejectsRandomDigits(t *testing.T) {
	assert.Empty(t, FindPII("order 1234 5678 9012 3456"))
}

func TestFindPII_Ordered(t *testing.T) {
	matches := FindPII("ip 10.0.0.1 mail x@y.com")
	if assert.Len(t, matches, 2) {
		assert.Equal(t, PIITypeIPAddress, matches[0].Type)
		assert.Equal(t, PIITypeEmail, matches[1].Type)
		assert.Less(t, matches[0].Start, matches[1].Start)
	}
}
