package redis

import (
	"testing"
)

func TestKeyBuilder_Environment_Prefixes(t *testing.T) {
	tests := []struct {
		name           string
		environment    string
		expectedPrefix string
	}{
		{
			name:           "Production environment should use prod prefix",
			environment:    "production",
			expectedPrefix: "prod",
		},
		{
			name:           "Development environment should use staging prefix",
			environment:    "development",
			expectedPrefix: "staging",
		},
		{
			name:           "Staging environment should use staging prefix",
			environment:    "staging",
			expectedPrefix: "staging",
		},
		{
			name:           "Local environment should use dev prefix",
			environment:    "local",
			expectedPrefix: "dev",
		},
		{
			name:           "Unknown environment should default to prod prefix",
			environment:    "unknown",
			expectedPrefix: "prod",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := NewKeyBuilder(tt.environment)
			if kb.GetPrefix() != tt.expectedPrefix {
				t.Errorf("NewKeyBuilder(%s).GetPrefix() = %s, want %s",
					tt.environment, kb.GetPrefix(), tt.expectedPrefix)
			}
		})
	}
}

func TestKeyBuilder_KeyPoll(t *testing.T) {
	kb := NewKeyBuilder("production")

	if got, want := kb.KeyPoll("8f1c"), "prod:poll:8f1c:document"; got != want {
		t.Errorf("KeyPoll() = %s, want %s", got, want)
	}

	staging := NewKeyBuilder("staging")
	if got, want := staging.KeyPoll("8f1c"), "staging:poll:8f1c:document"; got != want {
		t.Errorf("KeyPoll() = %s, want %s", got, want)
	}
}
