package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("QB_TEST_HOST", "ollama.internal")
	t.Setenv("QB_TEST_PORT", "11434")

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single expression",
			input:    "http://${env.QB_TEST_HOST}",
			expected: "http://ollama.internal",
		},
		{
			name:     "multiple expressions",
			input:    "${env.QB_TEST_HOST}:${env.QB_TEST_PORT}",
			expected: "ollama.internal:11434",
		},
		{
			name:     "unset variable expands to empty",
			input:    "x${env.QB_TEST_MISSING}y",
			expected: "xy",
		},
		{
			name:     "no expression",
			input:    "plain text",
			expected: "plain text",
		},
		{
			name:     "missing closing brace kept literal",
			input:    "${env.QB_TEST_HOST",
			expected: "${env.QB_TEST_HOST",
		},
		{
			name:     "invalid key kept literal",
			input:    "${env.QB-TEST}",
			expected: "${env.QB-TEST}",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ExpandEnv(tc.input))
		})
	}
}
