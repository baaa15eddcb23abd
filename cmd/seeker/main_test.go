package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuestionFromArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"plain question", []string{"what", "is", "X"}, "what is X"},
		{"quoted question", []string{"what is X"}, "what is X"},
		{"config flag with value", []string{"--config", "/x/cfg.yaml", "what is X"}, "what is X"},
		{"config flag equals form", []string{"--config=/x/cfg.yaml", "what is X"}, "what is X"},
		{"config flag after question", []string{"what is X", "--config", "/x/cfg.yaml"}, "what is X"},
		{"other flags dropped", []string{"-v", "what is X"}, "what is X"},
		{"empty", nil, ""},
		{"only flags", []string{"--config", "/x/cfg.yaml"}, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, questionFromArgs(tc.args))
		})
	}
}
