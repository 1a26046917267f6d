// ABOUTME: Tests for interactive command parsing
// ABOUTME: Covers aliases, auto step counts, and rejected input

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInput(t *testing.T) {
	tests := []struct {
		line string
		want inputCommand
	}{
		{"/play", inputCommand{kind: inputPlay}},
		{"  /PAUSE  ", inputCommand{kind: inputPause}},
		{"/p", inputCommand{kind: inputToggle}},
		{"/step", inputCommand{kind: inputStep}},
		{"/auto", inputCommand{kind: inputAuto}},
		{"/auto 12", inputCommand{kind: inputAuto, steps: 12}},
		{"/a 3", inputCommand{kind: inputAuto, steps: 3}},
		{"/r", inputCommand{kind: inputReconnect}},
		{"/status", inputCommand{kind: inputStatus}},
		{"/?", inputCommand{kind: inputHelp}},
		{"/exit", inputCommand{kind: inputQuit}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseInput(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInput_Errors(t *testing.T) {
	_, err := parseInput("play")
	assert.ErrorIs(t, err, errNotCommand)

	_, err = parseInput("/auto zero")
	assert.Error(t, err)

	_, err = parseInput("/auto -2")
	assert.Error(t, err)

	_, err = parseInput("/rewind")
	assert.ErrorContains(t, err, "unknown command /rewind")
}
