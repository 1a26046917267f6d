// ABOUTME: Parses interactive slash commands typed into the terminal client
// ABOUTME: Maps each command onto the session client's control surface

package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type inputKind int

const (
	inputPlay inputKind = iota
	inputPause
	inputToggle
	inputAuto
	inputStep
	inputReconnect
	inputStatus
	inputHelp
	inputQuit
)

type inputCommand struct {
	kind  inputKind
	steps int
}

var errNotCommand = errors.New("commands start with /; type /help")

func parseInput(line string) (inputCommand, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return inputCommand{}, errNotCommand
	}

	fields := strings.Fields(line)
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "/play":
		return inputCommand{kind: inputPlay}, nil
	case "/pause":
		return inputCommand{kind: inputPause}, nil
	case "/toggle", "/p":
		return inputCommand{kind: inputToggle}, nil
	case "/step", "/s":
		return inputCommand{kind: inputStep}, nil
	case "/auto", "/a":
		cmd := inputCommand{kind: inputAuto}
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return inputCommand{}, fmt.Errorf("/auto takes a positive step count, got %q", args[0])
			}
			cmd.steps = n
		}
		return cmd, nil
	case "/reconnect", "/r":
		return inputCommand{kind: inputReconnect}, nil
	case "/status":
		return inputCommand{kind: inputStatus}, nil
	case "/help", "/h", "/?":
		return inputCommand{kind: inputHelp}, nil
	case "/quit", "/exit", "/q":
		return inputCommand{kind: inputQuit}, nil
	default:
		return inputCommand{}, fmt.Errorf("unknown command %s; type /help", name)
	}
}

const helpText = `Commands:
  /play            start continuous streaming
  /pause           stop streaming
  /toggle, /p      switch between play and pause
  /step, /s        advance one step
  /auto [N], /a    advance N steps (server default 5)
  /reconnect, /r   drop the connection and history, then reconnect
  /status          show connection state
  /quit, /q        exit`
