// Package config handles configuration loading for symbios-live.
//
// # Overview
//
// Configuration is loaded from a YAML or TOML file with environment variable
// expansion. Every key is optional; anything the file leaves out keeps its
// Default value. The result is validated before it is returned.
//
// # Configuration File
//
// Location (first match wins):
//
//  1. The -config flag
//  2. Path from SYMBIOS_CONFIG environment variable
//  3. $XDG_CONFIG_HOME/symbios/live.yaml
//  4. ~/.config/symbios/live.yaml
//
// Files ending in .toml are decoded as TOML; everything else as YAML.
//
// # Environment Variable Expansion
//
//	server:
//	  token: "${SYMBIOS_TOKEN}"
//
// Unset variables expand to the empty string.
//
// # Configuration Sections
//
//	server:
//	  base_url: "http://localhost:8000"   # https selects wss
//	  channel: "simulation"
//	  token: ""
//
//	stream:
//	  history_capacity: 60
//	  initial_command: "pause"            # pause, play, auto, step, none
//	  initial_steps: 999                  # used by auto
//
//	reconnect:
//	  base_delay: "1s"
//	  max_delay: "10s"
//	  max_attempts: 5
//	  manual_delay: "150ms"
//
//	logging:
//	  level: "info"                       # debug, info, warn, error
//	  format: "text"                      # text, json
//
//	metrics:
//	  enabled: false
//	  addr: ":9464"
//	  path: "/metrics"
package config
