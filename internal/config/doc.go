// Package config handles configuration loading for the scribe client.
//
// # Overview
//
// Configuration is loaded from a YAML file with environment variable
// expansion. A missing file is fine: the client runs with defaults that
// point at a local chat service.
//
// # Configuration File
//
// Default location: $XDG_CONFIG_HOME/scribe/config.yaml, falling back to
// ~/.config/scribe/config.yaml. Override with the SCRIBE_CONFIG environment
// variable.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	server:
//	  base_url: "${SCRIBE_SERVER}"
//
// # Configuration Sections
//
//	server:
//	  base_url: "http://localhost:8000"
//	  request_timeout: "5m"     # Go duration syntax; covers a full stream
//
//	chat:
//	  model: "llama3"           # optional, server default when empty
//	  top_k: 5                  # retrieval result count per question
//
//	database:
//	  path: "~/.local/share/scribe/state.db"
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
