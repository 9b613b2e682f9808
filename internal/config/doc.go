// Package config handles configuration loading for edi-chat.
//
// # Overview
//
// Configuration is loaded from a YAML or TOML file with environment variable
// expansion. Every value has a default, so a missing default config file is
// not an error (see LoadOrDefault).
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from EDI_CHAT_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/edi-chat/widget.yaml
//  3. ~/.config/edi-chat/widget.yaml
//
// Files ending in .toml are decoded as TOML; anything else as YAML.
//
// # Environment Variables
//
// Values can reference environment variables with ${VAR_NAME}. After the file
// is decoded, EDI_CHAT_API_URL, EDI_CHAT_TITLE and EDI_CHAT_ACCENT override
// the matching widget values.
//
// # Configuration Sections
//
//	widget:
//	  endpoint_url: "https://msc-edi-ai-agent.onrender.com/ask"
//	  title: "MSc EDI Programme Assistant"
//	  accent: "#0b5fff"
//	  suggestions:
//	    - "What are the admission requirements?"
//	  greeting: "Hi! ..."
//	  hint: "Answers are based on official MSc EDI programme documents."
//
//	storage:
//	  driver: "sqlite"   # sqlite, sqlite3, file, memory
//	  path: "~/.local/share/edi-chat/widget.db"
//
//	http:
//	  timeout: "60s"     # empty means no client-side timeout
//
//	logging:
//	  level: "warn"      # debug, info, warn, error
//	  format: "text"     # text, json
package config
