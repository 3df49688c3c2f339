// Package config provides configuration helpers for hungry-agent commands.
// All settings come from environment variables; main loads a .env file
// first via godotenv so local development needs no exported shell vars.
package config

import (
	"fmt"
	"os"
)

// Defaults for service ports and paths.
const (
	DefaultOrchestratorPort = "8000"
	DefaultVoicePort        = "5001"
	DefaultDashboardOrigin  = "http://localhost:3000"
	DefaultDBPath           = "./database/orders.db"
	DefaultDeliveryAddress  = "809 Bouldin Ave, Austin, TX 78704"
	DefaultTTSVoice         = "shimmer"
	DefaultWhisperModel     = "tiny"
)

// env returns the value of key or fallback if unset.
func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// OpenAIKey returns the OpenAI API key. Exits if not set.
func OpenAIKey() string {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		fmt.Fprintln(os.Stderr, "Error: OPENAI_API_KEY environment variable is required")
		fmt.Fprintln(os.Stderr, "Usage: OPENAI_API_KEY=sk-... go run ./cmd/hungry-agent")
		os.Exit(1)
	}
	return key
}

// OrchestratorPort returns the HTTP port for the orchestrator.
func OrchestratorPort() string {
	return env("ORCHESTRATOR_PORT", DefaultOrchestratorPort)
}

// VoicePort returns the HTTP port for the voice service.
func VoicePort() string {
	return env("VOICE_PORT", DefaultVoicePort)
}

// DashboardOrigin returns the origin allowed to reach the API and the
// URL probed by the health check.
func DashboardOrigin() string {
	return env("DASHBOARD_ORIGIN", DefaultDashboardOrigin)
}

// VoiceServiceURL returns the base URL of the standalone voice service.
func VoiceServiceURL() string {
	return env("VOICE_SERVICE_URL", "http://localhost:"+VoicePort())
}

// DBPath returns the SQLite database path.
func DBPath() string {
	return env("LOCAL_DB_PATH", DefaultDBPath)
}

// DeliveryAddress returns the default delivery address used when a
// voice command does not include one.
func DeliveryAddress() string {
	return env("DELIVERY_ADDRESS", DefaultDeliveryAddress)
}

// TTSVoice returns the voice used for speech synthesis.
func TTSVoice() string {
	return env("TTS_VOICE", DefaultTTSVoice)
}

// WhisperModel returns the whisper.cpp model name for transcription.
func WhisperModel() string {
	return env("WHISPER_MODEL", DefaultWhisperModel)
}

// WhisperDir returns the directory holding the whisper.cpp build.
func WhisperDir() string {
	return env("WHISPER_DIR", "submodules/whisper.cpp")
}

// UberEatsServerDir returns the working directory of the Uber Eats
// MCP server subprocess.
func UberEatsServerDir() string {
	return env("UBER_MCP_DIR", "submodules/uber-eats-mcp-server")
}

// TacoSearchServerDir returns the working directory of the restaurant
// search MCP server subprocess.
func TacoSearchServerDir() string {
	return env("TACO_SEARCH_MCP_DIR", "submodules/taco-search-mcp-server")
}

// MCPPython returns the python interpreter used to launch MCP servers.
func MCPPython() string {
	return env("MCP_PYTHON", "python3")
}

// LogLevel returns the logging level (debug, info, warn, error).
func LogLevel() string {
	return env("LOG_LEVEL", "info")
}
