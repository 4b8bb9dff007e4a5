package domain

// Default connection settings.
const (
	// DefaultAPIURL is the gateway base URL used when nothing else is configured.
	DefaultAPIURL = "http://localhost:8000"

	// DefaultTimeoutSeconds bounds a single gateway request.
	// Chat calls run generation server side, so this is generous.
	DefaultTimeoutSeconds = 120

	// DefaultMaxRetries applies to idempotent reads only.
	DefaultMaxRetries = 2
)

// APISettings holds gateway connection configuration.
type APISettings struct {
	// URL is the gateway base URL.
	URL string

	// TimeoutSeconds bounds each request.
	TimeoutSeconds int

	// MaxRetries is the retry budget for list, info and health calls.
	MaxRetries int

	// RateLimit caps requests per second. Zero disables limiting.
	RateLimit float64
}

// ChatSettings holds the default session configuration.
type ChatSettings struct {
	// TopK is the number of passages requested per query.
	TopK int

	// DeveloperMode asks the gateway to return the prompt it used.
	DeveloperMode bool
}

// ArchiveSettings controls the local transcript archive.
type ArchiveSettings struct {
	// Enabled persists completed exchanges to the local database.
	Enabled bool
}

// AppSettings holds all application settings.
type AppSettings struct {
	API     APISettings
	Chat    ChatSettings
	Archive ArchiveSettings
}

// DefaultAppSettings returns settings with sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		API: APISettings{
			URL:            DefaultAPIURL,
			TimeoutSeconds: DefaultTimeoutSeconds,
			MaxRetries:     DefaultMaxRetries,
			RateLimit:      0,
		},
		Chat: ChatSettings{
			TopK:          DefaultTopK,
			DeveloperMode: false,
		},
		Archive: ArchiveSettings{
			Enabled: true,
		},
	}
}

// SessionConfig returns the chat defaults as a session configuration.
func (s AppSettings) SessionConfig() SessionConfig {
	return SessionConfig{
		DeveloperMode: s.Chat.DeveloperMode,
		TopK:          s.Chat.TopK,
	}.Normalised()
}
