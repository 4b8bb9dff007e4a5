package driving

import "github.com/custodia-labs/ragchat/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save validates and persists application settings.
	Save(settings *domain.AppSettings) error

	// Set updates one setting by dotted key from its string form.
	Set(key, value string) error

	// Validate checks settings without saving them.
	Validate(settings *domain.AppSettings) error

	// Keys lists the settable keys.
	Keys() []string

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// Path returns where settings are persisted.
	Path() string
}
