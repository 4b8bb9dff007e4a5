package services

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	KeyAPIURL         = "api.url"
	KeyAPITimeout     = "api.timeout_seconds"
	KeyAPIMaxRetries  = "api.max_retries"
	KeyAPIRateLimit   = "api.rate_limit"
	KeyChatTopK       = "chat.top_k"
	KeyChatDeveloper  = "chat.developer_mode"
	KeyArchiveEnabled = "archive.enabled"
)

// ErrUnknownSetting is returned by Set for keys it does not recognise.
var ErrUnknownSetting = errors.New("unknown setting")

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings, filling gaps with defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		API: domain.APISettings{
			URL:            s.getString(KeyAPIURL, defaults.API.URL),
			TimeoutSeconds: s.getInt(KeyAPITimeout, defaults.API.TimeoutSeconds),
			MaxRetries:     s.getInt(KeyAPIMaxRetries, defaults.API.MaxRetries),
			RateLimit:      s.getFloat(KeyAPIRateLimit, defaults.API.RateLimit),
		},
		Chat: domain.ChatSettings{
			TopK:          s.getInt(KeyChatTopK, defaults.Chat.TopK),
			DeveloperMode: s.getBool(KeyChatDeveloper, defaults.Chat.DeveloperMode),
		},
		Archive: domain.ArchiveSettings{
			Enabled: s.getBool(KeyArchiveEnabled, defaults.Archive.Enabled),
		},
	}

	return settings, nil
}

// Save validates and persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := s.Validate(settings); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{KeyAPIURL, settings.API.URL},
		{KeyAPITimeout, settings.API.TimeoutSeconds},
		{KeyAPIMaxRetries, settings.API.MaxRetries},
		{KeyAPIRateLimit, settings.API.RateLimit},
		{KeyChatTopK, settings.Chat.TopK},
		{KeyChatDeveloper, settings.Chat.DeveloperMode},
		{KeyArchiveEnabled, settings.Archive.Enabled},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return nil
}

// Set updates one setting by key from its string form.
func (s *SettingsService) Set(key, value string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	switch key {
	case KeyAPIURL:
		settings.API.URL = value
	case KeyAPITimeout:
		settings.API.TimeoutSeconds, err = strconv.Atoi(value)
	case KeyAPIMaxRetries:
		settings.API.MaxRetries, err = strconv.Atoi(value)
	case KeyAPIRateLimit:
		settings.API.RateLimit, err = strconv.ParseFloat(value, 64)
	case KeyChatTopK:
		settings.Chat.TopK, err = strconv.Atoi(value)
	case KeyChatDeveloper:
		settings.Chat.DeveloperMode, err = strconv.ParseBool(value)
	case KeyArchiveEnabled:
		settings.Archive.Enabled, err = strconv.ParseBool(value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	if err != nil {
		return domain.NewValidationError(key, fmt.Errorf("%w: %q", domain.ErrInvalidInput, value))
	}

	return s.Save(settings)
}

// Validate checks settings without saving them.
func (s *SettingsService) Validate(settings *domain.AppSettings) error {
	if settings == nil {
		return domain.NewValidationError("settings", domain.ErrInvalidInput)
	}

	api := &settings.API
	if err := validation.ValidateStruct(api,
		validation.Field(&api.URL, validation.Required, validation.By(validateBaseURL)),
		validation.Field(&api.TimeoutSeconds, validation.Required, validation.Min(1), validation.Max(600)),
		validation.Field(&api.MaxRetries, validation.Min(0), validation.Max(10)),
		validation.Field(&api.RateLimit, validation.Min(0.0)),
	); err != nil {
		return domain.NewValidationError("api", err)
	}

	chat := &settings.Chat
	if err := validation.ValidateStruct(chat,
		validation.Field(&chat.TopK, validation.Required, validation.Min(1), validation.Max(domain.MaxTopK)),
	); err != nil {
		return domain.NewValidationError("chat", err)
	}

	return nil
}

// validateBaseURL accepts absolute http(s) URLs with a host.
func validateBaseURL(value any) error {
	raw, _ := value.(string)
	u, err := url.Parse(raw)
	if err != nil {
		return errors.New("must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("must use http or https")
	}
	if u.Host == "" {
		return errors.New("must include a host")
	}
	return nil
}

// Keys lists the settable keys.
func (s *SettingsService) Keys() []string {
	return []string{
		KeyAPIURL,
		KeyAPITimeout,
		KeyAPIMaxRetries,
		KeyAPIRateLimit,
		KeyChatTopK,
		KeyChatDeveloper,
		KeyArchiveEnabled,
	}
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Path returns where settings are persisted.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

func (s *SettingsService) getString(key, fallback string) string {
	if _, ok := s.configStore.Get(key); !ok {
		return fallback
	}
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return fallback
}

func (s *SettingsService) getInt(key string, fallback int) int {
	if _, ok := s.configStore.Get(key); !ok {
		return fallback
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, fallback float64) float64 {
	if _, ok := s.configStore.Get(key); !ok {
		return fallback
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, fallback bool) bool {
	if _, ok := s.configStore.Get(key); !ok {
		return fallback
	}
	return s.configStore.GetBool(key)
}
