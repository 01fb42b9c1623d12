package backend

import (
	"fmt"

	"github.com/DiogoMatos10/myfinance/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		SQLiteDBPath: appConfig.SQLiteDBPath,
		ReceiptsDir:  appConfig.ReceiptsDir,

		SupabaseURL:    appConfig.SupabaseURL,
		SupabaseKey:    appConfig.SupabaseKey,
		SupabaseBucket: appConfig.SupabaseBucket,

		DevSessionTokens: appConfig.DevSessionTokens,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
		if c.ReceiptsDir == "" {
			return fmt.Errorf("receipts directory is required for sqlite backend")
		}
		if c.DevSessionTokens == "" {
			return fmt.Errorf("dev session tokens are required for sqlite backend")
		}

	case SupabaseBackend:
		if c.SupabaseURL == "" {
			return fmt.Errorf("Supabase URL is required for supabase backend")
		}
		if c.SupabaseKey == "" {
			return fmt.Errorf("Supabase key is required for supabase backend")
		}
		if c.SupabaseBucket == "" {
			return fmt.Errorf("Supabase bucket is required for supabase backend")
		}

	case MemoryBackend:
		if c.DevSessionTokens == "" {
			return fmt.Errorf("dev session tokens are required for memory backend")
		}
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, SupabaseBackend, MemoryBackend}
}
