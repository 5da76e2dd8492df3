package config

import (
	"os"
	"time"
)

// parseEnv overlays values from NOTESYNC_* environment variables. Unset
// variables leave the current value untouched. An unparseable
// NOTESYNC_SAVE_DELAY is ignored rather than fatal.
func parseEnv(config *Config) {
	if v, ok := os.LookupEnv("NOTESYNC_ADDRESS"); ok {
		config.Address = v
	}
	if v, ok := os.LookupEnv("NOTESYNC_DATABASE_DSN"); ok {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv("NOTESYNC_ENCRYPTION_KEY"); ok {
		config.EncryptionKey = v
	}
	if v, ok := os.LookupEnv("NOTESYNC_ENCRYPTION_PASSPHRASE"); ok {
		config.EncryptionPassphrase = v
	}
	if v, ok := os.LookupEnv("NOTESYNC_ALLOWED_ORIGIN"); ok {
		config.AllowedOrigin = v
	}
	if v, ok := os.LookupEnv("NOTESYNC_SAVE_DELAY"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.SaveDelay = d
		}
	}
}
