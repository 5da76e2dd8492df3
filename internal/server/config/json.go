package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/notesync/internal/flagx"
	"github.com/dmitrijs2005/notesync/internal/timex"
)

// JsonConfig mirrors Config for JSON unmarshalling. SaveDelay uses
// timex.Duration so the file may carry either "2m" or integer nanoseconds.
type JsonConfig struct {
	Address              string         `json:"address"`
	DatabaseDSN          string         `json:"database_dsn"`
	EncryptionKey        string         `json:"encryption_key"`
	EncryptionPassphrase string         `json:"encryption_passphrase"`
	AllowedOrigin        string         `json:"allowed_origin"`
	SaveDelay            timex.Duration `json:"save_delay"`
}

// parseJson overlays values from the JSON file named by the -c/-config
// flags, when present. A missing flag means no file is loaded; an unreadable
// or invalid file panics, since running with half-applied config is worse
// than not starting.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.Address != "" {
		config.Address = c.Address
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.EncryptionKey != "" {
		config.EncryptionKey = c.EncryptionKey
	}
	if c.EncryptionPassphrase != "" {
		config.EncryptionPassphrase = c.EncryptionPassphrase
	}
	if c.AllowedOrigin != "" {
		config.AllowedOrigin = c.AllowedOrigin
	}
	if c.SaveDelay.Duration != 0 {
		config.SaveDelay = time.Duration(c.SaveDelay.Duration)
	}
}
