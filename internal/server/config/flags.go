package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/notesync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP bind address (e.g., ":8080")
//	-d string     PostgreSQL DSN
//	-k string     hex-encoded AES-256 key for notes at rest
//	-p string     passphrase to derive the key from (ignored when -k is set)
//	-o string     allowed browser origin for CORS/websocket
//	-w duration   passive auto-save window (e.g., "2m")
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with the -c/-config flags handled by
// the JSON layer.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-k", "-p", "-o", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Address, "a", config.Address, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.EncryptionKey, "k", config.EncryptionKey, "hex-encoded encryption key")
	fs.StringVar(&config.EncryptionPassphrase, "p", config.EncryptionPassphrase, "encryption passphrase")
	fs.StringVar(&config.AllowedOrigin, "o", config.AllowedOrigin, "allowed client origin")

	saveDelay := fs.Duration("w", config.SaveDelay, "auto-save delay window")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SaveDelay = *saveDelay
}
