// Package server initializes and runs the note service: it connects storage,
// builds the field cipher, wires the auto-save coordinator and realtime hub
// into the HTTP server, and handles graceful shutdown with a final flush of
// pending edits.
package server

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/notesync/internal/common"
	"github.com/dmitrijs2005/notesync/internal/cryptox"
	"github.com/dmitrijs2005/notesync/internal/logging"
	"github.com/dmitrijs2005/notesync/internal/server/autosave"
	"github.com/dmitrijs2005/notesync/internal/server/config"
	"github.com/dmitrijs2005/notesync/internal/server/httpapi"
	"github.com/dmitrijs2005/notesync/internal/server/notes"
	"github.com/dmitrijs2005/notesync/internal/server/relay"
	"github.com/dmitrijs2005/notesync/internal/server/repositories/repomanager"
)

// keyDerivationSalt fixes the argon2 salt for passphrase-derived keys so the
// same passphrase yields the same key across restarts.
const keyDerivationSalt = "notesync.fields.v1"

const drainTimeout = 30 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	repos    repomanager.RepositoryManager
	autosave *autosave.Coordinator
	server   *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	cipher, err := buildCipher(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("cipher init error: %w", err)
	}

	repos, err := repomanager.NewPostgresRepositoryManager(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	noteService := notes.NewService(repos.Notes(), cipher, logger)
	coordinator := autosave.New(noteService, cfg.SaveDelay, logger)
	hub := relay.NewHub(logger)
	server := httpapi.NewServer(cfg.Address, cfg.AllowedOrigin, noteService, coordinator, hub, logger)

	return &App{
		config:   cfg,
		logger:   logger,
		repos:    repos,
		autosave: coordinator,
		server:   server,
	}, nil
}

// buildCipher resolves the encryption key: an explicit hex key wins, then a
// passphrase-derived key. With neither configured a random per-process key
// is generated and notes stored before the restart cannot be decrypted.
func buildCipher(cfg *config.Config, logger logging.Logger) (*cryptox.Cipher, error) {
	ctx := context.Background()

	if cfg.EncryptionKey != "" {
		key, err := hex.DecodeString(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("decoding encryption key: %w", err)
		}
		return cryptox.New(key)
	}

	if cfg.EncryptionPassphrase != "" {
		return cryptox.NewFromPassphrase([]byte(cfg.EncryptionPassphrase), []byte(keyDerivationSalt))
	}

	logger.Warn(ctx, "no encryption key configured, generated a random per-process key; previously stored notes cannot be decrypted after this restart")
	return cryptox.New(common.GenerateRandByteArray(cryptox.KeySize))
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, "HTTP server error", "error", err)
			cancelFunc()
		}
	}()
	wg.Wait()

	// the server no longer accepts requests; flush what is still pending
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), drainTimeout)
	defer cancelDrain()
	app.autosave.DrainAll(drainCtx)

	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "closing db error", "error", err)
	}

	app.logger.Info(ctx, "app stopped")
}
