package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/nhle/quest-tracker/internal/credential"
	"github.com/nhle/quest-tracker/internal/logging"
	"github.com/nhle/quest-tracker/internal/model"
	"github.com/nhle/quest-tracker/internal/quest"
	"github.com/nhle/quest-tracker/internal/remote"
	"github.com/nhle/quest-tracker/internal/store"
	appsync "github.com/nhle/quest-tracker/internal/sync"
)

// errRemoteDisabled is returned by commands that need the profile database.
var errRemoteDisabled = errors.New("friends are off; set remote.enabled: true in the config")

// env holds everything a command needs. Close releases it.
type env struct {
	cfg        *model.AppConfig
	configPath string
	logger     *log.Logger
	kv         *store.SQLiteStore
	repo       *store.QuestRepository
	engine     *quest.Engine
	profiles   *store.ProfileStore
	remote     *remote.Client
	closers    []func() error
}

// Now is overridable in tests.
var now = time.Now

// sessions is overridable in tests; the default is the OS keyring.
var sessions = func() remote.Sessions { return credential.New() }

func openEnv(ctx context.Context, cmd *cobra.Command, flags *globalFlags) (*env, error) {
	path := flags.configPath
	if path == "" {
		path = model.DefaultConfigPath()
	}
	cfg, err := model.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}

	logger, closeLog, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, configPath: path, logger: logger, closers: []func() error{closeLog}}

	kv, err := store.NewSQLiteStore(cfg.Storage.DBPath, cfg.Storage.QuotaBytes)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("opening quest store: %w", err)
	}
	e.kv = kv
	e.closers = append(e.closers, kv.Close)

	e.repo = store.NewQuestRepository(kv, cfg.Storage.Mode, logger)
	opts := quest.OptionsFromConfig(cfg)
	opts.Now = now
	opts.Logger = logger
	e.engine = quest.New(ctx, e.repo, opts)

	return e, nil
}

// openRemote connects the profile database. It fails when the remote
// collaborator is disabled.
func (e *env) openRemote() (*remote.Client, error) {
	if e.remote != nil {
		return e.remote, nil
	}
	if !e.cfg.Remote.Enabled {
		return nil, errRemoteDisabled
	}
	ps, err := store.NewProfileStore(e.cfg.Remote.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening profile database: %w", err)
	}
	e.profiles = ps
	e.closers = append(e.closers, ps.Close)
	e.remote = remote.NewClient(ps, sessions(), e.logger)
	return e.remote, nil
}

// poller builds the leaderboard sync poller over the open remote.
func (e *env) poller() *appsync.Poller {
	interval := time.Duration(e.cfg.Remote.SyncIntervalSec) * time.Second
	return appsync.New(e.remote, e.engine, e.repo, interval, e.logger)
}

// Close releases resources in reverse order of acquisition.
func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.logger.Warn("closing", "err", err)
		}
	}
	e.closers = nil
}

// withEnv opens the environment, runs fn and closes it.
func withEnv(cmd *cobra.Command, flags *globalFlags, fn func(ctx context.Context, e *env) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := openEnv(ctx, cmd, flags)
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(ctx, e)
}
