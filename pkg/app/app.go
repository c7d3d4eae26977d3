package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"blockverity/pkg/config"
	"blockverity/pkg/core"
	"blockverity/pkg/engine"
	"blockverity/pkg/logging"
	"blockverity/pkg/meta"
	"blockverity/pkg/metrics"
	"blockverity/pkg/refs"
	"blockverity/pkg/storage"
	"blockverity/pkg/storage/cache"
	"blockverity/pkg/storage/disk"
	"blockverity/pkg/storage/s3"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
)

// App 是整个应用程序的依赖容器，由 CLI 在每个命令开始时组装
type App struct {
	Config  *config.Config
	Logger  logging.Logger
	Metrics *metrics.Metrics
	Fs      afero.Fs

	Store storage.Store
	// Registry 未配置数据库时为 nil
	Registry *meta.Repository
	Refs     *refs.Manager

	closers []io.Closer
}

// NewApp 按配置组装存储、缓存、注册表和钉住管理器
func NewApp(ctx context.Context, cfg *config.Config, fs afero.Fs, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Noop()
	}
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
		Fs:      fs,
		Refs:    refs.NewManager(fs, cfg.Home),
	}

	store, closer, err := initStore(ctx, cfg, fs, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}
	a.Store = store
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	db, err := initRegistry(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to init registry: %w", err)
	}
	if db != nil {
		a.Registry = meta.NewRepository(db)
		a.closers = append(a.closers, db)
	}

	return a, nil
}

func initStore(ctx context.Context, cfg *config.Config, fs afero.Fs, logger logging.Logger) (storage.Store, io.Closer, error) {
	var backend storage.Store
	switch cfg.Storage.Type {
	case config.StorageDisk:
		store, err := disk.NewAdapter(fs, cfg.ObjectsPath())
		if err != nil {
			return nil, nil, err
		}
		backend = store
	case config.StorageS3:
		s3cfg := cfg.Storage.S3
		if s3cfg.Bucket == "" {
			return nil, nil, fmt.Errorf("s3 bucket is required")
		}
		store, err := s3.NewAdapter(ctx, s3.Config{
			Endpoint:        s3cfg.Endpoint,
			Region:          s3cfg.Region,
			Bucket:          s3cfg.Bucket,
			AccessKeyID:     s3cfg.AccessKeyID,
			SecretAccessKey: s3cfg.SecretAccessKey,
			KeyPrefix:       s3cfg.KeyPrefix,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		backend = store
	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %q", cfg.Storage.Type)
	}

	if cfg.Cache.RedisURL == "" {
		return backend, nil, nil
	}
	cached, err := cache.NewCachedStore(backend, cache.Config{
		RedisURL: cfg.Cache.RedisURL,
		TTL:      cfg.Cache.TTL,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return cached, cached, nil
}

func initRegistry(ctx context.Context, cfg *config.Config) (*meta.DB, error) {
	r := cfg.Registry
	if r.Driver == "" || r.Driver == config.RegistryNone {
		return nil, nil
	}
	return meta.Open(ctx, meta.Config{
		Driver:   r.Driver,
		DSN:      r.DSN,
		Host:     r.Postgres.Host,
		Port:     r.Postgres.Port,
		User:     r.Postgres.User,
		Password: r.Postgres.Password,
		DBName:   r.Postgres.DBName,
		SSLMode:  r.Postgres.SSLMode,
		Debug:    r.Debug,
	})
}

// Engine 为一个数据文件创建引擎，共享 App 的日志和指标
func (a *App) Engine(dataPath, manifestPath string) (*engine.Engine, error) {
	if manifestPath == "" {
		manifestPath = a.Config.Manifest.Path
	}
	return engine.New(a.Fs, dataPath, engine.Options{
		BlockSize:    a.Config.BlockSize,
		Workers:      a.Config.Workers,
		ManifestPath: manifestPath,
	}, engine.WithLogger(a.Logger), engine.WithMetrics(a.Metrics))
}

// Commit 把一次生成写入对象存储、钉住到数据文件，并记入注册表
// 注册表写入失败只警告；存储和钉住失败返回错误。
func (a *App) Commit(ctx context.Context, eng *engine.Engine, gen *engine.Generation) (*core.Seal, error) {
	seal, err := eng.Publish(ctx, a.Store, gen)
	if err != nil {
		return nil, fmt.Errorf("seal failed: %w", err)
	}
	if err := a.Refs.SetPin(gen.DataPath, seal.ID()); err != nil {
		return nil, fmt.Errorf("pin failed: %w", err)
	}
	if a.Registry != nil {
		err := a.Registry.RecordGeneration(ctx, meta.GenerationRecord{
			DataPath:   gen.DataPath,
			Root:       gen.Root,
			BlockSize:  gen.BlockSize,
			BlockCount: gen.BlockCount(),
			DataSize:   gen.DataSize,
			SealID:     seal.ID(),
			CreatedAt:  gen.CreatedAt,
		})
		if err != nil {
			a.Logger.Warningf("failed to record generation: %v", err)
		}
	}
	return seal, nil
}

// RecordRun 记录一次校验；未配置注册表时什么都不做
func (a *App) RecordRun(ctx context.Context, rec meta.RunRecord, start time.Time) {
	if a.Registry == nil {
		return
	}
	rec.Duration = time.Since(start)
	if _, err := a.Registry.RecordRun(ctx, rec); err != nil {
		a.Logger.Warningf("failed to record verification run: %v", err)
	}
}

// Close 关闭所有外部连接，并按配置写出指标
func (a *App) Close() error {
	var result *multierror.Error
	if path := a.Config.Metrics.Textfile; path != "" {
		if err := a.Metrics.WriteTextfile(path); err != nil {
			result = multierror.Append(result, fmt.Errorf("write metrics: %w", err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	a.closers = nil
	return result.ErrorOrNil()
}
