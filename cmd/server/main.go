package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/actuallystonmai/product-recommender/internal/cache"
	"github.com/actuallystonmai/product-recommender/internal/catalog"
	"github.com/actuallystonmai/product-recommender/internal/config"
	"github.com/actuallystonmai/product-recommender/internal/embedding"
	"github.com/actuallystonmai/product-recommender/internal/handler"
	"github.com/actuallystonmai/product-recommender/internal/repository"
	"github.com/actuallystonmai/product-recommender/internal/router"
	"github.com/actuallystonmai/product-recommender/internal/service"
	"github.com/actuallystonmai/product-recommender/seeds"
)

const dbReadyAttempts = 30

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := config.SetupLogger(cfg.Logging)

	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	ctx := context.Background()

	switch cmd {
	case "serve":
		err = serve(ctx, cfg, logger)
	case "migrate-up":
		err = withRepository(ctx, cfg, logger, func(repo *repository.Repository) error {
			return migrate(ctx, repo, cfg, "create_tables.up.sql", logger)
		})
	case "migrate-down":
		err = withRepository(ctx, cfg, logger, func(repo *repository.Repository) error {
			return migrate(ctx, repo, cfg, "create_tables.down.sql", logger)
		})
	case "seed":
		err = withRepository(ctx, cfg, logger, func(repo *repository.Repository) error {
			if err := migrate(ctx, repo, cfg, "create_tables.up.sql", logger); err != nil {
				return err
			}
			return checkSeed(ctx, repo, logger)
		})
	case "import":
		err = withRepository(ctx, cfg, logger, func(repo *repository.Repository) error {
			customersFile, productsFile := cfg.Data.CustomersFile, cfg.Data.ProductsFile
			if len(os.Args) == 4 {
				customersFile, productsFile = os.Args[2], os.Args[3]
			}
			return importFiles(ctx, repo, cfg, customersFile, productsFile, logger)
		})
	default:
		err = fmt.Errorf("unknown command %q (serve, migrate-up, migrate-down, seed, import)", cmd)
	}

	if err != nil {
		logger.Fatal().Err(err).Str("command", cmd).Msg("command failed")
	}
}

func serve(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	// ------------ Store ---------------
	var store service.Store
	switch cfg.Data.Source {
	case config.DataSourcePostgres:
		pool, err := repository.Connect(ctx, cfg.Database.URL, cfg.Database.PoolSize)
		if err != nil {
			return err
		}
		defer pool.Close()

		repo := repository.New(pool, logger)
		if err := repo.WaitReady(ctx, dbReadyAttempts); err != nil {
			return fmt.Errorf("database not ready: %w", err)
		}
		logger.Info().Msg("connected to PostgreSQL")
		store = repo
	default:
		mem, err := catalog.LoadMemoryStore(cfg.Data.CustomersFile, cfg.Data.ProductsFile)
		if err != nil {
			return fmt.Errorf("load data files: %w", err)
		}
		customers, _ := mem.CountCustomers(ctx)
		products, _ := mem.ListProducts(ctx)
		logger.Info().Int("customers", customers).Int("products", len(products)).
			Str("customers_file", cfg.Data.CustomersFile).Str("products_file", cfg.Data.ProductsFile).
			Msg("loaded data files")
		store = mem
	}

	// ------------ Redis ---------------
	var (
		resultCache service.ResultCache
		rdb         *redis.Client
	)
	if cfg.Redis.Enabled {
		client, err := cache.Connect(cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("redis not reachable, cache calls will fail open")
		} else {
			logger.Info().Msg("connected to Redis")
		}
		rdb = client
		resultCache = cache.NewCache(client, cfg.Redis.CacheTTL)
	}

	// ------------ Embedder ---------------
	var embedder embedding.Embedder
	if cfg.Embedding.URL != "" {
		embedder = embedding.NewHTTPEmbedder(embedding.HTTPConfig{
			URL:     cfg.Embedding.URL,
			Model:   cfg.Embedding.Model,
			APIKey:  cfg.Embedding.APIKey,
			Timeout: cfg.Embedding.Timeout,
		}, logger)
		if rdb != nil && cfg.Embedding.CacheVectors {
			embedder = embedding.NewCached(embedder, rdb, cfg.Embedding.Model, cfg.Redis.CacheTTL, logger)
		}
		logger.Info().Str("url", cfg.Embedding.URL).Msg("using remote embedding model")
	} else {
		logger.Info().Msg("no embedding url set, similarity ranking uses tf-idf")
	}

	svc := service.NewService(store, resultCache, service.Config{
		RecommendTimeout: cfg.Recommend.Timeout,
		Embedder:         embedder,
	}, logger)

	h := handler.NewHandler(svc, handler.Limits{
		DefaultK: cfg.Recommend.DefaultK,
		MaxK:     cfg.Recommend.MaxK,
	}, logger)

	r := router.Setup(h, router.Options{
		RequestTimeout: cfg.Server.RequestTimeout,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RateLimit:      cfg.Server.RateLimit,
	}, logger)

	// ---------------- Server --------------------
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 5*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("source", cfg.Data.Source).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func withRepository(ctx context.Context, cfg *config.Config, logger zerolog.Logger, fn func(*repository.Repository) error) error {
	pool, err := repository.Connect(ctx, cfg.Database.URL, cfg.Database.PoolSize)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := repository.New(pool, logger)
	if err := repo.WaitReady(ctx, dbReadyAttempts); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	return fn(repo)
}

func migrate(ctx context.Context, repo *repository.Repository, cfg *config.Config, file string, logger zerolog.Logger) error {
	path := filepath.Join(cfg.Database.MigrationsDir, file)
	if err := repo.ExecFile(ctx, path); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info().Str("file", path).Msg("migration applied")
	return nil
}

func checkSeed(ctx context.Context, repo *repository.Repository, logger zerolog.Logger) error {
	count, err := repo.CountCustomers(ctx)
	if err != nil {
		return fmt.Errorf("check customers count: %w", err)
	}
	if count > 0 {
		logger.Info().Int("customers", count).Msg("database already seeded, skipping")
		return nil
	}
	return seeds.Setup(ctx, repo, logger)
}

// importFiles upserts the data files into PostgreSQL and drops
// cached results, which may reflect the old catalog.
func importFiles(ctx context.Context, repo *repository.Repository, cfg *config.Config, customersFile, productsFile string, logger zerolog.Logger) error {
	customers, err := catalog.LoadCustomersFile(customersFile)
	if err != nil {
		return err
	}
	products, err := catalog.LoadProductsFile(productsFile)
	if err != nil {
		return err
	}

	if err := migrate(ctx, repo, cfg, "create_tables.up.sql", logger); err != nil {
		return err
	}
	if err := repo.UpsertProducts(ctx, products); err != nil {
		return fmt.Errorf("import products: %w", err)
	}
	if err := repo.UpsertCustomers(ctx, customers); err != nil {
		return fmt.Errorf("import customers: %w", err)
	}
	logger.Info().Int("customers", len(customers)).Int("products", len(products)).Msg("import complete")

	if cfg.Redis.Enabled {
		client, err := cache.Connect(cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := cache.NewCache(client, cfg.Redis.CacheTTL).ClearAll(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to clear recommendation cache")
		}
	}
	return nil
}
