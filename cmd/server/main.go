// Command server runs the QchauCoin ledger HTTP API.
//
// @title                       QchauCoin Ledger API
// @version                     1.0
// @description                 Signed-transaction ledger: accounts, RSA-signed transfers and the block chain.
// @host                        localhost:8080
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qchaucoin/ledger/coin"
	"github.com/qchaucoin/ledger/internal/api"
	"github.com/qchaucoin/ledger/internal/auth"
	"github.com/qchaucoin/ledger/internal/config"
	"github.com/qchaucoin/ledger/internal/handler"
	"github.com/qchaucoin/ledger/internal/ledger"
	"github.com/qchaucoin/ledger/internal/store"
	"github.com/qchaucoin/ledger/internal/store/levelstore"
	"github.com/qchaucoin/ledger/internal/store/mongostore"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := config.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := newLogger(config.Get().LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := config.PromptForJWTSecret(); err != nil {
		logger.Fatal("failed to read jwt secret", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	if lvl.Level() == zap.DebugLevel {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = lvl
	return zcfg.Build()
}

type stores struct {
	accounts store.AccountStore
	blocks   store.BlockStore
	closers  []func() error
}

func (s *stores) close(logger *zap.Logger) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			logger.Warn("failed to close store", zap.Error(err))
		}
	}
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	s := &stores{}

	var mongo *mongostore.Client
	if cfg.StoreBackend == config.BackendMongo || cfg.BlockBackend == config.BackendMongo {
		client, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoTimeout)
		if err != nil {
			return nil, err
		}
		mongo = client
		s.closers = append(s.closers, func() error { return client.Close(context.Background()) })
		logger.Info("connected to mongodb", zap.String("database", cfg.MongoDatabase))
	}

	switch cfg.StoreBackend {
	case config.BackendMongo:
		s.accounts = mongo.Accounts()
	default:
		s.accounts = store.NewMemoryAccountStore()
	}

	switch cfg.BlockBackend {
	case config.BackendMongo:
		s.blocks = mongo.Blocks()
	case config.BackendLevelDB:
		db, err := levelstore.Open(cfg.LevelDBPath)
		if err != nil {
			s.close(logger)
			return nil, err
		}
		s.blocks = db
		s.closers = append(s.closers, db.Close)
		logger.Info("opened leveldb block log", zap.String("path", cfg.LevelDBPath))
	default:
		s.blocks = store.NewMemoryBlockStore()
	}

	logger.Info("stores ready",
		zap.String("accounts", cfg.StoreBackend),
		zap.String("blocks", cfg.BlockBackend),
	)
	return s, nil
}

func run(ctx context.Context, logger *zap.Logger) error {
	cfg := config.Get()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close(logger)

	l := ledger.New(st.accounts, st.blocks,
		ledger.WithMineThreshold(config.GetMineThreshold()),
		ledger.WithLogger(logger.Named("ledger")),
	)
	if err := l.Open(ctx); err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}

	secret, err := config.GetJWTSecretBytes()
	if err != nil {
		return err
	}
	issuer, err := auth.NewIssuer(secret, config.GetTokenTTL())
	clear(secret)
	if err != nil {
		return err
	}

	svc := coin.NewService(l, st.accounts, issuer,
		coin.WithLogger(logger.Named("coin")),
		coin.WithWelcomeGrant(config.GetWelcomeGrant()),
	)
	h := handler.NewCoinHandler(svc, logger.Named("http"))

	srv := &http.Server{
		Addr:              ":" + config.GetPort(),
		Handler:           api.SetupRouter(h, issuer),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", zap.Error(err))
		}
		// Seal anything still below the mine threshold.
		if block, err := l.MineBlock(shutdownCtx); err != nil {
			logger.Error("failed to mine pending transfers", zap.Error(err))
		} else if block != nil {
			logger.Info("mined pending transfers on shutdown", zap.Uint64("index", block.Index))
		}
		return nil
	})
	return g.Wait()
}
