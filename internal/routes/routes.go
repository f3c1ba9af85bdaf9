package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hyperwallet/hyperwallet/internal/activation"
	"github.com/hyperwallet/hyperwallet/internal/auth"
	"github.com/hyperwallet/hyperwallet/internal/bank"
	"github.com/hyperwallet/hyperwallet/internal/chain"
	"github.com/hyperwallet/hyperwallet/internal/config"
	"github.com/hyperwallet/hyperwallet/internal/events"
	"github.com/hyperwallet/hyperwallet/internal/flashloan"
	"github.com/hyperwallet/hyperwallet/internal/ledgerbook"
	"github.com/hyperwallet/hyperwallet/internal/middleware"
	"github.com/hyperwallet/hyperwallet/internal/module"
	"github.com/hyperwallet/hyperwallet/internal/oracle"
	"github.com/hyperwallet/hyperwallet/internal/registry"
	"github.com/hyperwallet/hyperwallet/internal/relay"
	"github.com/hyperwallet/hyperwallet/internal/router"
	"github.com/hyperwallet/hyperwallet/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// oracleIngest is the write side shared by the Postgres store and the
// in-memory snapshot used in dev.
type oracleIngest interface {
	oracle.Oracle
	UpsertSpotBalance(ctx context.Context, account chain.Address, token uint64, b oracle.SpotBalance) error
	UpsertWithdrawable(ctx context.Context, account chain.Address, amount uint64) error
	UpsertVaultEquity(ctx context.Context, account, vault chain.Address, e oracle.VaultEquity) error
	UpsertUser(ctx context.Context, account chain.Address) error
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !isDev(d.Cfg.Env()) {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Backends, Postgres-backed when a pool is present.
	var bankBackend bank.Bank
	if d.DB != nil {
		bankBackend = bank.NewPostgresBank(d.DB)
	} else {
		bankBackend = bank.NewInMemory()
		_ = bankBackend.EnsureAccount(context.Background(), bank.ExternalSuspenseAccountCode)
	}

	var book ledgerbook.Book
	if d.DB != nil {
		book = ledgerbook.NewPostgresBook(d.DB)
	} else {
		book = ledgerbook.NewMemory()
	}

	var oracleBackend oracleIngest
	if d.DB != nil {
		oracleBackend = oracle.NewPostgres(d.DB)
	} else {
		oracleBackend = oracle.NewMemory()
	}

	var relayBackend relay.Relay
	if d.Cache != nil {
		rl, err := relay.NewRedisRelay(d.Cache, d.Cfg.RelayStream)
		if err != nil {
			return err
		}
		relayBackend = rl
	} else {
		relayBackend = relay.NewRecording()
	}

	var walletRepo wallet.Repository
	if d.DB != nil {
		walletRepo = wallet.NewPostgresRepository(d.DB)
	} else {
		walletRepo = wallet.NewMemoryRepository()
	}

	var registryRepo registry.Repository
	if d.DB != nil {
		registryRepo = registry.NewPostgresRepository(d.DB)
	} else {
		registryRepo = registry.NewMemoryRepository()
	}

	var activationGate activation.Gate
	if d.DB != nil {
		activationGate = activation.NewPostgresGate(d.DB, "activation")
	} else {
		activationGate = activation.NewMemoryGate()
	}

	var loanLedger flashloan.DepositLedger
	if d.DB != nil {
		loanLedger = flashloan.NewPostgresLedger(d.DB)
	} else {
		loanLedger = flashloan.NewMemoryLedger()
	}

	clock, err := chain.NewIntervalClock(d.Cfg.GenesisTime, d.Cfg.BlockInterval)
	if err != nil {
		return err
	}
	emitter := events.NewLoggerEmitter(d.Logger)

	// Services
	registrySvc := registry.NewService(registryRepo, walletRepo, book, emitter)
	walletSvc := wallet.NewService(walletRepo, registrySvc, clock, bankBackend, book, emitter, d.Cfg.HypeAsset)
	walletSvc.RegisterTarget(d.Cfg.CoreWriter, wallet.TargetFunc(relayBackend.Submit))

	guard := module.NewGuard(walletSvc, registrySvc, oracleBackend)

	routerFor := func(id chain.Address, v router.Variant) *router.Service {
		return router.NewService(router.Config{
			ModuleID:   id,
			CoreWriter: d.Cfg.CoreWriter,
			UsdcToken:  d.Cfg.UsdcToken,
			HypeToken:  d.Cfg.HypeToken,
		}, v, guard, walletSvc, oracleBackend)
	}
	rawRouter := routerFor(d.Cfg.RawRouterModule, router.VariantRaw)
	structuredRouter := routerFor(d.Cfg.StructuredRouterModule, router.VariantStructured)
	hardenedRouter := routerFor(d.Cfg.HardenedRouterModule, router.VariantHardened)

	activationSvc := activation.NewService(activation.Config{
		ModuleID:          d.Cfg.ActivationModule,
		Admin:             d.Cfg.AdminAddress,
		Operator:          d.Cfg.OperatorAddress,
		HypeAsset:         d.Cfg.HypeAsset,
		UsdcAsset:         d.Cfg.UsdcAsset,
		HypeToken:         d.Cfg.HypeToken,
		UsdcToken:         d.Cfg.UsdcToken,
		ActivationHypeWei: d.Cfg.ActivationHypeWei,
		ActivationUsdcWei: d.Cfg.ActivationUsdcWei,
		ActivationSendWei: d.Cfg.ActivationSendWei,
		MinHypeWei:        d.Cfg.MinHypeWei,
		MinUsdcWei:        d.Cfg.MinUsdcWei,
		RelayFeeWei:       d.Cfg.RelayFeeWei,
	}, activationGate, clock, oracleBackend, bankBackend, relayBackend, registrySvc, emitter)

	flashLoanSvc := flashloan.NewService(flashloan.Config{
		ModuleID:   d.Cfg.FlashLoanModule,
		CoreWriter: d.Cfg.CoreWriter,
	}, guard, walletSvc, oracleBackend, bankBackend, book, relayBackend, loanLedger, emitter)

	authSvc := auth.NewService(d.Cfg)

	walletHandler := wallet.NewHandler(walletSvc)
	registryHandler := registry.NewHandler(registrySvc)
	activationHandler := activation.NewHandler(activationSvc)
	flashLoanHandler := flashloan.NewHandler(flashLoanSvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Protected routes
	callerAuth := middleware.CallerAuth(authSvc)
	protected := api.Group("", callerAuth)
	if d.Cache != nil {
		protected.Use(middleware.ActionRateLimit(d.Cache, 60))
	}
	RegisterWalletRoutes(protected, walletHandler, registryHandler)
	RegisterRouterRoutes(protected, rawRouter, structuredRouter, hardenedRouter)
	RegisterActivationRoutes(protected, activationHandler)
	RegisterFlashLoanRoutes(protected, flashLoanHandler)

	// Admin routes. Token issuance lives here: the administrator vends caller
	// tokens, so an anonymous request can never bind an address it does not
	// control.
	admin := api.Group("/admin", middleware.AdminAuth(d.Cfg.AdminTokenHash))
	RegisterAuthRoutes(admin, authSvc)
	RegisterAdminRoutes(admin, registryHandler, book, oracleBackend, bankBackend, activationHandler)

	return nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
