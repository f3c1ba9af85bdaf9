package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hyperwallet/hyperwallet/internal/chain"
)

const (
	defaultAppName        = "HyperWallet"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultBlockInterval  = time.Second
	defaultRelayStream    = "corewriter:actions"
	defaultTokenTTL       = time.Hour

	// Settlement-layer defaults; override per deployment.
	defaultHypeToken = 150
	defaultUsdcToken = 0

	defaultActivationHypeWei = 100_000_000      // 1 HYPE, 8 decimals
	defaultActivationUsdcWei = 2_000_000        // 2 USDC, 6 decimals
	defaultActivationSendWei = 100_000          // 0.1 USDC
	defaultMinHypeWei        = 10_000_000_000   // 100 HYPE
	defaultMinUsdcWei        = 100_000_000      // 100 USDC
	defaultRelayFeeWei       = 100_000          // per-send relay fee
)

// Config captures application runtime configuration loaded from environment
// variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	JWTSecret      string
	AccessTokenTTL time.Duration
	AdminTokenHash string // bcrypt hash of the administrator token

	BlockInterval time.Duration
	GenesisTime   time.Time
	RelayStream   string

	AdminAddress    chain.Address
	OperatorAddress chain.Address
	CoreWriter      chain.Address
	HypeAsset       chain.Address
	UsdcAsset       chain.Address
	HypeToken       uint64
	UsdcToken       uint64

	// Module identities used for enable/allowlist checks.
	RawRouterModule        chain.Address
	StructuredRouterModule chain.Address
	HardenedRouterModule   chain.Address
	ActivationModule       chain.Address
	FlashLoanModule        chain.Address

	ActivationHypeWei uint64
	ActivationUsdcWei uint64
	ActivationSendWei uint64
	MinHypeWei        uint64
	MinUsdcWei        uint64
	RelayFeeWei       uint64
}

// Load reads configuration values from the environment and populates a Config
// instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AccessTokenTTL: defaultTokenTTL,
		AdminTokenHash: os.Getenv("ADMIN_TOKEN_HASH"),
		BlockInterval:  defaultBlockInterval,
		GenesisTime:    time.Unix(0, 0).UTC(),
		RelayStream:    getEnv("RELAY_STREAM", defaultRelayStream),
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.AccessTokenTTL, err = durationEnv("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.BlockInterval, err = durationEnv("BLOCK_INTERVAL", cfg.BlockInterval); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("GENESIS_TIME"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid GENESIS_TIME: %w", err)
		}
		cfg.GenesisTime = t.UTC()
	}

	for _, addr := range []struct {
		env      string
		fallback string
		dst      *chain.Address
	}{
		{"ADMIN_ADDRESS", "0x0000000000000000000000000000000000000a01", &cfg.AdminAddress},
		{"OPERATOR_ADDRESS", "0x0000000000000000000000000000000000000a02", &cfg.OperatorAddress},
		{"CORE_WRITER_ADDRESS", "0x3333333333333333333333333333333333333333", &cfg.CoreWriter},
		{"HYPE_ASSET", "0x2222222222222222222222222222222222222222", &cfg.HypeAsset},
		{"USDC_ASSET", "0x1111111111111111111111111111111111111111", &cfg.UsdcAsset},
		{"RAW_ROUTER_MODULE", "0x0000000000000000000000000000000000000b01", &cfg.RawRouterModule},
		{"STRUCTURED_ROUTER_MODULE", "0x0000000000000000000000000000000000000b02", &cfg.StructuredRouterModule},
		{"HARDENED_ROUTER_MODULE", "0x0000000000000000000000000000000000000b03", &cfg.HardenedRouterModule},
		{"ACTIVATION_MODULE", "0x0000000000000000000000000000000000000b04", &cfg.ActivationModule},
		{"FLASH_LOAN_MODULE", "0x0000000000000000000000000000000000000b05", &cfg.FlashLoanModule},
	} {
		parsed, err := chain.ParseAddress(getEnv(addr.env, addr.fallback))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", addr.env, err)
		}
		*addr.dst = parsed
	}

	for _, amount := range []struct {
		env      string
		fallback uint64
		dst      *uint64
	}{
		{"HYPE_TOKEN", defaultHypeToken, &cfg.HypeToken},
		{"USDC_TOKEN", defaultUsdcToken, &cfg.UsdcToken},
		{"ACTIVATION_HYPE_WEI", defaultActivationHypeWei, &cfg.ActivationHypeWei},
		{"ACTIVATION_USDC_WEI", defaultActivationUsdcWei, &cfg.ActivationUsdcWei},
		{"ACTIVATION_SEND_WEI", defaultActivationSendWei, &cfg.ActivationSendWei},
		{"ACTIVATION_MIN_HYPE_WEI", defaultMinHypeWei, &cfg.MinHypeWei},
		{"ACTIVATION_MIN_USDC_WEI", defaultMinUsdcWei, &cfg.MinUsdcWei},
		{"RELAY_FEE_WEI", defaultRelayFeeWei, &cfg.RelayFeeWei},
	} {
		*amount.dst = amount.fallback
		if v := os.Getenv(amount.env); v != "" {
			parsed, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", amount.env, err)
			}
			*amount.dst = parsed
		}
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// Env returns the application environment name.
func (c Config) Env() string { return c.AppEnv }

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(key + "_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s_SECONDS: %w", key, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	}
	return fallback, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
