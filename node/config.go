package node

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Network       string `json:"network"`
	DataDir       string `json:"data_dir"`
	LogLevel      string `json:"log_level"`
	Confirmations int    `json:"confirmations"`
}

const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
	NetworkRegtest = "regtest"

	maxConfirmations = 1000
)

var allowedNetworks = map[string]struct{}{
	NetworkMainnet: {},
	NetworkTestnet: {},
	NetworkRegtest: {},
}

var allowedLogLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Environment variables read by ConfigFromEnv.
const (
	EnvDataDir       = "SPV_DATADIR"
	EnvNetwork       = "SPV_NETWORK"
	EnvLogLevel      = "SPV_LOG_LEVEL"
	EnvConfirmations = "SPV_CONFIRMATIONS"
)

func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".btcspv"
	}
	return filepath.Join(home, ".btcspv")
}

func DefaultConfig() Config {
	return Config{
		Network:       NetworkMainnet,
		DataDir:       DefaultDataDir(),
		LogLevel:      "info",
		Confirmations: 6,
	}
}

func ValidateConfig(cfg Config) error {
	network := strings.TrimSpace(cfg.Network)
	if network == "" {
		return errors.New("network is required")
	}
	if _, ok := allowedNetworks[network]; !ok {
		return fmt.Errorf("invalid network %q", cfg.Network)
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return errors.New("data_dir is required")
	}
	logLevel := strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if _, ok := allowedLogLevels[logLevel]; !ok {
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	if cfg.Confirmations <= 0 {
		return errors.New("confirmations must be > 0")
	}
	if cfg.Confirmations > maxConfirmations {
		return fmt.Errorf("confirmations must be <= %d", maxConfirmations)
	}
	return nil
}

// ConfigFromEnv overlays SPV_* settings onto base. Values come from the
// process environment first, then from the given dotenv files (".env" when
// none are named). Missing dotenv files are ignored.
func ConfigFromEnv(base Config, envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	fileVals := map[string]string{}
	for _, path := range envFiles {
		vals, err := godotenv.Read(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return base, fmt.Errorf("read %s: %w", path, err)
		}
		for k, v := range vals {
			if _, ok := fileVals[k]; !ok {
				fileVals[k] = v
			}
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVals[key]
		return v, ok
	}

	cfg := base
	if v, ok := lookup(EnvDataDir); ok && v != "" {
		cfg.DataDir = v
	}
	if v, ok := lookup(EnvNetwork); ok && v != "" {
		cfg.Network = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup(EnvConfirmations); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return base, fmt.Errorf("%s: %w", EnvConfirmations, err)
		}
		cfg.Confirmations = n
	}
	return cfg, nil
}

// NewLogger returns a text logger writing to w at the named level. Unknown
// levels fall back to info.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl, ok := allowedLogLevels[strings.ToLower(strings.TrimSpace(level))]
	if !ok {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
