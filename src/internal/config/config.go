package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const defaultConnectionString = "Host=localhost;Port=5432;Database=recon_ledger_db;Username=postgres;Password=postgres;Timeout=30;CommandTimeout=30"
const defaultChannelID = "ReconApp"
const defaultChannelKey = "ReconKey001"
const defaultListenAddr = ":8080"

// Matching thresholds. The original system scattered these across call
// sites; they live here so every code path shares one set of defaults.
const (
	defaultAcceptanceFloor = 70
	defaultCloseThreshold  = 75
	defaultExactThreshold  = 90
)

type Config struct {
	DatabaseDSN   string
	MigrationsDir string
	ChannelID     string
	ChannelKey    string
	ListenAddr    string

	// MatchAcceptanceFloor is exclusive: candidates at or below it are
	// omitted from proposals (still visible through the debug path).
	MatchAcceptanceFloor int
	MatchCloseThreshold  int
	MatchExactThreshold  int

	// AmountTolerance is the cross-system ε. Entry-level balance checks use
	// exact equality, never this.
	AmountTolerance decimal.Decimal
}

func Load() (Config, error) {
	conn := strings.TrimSpace(os.Getenv("DATABASE_DSN"))
	if conn == "" {
		conn = defaultConnectionString
	}

	channelID := strings.TrimSpace(os.Getenv("CHANNEL_ID"))
	if channelID == "" {
		channelID = defaultChannelID
	}

	channelKey := strings.TrimSpace(os.Getenv("CHANNEL_KEY"))
	if channelKey == "" {
		channelKey = defaultChannelKey
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = defaultListenAddr
	}

	return Config{
		DatabaseDSN:          normalizeConnectionString(conn),
		MigrationsDir:        filepath.Join("src", "migrations"),
		ChannelID:            channelID,
		ChannelKey:           channelKey,
		ListenAddr:           listenAddr,
		MatchAcceptanceFloor: intEnv("MATCH_ACCEPTANCE_FLOOR", defaultAcceptanceFloor),
		MatchCloseThreshold:  intEnv("MATCH_CLOSE_THRESHOLD", defaultCloseThreshold),
		MatchExactThreshold:  intEnv("MATCH_EXACT_THRESHOLD", defaultExactThreshold),
		AmountTolerance:      decimal.New(1, -2),
	}, nil
}

func intEnv(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 || value > 100 {
		return fallback
	}
	return value
}

func normalizeConnectionString(raw string) string {
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	hasSSLMode := false

	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}

		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])

		switch key {
		case "host":
			out = append(out, "host="+val)
		case "port":
			out = append(out, "port="+val)
		case "database":
			out = append(out, "dbname="+val)
		case "username":
			out = append(out, "user="+val)
		case "password":
			out = append(out, "password="+val)
		case "timeout", "connect timeout":
			out = append(out, "connect_timeout="+val)
		case "commandtimeout", "command timeout":
			out = append(out, "statement_timeout="+val+"s")
		case "sslmode":
			hasSSLMode = true
			out = append(out, "sslmode="+val)
		default:
			out = append(out, key+"="+val)
		}
	}

	if len(out) == 0 {
		return raw
	}

	if !hasSSLMode {
		out = append(out, "sslmode=disable")
	}

	return strings.Join(out, " ")
}
