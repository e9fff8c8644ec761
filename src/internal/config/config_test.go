package config

import "testing"

func TestNormalizeConnectionString(t *testing.T) {
	raw := "Host=db.internal;Port=5433;Database=recon;Username=svc;Password=secret;Timeout=15;CommandTimeout=45"
	got := normalizeConnectionString(raw)
	want := "host=db.internal port=5433 dbname=recon user=svc password=secret connect_timeout=15 statement_timeout=45s sslmode=disable"

	if got != want {
		t.Fatalf("normalizeConnectionString mismatch:\n got  %q\n want %q", got, want)
	}
}

func TestNormalizeConnectionStringKeepsExplicitSSLMode(t *testing.T) {
	got := normalizeConnectionString("Host=db;Database=recon;SslMode=require")
	want := "host=db dbname=recon sslmode=require"

	if got != want {
		t.Fatalf("normalizeConnectionString mismatch:\n got  %q\n want %q", got, want)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.MatchAcceptanceFloor != 70 || cfg.MatchCloseThreshold != 75 || cfg.MatchExactThreshold != 90 {
		t.Fatalf("unexpected default thresholds: %d/%d/%d",
			cfg.MatchAcceptanceFloor, cfg.MatchCloseThreshold, cfg.MatchExactThreshold)
	}
	if !cfg.AmountTolerance.Equal(cfg.AmountTolerance.Truncate(2)) {
		t.Fatalf("amount tolerance should be a two-decimal value, got %s", cfg.AmountTolerance)
	}
}

func TestIntEnvRejectsOutOfRange(t *testing.T) {
	t.Setenv("MATCH_ACCEPTANCE_FLOOR", "250")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.MatchAcceptanceFloor != 70 {
		t.Fatalf("out-of-range floor should fall back to default, got %d", cfg.MatchAcceptanceFloor)
	}
}
