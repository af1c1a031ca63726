package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("SCHEMAFORGE_JWT_SECRET", "env-secret")

	cfg, errLoad := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if errLoad != nil {
		t.Fatalf("expected defaults, got error: %v", errLoad)
	}
	if cfg.Server.Port != 3001 {
		t.Fatalf("expected default port 3001, got %d", cfg.Server.Port)
	}
	if cfg.Database.DSN != "data/schemaforge.db" {
		t.Fatalf("unexpected default dsn: %s", cfg.Database.DSN)
	}
	if cfg.JWT.Secret != "env-secret" {
		t.Fatalf("expected env secret applied, got %q", cfg.JWT.Secret)
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("SCHEMAFORGE_JWT_SECRET", "")

	if _, errLoad := Load(filepath.Join(t.TempDir(), "absent.yaml")); errLoad == nil {
		t.Fatal("expected error for missing jwt secret")
	}
}

func TestLoadParsesFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("server:\n  port: 8080\njwt:\n  secret: file-secret\n  expiry-hours: 2\n")
	if errWrite := os.WriteFile(path, content, 0o600); errWrite != nil {
		t.Fatalf("write config: %v", errWrite)
	}
	t.Setenv("SCHEMAFORGE_DSN", "postgres://u:p@localhost/db")

	cfg, errLoad := Load(path)
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.JWT.Secret != "file-secret" {
		t.Fatalf("unexpected secret: %q", cfg.JWT.Secret)
	}
	if cfg.JWT.Expiry().Hours() != 2 {
		t.Fatalf("unexpected expiry: %v", cfg.JWT.Expiry())
	}
	if cfg.Database.DSN != "postgres://u:p@localhost/db" {
		t.Fatalf("expected env dsn override, got %s", cfg.Database.DSN)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if errWrite := os.WriteFile(path, []byte("server: [broken"), 0o600); errWrite != nil {
		t.Fatalf("write config: %v", errWrite)
	}
	t.Setenv("SCHEMAFORGE_JWT_SECRET", "env-secret")

	if _, errLoad := Load(path); errLoad == nil {
		t.Fatal("expected parse error")
	}
}
