package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadLoginMergesOverTheDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "loginserver.toml")
	toml := `
[db]
db_server = "db.internal"
db_database = "prod"

[auth]
max_login_attempts = 5
`
	if err := os.WriteFile(path, []byte(toml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadLogin(path)
	if err != nil {
		t.Fatalf("LoadLogin: %v", err)
	}
	if cfg.DB.Server != "db.internal" || cfg.DB.Database != "prod" {
		t.Fatalf("overridden db fields = %+v, want db.internal/prod", cfg.DB)
	}
	if cfg.Auth.MaxLoginAttempts != 5 {
		t.Fatalf("Auth.MaxLoginAttempts = %d, want 5", cfg.Auth.MaxLoginAttempts)
	}
	if cfg.Listen.AuthPort != 54231 {
		t.Fatalf("Listen.AuthPort = %d, want the default 54231 to survive an unrelated override", cfg.Listen.AuthPort)
	}
	if cfg.Auth.MaxClientConnections != 10 {
		t.Fatalf("Auth.MaxClientConnections = %d, want the default 10 to survive", cfg.Auth.MaxClientConnections)
	}
}

func TestLoadLoginMissingFile(t *testing.T) {
	if _, err := LoadLogin(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected an error for a missing config file")
	}
}

func TestLoadWorldDefaultsApplyWithPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "worldagent.toml")
	if err := os.WriteFile(path, []byte("[world]\nworld_id = 2\nworld_name = \"bastok\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadWorld(path)
	if err != nil {
		t.Fatalf("LoadWorld: %v", err)
	}
	if cfg.World.WorldID != 2 || cfg.World.WorldName != "bastok" {
		t.Fatalf("World = %+v, want {2 bastok}", cfg.World)
	}
	if cfg.MQ.ReservationTTL.String() != "2m0s" {
		t.Fatalf("MQ.ReservationTTL = %v, want the default 2m0s to survive", cfg.MQ.ReservationTTL)
	}
}

func TestDBConfigDSN(t *testing.T) {
	d := DBConfig{Username: "u", Password: "p", Server: "h", Port: 5432, Database: "d"}
	want := "postgres://u:p@h:5432/d?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Fatalf("DSN() = %q, want %q", got, want)
	}
}

func TestMQConfigURLSwitchesSchemeOnSSL(t *testing.T) {
	m := MQConfig{Username: "u", Password: "p", Server: "h", Port: 5672, VHost: "/"}
	if got := m.URL(); got != "amqp://u:p@h:5672//" {
		t.Fatalf("URL() without SSL = %q", got)
	}
	m.SSL = true
	if got := m.URL(); got != "amqps://u:p@h:5672//" {
		t.Fatalf("URL() with SSL = %q, want amqps scheme", got)
	}
}
