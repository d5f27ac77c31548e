// Package config loads TOML configuration for the login server and the
// world-side agent, following the same Load/defaults pattern used across
// this codebase's predecessor.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// LoginConfig is the configuration for cmd/loginserver.
type LoginConfig struct {
	DB      DBConfig      `toml:"db"`
	Listen  ListenConfig  `toml:"listen"`
	Auth    AuthConfig    `toml:"auth"`
	Redis   RedisConfig   `toml:"redis"`
	Logging LoggingConfig `toml:"logging"`
}

// WorldConfig is the configuration for cmd/worldagent.
type WorldConfig struct {
	DB      DBConfig      `toml:"db"`
	MQ      MQConfig      `toml:"mq"`
	World   WorldSelf     `toml:"world"`
	Logging LoggingConfig `toml:"logging"`
}

type DBConfig struct {
	Server          string        `toml:"db_server"`
	Port            int           `toml:"db_port"`
	Database        string        `toml:"db_database"`
	Username        string        `toml:"db_username"`
	Password        string        `toml:"db_password"`
	Prefix          string        `toml:"db_prefix"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

func (d DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.Username, d.Password, d.Server, d.Port, d.Database)
}

type ListenConfig struct {
	LoginIP  string `toml:"login_ip"`
	AuthPort int    `toml:"auth_port"`
	DataPort int    `toml:"data_port"`
	ViewPort int    `toml:"view_port"`
}

type AuthConfig struct {
	PasswordHashSecret    string `toml:"password_hash_secret"`
	NewAccountContentIDs  int    `toml:"new_account_content_ids"`
	MaxLoginAttempts      int    `toml:"max_login_attempts"`
	MaxClientConnections  int    `toml:"max_client_connections"`
	SessionTimeoutSeconds int    `toml:"session_timeout"`
	ExpectedClientVersion string `toml:"expected_client_version"`
	VersionLock           int    `toml:"version_lock"` // 0 disabled, 1 exact, 2 minimum
	AutoCreateAccounts     bool  `toml:"auto_create_accounts"`
}

func (a AuthConfig) SessionTimeout() time.Duration {
	return time.Duration(a.SessionTimeoutSeconds) * time.Second
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type MQConfig struct {
	Server          string        `toml:"mq_server"`
	Port            int           `toml:"mq_port"`
	SSL             bool          `toml:"mq_ssl"`
	SSLVerify       bool          `toml:"mq_ssl_verify"`
	SSLCAFile       string        `toml:"mq_ssl_ca_file"`
	SSLClientCert   string        `toml:"mq_ssl_client_cert"`
	SSLClientKey    string        `toml:"mq_ssl_client_key"`
	Username        string        `toml:"mq_username"`
	Password        string        `toml:"mq_password"`
	VHost           string        `toml:"mq_vhost"`
	Exchange        string        `toml:"mq_exchange"`
	RouteKey        string        `toml:"mq_route_key"`
	ReservationTTL  time.Duration `toml:"reservation_timeout"`
}

func (m MQConfig) URL() string {
	scheme := "amqp"
	if m.SSL {
		scheme = "amqps"
	}
	return fmt.Sprintf("%s://%s:%s@%s:%d/%s", scheme, m.Username, m.Password, m.Server, m.Port, m.VHost)
}

type WorldSelf struct {
	WorldID   uint32 `toml:"world_id"`
	WorldName string `toml:"world_name"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func LoadLogin(path string) (*LoginConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := loginDefaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func LoadWorld(path string) (*WorldConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := worldDefaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func loginDefaults() *LoginConfig {
	return &LoginConfig{
		DB: DBConfig{
			Server:          "localhost",
			Port:            5432,
			Database:        "ixfflogin",
			Username:        "ixfflogin",
			Password:        "ixfflogin",
			Prefix:          "",
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Listen: ListenConfig{
			LoginIP:  "0.0.0.0",
			AuthPort: 54231,
			DataPort: 54230,
			ViewPort: 54229,
		},
		Auth: AuthConfig{
			NewAccountContentIDs:   4,
			MaxLoginAttempts:       3,
			MaxClientConnections:   10,
			SessionTimeoutSeconds:  30,
			ExpectedClientVersion:  "30200101_0",
			VersionLock:            0,
			AutoCreateAccounts:     false,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			DB:   0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func worldDefaults() *WorldConfig {
	return &WorldConfig{
		DB: DBConfig{
			Server:          "localhost",
			Port:            5432,
			Database:        "ixfflogin",
			Username:        "ixfflogin",
			Password:        "ixfflogin",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
		},
		MQ: MQConfig{
			Server:         "localhost",
			Port:           5672,
			Username:       "guest",
			Password:       "guest",
			VHost:          "/",
			ReservationTTL: 2 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
