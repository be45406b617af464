package bankoffice

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvDBConnStr overrides database.conn_str when set.
const EnvDBConnStr = "BANKOFFICE_DB_CONN_STR"

type Config struct {
	NodeID   int64          `yaml:"node_id"`
	Database DatabaseConfig `yaml:"database"`
	Server   struct {
		Addr         string        `yaml:"addr"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"server"`
	Limits  LimitsConfig  `yaml:"limits"`
	Breaker BreakerConfig `yaml:"breaker"`
	Loans   struct {
		StrictTransitions bool `yaml:"strict_transitions"`
	} `yaml:"loans"`
	Seed SeedConfig `yaml:"seed"`
}

type DatabaseConfig struct {
	ConnectionString string `yaml:"conn_str"`
	MaxConns         int32  `yaml:"max_conns"`
	// LockTimeout bounds how long a statement waits for a row lock.
	LockTimeout time.Duration `yaml:"lock_timeout"`
}

type LimitsConfig struct {
	// Commands is the number of in-flight balance-affecting commands allowed per operation.
	Commands       int64         `yaml:"commands"`
	AcquireTimeout time.Duration `yaml:"acquire_timeout"`
}

type BreakerConfig struct {
	MaxRequests      uint32        `yaml:"max_requests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold uint32        `yaml:"failure_threshold"`
}

type SeedConfig struct {
	Customers []SeedCustomer `yaml:"customers"`
}

type SeedCustomer struct {
	ID       int64         `yaml:"id"`
	Name     string        `yaml:"name"`
	Email    string        `yaml:"email"`
	Accounts []SeedAccount `yaml:"accounts"`
}

type SeedAccount struct {
	Number   string `yaml:"number"`
	Type     string `yaml:"type"`
	Currency string `yaml:"currency"`
	Balance  string `yaml:"balance"`
}

// DefaultConfig returns the configuration used for any key the config file leaves out.
func DefaultConfig() Config {
	var cfg Config
	cfg.NodeID = 1
	cfg.Database.MaxConns = 10
	cfg.Database.LockTimeout = 5 * time.Second
	cfg.Server.Addr = ":3000"
	cfg.Server.ReadTimeout = 10 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Limits = LimitsConfig{
		Commands:       64,
		AcquireTimeout: 2 * time.Second,
	}
	cfg.Breaker = BreakerConfig{
		MaxRequests:      5,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
	return cfg
}

// LoadConfig reads the yaml file at path on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	fl, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer fl.Close()

	if err = yaml.NewDecoder(fl).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cs := os.Getenv(EnvDBConnStr); cs != "" {
		cfg.Database.ConnectionString = cs
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Database.ConnectionString == "" {
		return errors.New("database.conn_str is not set")
	}
	if c.Database.MaxConns <= 0 {
		return errors.New("database.max_conns must be positive")
	}
	if c.NodeID < 0 || c.NodeID > 1023 {
		return fmt.Errorf("node_id %d out of range [0, 1023]", c.NodeID)
	}
	if c.Limits.Commands <= 0 {
		return errors.New("limits.commands must be positive")
	}
	if c.Breaker.FailureThreshold == 0 {
		return errors.New("breaker.failure_threshold must be positive")
	}
	return nil
}
