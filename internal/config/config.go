// Package config handles application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/redwing-381/ethglb-p1-sub001/internal/agent"
	"github.com/redwing-381/ethglb-p1-sub001/internal/core"
	"github.com/redwing-381/ethglb-p1-sub001/internal/pricing"
)

// Config represents the application configuration.
type Config struct {
	Defaults DefaultsConfig         `yaml:"defaults"`
	Pricing  PricingConfig          `yaml:"pricing"`
	Agents   map[string]AgentConfig `yaml:"agents"`
	Server   ServerConfig           `yaml:"server,omitempty"`
}

// DefaultsConfig holds default run settings.
type DefaultsConfig struct {
	MaxRounds int     `yaml:"max_rounds"`
	Budget    float64 `yaml:"budget"`
	Payer     string  `yaml:"payer"`
}

// PricingConfig holds the pricing table.
type PricingConfig struct {
	PlatformFeePct float64            `yaml:"platform_fee_pct"`
	Roles          map[string]float64 `yaml:"roles"`
}

// AgentConfig holds the CLI command backing one role's agent.
type AgentConfig struct {
	Command string        `yaml:"command"`
	Args    []string      `yaml:"args,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// ServerConfig holds server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns the default configuration.
func Default() *Config {
	table := pricing.DefaultTable()

	roles := make(map[string]float64, len(table.RoleCosts))
	for role, cost := range table.RoleCosts {
		roles[string(role)] = cost
	}

	agents := make(map[string]AgentConfig, len(core.AllRoles))
	for _, role := range core.AllRoles {
		agents[string(role)] = AgentConfig{
			Command: "claude",
			Args:    []string{"--print"},
			Timeout: 5 * time.Minute,
		}
	}

	return &Config{
		Defaults: DefaultsConfig{
			MaxRounds: 3,
			Budget:    1.0,
			Payer:     "user",
		},
		Pricing: PricingConfig{
			PlatformFeePct: table.PlatformFeePct,
			Roles:          roles,
		},
		Agents: agents,
		Server: ServerConfig{
			Port: 8183,
		},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from a specific path, merging with
// defaults for anything the file omits.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file, proceed with defaults
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Merge with defaults for any missing roles
	defaultCfg := Default()
	for role, defaultAgent := range defaultCfg.Agents {
		if _, exists := cfg.Agents[role]; !exists {
			cfg.Agents[role] = defaultAgent
		}
	}
	for role, defaultCost := range defaultCfg.Pricing.Roles {
		if _, exists := cfg.Pricing.Roles[role]; !exists {
			cfg.Pricing.Roles[role] = defaultCost
		}
	}

	// Apply .env overrides if file exists
	if env, err := LoadEnv(".env"); err == nil {
		ApplyEnvOverrides(cfg, env)
	}

	return cfg, nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo saves the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// PricingTable converts the pricing section into an immutable table.
func (c *Config) PricingTable() (pricing.Table, error) {
	table := pricing.Table{
		RoleCosts:      make(map[core.Role]float64, len(c.Pricing.Roles)),
		PlatformFeePct: c.Pricing.PlatformFeePct,
	}

	for name, cost := range c.Pricing.Roles {
		role := core.Role(name)
		if !role.Valid() {
			return pricing.Table{}, fmt.Errorf("unknown role in pricing config: %s", name)
		}
		table.RoleCosts[role] = cost
	}

	if err := table.Validate(); err != nil {
		return pricing.Table{}, err
	}
	return table, nil
}

// CreateInvoker builds the agent invoker from the agents section. A
// command of "mock" selects the offline invoker for every role.
func (c *Config) CreateInvoker() (agent.Invoker, error) {
	commands := make(map[core.Role]agent.Command, len(c.Agents))

	for name, agentCfg := range c.Agents {
		role := core.Role(name)
		if !role.Valid() {
			return nil, fmt.Errorf("unknown role in agents config: %s", name)
		}
		if agentCfg.Command == "mock" {
			return agent.NewOfflineInvoker(), nil
		}
		commands[role] = agent.Command{
			Command: agentCfg.Command,
			Args:    agentCfg.Args,
			Timeout: agentCfg.Timeout,
		}
	}

	for _, role := range core.AllRoles {
		if _, ok := commands[role]; !ok {
			return nil, fmt.Errorf("no agent configured for role: %s", role)
		}
	}

	return agent.NewCLIInvoker(commands), nil
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "agora.yaml"
	}
	return filepath.Join(home, ".agora", "config.yaml")
}
