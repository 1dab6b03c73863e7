package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadEnv reads a .env file and returns a map of key-value pairs.
// It ignores comments (starting with #) and empty lines.
func LoadEnv(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	env := make(map[string]string)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove inline comments
		if idx := strings.Index(value, " #"); idx != -1 {
			value = strings.TrimSpace(value[:idx])
		}

		// Remove quotes if present
		if len(value) >= 2 && ((value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'')) {
			value = value[1 : len(value)-1]
		}

		env[key] = value
	}

	return env, scanner.Err()
}

// ApplyEnvOverrides updates the configuration based on environment variables.
func ApplyEnvOverrides(cfg *Config, env map[string]string) {
	if val, ok := env["SERVER_PORT"]; ok {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = port
		}
	}

	if val, ok := env["MAX_ROUNDS"]; ok {
		if rounds, err := strconv.Atoi(val); err == nil && rounds > 0 {
			cfg.Defaults.MaxRounds = rounds
		}
	}
	if val, ok := env["BUDGET"]; ok {
		if budget, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Defaults.Budget = budget
		}
	}
	if val, ok := env["PAYER"]; ok {
		cfg.Defaults.Payer = val
	}

	if val, ok := env["PLATFORM_FEE_PCT"]; ok {
		if pct, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Pricing.PlatformFeePct = pct
		}
	}

	// Shared timeout override for all agent commands
	if val, ok := env["AGENT_TIMEOUT"]; ok {
		var timeout time.Duration
		if seconds, err := strconv.Atoi(val); err == nil {
			timeout = time.Duration(seconds) * time.Second
		} else if duration, err := time.ParseDuration(val); err == nil {
			timeout = duration
		}
		if timeout > 0 {
			for name, agentCfg := range cfg.Agents {
				agentCfg.Timeout = timeout
				cfg.Agents[name] = agentCfg
			}
		}
	}
}
