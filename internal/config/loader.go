package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding the config path.
const EnvConfigPath = "MCP_CONFIG_PATH"

// DefaultFileName is the config file looked up next to the executable.
const DefaultFileName = "mcp_config.json"

// executablePath is swapped in tests.
var executablePath = os.Executable

var reEnvRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// DefaultPath returns mcp_config.json in the directory of the running binary.
func DefaultPath() string {
	exe, err := executablePath()
	if err != nil {
		return DefaultFileName
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), DefaultFileName)
}

// ResolvePath picks the config file: override (the --config flag) first,
// then $MCP_CONFIG_PATH, then DefaultPath. fellBack is true only in the
// last case so the caller can warn about it.
func ResolvePath(override string) (path string, fellBack bool) {
	if override != "" {
		return override, false
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, false
	}
	return DefaultPath(), true
}

// Load reads and parses the config file at path.
// Unlike a best-effort loader, every failure is returned: a missing or
// malformed file never degrades to a default configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.expandEnv()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, nil
}

// Save writes cfg to path as indented JSON.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// expandEnv replaces ${VAR} references in the decoded string fields that
// reach a subprocess or the model endpoint. Bare $VAR is left alone so
// shell snippets in args survive.
func (c *Config) expandEnv() {
	for i := range c.Servers {
		sc := &c.Servers[i]
		sc.Command = expandString(sc.Command)
		for j, a := range sc.Args {
			sc.Args[j] = expandString(a)
		}
		for k, v := range sc.Env {
			sc.Env[k] = expandString(v)
		}
	}
	c.Model.APIKey = expandString(c.Model.APIKey)
	c.Model.APIBase = expandString(c.Model.APIBase)
}

func expandString(s string) string {
	return reEnvRef.ReplaceAllStringFunc(s, func(m string) string {
		return os.Getenv(reEnvRef.FindStringSubmatch(m)[1])
	})
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
