package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Recognized backend providers. Anything else fails session creation with a
// configuration error.
const (
	ProviderExa    = "exa"
	ProviderYouCom = "youcom"
)

// Config captures all tunable settings for the intelligent-search MCP server.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Backend BackendConfig `yaml:"backend"`
	LLM     LLMConfig     `yaml:"llm"`
	MCP     MCPConfig     `yaml:"mcp"`
}

type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	LogFile string `yaml:"log_file"`
	// Directory for rotating tool-call trace files. Empty disables tracing.
	TraceDir string `yaml:"trace_dir"`
}

// BackendConfig selects and tunes the search backend each session talks to.
type BackendConfig struct {
	// Provider is the search backend: "exa" or "youcom".
	Provider string `yaml:"provider"`
	// Source is the default content source passed to the backend (e.g. "web").
	Source string `yaml:"source"`
	// APIKeyEnv names the environment variable holding the backend API key.
	// Keys are never read from config files.
	APIKeyEnv string `yaml:"api_key_env"`
	// BaseURL overrides the provider endpoint (test fixtures, proxies).
	BaseURL string `yaml:"base_url"`
	// RequestTimeout bounds each backend HTTP call (e.g. "30s").
	RequestTimeout string `yaml:"request_timeout"`
	// Renderer selects how page content is fetched: "http" (default) or
	// "chrome" for Rod-rendered pages.
	Renderer string       `yaml:"renderer"`
	Chrome   ChromeConfig `yaml:"chrome"`
}

// ChromeConfig configures the optional Rod renderer, used when
// backend.renderer is "chrome".
type ChromeConfig struct {
	// Control endpoint (e.g. ws://localhost:9222). Required when launch is empty.
	DebuggerURL string `yaml:"debugger_url"`
	// Optional launch command to start Chrome (binary followed by flags).
	Launch []string `yaml:"launch"`
	// Headless controls whether Chrome runs headless (default: true).
	Headless *bool `yaml:"headless"`
	// Navigation timeout per page load (e.g. "15s").
	NavigationTimeout string `yaml:"navigation_timeout"`
}

type LLMConfig struct {
	// DefaultModel used when setup_llm omits a model.
	DefaultModel string `yaml:"default_model"`
}

type MCPConfig struct {
	// When set, starts an SSE server on this port instead of stdio-only.
	SSEPort int `yaml:"sse_port"`
}

// DefaultConfig provides reasonable defaults for local development.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Name:     "intelligent-search-mcp",
			Version:  "0.1.0",
			LogFile:  "intelligent-search-mcp.log",
			TraceDir: "",
		},
		Backend: BackendConfig{
			Provider:       ProviderExa,
			Source:         "web",
			APIKeyEnv:      "",
			RequestTimeout: "30s",
			Renderer:       "http",
			Chrome: ChromeConfig{
				NavigationTimeout: "15s",
			},
		},
		LLM: LLMConfig{
			DefaultModel: "gpt-4",
		},
		MCP: MCPConfig{
			SSEPort: 0,
		},
	}
}

// Load reads YAML config from disk and overlays defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, errors.New("config path is required")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// Validate ensures required fields exist so the server can start deterministically.
func (c *Config) Validate() error {
	if c.Server.Name == "" {
		return errors.New("server.name is required")
	}
	if c.Backend.Renderer != "" && c.Backend.Renderer != "http" && c.Backend.Renderer != "chrome" {
		return fmt.Errorf("backend.renderer must be http or chrome, got %q", c.Backend.Renderer)
	}
	if c.Backend.Renderer == "chrome" {
		if c.Backend.Chrome.DebuggerURL == "" && len(c.Backend.Chrome.Launch) == 0 {
			return errors.New("backend.chrome.debugger_url or backend.chrome.launch must be provided")
		}
	}
	return nil
}

// APIKey resolves the backend API key from the environment. When api_key_env
// is unset, the provider's conventional variable is consulted. Keys never
// live in config files or source.
func (b BackendConfig) APIKey() string {
	if b.APIKeyEnv != "" {
		return os.Getenv(b.APIKeyEnv)
	}
	switch b.Provider {
	case ProviderExa:
		return os.Getenv("EXA_API_KEY")
	case ProviderYouCom:
		return os.Getenv("YDC_API_KEY")
	}
	return ""
}

// Timeout returns the parsed backend request timeout with a sane default.
func (b BackendConfig) Timeout() time.Duration {
	if b.RequestTimeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(b.RequestTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// DefaultSource returns the configured content source, defaulting to "web".
func (b BackendConfig) DefaultSource() string {
	if b.Source == "" {
		return "web"
	}
	return b.Source
}

// GetNavigationTimeout returns the parsed Chrome navigation timeout with a sane default.
func (c ChromeConfig) GetNavigationTimeout() time.Duration {
	if c.NavigationTimeout == "" {
		return 15 * time.Second
	}
	d, err := time.ParseDuration(c.NavigationTimeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// IsHeadless returns whether Chrome should run in headless mode (default: true).
func (c ChromeConfig) IsHeadless() bool {
	if c.Headless == nil {
		return true
	}
	return *c.Headless
}

// Model returns the default LLM model name, defaulting to gpt-4.
func (l LLMConfig) Model() string {
	if l.DefaultModel == "" {
		return "gpt-4"
	}
	return l.DefaultModel
}
