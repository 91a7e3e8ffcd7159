// Package config loads the server settings from defaults, an optional YAML file and
// command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is read from the working directory when -config is not given.
const DefaultFile = "kula.serve.yaml"

// Config contains everything the server needs at startup.
// It is built once by Load and never mutated afterwards.
type Config struct {
	Host string `yaml:"host"` // Interface to bind ("" = all interfaces)
	Port int    `yaml:"port"` // TCP port (default: 8081)
	Root string `yaml:"root"` // Document root (default: working directory)

	// Live reload
	Watch    bool          `yaml:"watch"`    // Enable /__livereload and the file watcher
	Debounce time.Duration `yaml:"debounce"` // Watcher debounce (default: 300ms)

	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"` // Graceful shutdown budget (default: 5s)
	LogLevel        string        `yaml:"logLevel"`        // debug, info, warn, error (default: info)

	// Extra extension -> content type entries added to the MIME table at startup
	MimeTypes map[string]string `yaml:"mimeTypes"`
}

// Default returns the built-in configuration.
func Default() *Config {
	root, err := os.Getwd()
	if err != nil {
		root = "."
	}
	return &Config{
		Host:            "",
		Port:            8081,
		Root:            root,
		Watch:           false,
		Debounce:        300 * time.Millisecond,
		ShutdownTimeout: 5 * time.Second,
		LogLevel:        "info",
	}
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load builds the configuration from defaults, the YAML file and args.
// flag.ErrHelp is returned unchanged when -h is passed.
func Load(args []string) (*Config, error) {
	return load(args, os.Stderr)
}

func load(args []string, output io.Writer) (*Config, error) {
	fs := flag.NewFlagSet("kula-serve", flag.ContinueOnError)
	fs.SetOutput(output)
	configPath := fs.String("config", "", "Path to a YAML config file (default: ./"+DefaultFile+")")
	host := fs.String("host", "", "The host/IP to bind to (default: all interfaces)")
	port := fs.Int("port", 8081, "The port to listen on")
	root := fs.String("root", "", "Directory to serve (default: current directory)")
	watch := fs.Bool("watch", false, "Watch the root and push reload events on /__livereload")
	debounce := fs.Duration("debounce", 300*time.Millisecond, "Watcher debounce window")
	logLevel := fs.String("log-level", "info", "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := Default()

	path := *configPath
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	// Flags override the file only when actually passed
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = *host
		case "port":
			cfg.Port = *port
		case "root":
			cfg.Root = *root
		case "watch":
			cfg.Watch = *watch
		case "debounce":
			cfg.Debounce = *debounce
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	abs, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("invalid root %q: %w", cfg.Root, err)
	}
	cfg.Root = abs

	cfg.validate()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// validate ensures configuration values are within reasonable bounds
func (c *Config) validate() {
	if c.Port < 0 || c.Port > 65535 {
		c.Port = 8081
	}

	if c.Debounce < 50*time.Millisecond {
		c.Debounce = 50 * time.Millisecond
	}
	if c.Debounce > 10*time.Second {
		c.Debounce = 10 * time.Second
	}

	if c.ShutdownTimeout < time.Second {
		c.ShutdownTimeout = time.Second
	}
	if c.ShutdownTimeout > time.Minute {
		c.ShutdownTimeout = time.Minute
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = "info"
	}

	// Extensions are stored with a leading dot
	if len(c.MimeTypes) > 0 {
		normalized := make(map[string]string, len(c.MimeTypes))
		for ext, ctype := range c.MimeTypes {
			if ext == "" || ctype == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			normalized[ext] = ctype
		}
		c.MimeTypes = normalized
	}
}
