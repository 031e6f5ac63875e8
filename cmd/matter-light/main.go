package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"matter-go-light/internal/attr"
	"matter-go-light/internal/console"
	"matter-go-light/internal/driver"
	"matter-go-light/internal/light"
	"matter-go-light/internal/light/pwm"
	"matter-go-light/internal/light/uart"
	"matter-go-light/internal/store"
	"matter-go-light/internal/web"
	"matter-go-light/internal/zcl"
	"matter-go-light/internal/zcl/clusters"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

type Config struct {
	NodeFile      string `yaml:"node_file"`
	LightEndpoint uint16 `yaml:"light_endpoint"`

	Store struct {
		Path string `yaml:"path"`
	} `yaml:"store"`
	Light struct {
		Type string      `yaml:"type"` // sim, pwm, uart, mqtt, script
		PWM  pwm.Config  `yaml:"pwm"`
		UART uart.Config `yaml:"uart"`
		MQTT struct {
			Broker   string        `yaml:"broker"`
			Username string        `yaml:"username"`
			Password string        `yaml:"password"`
			Topic    string        `yaml:"topic"`
			ClientID string        `yaml:"client_id"`
			Timeout  time.Duration `yaml:"timeout"`
		} `yaml:"mqtt"`
		Script struct {
			Path    string        `yaml:"path"`
			Timeout time.Duration `yaml:"timeout"`
		} `yaml:"script"`
	} `yaml:"light"`
	Console console.Config `yaml:"console"`
	Web     struct {
		Listen         string   `yaml:"listen"`
		APIKey         string   `yaml:"api_key"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"web"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

func (c *Config) validate() error {
	if c.LightEndpoint == 0 {
		return fmt.Errorf("light_endpoint must not be 0x0000 (root endpoint)")
	}
	switch c.Light.Type {
	case "sim":
	case "pwm":
		if c.Light.PWM.RedPin == c.Light.PWM.GreenPin || c.Light.PWM.GreenPin == c.Light.PWM.BluePin ||
			c.Light.PWM.RedPin == c.Light.PWM.BluePin {
			return fmt.Errorf("light.pwm pins must be distinct")
		}
	case "uart":
		if c.Light.UART.Port == "" {
			return fmt.Errorf("light.uart.port is required")
		}
	case "mqtt":
		if c.Light.MQTT.Broker == "" || c.Light.MQTT.Topic == "" {
			return fmt.Errorf("light.mqtt.broker and light.mqtt.topic are required")
		}
	case "script":
		if c.Light.Script.Path == "" {
			return fmt.Errorf("light.script.path is required")
		}
	default:
		return fmt.Errorf("unknown light type: %q (supported: sim, pwm, uart, mqtt, script)", c.Light.Type)
	}
	return nil
}

// lightBackend is what every peripheral implementation provides.
type lightBackend interface {
	driver.Light
	web.StateReporter
	io.Closer
}

func main() {
	// Temporary logger for config loading errors.
	bootLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfgPath := "config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		bootLogger.Error("load config", "err", err)
		os.Exit(1)
	}
	if err := cfg.validate(); err != nil {
		bootLogger.Error("invalid config", "err", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("matter-light starting", "version", version)

	registry := zcl.NewRegistry(logger)
	if err := clusters.RegisterStandard(registry); err != nil {
		logger.Error("register clusters", "err", err)
		os.Exit(1)
	}

	nodeDef := attr.DefaultNode(cfg.LightEndpoint)
	if cfg.NodeFile != "" {
		nodeDef, err = attr.LoadNodeFile(cfg.NodeFile, registry, logger)
		if err != nil {
			logger.Error("load node file", "err", err)
			os.Exit(1)
		}
	}

	db, err := store.NewBoltStore(cfg.Store.Path)
	if err != nil {
		logger.Error("open store", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	tree, err := attr.Build(nodeDef, registry,
		attr.WithPersister(db),
		attr.WithLogger(logger.With("component", "attr")),
	)
	if err != nil {
		logger.Error("build attribute tree", "err", err)
		os.Exit(1)
	}
	if tree.Endpoint(cfg.LightEndpoint) == nil {
		logger.Warn("light endpoint not in node", "endpoint", fmt.Sprintf("0x%04X", cfg.LightEndpoint))
	}
	logger.Info("attribute tree ready", "clusters", registry.Len())

	backend, err := createLight(cfg, logger)
	if err != nil {
		logger.Error("create light", "type", cfg.Light.Type, "err", err)
		os.Exit(1)
	}
	defer backend.Close()

	drv := driver.New(tree, backend, driver.Config{LightEndpoint: cfg.LightEndpoint}, logger)
	tree.OnUpdate(drv.Update)

	commands := console.NewRegistry()
	if err := drv.Init(commands); err != nil {
		logger.Error("init driver", "err", err)
		os.Exit(1)
	}

	webServer := web.NewServer(tree, registry, logger.With("component", "web"), webOptions(cfg, backend)...)
	httpServer := &http.Server{
		Addr:         cfg.Web.Listen,
		Handler:      webServer,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		logger.Info("web server starting", "addr", cfg.Web.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", "err", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consoleDone := make(chan struct{})
	if cfg.Console.Enabled {
		shell, err := console.NewShell(commands, cfg.Console, logger.With("component", "console"))
		if err != nil {
			logger.Error("console disabled", "err", err)
		} else {
			go func() {
				defer close(consoleDone)
				shell.Run(ctx)
			}()
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig)
	case <-consoleDone:
		logger.Info("shutting down", "reason", "console exit")
	}
	signal.Stop(sigCh)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", "err", err)
	}
	webServer.Stop()

	logger.Info("goodbye")
}

func webOptions(cfg *Config, backend web.StateReporter) []web.ServerOption {
	opts := []web.ServerOption{web.WithVersion(version), web.WithLight(backend)}
	if cfg.Web.APIKey != "" {
		opts = append(opts, web.WithAPIKey(cfg.Web.APIKey))
	}
	if len(cfg.Web.AllowedOrigins) > 0 {
		opts = append(opts, web.WithAllowedOrigins(cfg.Web.AllowedOrigins))
	}
	return opts
}

func createLight(cfg *Config, logger *slog.Logger) (lightBackend, error) {
	switch cfg.Light.Type {
	case "sim":
		logger.Info("using simulated light")
		return light.NewSim(logger), nil
	case "pwm":
		logger.Info("using PWM light", "red", cfg.Light.PWM.RedPin, "green", cfg.Light.PWM.GreenPin, "blue", cfg.Light.PWM.BluePin)
		l, err := pwm.New(cfg.Light.PWM, logger)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "uart":
		logger.Info("using UART light", "port", cfg.Light.UART.Port, "baud", cfg.Light.UART.Baud)
		l, err := uart.New(cfg.Light.UART, logger)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "mqtt":
		return newMQTTLight(cfg, logger)
	case "script":
		return newScriptLight(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown light type: %q", cfg.Light.Type)
	}
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Config{LightEndpoint: driver.DefaultLightEndpoint}
	cfg.Console.Enabled = true
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "light.db"
	}
	if cfg.Light.Type == "" {
		cfg.Light.Type = "sim"
	}
	if cfg.Light.PWM == (pwm.Config{}) {
		cfg.Light.PWM = pwm.Config{RedPin: 12, GreenPin: 13, BluePin: 18}
	}
	if cfg.Light.PWM.Freq == 0 {
		cfg.Light.PWM.Freq = 64000
	}
	if cfg.Light.UART.Baud == 0 {
		cfg.Light.UART.Baud = 115200
	}
	if cfg.Light.MQTT.ClientID == "" {
		cfg.Light.MQTT.ClientID = "matter-light"
	}
	if cfg.Light.Script.Timeout == 0 {
		cfg.Light.Script.Timeout = time.Second
	}
	if cfg.Console.Prompt == "" {
		cfg.Console.Prompt = "matter> "
	}
	if cfg.Web.Listen == "" {
		cfg.Web.Listen = "127.0.0.1:8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	return &cfg, nil
}

func newLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// The console owns stdout while it is running.
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(cfg.Log.Format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
