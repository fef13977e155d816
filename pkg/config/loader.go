package config

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Переменные окружения
const (
	EnvPhoneNumber = "PHONE_NUMBER"
	EnvServerURL   = "PHONE_SERVER_URL"
	EnvSSLVerify   = "PHONE_SSL_VERIFY"
	EnvRingTimeout = "PHONE_RING_TIMEOUT"
	EnvLogLevel    = "PHONE_LOG_LEVEL"
	EnvLogFile     = "PHONE_LOG_FILE"
	EnvMetricsAddr = "PHONE_METRICS_ADDR"
)

// Loader загружает конфигурацию из файла, окружения и аргументов
type Loader struct {
	name      string
	lookupEnv func(string) (string, bool)
	output    io.Writer
}

// NewLoader создает загрузчик для программы name, читающий окружение процесса
func NewLoader(name string) *Loader {
	return &Loader{
		name:      name,
		lookupEnv: os.LookupEnv,
		output:    os.Stderr,
	}
}

// WithEnv подменяет источник переменных окружения
func (l *Loader) WithEnv(lookup func(string) (string, bool)) *Loader {
	l.lookupEnv = lookup
	return l
}

// WithOutput задает, куда печатать справку по флагам
func (l *Loader) WithOutput(w io.Writer) *Loader {
	l.output = w
	return l
}

// Load загружает конфигурацию с аргументами командной строки args
// (без имени программы):
//
//	phone_emulator [flags] phone_number [server_url]
//
// Результат проверяется Validate.
func Load(args []string) (*Config, error) {
	return NewLoader("phone_emulator").Load(args)
}

// Load применяет источники по порядку и проверяет результат
func (l *Loader) Load(args []string) (*Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet(l.name, flag.ContinueOnError)
	fs.SetOutput(l.output)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] phone_number [server_url]\n", l.name)
		fs.PrintDefaults()
	}

	configPath := fs.String("config", "", "path to YAML config file")
	sslVerify := fs.Bool("ssl-verify", false, "verify SSL certificates")
	ringTimeout := fs.Duration("ring-timeout", 0, "incoming call ring timeout (default 15s)")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	logFile := fs.String("log-file", "", "log file path")
	metricsAddr := fs.String("metrics", "", "address to serve Prometheus /metrics on, e.g. :9100")
	headless := fs.Bool("headless", false, "run without the terminal interface")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// 1. Файл
	if *configPath != "" {
		if err := loadFile(*configPath, cfg); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	// 2. Окружение
	if err := l.applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	// 3. Флаги, заданные явно
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "ssl-verify":
			cfg.SSLVerify = *sslVerify
		case "ring-timeout":
			cfg.RingTimeout = *ringTimeout
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-file":
			cfg.LogFile = *logFile
		case "metrics":
			cfg.MetricsAddr = *metricsAddr
		case "headless":
			cfg.Headless = *headless
		}
	})

	// 4. Позиционные аргументы
	switch rest := fs.Args(); len(rest) {
	case 0:
	case 1:
		cfg.PhoneNumber = rest[0]
	case 2:
		cfg.PhoneNumber = rest[0]
		cfg.ServerURL = rest[1]
	default:
		return nil, fmt.Errorf("лишние аргументы: %s", strings.Join(rest[2:], " "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- путь к файлу задает оператор
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Неизвестные поля - ошибка

	if err := dec.Decode(cfg); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

func (l *Loader) applyEnv(cfg *Config) error {
	if v, ok := l.env(EnvPhoneNumber); ok {
		cfg.PhoneNumber = v
	}
	if v, ok := l.env(EnvServerURL); ok {
		cfg.ServerURL = v
	}
	if v, ok := l.env(EnvSSLVerify); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSSLVerify, err)
		}
		cfg.SSLVerify = b
	}
	if v, ok := l.env(EnvRingTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRingTimeout, err)
		}
		cfg.RingTimeout = d
	}
	if v, ok := l.env(EnvLogLevel); ok {
		cfg.LogLevel = v
	}
	if v, ok := l.env(EnvLogFile); ok {
		cfg.LogFile = v
	}
	if v, ok := l.env(EnvMetricsAddr); ok {
		cfg.MetricsAddr = v
	}
	return nil
}

// env возвращает непустое значение переменной окружения
func (l *Loader) env(key string) (string, bool) {
	v, ok := l.lookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}
