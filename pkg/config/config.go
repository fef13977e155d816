// Package config загружает настройки эмулятора телефона.
//
// Источники применяются по порядку: значения по умолчанию, YAML файл
// (-config), переменные окружения PHONE_*, флаги и позиционные аргументы
// командной строки.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultServerURL - адрес станции по умолчанию
	DefaultServerURL = "https://localhost:5000"
	// DefaultRingTimeout - время звонка входящего вызова
	DefaultRingTimeout = 15 * time.Second
	// DefaultHandshakeTimeout - таймаут подключения к станции
	DefaultHandshakeTimeout = 10 * time.Second
	// DefaultReconnectDelay и DefaultReconnectMaxDelay - задержки
	// переподключения после разрыва со стороны станции
	DefaultReconnectDelay    = 500 * time.Millisecond
	DefaultReconnectMaxDelay = 10 * time.Second

	phoneNumberLength = 4
)

// Config - настройки эмулятора
type Config struct {
	// PhoneNumber - четырехзначный номер аппарата
	PhoneNumber string `yaml:"phone_number"`
	// ServerURL - адрес станции (http, https, ws или wss)
	ServerURL string `yaml:"server_url"`
	// SSLVerify включает проверку TLS сертификата станции
	SSLVerify bool `yaml:"ssl_verify"`

	RingTimeout      time.Duration `yaml:"ring_timeout"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`

	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
	ReconnectMaxDelay time.Duration `yaml:"reconnect_max_delay"`

	// LogLevel - debug, info, warn или error
	LogLevel string `yaml:"log_level"`
	// LogFile - файл журнала. Пустое значение: без журнала в режиме
	// интерфейса, stderr в режиме Headless
	LogFile string `yaml:"log_file"`

	// MetricsAddr - адрес HTTP сервера /metrics, пустое значение отключает метрики
	MetricsAddr string `yaml:"metrics_addr"`

	// Headless запускает аппарат без терминального интерфейса
	Headless bool `yaml:"headless"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		ServerURL:         DefaultServerURL,
		RingTimeout:       DefaultRingTimeout,
		HandshakeTimeout:  DefaultHandshakeTimeout,
		ReconnectDelay:    DefaultReconnectDelay,
		ReconnectMaxDelay: DefaultReconnectMaxDelay,
		LogLevel:          "info",
	}
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	if c.PhoneNumber == "" {
		return fmt.Errorf("номер телефона не указан")
	}
	if !isPhoneNumber(c.PhoneNumber) {
		return fmt.Errorf("номер телефона должен состоять из %d цифр: %q", phoneNumberLength, c.PhoneNumber)
	}

	if c.ServerURL == "" {
		return fmt.Errorf("адрес станции не указан")
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("некорректный адрес станции: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("неподдерживаемая схема адреса станции: %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("в адресе станции нет хоста: %q", c.ServerURL)
	}

	if c.RingTimeout <= 0 {
		return fmt.Errorf("ring timeout должен быть положительным")
	}
	if c.HandshakeTimeout <= 0 {
		return fmt.Errorf("handshake timeout должен быть положительным")
	}
	if c.ReconnectDelay <= 0 {
		return fmt.Errorf("reconnect delay должен быть положительным")
	}
	if c.ReconnectMaxDelay < c.ReconnectDelay {
		return fmt.Errorf("reconnect max delay меньше reconnect delay")
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLogLevel переводит имя уровня журнала в slog.Level
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("неизвестный уровень журнала: %q", level)
	}
}

func isPhoneNumber(s string) bool {
	if len(s) != phoneNumberLength {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
