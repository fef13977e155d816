// Команда phone_emulator - эмулятор телефонного аппарата для учебной
// телефонной станции.
//
//	phone_emulator [flags] phone_number [server_url]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arzzra/soft_phone/pkg/config"
	"github.com/arzzra/soft_phone/pkg/exchange"
	"github.com/arzzra/soft_phone/pkg/phone"
	"github.com/arzzra/soft_phone/pkg/tui"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "phone_emulator: %v\n", err)
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "phone_emulator: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	if cfg.MetricsAddr != "" {
		srv := startMetricsServer(cfg.MetricsAddr, registry, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	dialer, err := exchange.NewWebSocketDialer(exchange.WebSocketConfig{
		URL:                cfg.ServerURL,
		HandshakeTimeout:   cfg.HandshakeTimeout,
		InsecureSkipVerify: !cfg.SSLVerify,
	})
	if err != nil {
		return err
	}

	adapter := exchange.NewAdapter(dialer, cfg.PhoneNumber,
		exchange.WithLogger(logger),
		exchange.WithRetry(cfg.ReconnectDelay, cfg.ReconnectMaxDelay),
		exchange.WithMetrics(exchange.NewMetrics(&exchange.MetricsConfig{
			Namespace:  "phone",
			Subsystem:  "exchange",
			Registerer: registry,
		})),
	)

	p := phone.New(adapter,
		phone.WithNumber(cfg.PhoneNumber),
		phone.WithLogger(logger),
		phone.WithRingTimeout(cfg.RingTimeout),
		phone.WithMetrics(phone.NewMetrics(&phone.MetricsConfig{
			Namespace:  "phone",
			Registerer: registry,
		})),
	)
	logger.Info("запуск эмулятора",
		slog.String("number", cfg.PhoneNumber),
		slog.String("server", dialer.URL()),
		slog.String("session", p.ID()))

	if err := adapter.Start(ctx, p); err != nil {
		return err
	}

	runErr := make(chan error, 1)
	go func() { runErr <- p.Run(ctx) }()

	if cfg.Headless {
		p.RegisterObserver(&statusPrinter{phone: p, out: os.Stdout})
		fmt.Fprintln(os.Stdout, p.Snapshot().StatusLine())
		go runConsole(p, os.Stdin, logger)
	} else {
		if err := tui.Run(ctx, p); err != nil {
			logger.Error("ошибка интерфейса", slog.Any("error", err))
		}
		// интерфейс может завершиться раньше аппарата (например, при отмене ctx)
		p.RequestShutdown()
	}

	err = <-runErr
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// newLogger создает логгер по настройкам. В режиме интерфейса терминал
// занят, поэтому без файла журнал отключается.
func newLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = io.Discard
	closeFn := func() {}
	switch {
	case cfg.LogFile != "":
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closeFn = func() { _ = f.Close() }
	case cfg.Headless:
		out = os.Stderr
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	return slog.New(handler), closeFn, nil
}

func startMetricsServer(addr string, registry *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("метрики доступны", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("сервер метрик остановлен", slog.Any("error", err))
		}
	}()
	return srv
}

// statusPrinter печатает строку состояния при каждом изменении.
// Используется без терминального интерфейса.
type statusPrinter struct {
	phone *phone.Phone
	out   io.Writer
	last  string
}

func (s *statusPrinter) StateChanged() {
	snap := s.phone.Snapshot()
	line := snap.StatusLine()
	if snap.HasDialogue() {
		line += "\n" + snap.DialogueText()
	}
	if line == s.last {
		return
	}
	s.last = line
	fmt.Fprintln(s.out, line)
}
