package main

import (
	"bufio"
	"io"
	"log/slog"
	"strings"
)

// consolePhone - действия аппарата, доступные из консоли
type consolePhone interface {
	PressDigit(d rune) bool
	GoOnHook() bool
	GoOffHook() bool
	SendTalk(text string) bool
	RequestShutdown() bool
}

// runConsole читает команды построчно:
//
//	off | on        снять или положить трубку
//	dial 2222       набрать цифры (также просто "2222")
//	talk <текст>    реплика собеседнику
//	quit            завершить работу
//
// Конец ввода завершает работу аппарата.
func runConsole(p consolePhone, in io.Reader, logger *slog.Logger) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if !handleConsoleLine(p, scanner.Text(), logger) {
			return
		}
	}
	p.RequestShutdown()
}

// handleConsoleLine выполняет одну команду. Возвращает false после quit.
func handleConsoleLine(p consolePhone, line string, logger *slog.Logger) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "off", "off-hook":
		p.GoOffHook()
	case "on", "on-hook":
		p.GoOnHook()
	case "dial":
		dial(p, arg, logger)
	case "talk", "say":
		if arg != "" {
			p.SendTalk(arg)
		}
	case "quit", "exit", "q":
		p.RequestShutdown()
		return false
	default:
		dial(p, line, logger)
	}
	return true
}

func dial(p consolePhone, digits string, logger *slog.Logger) {
	for _, d := range digits {
		if !p.PressDigit(d) {
			logger.Warn("неизвестная клавиша", slog.String("key", string(d)))
		}
	}
}
