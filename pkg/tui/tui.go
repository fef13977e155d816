// Package tui - терминальный интерфейс аппарата на bubbletea.
//
// Интерфейс показывает строку состояния и разговор, клавиши переводит
// в действия пользователя. Состояние читается из снимка после каждого
// уведомления наблюдателя.
package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/arzzra/soft_phone/pkg/phone"
)

// Controller - часть API аппарата, которой пользуется интерфейс
type Controller interface {
	Snapshot() phone.Snapshot
	PressDigit(d rune) bool
	GoOnHook() bool
	GoOffHook() bool
	SendTalk(text string) bool
	RequestShutdown() bool
	RegisterObserver(o phone.Observer)
	UnregisterObserver(o phone.Observer)
	Done() <-chan struct{}
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle   = lipgloss.NewStyle().Bold(true)
	dialogueStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
	inputStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	offlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

const (
	helpDial = "0-9 * # dial • space hook • t talk • q quit"
	helpTalk = "enter send • esc cancel"
)

type stateChangedMsg struct{}

type phoneStoppedMsg struct{}

// notifier будит интерфейс при изменении состояния аппарата.
// StateChanged не блокирует цикл событий: лишние уведомления схлопываются.
type notifier struct {
	ch chan struct{}
}

func newNotifier() *notifier {
	return &notifier{ch: make(chan struct{}, 1)}
}

func (n *notifier) StateChanged() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

// Model - модель bubbletea
type Model struct {
	ctrl     Controller
	notifier *notifier

	snap    phone.Snapshot
	talking bool
	input   string
	width   int
	stopped bool
}

var _ tea.Model = Model{}

// New создает модель и подписывает ее на изменения аппарата
func New(ctrl Controller) Model {
	m := Model{
		ctrl:     ctrl,
		notifier: newNotifier(),
		snap:     ctrl.Snapshot(),
	}
	ctrl.RegisterObserver(m.notifier)
	return m
}

// Detach отписывает модель от аппарата
func (m Model) Detach() {
	m.ctrl.UnregisterObserver(m.notifier)
}

// Run показывает интерфейс, пока аппарат не завершит работу или не отменен ctx
func Run(ctx context.Context, ctrl Controller, opts ...tea.ProgramOption) error {
	m := New(ctrl)
	defer m.Detach()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(m, opts...).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.waitForChange()
}

// waitForChange ждет следующего уведомления или завершения аппарата
func (m Model) waitForChange() tea.Cmd {
	ch, done := m.notifier.ch, m.ctrl.Done()
	return func() tea.Msg {
		select {
		case <-ch:
			return stateChangedMsg{}
		case <-done:
			return phoneStoppedMsg{}
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateChangedMsg:
		m.snap = m.ctrl.Snapshot()
		if m.snap.State != phone.CallConnected {
			m.talking = false
			m.input = ""
		}
		return m, m.waitForChange()

	case phoneStoppedMsg:
		m.snap = m.ctrl.Snapshot()
		m.stopped = true
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.ctrl.RequestShutdown()
			return m, nil
		}
		if m.talking {
			return m.updateTalk(msg)
		}
		return m.updateDial(msg)
	}
	return m, nil
}

func (m Model) updateDial(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q":
		m.ctrl.RequestShutdown()
	case " ":
		if m.snap.OnHook {
			m.ctrl.GoOffHook()
		} else {
			m.ctrl.GoOnHook()
		}
	case "t", "tab":
		if m.snap.State == phone.CallConnected {
			m.talking = true
		}
	default:
		if len(msg.Runes) == 1 {
			m.ctrl.PressDigit(msg.Runes[0])
		}
	}
	return m, nil
}

func (m Model) updateTalk(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if text := strings.TrimSpace(m.input); text != "" {
			m.ctrl.SendTalk(text)
		}
		m.input = ""
	case tea.KeyEsc:
		m.talking = false
		m.input = ""
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Phone emulator"))
	if !m.snap.State.IsConnected() {
		b.WriteString(" ")
		b.WriteString(offlineStyle.Render("(offline)"))
	}
	b.WriteString("\n\n")
	b.WriteString(statusStyle.Render(m.snap.StatusLine()))
	b.WriteString("\n")

	if m.snap.HasDialogue() {
		style := dialogueStyle
		if m.width > 4 {
			style = style.Width(m.width - 4)
		}
		b.WriteString(style.Render(m.snap.DialogueText()))
		b.WriteString("\n")
	}

	if m.talking {
		b.WriteString(inputStyle.Render("> " + m.input + "_"))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render(helpTalk))
	} else {
		b.WriteString(helpStyle.Render(helpDial))
	}
	b.WriteString("\n")
	return b.String()
}

// Snapshot возвращает снимок, который сейчас показывает модель
func (m Model) Snapshot() phone.Snapshot {
	return m.snap
}

// Talking сообщает, вводится ли реплика
func (m Model) Talking() bool {
	return m.talking
}

// Stopped сообщает, что аппарат завершил работу
func (m Model) Stopped() bool {
	return m.stopped
}
