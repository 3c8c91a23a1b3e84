package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"github.com/wippyai/baremetal-platform/printf"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	cutStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Strikethrough(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const (
	fieldFormat = iota
	fieldArgs
	fieldCapacity
	fieldCount
)

func newPlayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "play [format]",
		Short: "Interactive playground for the bounded formatter",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			format := "%s = %d"
			if len(args) == 1 {
				format = args[0]
			}
			p := tea.NewProgram(newPlayModel(a.cfg.Formatter(), format), tea.WithAltScreen())
			_, err := p.Run()
			return err
		},
	}
}

// playModel re-renders the format on every keystroke.
type playModel struct {
	formatter *printf.Formatter
	inputs    []textinput.Model
	focusIdx  int
}

func newPlayModel(f *printf.Formatter, format string) *playModel {
	m := &playModel{formatter: f, inputs: make([]textinput.Model, fieldCount)}

	prompts := [fieldCount]string{"format:   ", "args:     ", "capacity: "}
	placeholders := [fieldCount]string{"%s = %d", `key 42 "two words" c:x p:0x10 null`, strconv.Itoa(defaultCapacity)}
	for i := range m.inputs {
		ti := textinput.New()
		ti.Prompt = prompts[i]
		ti.Placeholder = placeholders[i]
		ti.Width = 60
		m.inputs[i] = ti
	}
	m.inputs[fieldFormat].SetValue(format)
	m.inputs[fieldArgs].SetValue("answer 42")
	m.inputs[fieldCapacity].SetValue(strconv.Itoa(defaultCapacity))
	m.inputs[fieldFormat].Focus()
	return m
}

func (m *playModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "tab", "down", "enter":
			m.focus((m.focusIdx + 1) % fieldCount)
			return m, nil

		case "shift+tab", "up":
			m.focus((m.focusIdx + fieldCount - 1) % fieldCount)
			return m, nil

		case "ctrl+p":
			if m.formatter.Profile == printf.ProfilePadded {
				m.formatter.Profile = printf.ProfileMinimal
			} else {
				m.formatter.Profile = printf.ProfilePadded
			}
			return m, nil

		case "ctrl+u":
			m.formatter.Untruncated = !m.formatter.Untruncated
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focusIdx], cmd = m.inputs[m.focusIdx].Update(msg)
	return m, cmd
}

func (m *playModel) focus(i int) {
	m.inputs[m.focusIdx].Blur()
	m.focusIdx = i
	m.inputs[m.focusIdx].Focus()
}

// evaluate renders the current fields.
func (m *playModel) evaluate() (rendered, error) {
	capacity := defaultCapacity
	if s := strings.TrimSpace(m.inputs[fieldCapacity].Value()); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return rendered{}, fmt.Errorf("capacity %q is not a byte count", s)
		}
		capacity = n
	}

	raw, err := shlex.Split(m.inputs[fieldArgs].Value())
	if err != nil {
		return rendered{}, err
	}
	args, err := parseArgs(raw)
	if err != nil {
		return rendered{}, err
	}
	return render(m.formatter, capacity, m.inputs[fieldFormat].Value(), args), nil
}

func (m *playModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("snprintf playground"))
	b.WriteString(" ")
	b.WriteString(labelStyle.Render(fmt.Sprintf("profile=%s untruncated=%t", m.formatter.Profile, m.formatter.Untruncated)))
	b.WriteString("\n\n")

	for _, in := range m.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	res, err := m.evaluate()
	if err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", err)))
	} else {
		b.WriteString(labelStyle.Render("output: "))
		b.WriteString(resultStyle.Render(strconv.Quote(res.text)))
		if full := m.untruncatedText(); len(full) > len(res.text) {
			b.WriteString(cutStyle.Render(full[len(res.text):]))
		}
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("return: "))
		b.WriteString(strconv.Itoa(res.count))
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("buffer: "))
		b.WriteString(fmt.Sprintf("% x", res.buf))
	}

	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("tab next field • ctrl+p profile • ctrl+u untruncated • esc quit"))
	return b.String()
}

// untruncatedText renders the fields again with a buffer large enough to show
// what truncation cut off.
func (m *playModel) untruncatedText() string {
	raw, err := shlex.Split(m.inputs[fieldArgs].Value())
	if err != nil {
		return ""
	}
	args, err := parseArgs(raw)
	if err != nil {
		return ""
	}
	f := *m.formatter
	f.Untruncated = true
	format := m.inputs[fieldFormat].Value()
	n := f.Snprintf(make([]byte, 1), format, args...)
	return render(&f, n+1, format, args).text
}
