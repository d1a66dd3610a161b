// Package repl implements the interactive Read-Eval-Print Loop for
// the coro programming language.
//
// The REPL provides an interactive interface for entering coro code,
// having it compiled and executed against a persistent coroutine, and
// seeing the result immediately. It uses the Charm libraries
// (Bubbletea, Bubbles, and Lipgloss) for a modern terminal interface
// with syntax highlighting and a scrolling history.
//
// Input accumulates across lines until a line's trimmed text ends in
// ";;", at which point the accumulated chunk is evaluated; this
// mirrors the host language's own REPL rather than the bracket-balance
// heuristic of a brace-delimited language.
package repl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yufengwng/coro/lexer"
	"github.com/yufengwng/coro/machine"
	"github.com/yufengwng/coro/token"
	"github.com/yufengwng/coro/vm"
)

const (
	// Prompt is the default prompt for a fresh chunk.
	Prompt = "> "

	// ContPrompt is shown while a chunk is still accumulating lines,
	// waiting for a trailing ";;".
	ContPrompt = "· "

	// terminator marks the end of a REPL chunk.
	terminator = ";;"
)

// Options configures the REPL's presentation.
type Options struct {
	NoColor bool // Disable syntax highlighting and colored output.
}

// Start initializes and runs the REPL with the given username and
// options.
func Start(username string, options Options) {
	p := tea.NewProgram(initialModel(username, options))
	if _, err := p.Run(); err != nil {
		fmt.Println("Error running program:", err)
	}
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	parseErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FF5F87")).
				Bold(true)

	compileErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FF8700")).
				Bold(true)

	runtimeErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FF5555")).
				Bold(true)

	historyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#767676"))

	keywordStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF79C6")).
			Bold(true)

	identifierStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#F8F8F2"))

	literalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F1FA8C"))

	operatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555"))

	delimiterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#BD93F9"))

	stringStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#50FA7B"))
)

// ErrorKind classifies a chunk's failure the way the CLI's exit codes
// do, so the REPL can pick a style consistent with cmd/coro.
type ErrorKind int

const (
	NoError ErrorKind = iota
	ParseErrorKind
	CompileErrorKind
	RuntimeErrorKind
)

type evalResultMsg struct {
	output  string
	isError bool
	kind    ErrorKind
	elapsed time.Duration
}

type historyEntry struct {
	input          string
	output         string
	isError        bool
	kind           ErrorKind
	evaluationTime time.Duration
}

type model struct {
	textInput       textinput.Model
	history         []historyEntry
	vm              *vm.VM
	username        string
	evaluating      bool
	currentInput    string
	multilineBuffer string
	isMultiline     bool
	spinner         spinner.Model
	options         Options
}

func (m model) applyStyle(style lipgloss.Style, text string) string {
	if m.options.NoColor {
		return text
	}
	return style.Render(text)
}

func initialModel(username string, options Options) model {
	ti := textinput.New()
	ti.Placeholder = "Enter coro code"
	ti.Focus()
	ti.Width = 80
	ti.Prompt = promptStyle.Render(Prompt)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF79C6"))

	return model{
		textInput:  ti,
		history:    []historyEntry{},
		vm:         vm.New(),
		username:   username,
		evaluating: false,
		spinner:    s,
		options:    options,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// splitTerminator reports whether line's trimmed text ends in ";;",
// and returns the line with the terminator (and surrounding
// whitespace) removed.
func splitTerminator(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasSuffix(trimmed, terminator) {
		return trimmed, false
	}
	return strings.TrimSpace(strings.TrimSuffix(trimmed, terminator)), true
}

// evalCmd evaluates a terminated chunk asynchronously against the
// REPL's persistent VM.
func evalCmd(chunk string, v *vm.VM) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		result, err := v.Eval(context.Background(), chunk)
		elapsed := time.Since(start)

		if err != nil {
			return evalResultMsg{
				output:  formatError(err),
				isError: true,
				kind:    classifyError(err),
				elapsed: elapsed,
			}
		}
		return evalResultMsg{output: result.Print(), elapsed: elapsed}
	}
}

func classifyError(err error) ErrorKind {
	var rtErr *machine.RuntimeError
	if errors.As(err, &rtErr) {
		return RuntimeErrorKind
	}
	var compErr *vm.CompileError
	if errors.As(err, &compErr) {
		return CompileErrorKind
	}
	return ParseErrorKind
}

func formatError(err error) string {
	var s strings.Builder
	switch classifyError(err) {
	case RuntimeErrorKind:
		s.WriteString("Runtime error:\n  ")
	case CompileErrorKind:
		s.WriteString("Compile error:\n  ")
	default:
		s.WriteString("Syntax error:\n  ")
	}
	s.WriteString(err.Error())
	return s.String()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.evaluating {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case evalResultMsg:
		m.evaluating = false
		m.history = append(m.history, historyEntry{
			input:          m.currentInput,
			output:         msg.output,
			isError:        msg.isError,
			kind:           msg.kind,
			evaluationTime: msg.elapsed,
		})
		m.currentInput = ""
		return m, nil

	case tea.KeyMsg:
		if m.evaluating && msg.Type != tea.KeyCtrlC {
			return m, m.spinner.Tick
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.handleEnter()
		}
	}

	if !m.evaluating {
		m.textInput, cmd = m.textInput.Update(msg)
	}
	if m.evaluating {
		return m, m.spinner.Tick
	}
	return m, cmd
}

// handleEnter appends the current line to the chunk buffer, and
// either waits for more input or dispatches the finished chunk for
// evaluation once a line ends in ";;".
func (m model) handleEnter() (tea.Model, tea.Cmd) {
	line, terminated := splitTerminator(m.textInput.Value())
	m.textInput.SetValue("")

	if m.isMultiline {
		m.multilineBuffer += "\n" + line
	} else {
		m.multilineBuffer = line
	}

	if !terminated {
		m.isMultiline = true
		return m, nil
	}

	m.isMultiline = false
	chunk := strings.TrimSpace(m.multilineBuffer)
	m.multilineBuffer = ""
	if chunk == "" {
		return m, nil
	}

	m.evaluating = true
	m.currentInput = chunk
	return m, evalCmd(chunk, m.vm)
}

func (m model) View() string {
	var s strings.Builder

	s.WriteString(m.applyStyle(titleStyle, " coro REPL "))
	s.WriteString("\n")
	if m.username != "" {
		s.WriteString(fmt.Sprintf("\nHello %s! Feel free to type in commands\n", m.username))
	}
	s.WriteString("\n")

	for _, entry := range m.history {
		lines := strings.Split(entry.input, "\n")
		for i, line := range lines {
			if i == 0 {
				s.WriteString(m.applyStyle(promptStyle, Prompt))
			} else {
				s.WriteString(m.applyStyle(promptStyle, ContPrompt))
			}
			s.WriteString(m.highlightCode(line))
			s.WriteString("\n")
		}

		if entry.isError {
			s.WriteString(m.applyStyle(errorStyleFor(entry.kind), entry.output))
		} else {
			s.WriteString(m.applyStyle(resultStyle, entry.output))
		}

		if entry.evaluationTime > 10*time.Millisecond {
			s.WriteString(m.applyStyle(historyStyle, fmt.Sprintf(" (%.2fs)", entry.evaluationTime.Seconds())))
		}
		s.WriteString("\n\n")
	}

	if m.evaluating {
		s.WriteString(m.applyStyle(promptStyle, Prompt))
		s.WriteString(m.highlightCode(m.currentInput))
		s.WriteString("\n")
		s.WriteString(m.spinner.View())
		s.WriteString(" Evaluating...\n\n")
	}

	if m.isMultiline && !m.evaluating {
		s.WriteString(m.applyStyle(historyStyle, "Awaiting \";;\" to evaluate:\n"))
		s.WriteString(m.highlightCode(m.multilineBuffer))
		s.WriteString("\n")
	}

	if !m.evaluating {
		if m.isMultiline {
			m.textInput.Prompt = m.applyStyle(promptStyle, ContPrompt)
		} else {
			m.textInput.Prompt = m.applyStyle(promptStyle, Prompt)
		}
		s.WriteString(m.textInput.View())
		s.WriteString("\n")
	}

	help := "\nPress Esc or Ctrl+C/D to exit | end a chunk with \";;\" to run it"
	s.WriteString(m.applyStyle(historyStyle, help))

	return s.String()
}

func errorStyleFor(kind ErrorKind) lipgloss.Style {
	switch kind {
	case RuntimeErrorKind:
		return runtimeErrorStyle
	case CompileErrorKind:
		return compileErrorStyle
	default:
		return parseErrorStyle
	}
}

// highlightCode colors code's tokens by category; unlike a
// pretty-printer it never reflows whitespace, since a REPL echoes the
// user's own input back to them.
func (m model) highlightCode(src string) string {
	if m.options.NoColor || src == "" {
		return src
	}

	l := lexer.New(src)
	var out strings.Builder
	pos := 0

	for {
		tok := l.NextToken()
		if tok.Type == token.EOF {
			break
		}

		idx := strings.Index(src[pos:], tok.Literal)
		if idx < 0 {
			out.WriteString(tok.Literal)
			continue
		}
		out.WriteString(src[pos : pos+idx])
		out.WriteString(styleFor(tok).Render(literalText(tok)))
		pos += idx + len(tok.Literal)
	}
	out.WriteString(src[pos:])

	return out.String()
}

func literalText(tok token.Token) string {
	if tok.Type == token.String {
		return "\"" + tok.Literal + "\""
	}
	return tok.Literal
}

func styleFor(tok token.Token) lipgloss.Style {
	switch tok.Type {
	case token.Def, token.Let, token.Print, token.Create, token.Resume, token.Yield,
		token.While, token.Do, token.If, token.Then, token.Else, token.End, token.Not,
		token.True, token.False:
		return keywordStyle
	case token.Ident:
		return identifierStyle
	case token.Num:
		return literalStyle
	case token.String:
		return stringStyle
	case token.Assign, token.Plus, token.Minus, token.Asterisk, token.Slash, token.Lt, token.Eq:
		return operatorStyle
	case token.Semicolon, token.Lparen, token.Rparen, token.Lbrace, token.Rbrace:
		return delimiterStyle
	default:
		return identifierStyle
	}
}
