package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"talkdoc/internal/model"
	"talkdoc/internal/session"
)

type tab int

const (
	tabUpload tab = iota
	tabLibrary
	tabChat
)

var tabNames = []string{"Upload", "Library", "Ask Questions"}

var (
	activeTabStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Underline(true)
	inactiveTabStyle = lipgloss.NewStyle().Faint(true)
	titleStyle       = lipgloss.NewStyle().Bold(true)
	userStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	assistantStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	selectedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle        = lipgloss.NewStyle().Faint(true)
)

// Model is the Bubble Tea model for the whole client. It holds no domain
// state of its own: the registry, uploader and chat session own the data,
// and every backend call runs inside a tea.Cmd so results come back as
// messages on the single update loop.
type Model struct {
	registry *session.Registry
	uploader *session.Uploader
	chat     *session.Chat

	tab      tab
	path     textinput.Model
	search   textinput.Model
	question textinput.Model
	spin     spinner.Model

	cursor int
	status string
	width  int
}

type (
	refreshedMsg struct{ err error }
	uploadedMsg  struct {
		name string
		err  error
	}
	removedMsg struct {
		id  string
		err error
	}
	answeredMsg struct{ err error }
)

func New(registry *session.Registry, uploader *session.Uploader, chat *session.Chat) Model {
	path := textinput.New()
	path.Placeholder = "Path to a .pdf, .doc, .docx or .txt file"
	path.Prompt = "File> "
	path.Width = 60
	path.Focus()

	search := textinput.New()
	search.Placeholder = "Search documents"
	search.Prompt = "/ "
	search.Width = 40

	question := textinput.New()
	question.Placeholder = "Ask a question about your documents"
	question.Prompt = "You> "
	question.Width = 60

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	return Model{
		registry: registry,
		uploader: uploader,
		chat:     chat,
		path:     path,
		search:   search,
		question: question,
		spin:     s,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.refreshCmd())
}

func (m Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		return refreshedMsg{err: m.registry.Refresh(context.Background())}
	}
}

func (m Model) uploadCmd(path string) tea.Cmd {
	return func() tea.Msg {
		name := filepath.Base(path)
		f, err := os.Open(path)
		if err != nil {
			return uploadedMsg{name: name, err: err}
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return uploadedMsg{name: name, err: err}
		}
		return uploadedMsg{name: name, err: m.uploader.Submit(context.Background(), name, info.Size(), f)}
	}
}

func (m Model) removeCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return removedMsg{id: id, err: m.registry.Remove(context.Background(), id)}
	}
}

func (m Model) askCmd(question string) tea.Cmd {
	return func() tea.Msg {
		return answeredMsg{err: m.chat.Ask(context.Background(), question)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		w := msg.Width - 8
		if w < 20 {
			w = 20
		}
		m.path.Width = w
		m.question.Width = w
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.switchTab((m.tab + 1) % 3)
			return m, nil
		case "shift+tab":
			m.switchTab((m.tab + 2) % 3)
			return m, nil
		}
		return m.updateTab(msg)

	case refreshedMsg:
		if msg.err != nil {
			// Fail-soft: the previous listing is still shown.
			m.status = errorStyle.Render(msg.err.Error())
		}
		return m, nil

	case uploadedMsg:
		if msg.err != nil {
			m.status = errorStyle.Render(msg.err.Error())
		} else {
			m.status = fmt.Sprintf("Uploaded %s", msg.name)
		}
		return m, nil

	case removedMsg:
		if msg.err != nil {
			m.status = errorStyle.Render(msg.err.Error())
		} else {
			m.status = fmt.Sprintf("Deleted %s", msg.id)
			if m.cursor > 0 {
				m.cursor--
			}
		}
		return m, nil

	case answeredMsg:
		if msg.err != nil {
			// The failure is already visible as an assistant turn.
			m.status = errorStyle.Render(msg.err.Error())
		}
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.spin, cmd = m.spin.Update(msg)
	cmds = append(cmds, cmd)
	m.path, cmd = m.path.Update(msg)
	cmds = append(cmds, cmd)
	m.search, cmd = m.search.Update(msg)
	cmds = append(cmds, cmd)
	m.question, cmd = m.question.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) switchTab(t tab) {
	m.tab = t
	m.path.Blur()
	m.search.Blur()
	m.question.Blur()
	m.status = ""
	switch t {
	case tabUpload:
		m.path.Focus()
	case tabLibrary:
		m.search.Focus()
	case tabChat:
		m.question.Focus()
	}
}

func (m Model) updateTab(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.tab {
	case tabUpload:
		if msg.String() == "enter" {
			path := strings.TrimSpace(m.path.Value())
			if path == "" {
				return m, nil
			}
			m.path.SetValue("")
			m.status = fmt.Sprintf("Uploading %s...", filepath.Base(path))
			return m, m.uploadCmd(path)
		}
		m.path, cmd = m.path.Update(msg)
		return m, cmd

	case tabLibrary:
		docs := m.registry.List(m.search.Value())
		switch msg.String() {
		case "up":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down":
			if m.cursor < len(docs)-1 {
				m.cursor++
			}
			return m, nil
		case "enter":
			if m.cursor < len(docs) {
				m.chat.SelectDocument(docs[m.cursor].ID)
				m.status = fmt.Sprintf("Questions scoped to %s", docs[m.cursor].Name)
			}
			return m, nil
		case "ctrl+x":
			m.chat.ClearSelection()
			m.status = "Selection cleared"
			return m, nil
		case "ctrl+d":
			if m.cursor < len(docs) {
				return m, m.removeCmd(docs[m.cursor].ID)
			}
			return m, nil
		case "ctrl+r":
			return m, m.refreshCmd()
		}
		m.search, cmd = m.search.Update(msg)
		if m.cursor >= len(m.registry.List(m.search.Value())) {
			m.cursor = 0
		}
		return m, cmd

	case tabChat:
		if msg.String() == "enter" {
			question := strings.TrimSpace(m.question.Value())
			if question == "" || m.chat.Pending() {
				return m, nil
			}
			m.question.SetValue("")
			return m, m.askCmd(question)
		}
		m.question, cmd = m.question.Update(msg)
		m.chat.SetInput(m.question.Value())
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	var names []string
	for i, name := range tabNames {
		if tab(i) == m.tab {
			names = append(names, activeTabStyle.Render(name))
		} else {
			names = append(names, inactiveTabStyle.Render(name))
		}
	}
	b.WriteString(strings.Join(names, "  |  "))
	b.WriteString(fmt.Sprintf("   (%d documents)\n\n", m.registry.Len()))

	switch m.tab {
	case tabUpload:
		b.WriteString(titleStyle.Render("Upload a document") + "\n\n")
		b.WriteString(m.path.View() + "\n")
		if m.uploader.InFlight() {
			b.WriteString("\n" + m.spin.View() + " Uploading...\n")
		}

	case tabLibrary:
		b.WriteString(titleStyle.Render("Document library") + "\n\n")
		b.WriteString(m.search.View() + "\n\n")
		docs := m.registry.List(m.search.Value())
		if len(docs) == 0 {
			b.WriteString(helpStyle.Render("No documents found") + "\n")
		}
		selected := m.chat.SelectedDocument()
		for i, d := range docs {
			prefix := "  "
			if i == m.cursor {
				prefix = "> "
			}
			line := prefix + d.Name
			if d.ID == selected {
				line = selectedStyle.Render(line + "  [selected]")
			}
			b.WriteString(line + "\n")
		}

	case tabChat:
		b.WriteString(titleStyle.Render("Ask questions about your documents") + "\n\n")
		for _, turn := range m.chat.Transcript() {
			switch turn.Role {
			case model.RoleUser:
				b.WriteString(userStyle.Render("You:") + " " + turn.Content + "\n\n")
			case model.RoleAssistant:
				b.WriteString(assistantStyle.Render("AI:") + " " + turn.Content + "\n")
				for _, img := range turn.Attachments {
					b.WriteString(helpStyle.Render("  image: "+img) + "\n")
				}
				b.WriteString("\n")
			}
		}
		if m.chat.Pending() {
			b.WriteString(assistantStyle.Render("AI:") + " " + m.spin.View() + "Thinking...\n\n")
		} else {
			b.WriteString(m.question.View() + "\n")
		}
	}

	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(m.status + "\n")
	}
	b.WriteString(helpStyle.Render(m.helpLine()))
	return b.String()
}

func (m Model) helpLine() string {
	switch m.tab {
	case tabLibrary:
		return "tab: switch view • enter: select • ctrl+d: delete • ctrl+x: clear selection • ctrl+r: refresh • ctrl+c: quit"
	default:
		return "tab: switch view • enter: submit • ctrl+c: quit"
	}
}
