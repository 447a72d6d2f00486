package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"folio-backend/internal/widget"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("113"))
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	hintStyle      = lipgloss.NewStyle().Faint(true)
	unseenStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
)

var quickReplies = []string{
	"Show me your best projects",
	"What technologies do you work with?",
	"Tell me about your experience",
}

type changeMsg struct{}

type noticeMsg widget.Notice

type pollMsg []widget.Message

type model struct {
	ctrl     *widget.Controller
	poll     <-chan widget.Event
	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model
	ready    bool
	notice   string
	adminTag string
}

func newModel(ctrl *widget.Controller, poll <-chan widget.Event, adminTag string) model {
	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.Focus()
	input.CharLimit = 2000

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return model{ctrl: ctrl, poll: poll, input: input, spin: spin, adminTag: adminTag}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.waitChange(), m.waitNotice(), m.waitPoll())
}

func (m model) waitChange() tea.Cmd {
	return func() tea.Msg {
		<-m.ctrl.Changes()
		return changeMsg{}
	}
}

func (m model) waitNotice() tea.Cmd {
	return func() tea.Msg {
		return noticeMsg(<-m.ctrl.Notices())
	}
}

func (m model) waitPoll() tea.Cmd {
	if m.poll == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-m.poll
		if !ok {
			return nil
		}
		return pollMsg(ev.Messages)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		headerHeight := 2
		footerHeight := 4
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.refresh()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.ctrl.Close()
			return m, tea.Quit
		case "enter":
			if err := m.ctrl.Submit(m.input.Value()); err == nil {
				m.input.SetValue("")
				m.notice = ""
			}
			return m, tea.Batch(cmds...)
		case "ctrl+r":
			// Reset is destructive; the key chord is the confirmation.
			if err := m.ctrl.Reset(); err != nil {
				m.notice = err.Error()
			}
			m.refresh()
			return m, nil
		case "ctrl+b":
			m.ctrl.Scroll().JumpToBottom()
			m.viewport.GotoBottom()
			return m, nil
		case "f2", "f3", "f4":
			idx := int(msg.String()[1]-'2') % len(quickReplies)
			m.input.SetValue(quickReplies[idx])
			m.ctrl.QuickReply(quickReplies[idx])
			return m, nil
		}

	case changeMsg:
		m.refresh()
		cmds = append(cmds, m.waitChange())

	case noticeMsg:
		m.notice = msg.Text
		cmds = append(cmds, m.waitNotice())

	case pollMsg:
		if msg != nil {
			m.ctrl.ApplyServerList([]widget.Message(msg))
		}
		cmds = append(cmds, m.waitPoll())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	before := m.viewport.YOffset
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	if m.viewport.YOffset != before {
		m.ctrl.Scroll().HandleScroll(m.distanceToBottom())
	}

	return m, tea.Batch(cmds...)
}

// distanceToBottom measures how far above the newest content the
// viewport sits, in lines.
func (m model) distanceToBottom() float64 {
	total := m.viewport.TotalLineCount()
	visibleBottom := m.viewport.YOffset + m.viewport.Height
	if visibleBottom >= total {
		return 0
	}
	return float64(total - visibleBottom)
}

// refresh re-renders the transcript and applies the reconciler's
// verdict on whether to follow the newest content.
func (m *model) refresh() {
	if !m.ready {
		return
	}

	var b strings.Builder
	for _, msg := range m.ctrl.Store().Messages() {
		label := assistantStyle.Render("assistant")
		if msg.Role == widget.RoleUser {
			label = userStyle.Render("you")
		}
		b.WriteString(label + " " + msg.Content + "\n\n")
	}

	m.viewport.SetContent(b.String())
	if !m.ctrl.Scroll().ScrolledUp() {
		m.viewport.GotoBottom()
	}
}

func (m model) View() string {
	if !m.ready {
		return "loading..."
	}

	title := "Folio Assistant"
	if m.adminTag != "" {
		title = "Folio Support Chat " + hintStyle.Render("("+m.adminTag+")")
	}

	var status string
	switch {
	case m.notice != "":
		status = noticeStyle.Render(m.notice)
	case m.ctrl.Loading():
		status = m.spin.View() + " thinking..."
	case m.ctrl.Scroll().HasUnseen():
		status = unseenStyle.Render("new messages below, ctrl+b to jump")
	}

	hints := hintStyle.Render("enter send · f2-f4 quick replies · ctrl+r reset · ctrl+b bottom · esc quit")

	return fmt.Sprintf("%s\n\n%s\n%s\n%s\n%s",
		titleStyle.Render(title),
		m.viewport.View(),
		status,
		m.input.View(),
		hints,
	)
}

func main() {
	var (
		mode         = flag.String("mode", "assistant", "assistant (streaming) or admin (polling)")
		baseURL      = flag.String("url", "http://localhost:8080/api/v1", "API base URL")
		token        = flag.String("token", "", "admin access token (admin mode)")
		conversation = flag.String("conversation", "", "conversation ID (admin mode)")
		visitorID    = flag.String("visitor", "", "visitor ID override (assistant mode)")
	)
	flag.Parse()

	var (
		ctrl *widget.Controller
		poll <-chan widget.Event
		tag  string
	)

	switch *mode {
	case "assistant":
		backend, err := widget.DefaultFileBackend()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open local store: %v\n", err)
			os.Exit(1)
		}
		key := *visitorID
		if key == "" {
			key = "visitor"
		}
		store := widget.NewStore(backend, key)
		transport := widget.NewStreamTransport(*baseURL + "/assistant/chat")
		ctrl = widget.NewController(store, transport, widget.NewReconciler())

	case "admin":
		if *token == "" || *conversation == "" {
			fmt.Fprintln(os.Stderr, "admin mode requires -token and -conversation")
			os.Exit(1)
		}
		transport := widget.NewPollingTransport(*baseURL, "admin", map[string]string{
			"Authorization": "Bearer " + *token,
		})
		backend := widget.NewRemoteBackend(func(key string) ([]widget.Message, error) {
			return transport.Fetch(context.Background(), key)
		})
		store := widget.NewStore(backend, *conversation)
		ctrl = widget.NewController(store, transport, widget.NewReconciler())
		poll = transport.Poll(context.Background(), *conversation)
		tag = *conversation

	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(1)
	}

	p := tea.NewProgram(newModel(ctrl, poll, tag), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
