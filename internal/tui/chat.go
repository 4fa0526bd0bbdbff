// Package tui implements the interactive chat interface: a transcript
// viewport over a session subscription, with a textarea for queries and a
// live progress bar while a generation job runs.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/studyscout/scout/pkg/api"
	"github.com/studyscout/scout/pkg/chat"
	"github.com/studyscout/scout/tui/theme"
	"github.com/studyscout/scout/util/sanitize"
)

const inputHeight = 3

type snapshotMsg chat.Snapshot

type subscriptionClosedMsg struct{}

// artifactSavedMsg reports the outcome of a background artifact download.
type artifactSavedMsg struct {
	msgID string
	path  string
	err   error
}

// Model is the bubbletea model for the chat view.
type Model struct {
	session *chat.Session
	client  api.Client
	sub     chan chat.Snapshot

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	progress progress.Model

	snapshot chat.Snapshot
	// saved maps a file-ready message id to its save notice, so each
	// artifact is downloaded once and the notice survives rerenders.
	saved map[string]string
	theme *theme.Theme

	width  int
	height int
	ready  bool
}

// NewModel creates the chat view bound to a session. The model owns a
// subscription for its whole lifetime; Run tears it down on exit.
func NewModel(session *chat.Session, client api.Client) Model {
	th := theme.DefaultTheme

	ta := textarea.New()
	ta.Placeholder = "Ask anything, or request a practice document..."
	ta.Prompt = "> "
	ta.SetHeight(1)
	ta.ShowLineNumbers = false
	ta.CharLimit = 2000
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = th.Accent

	return Model{
		session:  session,
		client:   client,
		sub:      session.Subscribe(),
		textarea: ta,
		spinner:  sp,
		progress: progress.New(progress.WithDefaultGradient()),
		snapshot: session.Snapshot(),
		saved:    make(map[string]string),
		theme:    th,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, waitForSnapshot(m.sub))
}

func waitForSnapshot(sub chan chat.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-sub
		if !ok {
			return subscriptionClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			text := strings.TrimRight(m.textarea.Value(), "\n")
			if strings.TrimSpace(text) != "" {
				m.session.Submit(text)
				m.textarea.Reset()
			}
			return m, nil
		case "ctrl+x":
			m.session.CancelActiveJob()
			return m, nil
		case "ctrl+r":
			m.session.Reset()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		chromeHeight := inputHeight + 3
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-chromeHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - chromeHeight
		}
		m.textarea.SetWidth(msg.Width - 2)
		m.progress.Width = msg.Width - 20
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()

	case snapshotMsg:
		m.snapshot = chat.Snapshot(msg)
		if m.ready {
			m.viewport.SetContent(m.renderTranscript())
			m.viewport.GotoBottom()
		}
		cmds := []tea.Cmd{waitForSnapshot(m.sub)}
		if save := m.saveNewArtifacts(); save != nil {
			cmds = append(cmds, save)
		}
		return m, tea.Batch(cmds...)

	case artifactSavedMsg:
		if msg.err != nil {
			m.saved[msg.msgID] = m.theme.Error.Render("Could not save the file: " + msg.err.Error())
		} else {
			m.saved[msg.msgID] = m.theme.Success.Render("Saved " + msg.path)
		}
		if m.ready {
			m.viewport.SetContent(m.renderTranscript())
			m.viewport.GotoBottom()
		}
		return m, nil

	case subscriptionClosedMsg:
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	var b strings.Builder
	b.WriteString(m.theme.Header.Render("scout") + "\n")
	b.WriteString(m.viewport.View() + "\n")
	b.WriteString(m.statusLine() + "\n")
	b.WriteString(m.textarea.View() + "\n")
	b.WriteString(m.theme.Muted.Render("enter send · ctrl+x cancel job · ctrl+r reset · esc quit"))
	return b.String()
}

func (m Model) statusLine() string {
	switch m.snapshot.State {
	case chat.StateSearching:
		return m.spinner.View() + " " + m.theme.Info.Render("Searching...")
	case chat.StateJobRunning:
		if job := m.snapshot.Job; job != nil {
			bar := m.progress.ViewAs(float64(job.ProgressPercent) / 100)
			eta := ""
			if job.EstimatedSecondsLeft > 0 {
				eta = fmt.Sprintf(" ~%ds left", job.EstimatedSecondsLeft)
			}
			return m.spinner.View() + " " + bar + m.theme.Muted.Render(eta)
		}
		return m.spinner.View() + " " + m.theme.Info.Render("Working...")
	case chat.StateReady:
		return m.theme.Success.Render("Ready")
	case chat.StateFailed:
		return m.theme.Error.Render("Failed")
	default:
		return m.theme.Muted.Render("Idle")
	}
}

func (m Model) renderTranscript() string {
	if len(m.snapshot.Transcript) == 0 {
		return m.theme.Muted.Render("\n  Ask a question to get started.")
	}
	var sections []string
	for _, msg := range m.snapshot.Transcript {
		sections = append(sections, m.renderMessage(msg))
	}
	return strings.Join(sections, "\n\n")
}

func (m Model) renderMessage(msg chat.Message) string {
	if msg.Author == chat.AuthorUser {
		return m.theme.Bold.Render("you ") + msg.Text
	}

	label := m.theme.Accent.Render("scout ")
	switch msg.Kind {
	case chat.KindProgressUpdate:
		line := label + msg.Text
		if msg.ProgressPercent != nil {
			line += m.theme.Muted.Render(fmt.Sprintf(" (%d%%)", *msg.ProgressPercent))
		}
		return line
	case chat.KindFileReady:
		line := label + m.theme.Success.Render(msg.Text) + "\n  " +
			m.theme.Muted.Render(msg.ArtifactRef)
		if notice := m.saved[msg.ID]; notice != "" {
			line += "\n  " + notice
		}
		return line
	case chat.KindErrorNotice:
		return label + m.theme.Error.Render(msg.Text)
	default:
		return label + msg.Text + m.renderResults(msg)
	}
}

func (m Model) renderResults(msg chat.Message) string {
	if len(msg.Results) == 0 {
		return ""
	}
	var b strings.Builder
	for i, item := range msg.Results {
		b.WriteString(fmt.Sprintf("\n  %s %s %s",
			m.theme.Muted.Render(fmt.Sprintf("%d.", i+1)),
			item.Title,
			m.theme.Muted.Render(fmt.Sprintf("(%.1f)", item.RelevanceScore))))
		if item.URL != "" {
			b.WriteString("\n     " + m.theme.Info.Render(item.URL))
		}
	}
	if len(msg.Keywords) > 0 {
		b.WriteString("\n  " + m.theme.Muted.Render("keywords: "+strings.Join(msg.Keywords, ", ")))
	}
	return b.String()
}

// saveNewArtifacts returns a command downloading any file-ready message
// whose artifact has not been fetched yet. An empty placeholder notice
// marks a download as in flight.
func (m Model) saveNewArtifacts() tea.Cmd {
	var cmds []tea.Cmd
	for i, msg := range m.snapshot.Transcript {
		if msg.Kind != chat.KindFileReady || msg.ArtifactRef == "" {
			continue
		}
		if _, started := m.saved[msg.ID]; started {
			continue
		}
		m.saved[msg.ID] = ""
		cmds = append(cmds, saveArtifact(m.client, msg.ID, msg.ArtifactRef,
			artifactFilename(m.snapshot.Transcript[:i])))
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// artifactFilename derives a filename from the user query that produced
// the artifact, the nearest user message before it in the transcript.
func artifactFilename(preceding []chat.Message) string {
	for i := len(preceding) - 1; i >= 0; i-- {
		if preceding[i].Author == chat.AuthorUser {
			if name := sanitize.ForFilename(preceding[i].Text); name != "" {
				return name + ".pdf"
			}
			break
		}
	}
	return "scout-document.pdf"
}

func saveArtifact(client api.Client, msgID, ref, filename string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		data, err := client.FetchArtifact(ctx, ref)
		if err != nil {
			return artifactSavedMsg{msgID: msgID, err: err}
		}
		if err := os.WriteFile(filename, data, 0644); err != nil {
			return artifactSavedMsg{msgID: msgID, err: err}
		}
		return artifactSavedMsg{msgID: msgID, path: filename}
	}
}

// Run starts the chat interface and blocks until the user exits.
func Run(session *chat.Session, client api.Client) error {
	model := NewModel(session, client)
	defer session.Unsubscribe(model.sub)

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

var _ tea.Model = Model{}
