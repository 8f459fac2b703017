// Package tui implements the Bubble Tea chat channel: ask a question, read
// the grounded answer with its citations, rate it with the 1-5 keys.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"supportrag/internal/domain"
)

// Asker is the TUI-facing subset of the agent.
type Asker interface {
	Ask(ctx context.Context, query string) (domain.Answer, error)
}

// Model is the Bubble Tea model for the chat session.
type Model struct {
	agent    Asker
	feedback domain.FeedbackSink

	input    textinput.Model
	viewport viewport.Model
	summary  string
	status   string
	ready    bool

	lastQuery  string
	lastAnswer *domain.Answer
}

// New creates the chat model.
func New(agent Asker, feedback domain.FeedbackSink, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		agent:    agent,
		feedback: feedback,
		input:    ti,
		viewport: vp,
		summary:  summary,
		status:   "Ready. Type a question to begin.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + summary, status, input frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}
			answer, err := m.agent.Ask(context.Background(), q)
			if err != nil {
				m.status = "Error: " + err.Error()
				m.lastAnswer = nil
			} else {
				m.status = fmt.Sprintf("Answered via %s. Press 1-5 to rate.", answer.Provider)
				m.lastQuery = q
				m.lastAnswer = &answer
			}
			m.input.SetValue("")
			m.viewport.SetContent(m.renderAnswer())
			return m, nil
		case "1", "2", "3", "4", "5":
			// Ratings only apply while an answer is showing and the input
			// is empty, so typing numbers in a question still works.
			if m.lastAnswer != nil && strings.TrimSpace(m.input.Value()) == "" {
				rating := int(msg.String()[0] - '0')
				if err := m.feedback.Log(domain.FeedbackRecord{
					Query:  m.lastQuery,
					Answer: m.lastAnswer.Text,
					Rating: rating,
				}); err != nil {
					m.status = "Rating not recorded: " + err.Error()
				} else {
					m.status = fmt.Sprintf("Rated %d/5. Ask another question.", rating)
				}
				return m, nil
			}
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Support Assistant")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	answer := answerBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + summary + "\n" + answer + "\n" + input + "\n" + status
}

func (m Model) renderAnswer() string {
	if m.lastAnswer == nil {
		return "No answer yet."
	}
	var sb strings.Builder
	sb.WriteString(m.lastAnswer.Text)
	if len(m.lastAnswer.Retrieved) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(citationStyle.Render("Sources:"))
		for i, r := range m.lastAnswer.Retrieved {
			sb.WriteString(fmt.Sprintf("\n  [%d] %s (score %.3f)", i+1, r.Chunk.Source, r.Score))
		}
	}
	return sb.String()
}

var (
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	citationStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)
