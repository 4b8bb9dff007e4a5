// Package chat provides the transcript and question input view for the TUI.
package chat

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

const (
	placeholderReady = "Ask a question about your documents..."
	placeholderEmpty = "Upload a document to start chatting"

	confidenceCells = 10
	inputHeight     = 3
)

// View renders the transcript and owns the question input.
type View struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	session driving.ChatSession
	corpus  driving.CorpusService
	ctx     context.Context

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// selected is the ID of the highlighted answer; 0 follows the latest.
	selected int64
	focused  bool
	width    int
	height   int
}

// NewView creates a new chat view.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	session driving.ChatSession,
	corpus driving.CorpusService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	ta := textarea.New()
	ta.Placeholder = placeholderReady
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(inputHeight)
	ta.SetWidth(60)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Muted

	v := &View{
		styles:   s,
		keymap:   km,
		session:  session,
		corpus:   corpus,
		ctx:      context.Background(),
		viewport: viewport.New(60, 20),
		textarea: ta,
		spinner:  sp,
		width:    64,
		height:   30,
	}
	v.Refresh()
	return v
}

// WithContext sets the context for outgoing questions.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !v.focused {
			return v, nil
		}
		return v.handleKeyMsg(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd

	case messages.AnswerReceived:
		if errors.Is(msg.Err, domain.ErrStaleExchange) {
			logger.Debug("Discarded answer from cleared transcript (generation %d)", msg.Generation)
		}
		v.selected = 0
		v.Refresh()
		v.viewport.GotoBottom()
		return v, nil

	case spinner.TickMsg:
		if !v.Awaiting() {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		v.Refresh()
		return v, cmd
	}

	if v.inputEnabled() {
		var cmd tea.Cmd
		v.textarea, cmd = v.textarea.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Send):
		return v, v.Submit()

	case keymap.Matches(k, v.keymap.Newline):
		if v.inputEnabled() {
			v.textarea.InsertString("\n")
		}
		return v, nil

	case keymap.Matches(k, v.keymap.PrevTurn):
		v.moveSelection(-1)
		return v, nil

	case keymap.Matches(k, v.keymap.NextTurn):
		v.moveSelection(1)
		return v, nil

	case keymap.Matches(k, v.keymap.ToggleSources):
		if turn, ok := v.SelectedTurn(); ok && turn.HasSources() {
			v.session.ToggleSources(turn.ID)
			v.Refresh()
		}
		return v, nil

	case keymap.Matches(k, v.keymap.TogglePrompt):
		if turn, ok := v.SelectedTurn(); ok && turn.HasPrompt() {
			v.session.TogglePrompt(turn.ID)
			v.Refresh()
		}
		return v, nil

	case keymap.Matches(k, v.keymap.ScrollUp), keymap.Matches(k, v.keymap.ScrollDown):
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd
	}

	if !v.inputEnabled() {
		return v, nil
	}
	var cmd tea.Cmd
	v.textarea, cmd = v.textarea.Update(msg)
	return v, cmd
}

// Submit sends the current input. Blank input, an empty corpus or an
// outstanding question make it a no-op.
func (v *View) Submit() tea.Cmd {
	input := v.textarea.Value()
	if !v.session.CanSend(input) {
		return nil
	}

	ex, err := v.session.Begin(input)
	if err != nil {
		logger.Debug("Question not sent: %v", err)
		return nil
	}

	v.textarea.Reset()
	v.selected = 0
	v.Refresh()
	v.viewport.GotoBottom()

	ctx := v.ctx
	complete := func() tea.Msg {
		turn, err := ex.Complete(ctx)
		return messages.AnswerReceived{Generation: ex.Generation(), Turn: turn, Err: err}
	}
	return tea.Batch(complete, v.spinner.Tick)
}

// Clear empties the transcript and abandons any outstanding question.
func (v *View) Clear() {
	v.session.Clear()
	v.selected = 0
	v.Refresh()
}

// Awaiting reports whether a question is outstanding.
func (v *View) Awaiting() bool {
	return v.session.State() == domain.StateAwaitingAnswer
}

func (v *View) inputEnabled() bool {
	if v.Awaiting() {
		return false
	}
	return v.corpus == nil || !v.corpus.IsEmpty()
}

// answerIDs lists assistant turn IDs in transcript order.
func (v *View) answerIDs(turns []domain.ChatTurn) []int64 {
	ids := make([]int64, 0, len(turns)/2+1)
	for i := range turns {
		if !turns[i].IsUser {
			ids = append(ids, turns[i].ID)
		}
	}
	return ids
}

func (v *View) moveSelection(delta int) {
	ids := v.answerIDs(v.session.Transcript())
	if len(ids) == 0 {
		return
	}
	idx := len(ids) - 1
	for i, id := range ids {
		if id == v.selected {
			idx = i
		}
	}
	idx = min(max(idx+delta, 0), len(ids)-1)
	v.selected = ids[idx]
	if idx == len(ids)-1 {
		v.selected = 0
	}
	v.Refresh()
}

// SelectedTurn returns the highlighted answer.
func (v *View) SelectedTurn() (domain.ChatTurn, bool) {
	turns := v.session.Transcript()
	id := v.selectedID(turns)
	for i := range turns {
		if turns[i].ID == id {
			return turns[i], true
		}
	}
	return domain.ChatTurn{}, false
}

func (v *View) selectedID(turns []domain.ChatTurn) int64 {
	if v.selected != 0 {
		return v.selected
	}
	ids := v.answerIDs(turns)
	if len(ids) == 0 {
		return 0
	}
	return ids[len(ids)-1]
}

// Refresh re-renders the transcript and input state from the session.
func (v *View) Refresh() {
	switch {
	case v.corpus != nil && v.corpus.IsEmpty():
		v.textarea.Placeholder = placeholderEmpty
		v.textarea.Blur()
	case v.Awaiting():
		v.textarea.Blur()
	default:
		v.textarea.Placeholder = placeholderReady
		if v.focused {
			v.textarea.Focus()
		}
	}
	v.viewport.SetContent(v.renderTranscript())
}

func (v *View) renderTranscript() string {
	turns := v.session.Transcript()
	width := max(v.viewport.Width-2, 20)

	if len(turns) == 0 {
		if v.corpus != nil && v.corpus.IsEmpty() {
			return v.styles.Muted.Render("Upload a document to start chatting.")
		}
		return v.styles.Muted.Render("Ask a question about your documents.")
	}

	selected := v.selectedID(turns)
	var b strings.Builder
	for i := range turns {
		turn := &turns[i]
		if turn.IsUser {
			b.WriteString(v.styles.UserLabel.Render("You"))
			b.WriteString("\n")
			b.WriteString(v.styles.Normal.Width(width).Render(turn.Content))
		} else {
			b.WriteString(v.renderAnswer(turn, turn.ID == selected, width))
		}
		b.WriteString("\n\n")
	}

	if v.Awaiting() {
		b.WriteString(v.spinner.View() + " " + v.styles.Muted.Render("Thinking..."))
	}
	return b.String()
}

func (v *View) renderAnswer(turn *domain.ChatTurn, selected bool, width int) string {
	var b strings.Builder

	label := v.styles.AssistantLabel.Render("Assistant")
	if selected {
		label = v.styles.Selected.Render(">") + " " + label
	}
	b.WriteString(label)
	b.WriteString("\n")

	if turn.Failed {
		b.WriteString(v.styles.Error.Width(width).Render(turn.Content))
		return b.String()
	}
	b.WriteString(v.styles.Normal.Width(width).Render(turn.Content))
	b.WriteString("\n")
	b.WriteString(v.renderConfidence(turn.Confidence))

	if turn.HasSources() {
		visible := v.session.SourcesVisible(turn.ID)
		b.WriteString("\n")
		b.WriteString(v.styles.Subtitle.Render(disclosure(visible) + " " + domain.SourceCountLabel(len(turn.Sources))))
		if visible {
			for i := range turn.Sources {
				b.WriteString("\n")
				b.WriteString(v.renderSource(i, &turn.Sources[i], width))
			}
		}
	}

	if turn.HasPrompt() {
		visible := v.session.PromptVisible(turn.ID)
		b.WriteString("\n")
		b.WriteString(v.styles.Warning.Render(disclosure(visible) + " Developer Mode: View Prompt"))
		if visible {
			b.WriteString("\n")
			b.WriteString(v.styles.Prompt.Width(width - 2).Render(turn.PromptUsed))
		}
	}
	return b.String()
}

func (v *View) renderConfidence(confidence float64) string {
	c := math.Min(math.Max(confidence, 0), 1)
	filled := int(math.Round(c * confidenceCells))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", confidenceCells-filled)

	style := v.styles.Error
	switch {
	case c >= 0.7:
		style = v.styles.Success
	case c >= 0.4:
		style = v.styles.Warning
	}
	return v.styles.Muted.Render("Confidence ") + style.Render(bar+" "+domain.FormatPercent(confidence))
}

func (v *View) renderSource(i int, src *domain.SourceCitation, width int) string {
	header := fmt.Sprintf("Source %d", i+1) + "  " + v.styles.Badge.Render(domain.FormatPercent(src.SimilarityScore)+" match")
	body := header + "\n" +
		v.styles.Muted.Render(src.Location()) + "\n" +
		src.Text
	return v.styles.SourceCard.Width(width - 2).Render(body)
}

func disclosure(open bool) string {
	if open {
		return "▾"
	}
	return "▸"
}

// View renders the chat panel.
func (v *View) View() string {
	var b strings.Builder

	cfg := v.session.Config()
	header := v.styles.Title.Render("Chat")
	if cfg.DeveloperMode {
		header += " " + v.styles.Badge.Render("DEV")
	}
	header += " " + v.styles.Muted.Render(fmt.Sprintf("top_k=%d", cfg.TopK))
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(v.viewport.View())
	b.WriteString("\n")

	switch {
	case v.Awaiting():
		b.WriteString(v.spinner.View() + " " + v.styles.Muted.Render("Waiting for answer..."))
	case v.corpus != nil && v.corpus.IsEmpty():
		b.WriteString(v.styles.Muted.Render(placeholderEmpty))
	default:
		b.WriteString(v.styles.InputField.Render(v.textarea.View()))
	}

	panel := v.styles.Panel
	if v.focused {
		panel = v.styles.PanelFocused
	}
	return panel.Width(v.width).Height(v.height).Render(b.String())
}

// SetFocused marks the chat as the key target.
func (v *View) SetFocused(focused bool) tea.Cmd {
	v.focused = focused
	if !focused {
		v.textarea.Blur()
		return nil
	}
	if v.inputEnabled() {
		return v.textarea.Focus()
	}
	return nil
}

// Focused reports whether the chat has focus.
func (v *View) Focused() bool {
	return v.focused
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	// Panel border and padding, header, input with its border
	inner := max(width-4, 20)
	v.viewport.Width = inner
	v.viewport.Height = max(height-inputHeight-6, 3)
	v.textarea.SetWidth(inner - 2)
	v.Refresh()
}

// Input returns the current question text.
func (v *View) Input() string {
	return v.textarea.Value()
}

// SetInput replaces the question text.
func (v *View) SetInput(s string) {
	v.textarea.SetValue(s)
}
