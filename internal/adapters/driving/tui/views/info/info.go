// Package info provides the corpus info panel for the TUI.
package info

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// View shows the backend index snapshot and gateway health.
type View struct {
	styles *styles.Styles
	corpus driving.CorpusService
	ctx    context.Context

	info    *domain.CorpusInfo
	health  *domain.Health
	loading bool
	err     error
	width   int
}

// NewView creates a new info panel.
func NewView(s *styles.Styles, corpus driving.CorpusService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		corpus: corpus,
		ctx:    context.Background(),
		width:  30,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Load fetches the index snapshot and health.
func (v *View) Load() tea.Cmd {
	v.loading = true
	ctx, corpus := v.ctx, v.corpus
	return func() tea.Msg {
		info, err := corpus.Info(ctx)
		health, herr := corpus.Health(ctx)
		if herr != nil {
			logger.Debug("Health check failed: %v", herr)
		}
		return messages.InfoLoaded{Info: info, Health: health, Err: err}
	}
}

// Update handles messages for the info panel.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	if msg, ok := msg.(messages.InfoLoaded); ok {
		v.loading = false
		v.info = msg.Info
		v.health = msg.Health
		v.err = msg.Err
	}
	return v, nil
}

// buildContent builds the content lines for display.
func (v *View) buildContent() []string {
	if v.info == nil {
		return nil
	}
	lines := []string{
		formatField("Chunks", fmt.Sprintf("%d", v.info.TotalChunks)),
		formatField("Model", orDash(v.info.Model)),
		formatField("Dimension", fmt.Sprintf("%d", v.info.Dimension)),
		formatField("Metric", orDash(v.info.SimilarityMetric)),
	}
	if v.info.CollectionName != "" {
		lines = append(lines, formatField("Collection", v.info.CollectionName))
	}
	if v.info.Provider != "" {
		lines = append(lines, formatField("Provider", v.info.Provider))
	}
	return lines
}

func formatField(label, value string) string {
	return fmt.Sprintf("%-11s %s", label+":", value)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// View renders the info panel.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Index"))
	b.WriteString("\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(domain.UserMessage(v.err)))
	case v.info == nil:
		b.WriteString(v.styles.Muted.Render("No index information"))
	default:
		for _, line := range v.buildContent() {
			b.WriteString(v.styles.Normal.Render(line))
			b.WriteString("\n")
		}
		b.WriteString(v.renderHealth())
	}

	return v.styles.Panel.Width(v.width).Render(b.String())
}

func (v *View) renderHealth() string {
	switch {
	case v.health == nil:
		return v.styles.Error.Render(formatField("Gateway", "unreachable"))
	case v.health.IsHealthy():
		return v.styles.Success.Render(formatField("Gateway", v.health.Status))
	default:
		return v.styles.Warning.Render(formatField("Gateway", v.health.Status))
	}
}

// SetWidth sets the panel width.
func (v *View) SetWidth(width int) {
	v.width = width
}

// Info returns the last loaded snapshot.
func (v *View) Info() *domain.CorpusInfo {
	return v.info
}
