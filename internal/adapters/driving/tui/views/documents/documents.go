// Package documents provides the document sidebar view for the TUI.
package documents

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// View is the document sidebar: the corpus listing plus upload and delete.
type View struct {
	styles       *styles.Styles
	keymap       *keymap.KeyMap
	corpus       driving.CorpusService
	orchestrator driving.DocumentOrchestrator
	ctx          context.Context

	list    *list.DocumentList
	spinner spinner.Model

	// uploading is the base name of the file being uploaded, if any.
	uploading string
	loading   bool
	devMode   bool
	focused   bool
	width     int
	height    int
	err       error
}

// NewView creates a new document sidebar.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	corpus driving.CorpusService,
	orchestrator driving.DocumentOrchestrator,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	l := list.NewDocumentList(s)
	if orchestrator != nil {
		l.SetDeleting(orchestrator.Deleting)
	}

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = s.Warning

	return &View{
		styles:       s,
		keymap:       km,
		corpus:       corpus,
		orchestrator: orchestrator,
		ctx:          context.Background(),
		list:         l,
		spinner:      sp,
		width:        30,
		height:       20,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the corpus.
func (v *View) Init() tea.Cmd {
	return v.Load()
}

// Load performs the initial listing. Failures degrade to an empty corpus.
func (v *View) Load() tea.Cmd {
	v.loading = true
	ctx, corpus := v.ctx, v.corpus
	return func() tea.Msg {
		corpus.Load(ctx)
		return messages.CorpusLoaded{Documents: corpus.Documents()}
	}
}

// Refresh re-fetches the listing.
func (v *View) Refresh() tea.Cmd {
	v.loading = true
	ctx, corpus := v.ctx, v.corpus
	return func() tea.Msg {
		err := corpus.Refresh(ctx)
		return messages.CorpusLoaded{Documents: corpus.Documents(), Err: err}
	}
}

// Upload starts uploading path. It returns nil while another upload runs.
func (v *View) Upload(path string) tea.Cmd {
	return v.UploadFirst([]string{path})
}

// UploadFirst uploads the first of paths, as for a drop of several files.
func (v *View) UploadFirst(paths []string) tea.Cmd {
	if v.Uploading() {
		return nil
	}
	if len(paths) > 0 && strings.TrimSpace(paths[0]) != "" {
		v.uploading = filepath.Base(paths[0])
	}

	ctx, orch := v.ctx, v.orchestrator
	first := ""
	if len(paths) > 0 {
		first = paths[0]
	}
	upload := func() tea.Msg {
		result, err := orch.UploadFirst(ctx, paths)
		return messages.UploadCompleted{Path: first, Result: result, Err: err}
	}
	return tea.Batch(upload, v.spinner.Tick)
}

// Delete removes filename. The caller has already confirmed it.
func (v *View) Delete(filename string) tea.Cmd {
	ctx, orch := v.ctx, v.orchestrator
	return tea.Batch(
		func() tea.Msg {
			deleted, err := orch.Delete(ctx, filename, driving.AlwaysConfirm)
			return messages.DeleteCompleted{Filename: filename, Deleted: deleted, Err: err}
		},
		v.spinner.Tick,
	)
}

// Update handles messages for the sidebar.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.CorpusLoaded:
		v.loading = false
		v.err = msg.Err
		v.sync()
		return v, nil

	case messages.UploadCompleted:
		v.uploading = ""
		v.sync()
		return v, nil

	case messages.DeleteCompleted:
		v.sync()
		return v, nil

	case spinner.TickMsg:
		if !v.Uploading() && !v.anyDeleting() {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Up), keymap.Matches(k, v.keymap.Down):
		v.list, _ = v.list.Update(msg)
	case keymap.Matches(k, v.keymap.Refresh):
		return v, v.Refresh()
	case keymap.Matches(k, v.keymap.Delete):
		doc := v.list.SelectedDocument()
		if doc == nil || v.orchestrator.Deleting(doc.Filename) {
			return v, nil
		}
		filename := doc.Filename
		return v, func() tea.Msg { return messages.DeleteRequested{Filename: filename} }
	}
	return v, nil
}

// sync copies the corpus mirror into the list.
func (v *View) sync() {
	v.list.SetDocuments(v.corpus.Documents())
}

func (v *View) anyDeleting() bool {
	for _, doc := range v.list.Documents() {
		if v.orchestrator.Deleting(doc.Filename) {
			return true
		}
	}
	return false
}

// View renders the sidebar.
func (v *View) View() string {
	var b strings.Builder

	docs := v.list.Documents()
	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(docs))))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%d chunks indexed", domain.TotalChunks(docs))))
	b.WriteString("\n\n")

	if v.loading && len(docs) == 0 {
		b.WriteString(v.styles.Muted.Render("Loading..."))
	} else {
		b.WriteString(v.list.View())
	}
	b.WriteString("\n\n")

	if v.Uploading() {
		label := "Uploading..."
		if v.uploading != "" {
			label = fmt.Sprintf("Uploading %s...", v.uploading)
		}
		b.WriteString(v.spinner.View() + " " + v.styles.Warning.Render(label))
	} else {
		b.WriteString(v.styles.Help.Render("[ctrl+u] upload .pdf .docx .txt"))
	}
	b.WriteString("\n")

	mode := "off"
	if v.devMode {
		mode = "on"
	}
	b.WriteString(v.styles.Muted.Render("Developer mode: " + mode))

	if v.err != nil {
		b.WriteString("\n")
		b.WriteString(v.styles.Error.Render(domain.UserMessage(v.err)))
	}

	panel := v.styles.Panel
	if v.focused {
		panel = v.styles.PanelFocused
	}
	return panel.Width(v.width).Height(v.height).Render(b.String())
}

// Uploading reports whether an upload is in flight.
func (v *View) Uploading() bool {
	return v.uploading != "" || v.orchestrator.Busy()
}

// SelectedDocument returns the highlighted document, or nil.
func (v *View) SelectedDocument() *domain.Document {
	return v.list.SelectedDocument()
}

// SetDevMode updates the developer mode indicator.
func (v *View) SetDevMode(enabled bool) {
	v.devMode = enabled
}

// SetFocused marks the sidebar as the key target.
func (v *View) SetFocused(focused bool) {
	v.focused = focused
}

// Focused reports whether the sidebar has focus.
func (v *View) Focused() bool {
	return v.focused
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	// Header, footer and panel border
	v.list.SetDimensions(width-4, height-9)
}

// Err returns the last listing error.
func (v *View) Err() error {
	return v.err
}
