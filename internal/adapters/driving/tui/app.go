package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/dialog"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/views/info"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/logger"
)

const (
	minSidebarWidth = 26
	maxSidebarWidth = 40
	infoPanelHeight = 10
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	chatView      *chat.View
	documentsView *documents.View
	infoView      *info.View
	statusBar     *status.Bar
	dialog        *dialog.Dialog

	// focus is the pane receiving keys when no dialog is open.
	focus messages.FocusArea

	// showInfo toggles the index panel under the document list.
	showInfo bool

	// err holds the last mutation error reported to the user.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates the first window size has arrived.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if ports == nil {
		return nil, fmt.Errorf("creating app: %w", ErrMissingCorpusService)
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	a := &App{
		ports:         ports,
		ctx:           context.Background(),
		styles:        s,
		keymap:        km,
		chatView:      chat.NewView(s, km, ports.Chat, ports.Corpus),
		documentsView: documents.NewView(s, km, ports.Corpus, ports.Orchestrator),
		infoView:      info.NewView(s, ports.Corpus),
		statusBar:     status.NewBar(s, km),
		dialog:        dialog.New(s, km),
		focus:         messages.FocusChat,
	}
	a.chatView.SetFocused(true)

	dev := ports.Chat.Config().DeveloperMode
	a.documentsView.SetDevMode(dev)
	a.statusBar.SetDevMode(dev)
	return a, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	a.documentsView.WithContext(ctx)
	a.infoView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
// It loads the corpus and starts the input cursor.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("ragchat"),
		a.documentsView.Init(),
		a.chatView.Init(),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case dialog.Result:
		return a, a.handleDialogResult(msg)

	case messages.CorpusLoaded:
		a.documentsView, cmd = a.documentsView.Update(msg)
		a.chatView.Refresh()
		return a, cmd

	case messages.UploadCompleted:
		a.documentsView, cmd = a.documentsView.Update(msg)
		a.chatView.Refresh()
		a.handleUploadCompleted(msg)
		return a, cmd

	case messages.DeleteRequested:
		if a.ports.Orchestrator.Deleting(msg.Filename) {
			return a, nil
		}
		a.dialog.OpenConfirm("Delete document", fmt.Sprintf("Delete %q?", msg.Filename), msg.Filename)
		a.statusBar.SetState(status.StateDialog)
		return a, nil

	case messages.DeleteCompleted:
		a.documentsView, cmd = a.documentsView.Update(msg)
		a.chatView.Refresh()
		a.handleDeleteCompleted(msg)
		return a, cmd

	case messages.InfoLoaded:
		a.infoView, cmd = a.infoView.Update(msg)
		return a, cmd

	case messages.AnswerReceived:
		a.chatView, cmd = a.chatView.Update(msg)
		a.restoreStatus()
		return a, cmd

	case spinner.TickMsg:
		var docsCmd, chatCmd tea.Cmd
		a.documentsView, docsCmd = a.documentsView.Update(msg)
		a.chatView, chatCmd = a.chatView.Update(msg)
		return a, tea.Batch(docsCmd, chatCmd)

	case messages.ErrorOccurred:
		a.alert("Error", domain.UserMessage(msg.Err), msg.Err)
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	// Cursor blinks and other component messages
	if a.dialog.IsOpen() {
		a.dialog, cmd = a.dialog.Update(msg)
		return a, cmd
	}
	a.chatView, cmd = a.chatView.Update(msg)
	return a, cmd
}

func (a *App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	k := msg.String()

	if keymap.Matches(k, a.keymap.Quit) {
		return a, tea.Quit
	}

	if a.dialog.IsOpen() {
		a.dialog, cmd = a.dialog.Update(msg)
		return a, cmd
	}

	if msg.Paste {
		if paths := droppedFiles(string(msg.Runes)); len(paths) > 0 {
			return a, a.upload(paths)
		}
	}

	switch {
	case keymap.Matches(k, a.keymap.SwitchFocus):
		return a, a.setFocus(a.focus.Next())

	case keymap.Matches(k, a.keymap.Upload):
		if a.documentsView.Uploading() {
			return a, nil
		}
		a.statusBar.SetState(status.StateDialog)
		return a, a.dialog.OpenPrompt("Upload document", "Path to a .pdf, .docx or .txt file")

	case keymap.Matches(k, a.keymap.Clear):
		a.chatView.Clear()
		a.restoreStatus()
		return a, nil

	case keymap.Matches(k, a.keymap.DevMode):
		a.toggleDevMode()
		return a, nil

	case keymap.Matches(k, a.keymap.Info):
		a.showInfo = !a.showInfo
		a.layout()
		if a.showInfo {
			return a, a.infoView.Load()
		}
		return a, nil
	}

	if a.focus == messages.FocusDocuments {
		a.documentsView, cmd = a.documentsView.Update(msg)
		return a, cmd
	}

	a.chatView, cmd = a.chatView.Update(msg)
	if a.chatView.Awaiting() {
		a.statusBar.SetState(status.StateThinking)
	}
	return a, cmd
}

func (a *App) handleDialogResult(r dialog.Result) tea.Cmd {
	a.restoreStatus()
	if !r.Accepted {
		return nil
	}

	switch r.Kind {
	case dialog.KindConfirm:
		a.statusBar.SetMessage(fmt.Sprintf("Deleting %s...", r.Payload))
		return a.documentsView.Delete(r.Payload)
	case dialog.KindPrompt:
		return a.upload([]string{expandHome(r.Value)})
	}
	return nil
}

// upload starts uploading the first of paths.
func (a *App) upload(paths []string) tea.Cmd {
	cmd := a.documentsView.UploadFirst(paths)
	if cmd != nil {
		a.statusBar.SetState(status.StateUploading)
	}
	return cmd
}

func (a *App) handleUploadCompleted(msg messages.UploadCompleted) {
	a.restoreStatus()
	switch {
	case msg.Err == nil:
		a.statusBar.SetMessage(fmt.Sprintf("Uploaded %s (%d chunks)", msg.Result.Filename, msg.Result.NumChunks))
	case domain.IsValidation(msg.Err):
		logger.Debug("Upload skipped: %v", msg.Err)
	case errors.Is(msg.Err, domain.ErrUploadInProgress):
		a.statusBar.SetMessage("An upload is already in progress")
	case msg.Result != nil:
		// Uploaded, but the listing could not be refreshed
		a.alert("Refresh failed", "Document list refresh failed: "+domain.UserMessage(msg.Err), msg.Err)
	default:
		a.alert("Upload failed", "Upload failed: "+domain.UserMessage(msg.Err), msg.Err)
	}
}

func (a *App) handleDeleteCompleted(msg messages.DeleteCompleted) {
	a.restoreStatus()
	switch {
	case msg.Err == nil && msg.Deleted:
		a.statusBar.SetMessage("Deleted " + msg.Filename)
	case msg.Err == nil:
		// declined
	case domain.IsValidation(msg.Err):
		logger.Debug("Delete skipped: %v", msg.Err)
	case msg.Deleted:
		a.alert("Refresh failed", "Document list refresh failed: "+domain.UserMessage(msg.Err), msg.Err)
	default:
		a.alert("Delete failed", "Delete failed: "+domain.UserMessage(msg.Err), msg.Err)
	}
}

func (a *App) alert(title, message string, err error) {
	a.err = err
	logger.Warn("%s: %v", title, err)
	a.dialog.OpenAlert(title, message)
	a.statusBar.SetState(status.StateDialog)
}

// restoreStatus resets the status bar to reflect current activity.
func (a *App) restoreStatus() {
	a.statusBar.Clear()
	switch {
	case a.dialog.IsOpen():
		a.statusBar.SetState(status.StateDialog)
	case a.documentsView.Uploading():
		a.statusBar.SetState(status.StateUploading)
	case a.chatView.Awaiting():
		a.statusBar.SetState(status.StateThinking)
	}
}

func (a *App) setFocus(focus messages.FocusArea) tea.Cmd {
	a.focus = focus
	a.statusBar.SetFocus(focus)
	a.documentsView.SetFocused(focus == messages.FocusDocuments)
	return a.chatView.SetFocused(focus == messages.FocusChat)
}

func (a *App) toggleDevMode() {
	enabled := !a.ports.Chat.Config().DeveloperMode
	a.ports.Chat.SetDeveloperMode(enabled)
	a.documentsView.SetDevMode(enabled)
	a.statusBar.SetDevMode(enabled)
	a.chatView.Refresh()
	logger.Debug("Developer mode: %t", enabled)
}

// layout sizes the panes for the current terminal.
func (a *App) layout() {
	if !a.ready {
		return
	}
	sidebar := min(max(a.width/3, minSidebarWidth), maxSidebarWidth)
	body := max(a.height-1, 6)

	docsHeight := body
	if a.showInfo {
		docsHeight = max(body-infoPanelHeight, 6)
		a.infoView.SetWidth(sidebar - 2)
	}

	// Panel borders take one cell on each side
	a.documentsView.SetDimensions(sidebar-2, docsHeight-2)
	a.chatView.SetDimensions(max(a.width-sidebar-2, 20), body-2)
	a.statusBar.SetWidth(a.width)
	a.dialog.SetWidth(min(64, max(a.width-4, 20)))
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	if a.dialog.IsOpen() {
		return lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.Place(a.width, max(a.height-1, 1), lipgloss.Center, lipgloss.Center, a.dialog.View()),
			a.statusBar.View(),
		)
	}

	sidebar := a.documentsView.View()
	if a.showInfo {
		sidebar = lipgloss.JoinVertical(lipgloss.Left, sidebar, a.infoView.View())
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, a.chatView.View())
	return lipgloss.JoinVertical(lipgloss.Left, body, a.statusBar.View())
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(a.ctx),
	)
	_, err := p.Run()
	return err
}

// Focus returns the pane receiving keys.
func (a *App) Focus() messages.FocusArea {
	return a.focus
}

// DialogOpen reports whether a modal is visible.
func (a *App) DialogOpen() bool {
	return a.dialog.IsOpen()
}

// ShowInfo reports whether the index panel is visible.
func (a *App) ShowInfo() bool {
	return a.showInfo
}

// Err returns the last error reported to the user.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.layout()
}
