// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// DocumentList displays the corpus in a navigable list.
type DocumentList struct {
	documents []domain.Document
	selected  int
	styles    *styles.Styles
	width     int
	height    int

	// deleting reports whether a delete is in flight for a filename.
	deleting func(filename string) bool
}

// NewDocumentList creates a new document list component.
func NewDocumentList(s *styles.Styles) *DocumentList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &DocumentList{
		styles: s,
		width:  30,
		height: 10,
	}
}

// Init initialises the document list.
func (l *DocumentList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *DocumentList) Update(msg tea.Msg) (*DocumentList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the document list.
func (l *DocumentList) View() string {
	if len(l.documents) == 0 {
		return l.styles.Muted.Render("No documents uploaded")
	}

	// Each document takes two lines
	visibleCount := l.height / 2
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if l.selected >= visibleCount {
		start = l.selected - visibleCount + 1
	}
	end := min(start+visibleCount, len(l.documents))

	lines := make([]string, 0, (end-start)*2)
	for i := start; i < end; i++ {
		lines = append(lines, l.renderDocument(i, &l.documents[i]))
	}
	return strings.Join(lines, "\n")
}

func (l *DocumentList) renderDocument(index int, doc *domain.Document) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	name := truncate(doc.Filename, l.width-4)
	detail := fmt.Sprintf("    %d chunks", doc.NumChunks)
	if l.deleting != nil && l.deleting(doc.Filename) {
		detail = "    deleting..."
	}

	var nameLine string
	if index == l.selected {
		nameLine = l.styles.Selected.Render(indicator + name)
	} else {
		nameLine = l.styles.Normal.Render(indicator + name)
	}
	return nameLine + "\n" + l.styles.Muted.Render(detail)
}

func truncate(s string, width int) string {
	if width < 10 {
		width = 10
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}

// SetDocuments replaces the listed documents, keeping the cursor on the
// same filename when it is still present.
func (l *DocumentList) SetDocuments(docs []domain.Document) {
	current := l.SelectedDocument()
	l.documents = docs
	l.selected = 0
	if current == nil {
		return
	}
	for i := range docs {
		if docs[i].Filename == current.Filename {
			l.selected = i
			return
		}
	}
	l.clampSelection()
}

// SetDeleting installs the in-flight delete check used for row markers.
func (l *DocumentList) SetDeleting(fn func(filename string) bool) {
	l.deleting = fn
}

// Documents returns the listed documents.
func (l *DocumentList) Documents() []domain.Document {
	return l.documents
}

// Selected returns the index of the selected document.
func (l *DocumentList) Selected() int {
	return l.selected
}

// SetSelected sets the selected index.
func (l *DocumentList) SetSelected(index int) {
	if index >= 0 && index < len(l.documents) {
		l.selected = index
	}
}

// SelectedDocument returns the currently selected document, or nil if none.
func (l *DocumentList) SelectedDocument() *domain.Document {
	if len(l.documents) == 0 || l.selected < 0 || l.selected >= len(l.documents) {
		return nil
	}
	doc := l.documents[l.selected]
	return &doc
}

// MoveUp moves selection up.
func (l *DocumentList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *DocumentList) MoveDown() {
	if l.selected < len(l.documents)-1 {
		l.selected++
	}
}

func (l *DocumentList) clampSelection() {
	if l.selected >= len(l.documents) {
		l.selected = max(0, len(l.documents)-1)
	}
}

// SetDimensions sets the component dimensions.
func (l *DocumentList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of documents.
func (l *DocumentList) Count() int {
	return len(l.documents)
}

// IsEmpty returns whether the list is empty.
func (l *DocumentList) IsEmpty() bool {
	return len(l.documents) == 0
}
