package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/depwrangler/pkg/document"
)

// List styles
var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	listHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// RootListModel - Interactive root object selection
// =============================================================================

// RootListModel is the bubbletea model for picking the object to analyse
// from. Objects nothing else depends on are the usual roots and are listed
// in green.
type RootListModel struct {
	Objects  []*document.Object
	Cursor   int
	Selected *document.Object
	Height   int
	Offset   int
}

// NewRootListModel creates a list over the document's objects with the
// cursor on the document root, if it has one.
func NewRootListModel(doc *document.Document) RootListModel {
	m := RootListModel{Objects: doc.Objects, Height: 15}
	for i, o := range doc.Objects {
		if o.ID == doc.Root {
			m.Cursor = i
			break
		}
	}
	if m.Cursor >= m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
	return m
}

func (m RootListModel) Init() tea.Cmd {
	return nil
}

func (m RootListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Objects)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Objects) == 0 {
				return m, tea.Quit
			}
			m.Selected = m.Objects[m.Cursor]
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
		if m.Cursor >= m.Offset+m.Height {
			m.Offset = m.Cursor - m.Height + 1
		}
	}
	return m, nil
}

func (m RootListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Root"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Objects))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		o := m.Objects[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, o.ID, o.Type, strconv.Itoa(len(o.Upstream)), strconv.Itoa(len(o.Downstream))})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Object", "Type", "Up", "Down").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return listHeaderStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Objects) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if len(m.Objects[idx].Downstream) == 0 {
				base = base.Foreground(colorGreen)
			}
			if idx == m.Cursor {
				base = base.Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Objects))))

	return b.String()
}

// pickRoot runs the root picker on in/out and returns the chosen object ID,
// or "" when the user quit without choosing.
func pickRoot(ctx context.Context, doc *document.Document, in io.Reader, out io.Writer) (string, error) {
	p := tea.NewProgram(NewRootListModel(doc),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return "", err
	}
	fm, ok := final.(RootListModel)
	if !ok || fm.Selected == nil {
		return "", nil
	}
	return fm.Selected.ID, nil
}
