package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmorgal/bankfeed/internal/catalog"
)

// TemplatesModel is a read-only listing of the fetched catalog.
type TemplatesModel struct {
	CommonModel
	catalog *catalog.Catalog
}

func NewTemplatesModel(cat *catalog.Catalog) TemplatesModel {
	return TemplatesModel{catalog: cat}
}

func (m TemplatesModel) Title() string     { return "Templates" }
func (m TemplatesModel) ShortHelp() string { return "Esc: back" }

func (m TemplatesModel) Init() tea.Cmd { return nil }

func (m TemplatesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	return m, nil
}

func (m TemplatesModel) View() string {
	var b strings.Builder

	for _, inst := range m.catalog.Institutions() {
		b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%s)", inst.Name, inst.Code)))
		b.WriteString("\n")

		for _, tmpl := range inst.Templates {
			b.WriteString(fmt.Sprintf("  %-20s %-6s %s\n",
				tmpl.RecordType, strings.ToUpper(string(tmpl.Format)), tmpl.Label))
		}

		b.WriteString("\n")
	}

	return paneStyle.Render(b.String())
}
