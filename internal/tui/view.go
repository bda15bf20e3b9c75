package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	c := m.session.Active()
	rows := m.height - headerRows - footerRows
	if rows < 1 {
		rows = 1
	}
	lines := Rasterize(c.Frame(), m.width, rows, m.session.Assets().Name)

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.styles.Canvas.Render(strings.Join(lines, "\n")))
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) renderHeader() string {
	crumbs := []string{m.styles.Crumb.Render("main")}
	names := m.session.Breadcrumbs()
	for i, name := range names {
		st := m.styles.Crumb
		if i == len(names)-1 {
			st = m.styles.ActiveCrumb
		}
		crumbs = append(crumbs, st.Render(name))
	}
	if len(names) == 0 {
		crumbs[0] = m.styles.ActiveCrumb.Render("main")
	}

	var palette []string
	for i, it := range m.session.Palette() {
		if i >= 9 {
			break
		}
		palette = append(palette, m.styles.PaletteKey.Render(fmt.Sprint(i+1))+m.styles.Palette.Render(" "+it.Label))
	}

	left := strings.Join(crumbs, m.styles.Crumb.Render(" › "))
	right := strings.Join(palette, "  ")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return m.styles.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderStatus() string {
	c := m.session.Active()
	g := c.Graph()
	badge := m.styles.Badge.Render(c.State().String())
	info := fmt.Sprintf(" %d nodes  %d edges  %d selected  zoom %.0f%%",
		len(g.Nodes), len(g.Edges), len(g.SelectedIDs()), c.Camera().Scale*100)

	msg := ""
	switch {
	case m.err != nil:
		msg = m.styles.Error.Render("  " + m.err.Error())
	case m.status != "":
		msg = m.styles.Status.Render("  " + m.status)
	}
	return badge + info + msg
}
