package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/localnerve/recipe-board/internal/client"
	"github.com/localnerve/recipe-board/internal/models"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).MarginBottom(1)
	columnStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1).Width(30)
	fullStyle   = columnStyle.BorderForeground(lipgloss.Color("214"))
	headerStyle = lipgloss.NewStyle().Bold(true)
	cardStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))

	statusStyles = map[models.RecipeStatus]lipgloss.Style{
		models.StatusDormant:      lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		models.StatusFullyStocked: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		models.StatusLowStock:     lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		models.StatusOutOfStock:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
)

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func renderCard(card models.Card) string {
	status := strings.ToLower(strings.ReplaceAll(string(card.Status), "_", " "))
	if style, ok := statusStyles[card.Status]; ok {
		status = style.Render(status)
	}
	lines := []string{
		fmt.Sprintf("%d. %s", card.Order+1, cardStyle.Render(card.Title)),
		"   " + mutedStyle.Render(shortID(card.ID)) + " " + status,
	}
	if n := len(card.Ingredients); n > 0 {
		lines = append(lines, "   "+mutedStyle.Render(fmt.Sprintf("%d ingredients", n)))
	}
	if len(card.Labels) > 0 {
		lines = append(lines, "   "+mutedStyle.Render(strings.Join(card.Labels, ", ")))
	}
	return strings.Join(lines, "\n")
}

func renderColumn(col models.Column) string {
	count := strconv.Itoa(len(col.Cards))
	style := columnStyle
	if col.Limit != nil {
		count = fmt.Sprintf("%d/%d", len(col.Cards), *col.Limit)
		if len(col.Cards) >= *col.Limit {
			style = fullStyle
		}
	}

	lines := []string{
		headerStyle.Render(col.Title) + " " + mutedStyle.Render("("+count+")"),
		mutedStyle.Render(shortID(col.ID)),
	}
	for _, card := range col.Cards {
		lines = append(lines, "", renderCard(card))
	}
	return style.Render(strings.Join(lines, "\n"))
}

// renderBoard draws the columns side by side. Failures are shown the same
// way whatever their kind; the kind only goes to the log.
func renderBoard(st client.State) string {
	var b strings.Builder
	if st.BoardID == "" {
		b.WriteString(mutedStyle.Render("No board loaded"))
	} else {
		b.WriteString(titleStyle.Render(st.Title))
		b.WriteString("\n")
		columns := make([]string, len(st.Columns))
		for i, col := range st.Columns {
			columns[i] = renderColumn(col)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, columns...))
	}
	switch {
	case st.Stale:
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Something went wrong and the board may be out of date. Try again."))
	case st.Err != nil:
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Something went wrong. Try again."))
	}
	return b.String()
}
