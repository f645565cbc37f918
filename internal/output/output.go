// Package output provides styled terminal output helpers (success, error,
// warning, board rendering) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/a7medmo7amady/trello/internal/board"
	"github.com/a7medmo7amady/trello/internal/models"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	tagStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	archivedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242")).Strikethrough(true)
	conflictStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// JSON outputs data as indented JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// FormatList renders a one-line list header.
func FormatList(l models.List) string {
	title := titleStyle.Render(l.Title)
	if l.Archived {
		title = archivedStyle.Render(l.Title) + subtleStyle.Render(" [archived]")
	}
	return fmt.Sprintf("%s %s", title, subtleStyle.Render(fmt.Sprintf("(%s v%d)", shortID(l.ID), l.Version)))
}

// FormatCard renders a one-line card row.
func FormatCard(c models.Card) string {
	parts := []string{c.Title}
	if len(c.Tags) > 0 {
		parts = append(parts, tagStyle.Render("#"+strings.Join(c.Tags, " #")))
	}
	parts = append(parts, subtleStyle.Render(fmt.Sprintf("(%s v%d)", shortID(c.ID), c.Version)))
	return strings.Join(parts, " ")
}

// Board renders the whole board: lists in order, each with its cards.
func Board(state board.State, includeArchived bool) {
	lists := state.SortedLists(includeArchived)
	if len(lists) == 0 {
		Info("Board is empty. Create a list with: trello create list <title>")
		return
	}
	for _, l := range lists {
		fmt.Println(FormatList(l))
		for _, ci := range state.CardsInList(l.ID) {
			fmt.Printf("  %d. %s\n", state.Cards[ci].Order, FormatCard(state.Cards[ci]))
		}
	}
}

// FormatConflict renders one open conflict with both sides.
func FormatConflict(c models.Conflict) string {
	var b strings.Builder
	b.WriteString(conflictStyle.Render(fmt.Sprintf("CONFLICT %s (%s %s)", shortID(c.ID), c.Type, shortID(c.ItemID))))
	b.WriteString(subtleStyle.Render(fmt.Sprintf("  detected %s\n", c.DetectedAt.Format("2006-01-02 15:04:05"))))
	switch c.Type {
	case models.EntityList:
		b.WriteString(fmt.Sprintf("  local : %q (v%d)\n", c.LocalList.Title, c.LocalList.Version))
		b.WriteString(fmt.Sprintf("  remote: %q (v%d)\n", c.RemoteList.Title, c.RemoteList.Version))
	case models.EntityCard:
		b.WriteString(fmt.Sprintf("  local : %q (v%d)\n", c.LocalCard.Title, c.LocalCard.Version))
		b.WriteString(fmt.Sprintf("  remote: %q (v%d)\n", c.RemoteCard.Title, c.RemoteCard.Version))
	}
	b.WriteString(subtleStyle.Render(fmt.Sprintf("  resolve with: trello conflicts resolve %s local|remote", shortID(c.ID))))
	return b.String()
}

// shortID truncates a UUID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
