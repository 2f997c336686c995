package render

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"discoverydash/internal/models"
)

const cardWidth = 38

var (
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	nameStyle      = lipgloss.NewStyle().Bold(true)
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	hostStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("248"))
	onlineBadge    = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10")).Bold(true).Padding(0, 1)
	offlineBadge   = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("9")).Bold(true).Padding(0, 1)
	healthyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	unhealthyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	emptyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("242")).Italic(true)
	cardStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Width(cardWidth)
)

// Terminal renders the board for a terminal that is width columns wide.
// A width of zero places every card on one row.
func Terminal(title string, view models.View, width int) string {
	board := BuildBoard(title, view)

	var b strings.Builder
	b.WriteString(titleStyle.Render(board.Title))
	b.WriteString("\n\n")

	if len(board.Cards) == 0 {
		b.WriteString(emptyStyle.Render("no services"))
		b.WriteString("\n")
	}
	for _, row := range chunkCards(board.Cards, width) {
		rendered := make([]string, 0, len(row))
		for _, card := range row {
			rendered = append(rendered, renderCard(card))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(nameStyle.Render("Cluster health"))
	b.WriteString("\n")
	if len(board.Health) == 0 {
		b.WriteString(emptyStyle.Render("no health data"))
		b.WriteString("\n")
	}
	for _, line := range board.Health {
		style := unhealthyStyle
		if line.Healthy {
			style = healthyStyle
		}
		b.WriteString(style.Render(line.Text))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(labelStyle.Render(footer(view)))
	return b.String()
}

func renderCard(card Card) string {
	badge := offlineBadge
	if card.Online {
		badge = onlineBadge
	}
	lines := []string{
		nameStyle.Render(card.Name) + " " + badge.Render(card.Badge),
		labelStyle.Render("Timestamp: ") + card.Timestamp,
		labelStyle.Render("Response:  ") + card.ResponseTime,
		hostStyle.Render("Host:      " + card.Host),
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func chunkCards(cards []Card, width int) [][]Card {
	perRow := len(cards)
	if width > 0 {
		perRow = width / (cardWidth + 2)
	}
	if perRow < 1 {
		perRow = 1
	}

	var rows [][]Card
	for start := 0; start < len(cards); start += perRow {
		end := start + perRow
		if end > len(cards) {
			end = len(cards)
		}
		rows = append(rows, cards[start:end])
	}
	return rows
}

func footer(view models.View) string {
	now := time.UnixMilli(view.ClockNowMS)
	parts := []string{"services " + since(view.ServicesUpdatedAt, now), "health " + since(view.HealthUpdatedAt, now)}
	return strings.Join(parts, " · ")
}

func since(t, now time.Time) string {
	if t.IsZero() {
		return "never updated"
	}
	return "updated " + humanize.RelTime(t, now, "ago", "from now")
}
