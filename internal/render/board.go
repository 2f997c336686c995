// Package render turns a dashboard view into HTML or terminal output.
// All renderers are pure functions of their inputs.
package render

import (
	"fmt"
	"strings"

	"discoverydash/internal/models"
	"discoverydash/internal/projection"
)

// Card is the display form of one service.
type Card struct {
	Name         string
	Badge        string
	Class        string
	Online       bool
	Timestamp    string
	ResponseTime string
	Host         string
}

// HealthLine is the display form of one health entry.
type HealthLine struct {
	Text    string
	Class   string
	Healthy bool
}

// Board is everything a renderer shows.
type Board struct {
	Title  string
	Cards  []Card
	Health []HealthLine
}

// BuildBoard projects the view onto display strings.
func BuildBoard(title string, view models.View) Board {
	board := Board{
		Title:  title,
		Cards:  make([]Card, 0, len(view.Services)),
		Health: make([]HealthLine, 0, len(view.Health)),
	}

	for _, svc := range view.Services {
		card := Card{
			Name:         svc.Name,
			Badge:        strings.ToUpper(string(svc.Status)),
			Class:        "offline",
			Online:       svc.Online(),
			Timestamp:    projection.Project(svc.ObservedAtMS, svc.FetchedAtMS, view.ClockNowMS),
			ResponseTime: models.NotAvailable,
			Host:         svc.Host,
		}
		if card.Badge == "" {
			card.Badge = strings.ToUpper(string(models.StateUnknown))
		}
		if card.Online {
			card.Class = "online"
		}
		if svc.ResponseTimeMS != nil {
			card.ResponseTime = fmt.Sprintf("%d ms", *svc.ResponseTimeMS)
		}
		if card.Host == "" {
			card.Host = models.NotAvailable
		}
		board.Cards = append(board.Cards, card)
	}

	for _, entry := range view.Health {
		line := HealthLine{
			Text:    fmt.Sprintf("%s: %s", entry.Name, entry.Status),
			Class:   "unhealthy",
			Healthy: entry.Healthy(),
		}
		if line.Healthy {
			line.Class = "healthy"
		}
		board.Health = append(board.Health, line)
	}
	return board
}
