package monitor

import (
	"context"

	"github.com/goccy/go-json"

	"discoverydash/internal/models"
)

// FetchHealth retrieves the cluster health list. A body that is not a JSON
// array yields an empty list rather than an error.
func (c *Client) FetchHealth(ctx context.Context) ([]models.HealthEntry, error) {
	body, err := c.getBody(ctx, c.requestTimeout, healthPath, nil)
	if err != nil {
		return nil, err
	}
	return DecodeHealth(body), nil
}

// DecodeHealth parses a health payload, returning an empty list for anything
// other than an array of entries.
func DecodeHealth(body []byte) []models.HealthEntry {
	var entries []models.HealthEntry
	if err := json.Unmarshal(body, &entries); err != nil || entries == nil {
		return []models.HealthEntry{}
	}
	return entries
}
