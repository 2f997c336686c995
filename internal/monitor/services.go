package monitor

import (
	"context"
	"math"

	"github.com/goccy/go-json"

	"discoverydash/internal/models"
	"discoverydash/internal/projection"
)

// FetchServices retrieves the aggregate service list and normalizes every record.
func (c *Client) FetchServices(ctx context.Context) ([]models.ServiceStatus, error) {
	body, err := c.getBody(ctx, c.requestTimeout, servicesPath, nil)
	if err != nil {
		return nil, err
	}
	fetchedAt := c.now().UnixMilli()

	var records []models.ServiceRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, decodeError("services", err)
	}

	services := make([]models.ServiceStatus, 0, len(records))
	for _, rec := range records {
		services = append(services, Normalize(rec, fetchedAt))
	}
	return services, nil
}

// Normalize converts a gateway record into a ServiceStatus received at fetchedAtMS.
func Normalize(rec models.ServiceRecord, fetchedAtMS int64) models.ServiceStatus {
	status := models.ServiceStatus{
		Name:   rec.Service,
		Host:   rec.Host,
		Status: models.ParseServiceState(rec.Status),
	}
	if status.Host == "" {
		status.Host = models.NotAvailable
	}

	if observed := projection.ParseObserved(rec.Timestamp); observed != nil {
		status.ObservedAtMS = observed
		status.FetchedAtMS = models.Int64(fetchedAtMS)
	}

	if status.Online() && rec.ResponseTime != nil {
		status.ResponseTimeMS = roundMS(*rec.ResponseTime)
	}
	return status
}

// roundMS rounds a gateway duration to whole milliseconds. Negative values and
// values outside the int64 range are treated as missing.
func roundMS(v float64) *int64 {
	r := math.Round(v)
	if !(v >= 0 && r < math.MaxInt64) {
		return nil
	}
	return models.Int64(int64(r))
}
