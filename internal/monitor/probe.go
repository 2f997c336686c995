package monitor

import (
	"context"
	"log/slog"

	"github.com/goccy/go-json"

	"discoverydash/internal/models"
	"discoverydash/internal/projection"
)

// ProbeServices probes each named service in order. A failed probe becomes an
// offline record and never stops the remaining probes.
func (c *Client) ProbeServices(ctx context.Context, names []string) []models.ServiceStatus {
	services := make([]models.ServiceStatus, 0, len(names))
	for _, name := range names {
		status, err := c.Probe(ctx, name)
		if err != nil {
			slog.Debug("service probe failed", "service", name, "error", err)
			status = models.OfflineStatus(name)
		}
		services = append(services, status)
	}
	return services
}

// Probe queries a single service through the gateway and measures the round trip.
func (c *Client) Probe(ctx context.Context, name string) (models.ServiceStatus, error) {
	start := c.now()
	body, err := c.getBody(ctx, c.probeTimeout, probePath, map[string]string{"name": name})
	if err != nil {
		return models.ServiceStatus{}, err
	}
	received := c.now()

	var rec models.ServiceRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return models.ServiceStatus{}, decodeError("probe "+name, err)
	}
	if rec.Service == "" {
		rec.Service = name
	}

	// The gateway answers lookups it could not complete with a 200 and a
	// placeholder record.
	observed := projection.ParseObserved(rec.Timestamp)
	if models.ParseServiceState(rec.Status) == models.StateOffline || observed == nil {
		return models.OfflineStatus(rec.Service), nil
	}

	elapsed := received.Sub(start).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}
	host := rec.Host
	if host == "" {
		host = models.NotAvailable
	}
	return models.ServiceStatus{
		Name:           rec.Service,
		Host:           host,
		Status:         models.StateOnline,
		ResponseTimeMS: models.Int64(elapsed),
		ObservedAtMS:   observed,
		FetchedAtMS:    models.Int64(received.UnixMilli()),
	}, nil
}
