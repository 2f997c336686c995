package models

import "time"

// NotAvailable is the placeholder the gateway and the dashboard use for unknown values.
const NotAvailable = "N/A"

// ServiceState is the reachability of a discovered service.
type ServiceState string

const (
	StateOnline  ServiceState = "online"
	StateOffline ServiceState = "offline"
	StateUnknown ServiceState = "unknown"
)

// ParseServiceState maps a gateway status string onto a ServiceState.
// Empty or unrecognised values become StateUnknown.
func ParseServiceState(raw string) ServiceState {
	switch ServiceState(raw) {
	case StateOnline, StateOffline:
		return ServiceState(raw)
	default:
		return StateUnknown
	}
}

// HealthState is the check result reported for a service by the health endpoint.
type HealthState string

const (
	HealthHealthy   HealthState = "healthy"
	HealthUnhealthy HealthState = "unhealthy"
)

// ServiceRecord is a single entry as returned by the gateway.
type ServiceRecord struct {
	Service      string   `json:"service"`
	Status       string   `json:"status,omitempty"`
	Timestamp    string   `json:"timestamp"`
	Host         string   `json:"host,omitempty"`
	ResponseTime *float64 `json:"responseTime,omitempty"`
}

// ServiceStatus is a normalized service record held by the view model.
// ObservedAtMS and FetchedAtMS are either both set or both nil.
type ServiceStatus struct {
	Name           string       `json:"name"`
	Host           string       `json:"host"`
	Status         ServiceState `json:"status"`
	ResponseTimeMS *int64       `json:"response_time_ms,omitempty"`
	ObservedAtMS   *int64       `json:"observed_at_ms,omitempty"`
	FetchedAtMS    *int64       `json:"fetched_at_ms,omitempty"`
}

// Online reports whether the service answered its last probe.
func (s ServiceStatus) Online() bool {
	return s.Status == StateOnline
}

// OfflineStatus builds the placeholder record used when a service could not be reached.
func OfflineStatus(name string) ServiceStatus {
	return ServiceStatus{
		Name:   name,
		Host:   NotAvailable,
		Status: StateOffline,
	}
}

// HealthEntry is one line of the cluster health summary.
type HealthEntry struct {
	Name   string      `json:"name"`
	Status HealthState `json:"status"`
}

// Healthy reports whether the entry passed its checks.
func (h HealthEntry) Healthy() bool {
	return h.Status == HealthHealthy
}

// View is an immutable copy of the dashboard view model.
type View struct {
	Services          []ServiceStatus `json:"services"`
	Health            []HealthEntry   `json:"health"`
	ClockNowMS        int64           `json:"clock_now_ms"`
	ServicesUpdatedAt time.Time       `json:"services_updated_at"`
	HealthUpdatedAt   time.Time       `json:"health_updated_at"`
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 {
	return &v
}
