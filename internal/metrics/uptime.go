package metrics

import (
	"math"
	"sort"
	"sync"
	"time"

	"discoverydash/internal/models"
)

// ServiceUptime summarises availability of a discovered service over recent polls.
type ServiceUptime struct {
	Name          string  `json:"name"`
	UptimePercent float64 `json:"uptime_percent"`
	TotalPolls    int     `json:"total_polls"`
	Online        int     `json:"online"`
	Offline       int     `json:"offline"`
	LastState     string  `json:"last_state,omitempty"`
	LastUpdated   string  `json:"last_updated,omitempty"`
}

type sample struct {
	at     time.Time
	states map[string]models.ServiceState
}

// Tracker keeps the outcome of the last N polls in memory.
type Tracker struct {
	mu      sync.RWMutex
	window  int
	samples []sample
}

// NewTracker creates a tracker remembering up to window polls.
func NewTracker(window int) *Tracker {
	if window <= 0 {
		window = 1
	}
	return &Tracker{window: window}
}

// Record adds the outcome of one poll.
func (t *Tracker) Record(at time.Time, services []models.ServiceStatus) {
	states := make(map[string]models.ServiceState, len(services))
	for _, svc := range services {
		states[svc.Name] = svc.Status
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples = append(t.samples, sample{at: at, states: states})
	if over := len(t.samples) - t.window; over > 0 {
		t.samples = append(t.samples[:0:0], t.samples[over:]...)
	}
}

// Summary aggregates uptime statistics per service, sorted by name.
// Unknown states count as neither online nor offline.
func (t *Tracker) Summary() []ServiceUptime {
	type acc struct {
		online    int
		offline   int
		lastState models.ServiceState
		lastTime  time.Time
	}

	t.mu.RLock()
	state := make(map[string]*acc)
	for _, s := range t.samples {
		for name, st := range s.states {
			target := state[name]
			if target == nil {
				target = &acc{}
				state[name] = target
			}
			switch st {
			case models.StateOnline:
				target.online++
			case models.StateOffline:
				target.offline++
			}
			target.lastState = st
			target.lastTime = s.at
		}
	}
	t.mu.RUnlock()

	if len(state) == 0 {
		return nil
	}

	keys := make([]string, 0, len(state))
	for k := range state {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	results := make([]ServiceUptime, 0, len(keys))
	for _, name := range keys {
		data := state[name]
		total := data.online + data.offline
		uptime := 0.0
		if total > 0 {
			uptime = float64(data.online) / float64(total) * 100
		}

		result := ServiceUptime{
			Name:          name,
			UptimePercent: round2(uptime),
			TotalPolls:    total,
			Online:        data.online,
			Offline:       data.offline,
			LastState:     string(data.lastState),
		}
		if !data.lastTime.IsZero() {
			result.LastUpdated = data.lastTime.UTC().Format(time.RFC3339)
		}
		results = append(results, result)
	}
	return results
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
