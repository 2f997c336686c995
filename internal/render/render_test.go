package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discoverydash/internal/models"
	"discoverydash/internal/projection"
)

const title = "Service Discovery Demo"

func populatedView() models.View {
	observed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local).UnixMilli()
	fetched := observed + 40
	return models.View{
		Services: []models.ServiceStatus{
			{
				Name:           "service-a",
				Host:           "h1",
				Status:         models.StateOnline,
				ResponseTimeMS: models.Int64(123),
				ObservedAtMS:   models.Int64(observed),
				FetchedAtMS:    models.Int64(fetched),
			},
			models.OfflineStatus("service-b"),
		},
		Health: []models.HealthEntry{
			{Name: "service-a", Status: models.HealthHealthy},
			{Name: "service-b", Status: models.HealthUnhealthy},
		},
		ClockNowMS: fetched + 1_500,
	}
}

func emptyView() models.View {
	return models.View{Services: []models.ServiceStatus{}, Health: []models.HealthEntry{}}
}

func TestBuildBoard(t *testing.T) {
	view := populatedView()
	board := BuildBoard(title, view)

	require.Len(t, board.Cards, 2)
	a := board.Cards[0]
	assert.Equal(t, "ONLINE", a.Badge)
	assert.Equal(t, "online", a.Class)
	assert.Equal(t, "123 ms", a.ResponseTime)
	assert.Equal(t, projection.Format(*view.Services[0].ObservedAtMS+1_500), a.Timestamp)

	b := board.Cards[1]
	assert.Equal(t, "OFFLINE", b.Badge)
	assert.Equal(t, "offline", b.Class)
	assert.Equal(t, "N/A", b.ResponseTime)
	assert.Equal(t, "N/A", b.Timestamp)
	assert.Equal(t, "N/A", b.Host)

	assert.Equal(t, []HealthLine{
		{Text: "service-a: healthy", Class: "healthy", Healthy: true},
		{Text: "service-b: unhealthy", Class: "unhealthy"},
	}, board.Health)
}

func TestBuildBoard_UnknownIsRed(t *testing.T) {
	view := models.View{Services: []models.ServiceStatus{{Name: "x", Host: "h", Status: models.StateUnknown}}}
	card := BuildBoard(title, view).Cards[0]
	assert.Equal(t, "UNKNOWN", card.Badge)
	assert.Equal(t, "offline", card.Class)
}

func TestPage_Populated(t *testing.T) {
	view := models.View{
		Services: []models.ServiceStatus{{
			Name:           "service-a",
			Host:           "h1",
			Status:         models.StateOnline,
			ResponseTimeMS: models.Int64(123),
			ObservedAtMS:   models.Int64(1_704_067_200_000),
			FetchedAtMS:    models.Int64(1_704_067_200_010),
		}},
		Health:     []models.HealthEntry{{Name: "service-a", Status: models.HealthHealthy}},
		ClockNowMS: 1_704_067_200_010,
	}

	out, err := Page(title, view)
	require.NoError(t, err)

	assert.Contains(t, out, title)
	assert.Contains(t, out, "<h2>service-a</h2>")
	assert.Contains(t, out, "ONLINE")
	assert.Contains(t, out, "123 ms")
	assert.Contains(t, out, "service-a: healthy")
	assert.Contains(t, out, projection.Format(1_704_067_200_000))
	assert.Equal(t, 1, strings.Count(out, "<li"))
}

func TestPage_Empty(t *testing.T) {
	out, err := Page(title, emptyView())
	require.NoError(t, err)

	assert.Contains(t, out, "<h1>"+title+"</h1>")
	assert.Equal(t, 0, strings.Count(out, "Timestamp:"))
	assert.Equal(t, 0, strings.Count(out, "<li"))
}

func TestPage_EscapesGatewayData(t *testing.T) {
	view := models.View{Services: []models.ServiceStatus{{Name: "<script>x</script>", Host: "h", Status: models.StateOnline}}}
	out, err := Fragment(title, view)
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>x</script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestRenderIsIdempotent(t *testing.T) {
	view := populatedView()
	first, err := Page(title, view)
	require.NoError(t, err)
	second, err := Page(title, view)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, Terminal(title, view, 80), Terminal(title, view, 80))
}

func TestFragment_OmitsDocument(t *testing.T) {
	out, err := Fragment(title, populatedView())
	require.NoError(t, err)
	assert.NotContains(t, out, "<html")
	assert.Contains(t, out, "service-b: unhealthy")
	assert.Equal(t, 2, strings.Count(out, "Timestamp:"))
}

func TestTerminal(t *testing.T) {
	view := populatedView()
	view.ServicesUpdatedAt = time.UnixMilli(view.ClockNowMS).Add(-2 * time.Second)

	out := Terminal(title, view, 100)
	assert.Contains(t, out, title)
	assert.Contains(t, out, "service-a")
	assert.Contains(t, out, "ONLINE")
	assert.Contains(t, out, "OFFLINE")
	assert.Contains(t, out, "123 ms")
	assert.Contains(t, out, "service-a: healthy")
	assert.Contains(t, out, "2 seconds ago")
	assert.Contains(t, out, "health never updated")

	empty := Terminal(title, emptyView(), 100)
	assert.Contains(t, empty, "no services")
	assert.Contains(t, empty, "no health data")
}

func TestChunkCards(t *testing.T) {
	cards := make([]Card, 5)
	assert.Len(t, chunkCards(cards, 0), 1)
	assert.Len(t, chunkCards(cards, 10), 5)
	rows := chunkCards(cards, 2*(cardWidth+2))
	require.Len(t, rows, 3)
	assert.Len(t, rows[2], 1)
	assert.Empty(t, chunkCards(nil, 80))
}
