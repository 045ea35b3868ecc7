package main

import (
	"bytes"
	"context"
	"delivery-tracking-service/internal/adapters/repositories"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/platform/db"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scheduleJSON = `[
  {"delivery_id":"a","contact_email":"a@example.com","lat":52.52,"lon":13.405,"scheduled_at":"2024-05-01 10:00:00"},
  {"delivery_id":"b","contact_email":"b@example.com","lat":52.53,"lon":13.41,"scheduled_at":"2024-05-01 10:30:00"}
]`

const eventsJSON = `[
  {"id":"a","time_of_delivery":"2024-05-01 10:05:00","lat":52.52,"lon":13.405},
  {"id":"b","time_of_delivery":"2024-05-01 11:00:00","lat":52.53,"lon":13.41},
  {"id":"zzz","time_of_delivery":"2024-05-01 11:10:00","lat":0,"lon":0}
]`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadEvents(t *testing.T) {
	dir := t.TempDir()

	evs, err := loadEvents(writeFile(t, dir, "events.json", eventsJSON))
	require.NoError(t, err)
	require.Len(t, evs, 3)
	assert.Equal(t, "a", evs[0].ID)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 5, 0, 0, time.UTC), evs[0].TimeOfDelivery)

	_, err = loadEvents(writeFile(t, dir, "bad.json", `[{"id":"","time_of_delivery":"2024-05-01 10:05:00"}]`))
	assert.ErrorContains(t, err, "index 1")

	_, err = loadEvents(writeFile(t, dir, "nowhere.json", `[{"id":"a","time_of_delivery":"2024-05-01 10:05:00"}]`))
	assert.ErrorContains(t, err, "lat and lon are required")

	_, err = loadEvents(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestReplayEvents(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	deliveries := []domain.Delivery{
		{ID: "a", ContactEmail: "a@example.com", Location: domain.Location{Lat: 52.52, Lon: 13.405}, ScheduledAt: at},
		{ID: "b", ContactEmail: "b@example.com", Location: domain.Location{Lat: 52.53, Lon: 13.41}, ScheduledAt: at.Add(30 * time.Minute)},
	}
	evs := []domain.DeliveryEvent{
		{ID: "a", TimeOfDelivery: at.Add(5 * time.Minute), Location: deliveries[0].Location},
		{ID: "b", TimeOfDelivery: at.Add(time.Hour), Location: deliveries[1].Location},
	}

	var buf bytes.Buffer
	require.NoError(t, replayEvents(context.Background(), deliveries, evs, 50, nil, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "id=a matched=true on_time=true sent=2")
	assert.Contains(t, lines[1], "id=b matched=true on_time=false sent=1")
	assert.Contains(t, lines[1], "speed_updated=true")
	assert.Contains(t, lines[2], "samples=2")
}

func TestSeedAndReplayCommands(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(dir, "app.db"))

	schedule := writeFile(t, dir, "schedule.json", scheduleJSON)
	evs := writeFile(t, dir, "events.json", eventsJSON)

	root := newRootCmd()
	root.SetArgs([]string{"seed", "--file", schedule})
	require.NoError(t, root.Execute())

	var out bytes.Buffer
	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"replay", "--file", evs, "--persist"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "id=a matched=true on_time=true")
	assert.Contains(t, out.String(), "id=zzz matched=false")

	sqlDB, err := db.Open(db.DriverSQLite, filepath.Join(dir, "app.db"))
	require.NoError(t, err)
	defer sqlDB.Close()

	stored, err := repositories.NewSQLScheduleRepository(sqlDB).ListDeliveries(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.True(t, stored[0].Arrived)
	assert.True(t, stored[0].OnTime)
	assert.True(t, stored[1].Arrived)
	assert.False(t, stored[1].OnTime)
}

func TestSeedCommandGeocodesAddresses(t *testing.T) {
	ors := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geocode/search", r.URL.Path)
		_, _ = w.Write([]byte(`{"features":[{"geometry":{"coordinates":[13.405,52.52]}}]}`))
	}))
	defer ors.Close()

	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(dir, "app.db"))
	t.Setenv("DISTANCE_PROVIDER", "ors")
	t.Setenv("ORS_API_KEY", "key")
	t.Setenv("ORS_BASE_URL", ors.URL)

	schedule := writeFile(t, dir, "schedule.json",
		`[{"delivery_id":"a","contact_email":"a@example.com","address":"Alexanderplatz 1, Berlin","scheduled_at":"2024-05-01 10:00:00"}]`)

	root := newRootCmd()
	root.SetArgs([]string{"seed", "--file", schedule})
	require.NoError(t, root.Execute())

	sqlDB, err := db.Open(db.DriverSQLite, filepath.Join(dir, "app.db"))
	require.NoError(t, err)
	defer sqlDB.Close()

	stored, err := repositories.NewSQLScheduleRepository(sqlDB).ListDeliveries(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, domain.Location{Lat: 52.52, Lon: 13.405}, stored[0].Location)
}

func TestReplayRequiresFile(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"replay"})
	root.SetErr(&bytes.Buffer{})
	assert.Error(t, root.Execute())
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
