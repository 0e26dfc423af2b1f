package remote

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/chime/internal/audio"
	"github.com/julianstephens/chime/internal/models"
	"github.com/julianstephens/chime/internal/recurrence"
	"github.com/julianstephens/chime/internal/server"
	"github.com/julianstephens/chime/internal/service"
	"github.com/julianstephens/chime/internal/service/local"
	"github.com/julianstephens/chime/internal/storage/sqlite"
	"github.com/julianstephens/chime/internal/store"
)

type nopPlayer struct {
	status audio.Status
}

func (p *nopPlayer) Play(ctx context.Context, path string, volume int) error {
	p.status = audio.Status{Playing: true, Path: path, Volume: volume}
	return nil
}

func (p *nopPlayer) Stop(ctx context.Context) error {
	p.status = audio.Status{}
	return nil
}

func (p *nopPlayer) Status() audio.Status { return p.status }

type nopLauncher struct{}

func (nopLauncher) SetEnabled(bool) error { return nil }

func setup(t *testing.T, secret string) (*Client, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()

	db := sqlite.NewStore(filepath.Join(dir, "chime.db"))
	if err := db.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	file := filepath.Join(dir, "bell.wav")
	if err := os.WriteFile(file, []byte("RIFF"), 0644); err != nil {
		t.Fatal(err)
	}

	svc := local.New(db, &nopPlayer{}, nopLauncher{}, local.Options{CheckFiles: true})
	ts := httptest.NewServer(server.New(svc, server.Options{Secret: secret}).Handler())
	t.Cleanup(ts.Close)

	return New(ts.URL, secret), file
}

func TestRoundTrip(t *testing.T) {
	client, file := setup(t, "s3cret")
	ctx := context.Background()

	if err := client.Health(ctx); err != nil {
		t.Fatalf("Health failed: %v", err)
	}

	in := models.ToCreatePayload(models.ScheduleInput{
		Name:          "Stretch",
		AudioFilePath: file,
		ScheduledTime: "14:15",
		Enabled:       true,
		Repeat:        recurrence.Weekly(5, 1),
		Volume:        60,
	})
	rec, err := client.CreateSchedule(ctx, in)
	if err != nil {
		t.Fatalf("CreateSchedule failed: %v", err)
	}
	created := models.ScheduleFromRecord(rec)
	if created.ID == "" || created.Volume != 60 || !created.Repeat.Equal(recurrence.Weekly(1, 5)) {
		t.Fatalf("unexpected created schedule %+v", created)
	}

	records, err := client.ListSchedules(ctx)
	if err != nil || len(records) != 1 {
		t.Fatalf("ListSchedules: %v, %d records", err, len(records))
	}

	toggled, err := client.ToggleScheduleEnabled(ctx, created.ID, false)
	if err != nil {
		t.Fatalf("ToggleScheduleEnabled failed: %v", err)
	}
	if models.ScheduleFromRecord(toggled).Enabled {
		t.Error("expected schedule to be disabled")
	}

	if err := client.PlayAudio(ctx, file, 40); err != nil {
		t.Fatalf("PlayAudio failed: %v", err)
	}
	status, err := client.AudioStatus(ctx)
	if err != nil || !status.Playing || status.Volume != 40 {
		t.Errorf("unexpected status %+v (%v)", status, err)
	}
	if err := client.StopAudio(ctx); err != nil {
		t.Fatalf("StopAudio failed: %v", err)
	}

	if err := client.DeleteSchedule(ctx, created.ID); err != nil {
		t.Fatalf("DeleteSchedule failed: %v", err)
	}
	if err := client.DeleteSchedule(ctx, created.ID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestErrorsAreMapped(t *testing.T) {
	client, _ := setup(t, "")
	ctx := context.Background()

	volume := 10
	if _, err := client.UpdateSchedule(ctx, "missing", models.WireSchedulePatch{Volume: &volume}); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := client.PlayAudio(ctx, "/nope.mp3", 500); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	bad := New(client.baseURL, "")
	bad.baseURL += "/missing-prefix"
	if _, err := bad.ListSchedules(ctx); err == nil {
		t.Error("expected error for unknown route")
	}
}

func TestWrongSecret(t *testing.T) {
	client, _ := setup(t, "s3cret")
	client.secret = "nope"

	_, err := client.ListSchedules(context.Background())
	if err == nil {
		t.Fatal("expected unauthorized error")
	}
	if errors.Is(err, service.ErrNotFound) || errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("unexpected sentinel in %v", err)
	}
}

func TestStoresOverRemote(t *testing.T) {
	client, file := setup(t, "")
	ctx := context.Background()

	schedules := store.NewScheduleStore(client)
	if _, err := schedules.Create(ctx, models.ScheduleInput{
		Name:          "Water",
		AudioFilePath: file,
		ScheduledTime: "09:00",
		Enabled:       true,
		Repeat:        recurrence.Daily(),
		Volume:        50,
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	fresh := store.NewScheduleStore(client)
	if err := fresh.FetchAll(ctx); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	got := fresh.Snapshot().Schedules
	if len(got) != 1 || got[0].Name != "Water" || got[0].ScheduledTime != "09:00" {
		t.Fatalf("unexpected schedules %+v", got)
	}

	settings := store.NewSettingsStore(client)
	if err := settings.SetTheme(ctx, models.ThemeLight); err != nil {
		t.Fatalf("SetTheme failed: %v", err)
	}
	wire, err := client.GetSettings(ctx)
	if err != nil || wire.Theme != "light" {
		t.Errorf("expected light theme stored, got %+v (%v)", wire, err)
	}
}
