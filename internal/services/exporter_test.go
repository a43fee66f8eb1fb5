package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditrail/backend/api/transport"
	"github.com/auditrail/backend/repository/boltdb"
	"github.com/auditrail/backend/usecase"
	"github.com/auditrail/backend/usecase/activity"
	userUC "github.com/auditrail/backend/usecase/user"
)

func TestExportWritesReplayReadySnapshot(t *testing.T) {
	dir := t.TempDir()
	store, err := boltdb.Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	users := userUC.New(store, activity.NewRecorder(nil), usecase.NewReplayGuard(), nil)
	ctx := context.Background()

	created, err := users.Create(ctx, "foo@bar.com", "foo bar")
	require.NoError(t, err)
	name := "renamed"
	_, err = users.Update(ctx, created.ID, userUC.Patch{Name: &name})
	require.NoError(t, err)

	exportDir := filepath.Join(dir, "exports")
	require.NoError(t, os.MkdirAll(exportDir, 0o755))
	exporter := NewExporter(store, exportDir, "", nil)

	require.NoError(t, exporter.Export(ctx))

	entries, err := os.ReadDir(exportDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^activity-\d{8}T\d{6}\.json$`, entries[0].Name())

	raw, err := os.ReadFile(filepath.Join(exportDir, entries[0].Name()))
	require.NoError(t, err)

	// The file decodes as a replay request payload, in store order.
	var snapshot transport.LogListPayload
	require.NoError(t, json.Unmarshal(raw, &snapshot))
	require.Len(t, snapshot.Logs, 2)
	assert.Equal(t, "create", snapshot.Logs[0].Action)
	assert.Equal(t, "update", snapshot.Logs[1].Action)
	assert.Equal(t, created.ID, snapshot.Logs[0].UserID)
}

func TestStartWithoutScheduleIsNoop(t *testing.T) {
	store, err := boltdb.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	exporter := NewExporter(store, t.TempDir(), "", nil)
	require.NoError(t, exporter.Start())
	require.NoError(t, exporter.Stop(context.Background()))
}

func TestStartRejectsBadSchedule(t *testing.T) {
	store, err := boltdb.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	exporter := NewExporter(store, t.TempDir(), "not a schedule", nil)
	assert.Error(t, exporter.Start())
}
