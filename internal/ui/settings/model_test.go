package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/quest-tracker/internal/keys"
	"github.com/nhle/quest-tracker/internal/model"
	"github.com/nhle/quest-tracker/internal/quest"
	"github.com/nhle/quest-tracker/tests/testutil"
)

func newSettings(t *testing.T) (Model, *quest.Engine) {
	t.Helper()
	repo, _ := testutil.NewTestRepository(t, 1<<20, model.StorageModeSnapshot)
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.Local)
	e := quest.New(context.Background(), repo, quest.Options{
		Now:    func() time.Time { return now },
		Logger: testutil.DiscardLogger(),
	})
	_, err := e.CreateSingle(context.Background(), quest.SingleInput{Title: "Read", Points: 20, Date: "2026-10-15"})
	require.NoError(t, err)
	return New(e, keys.DefaultKeyMap(), 80, 24), e
}

func runAction(t *testing.T, m Model, fb formBindings) resultMsg {
	t.Helper()
	*m.fb = fb
	cmd := m.run()
	require.NotNil(t, cmd)
	msg, ok := cmd().(resultMsg)
	require.True(t, ok)
	return msg
}

func TestInfoView(t *testing.T) {
	m, _ := newSettings(t)
	m, _ = m.Update(m.Init()())

	view := m.View()
	assert.Contains(t, view, "Settings")
	assert.Contains(t, view, "0 / 20 kept")
	assert.Contains(t, view, "MB")
}

func TestChangePhotoLimit(t *testing.T) {
	m, e := newSettings(t)
	res := runAction(t, m, formBindings{action: actionLimit, maxPhotos: "30"})
	require.NoError(t, res.err)
	assert.Equal(t, 30, e.MaxPhotos())

	m, _ = m.Update(res)
	assert.False(t, m.isError)
	assert.Contains(t, m.statusMsg, "Photo limit set to 30")
}

func TestExportAndImport(t *testing.T) {
	m, e := newSettings(t)
	dir := t.TempDir()

	res := runAction(t, m, formBindings{action: actionExport, path: dir})
	require.NoError(t, res.err)
	path := filepath.Join(dir, "done-backup-2026-10-15.json")
	_, err := os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, e.Reset(context.Background(), false))
	require.Empty(t, e.Single())

	res = runAction(t, m, formBindings{action: actionImport, path: path, confirm: true})
	require.NoError(t, res.err)
	assert.True(t, res.changed)
	require.Len(t, e.Single(), 1)
}

func TestResetNeedsConfirmation(t *testing.T) {
	m, e := newSettings(t)
	*m.fb = formBindings{action: actionReset}
	assert.Nil(t, m.run())
	assert.Len(t, e.Single(), 1)

	res := runAction(t, m, formBindings{action: actionReset, confirm: true})
	require.NoError(t, res.err)
	assert.Empty(t, e.Single())
}

func TestValidateMaxPhotos(t *testing.T) {
	assert.NoError(t, validateMaxPhotos("5"))
	assert.Error(t, validateMaxPhotos("4"))
	assert.Error(t, validateMaxPhotos("101"))
	assert.Error(t, validateMaxPhotos("many"))
}
