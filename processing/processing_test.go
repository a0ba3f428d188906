package processing

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"path/filepath"
	"testing"
	"time"

	"organizer/db"
	"organizer/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestStatusMap(t *testing.T) {
	pt := ProcessingTask{PhotoID: 1, Status: "thumb:2,metadata:0,broken"}
	assert.Equal(t, map[string]int{"thumb": Done, "metadata": Skipped}, pt.statusToMap())

	pt.updateWith(map[string]int{"thumb": Failed, "metadata": Done})
	assert.Equal(t, "metadata:2,thumb:3", pt.Status)
	assert.Equal(t, 2, pt.Tasks)

	empty := ProcessingTask{}
	assert.Empty(t, empty.statusToMap())
}

func openTest(t *testing.T) (*gorm.DB, *models.Repositories) {
	t.Helper()
	tx, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, models.Migrate(tx))
	require.NoError(t, Migrate(tx))
	return tx, models.NewRepositories(tx, nil)
}

func TestProcessPendingDerivesMissingPreviews(t *testing.T) {
	saved := tasks
	tasks = map[string]processingTask{}
	registerTask(&thumb{})
	defer func() { tasks = saved }()

	tx, repos := openTest(t)
	ctx := context.Background()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 20, 10))))
	ids, err := repos.Photos.Import(ctx, []models.ImportFile{
		{Data: buf.Bytes(), Name: "a.png", MimeType: "image/png"},
		{Data: []byte("not an image"), Name: "b.jpg", MimeType: "image/jpeg"},
	}, nil)
	require.NoError(t, err)
	// Drop the preview derived at import so the task has work to do
	require.NoError(t, tx.Model(&models.Photo{}).Where("id = ?", ids[0]).
		UpdateColumns(map[string]any{"preview": nil, "width": 0, "height": 0}).Error)

	future := time.Now().Add(time.Hour).UnixMilli()
	count, err := processPending(ctx, tx, future)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	photo, err := repos.Photos.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.True(t, photo.HasPreview())
	assert.Equal(t, 20, photo.Width)
	assert.Equal(t, 10, photo.Height)

	records := []ProcessingTask{}
	require.NoError(t, tx.Order("photo_id").Find(&records).Error)
	require.Len(t, records, 2)
	assert.Equal(t, "thumb:2", records[0].Status)
	assert.Equal(t, "thumb:3", records[1].Status)

	count, err = processPending(ctx, tx, future)
	require.NoError(t, err)
	assert.Zero(t, count, "each task runs once per photo")

	require.NoError(t, repos.Photos.DeletePhotos(ctx, []uint64{ids[1]}))
	require.NoError(t, cleanup(ctx, tx))
	records = []ProcessingTask{}
	require.NoError(t, tx.Find(&records).Error)
	require.Len(t, records, 1)
	assert.Equal(t, ids[0], records[0].PhotoID)
}

func TestProcessPendingWaitsForFreshImports(t *testing.T) {
	saved := tasks
	tasks = map[string]processingTask{}
	registerTask(&thumb{})
	defer func() { tasks = saved }()

	tx, repos := openTest(t)
	ctx := context.Background()
	_, err := repos.Photos.Import(ctx, []models.ImportFile{{Data: []byte{1}, Name: "a.jpg", MimeType: "image/jpeg"}}, nil)
	require.NoError(t, err)

	count, err := processPending(ctx, tx, time.Now().Add(-time.Hour).UnixMilli())
	require.NoError(t, err)
	assert.Zero(t, count)
}
