package models

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFolderNameExistsIgnoresCase(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	id, err := r.Folders.Create(ctx, "Trip", nil, nil)
	require.NoError(t, err)

	exists, err := r.Folders.NameExists(ctx, "trip", nil)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = r.Folders.NameExists(ctx, "Trip", &id)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = r.Folders.NameExists(ctx, "Other", nil)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFolderCreateRejectsDuplicates(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	_, err := r.Folders.Create(ctx, "Trip", ptr("summer"), ptr("#00FF00"))
	require.NoError(t, err)

	for _, name := range []string{"Trip", "TRIP", " trip "} {
		_, err = r.Folders.Create(ctx, name, nil, nil)
		assert.True(t, IsValidationError(err), name)
	}
	_, err = r.Folders.Create(ctx, "   ", nil, nil)
	assert.True(t, IsValidationError(err))

	folders, err := r.Folders.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "summer", *folders[0].Description)
	assert.Equal(t, "#00FF00", *folders[0].Color)
}

func TestFolderCreateConcurrentSameName(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Folders.Create(ctx, "Race", nil, nil); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)
}

func TestFolderGetAllCountsAndOrder(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	older, err := r.Folders.Create(ctx, "older", nil, nil)
	require.NoError(t, err)
	newer, err := r.Folders.Create(ctx, "newer", nil, nil)
	require.NoError(t, err)
	_, err = r.Photos.Import(ctx, []ImportFile{rawFile("a.jpg", 1), rawFile("b.jpg", 1)}, &older)
	require.NoError(t, err)
	importOne(t, r, rawFile("c.jpg", 1), nil)

	folders, err := r.Folders.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, folders, 2)
	assert.Equal(t, newer, folders[0].ID)
	assert.Zero(t, folders[0].PhotoCount)
	assert.Equal(t, older, folders[1].ID)
	assert.EqualValues(t, 2, folders[1].PhotoCount)

	folder, err := r.Folders.GetByID(ctx, older)
	require.NoError(t, err)
	assert.EqualValues(t, 2, folder.PhotoCount)

	folder, err = r.Folders.GetByName(ctx, "OLDER")
	require.NoError(t, err)
	require.NotNil(t, folder)
	assert.Equal(t, older, folder.ID)

	folder, err = r.Folders.GetByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, folder)
}

func TestFolderRename(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	a, err := r.Folders.Create(ctx, "A", nil, nil)
	require.NoError(t, err)
	_, err = r.Folders.Create(ctx, "B", nil, nil)
	require.NoError(t, err)

	require.NoError(t, r.Folders.Rename(ctx, a, "Renamed"))
	folder, err := r.Folders.GetByID(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", folder.Name)

	exists, err := r.Folders.NameExists(ctx, "renamed", &a)
	require.NoError(t, err)
	assert.False(t, exists)

	err = r.Folders.Rename(ctx, a, "b")
	assert.True(t, IsValidationError(err), "unique index still guards renames")

	assert.NoError(t, r.Folders.Rename(ctx, 404, "Nobody"))
}

func TestFolderDeleteMovesPhotosToUncategorized(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	f1, err := r.Folders.Create(ctx, "F1", nil, nil)
	require.NoError(t, err)
	photo := importOne(t, r, rawFile("p.jpg", 1), nil)
	others, err := r.Photos.Import(ctx, []ImportFile{rawFile("q.jpg", 1), rawFile("r.jpg", 1)}, &f1)
	require.NoError(t, err)
	require.NoError(t, r.Photos.MoveToFolder(ctx, []uint64{photo}, &f1))

	require.NoError(t, r.Folders.Delete(ctx, f1))

	p, err := r.Photos.GetByID(ctx, photo)
	require.NoError(t, err)
	assert.Nil(t, p.FolderID)

	folders, err := r.Folders.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, folders)

	uncategorized, err := r.Photos.GetByFolder(ctx, nil, SortByDateAdded, SortAsc)
	require.NoError(t, err)
	ids := []uint64{}
	for _, p := range uncategorized {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, append(others, photo), ids)

	assert.NoError(t, r.Folders.Delete(ctx, f1), "deleting twice is a no-op")
}

func TestFolderSetCover(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	f, err := r.Folders.Create(ctx, "F", nil, nil)
	require.NoError(t, err)
	photo := importOne(t, r, rawFile("p.jpg", 1), &f)

	require.NoError(t, r.Folders.SetCover(ctx, f, &photo))
	folder, err := r.Folders.GetByID(ctx, f)
	require.NoError(t, err)
	require.NotNil(t, folder.CoverPhotoID)
	assert.Equal(t, photo, *folder.CoverPhotoID)

	assert.True(t, IsValidationError(r.Folders.SetCover(ctx, f, ptr(uint64(999)))))

	require.NoError(t, r.Folders.SetCover(ctx, f, nil))
	folder, err = r.Folders.GetByID(ctx, f)
	require.NoError(t, err)
	assert.Nil(t, folder.CoverPhotoID)
}

func TestFolderCreatedBetween(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	a, err := r.Folders.Create(ctx, "a", nil, nil)
	require.NoError(t, err)
	b, err := r.Folders.Create(ctx, "b", nil, nil)
	require.NoError(t, err)
	fa, err := r.Folders.GetByID(ctx, a)
	require.NoError(t, err)
	fb, err := r.Folders.GetByID(ctx, b)
	require.NoError(t, err)

	folders, err := r.Folders.CreatedBetween(ctx, fa.CreatedAt, fb.CreatedAt)
	require.NoError(t, err)
	require.Len(t, folders, 1, "upper bound is exclusive")
	assert.Equal(t, a, folders[0].ID)

	folders, err = r.Folders.CreatedBetween(ctx, 0, 1)
	require.NoError(t, err)
	assert.Empty(t, folders)
}

func TestFolderCreateSession(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	session, err := r.Folders.CreateSession(ctx, "Session 1")
	require.NoError(t, err)
	plain, err := r.Folders.Create(ctx, "Trip", nil, nil)
	require.NoError(t, err)

	_, err = r.Folders.CreateSession(ctx, "trip")
	assert.ErrorAs(t, err, new(*ValidationError))

	f, err := r.Folders.GetByID(ctx, session)
	require.NoError(t, err)
	assert.True(t, f.Session)
	f, err = r.Folders.GetByID(ctx, plain)
	require.NoError(t, err)
	assert.False(t, f.Session)
}
