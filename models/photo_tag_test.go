package models

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhotoTagAddIsIdempotent(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	tag, err := r.Tags.Create(ctx, "x", "")
	require.NoError(t, err)
	photo := importOne(t, r, rawFile("a.jpg", 1), nil)

	require.NoError(t, r.PhotoTags.Add(ctx, photo, tag))
	require.NoError(t, r.PhotoTags.Add(ctx, photo, tag))

	count, err := r.Tags.UsageCount(ctx, tag)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	ids, err := r.PhotoTags.GetPhotosForTag(ctx, tag)
	require.NoError(t, err)
	assert.Equal(t, []uint64{photo}, ids)
}

func TestPhotoTagMissingEndsAreIgnored(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	tag, err := r.Tags.Create(ctx, "x", "")
	require.NoError(t, err)
	photo := importOne(t, r, rawFile("a.jpg", 1), nil)

	assert.NoError(t, r.PhotoTags.Add(ctx, 999, tag))
	assert.NoError(t, r.PhotoTags.Add(ctx, photo, 999))
	assert.Empty(t, r.PhotoTags.AddToMultiple(ctx, []uint64{photo, 998, 999}, tag))

	ids, err := r.PhotoTags.GetPhotosForTag(ctx, tag)
	require.NoError(t, err)
	assert.Equal(t, []uint64{photo}, ids)
}

func TestPhotoTagOrderAndRemove(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	second, err := r.Tags.Create(ctx, "second", "")
	require.NoError(t, err)
	first, err := r.Tags.Create(ctx, "first", "")
	require.NoError(t, err)
	photo := importOne(t, r, rawFile("a.jpg", 1), nil)
	require.NoError(t, r.PhotoTags.Add(ctx, photo, first))
	require.NoError(t, r.PhotoTags.Add(ctx, photo, second))

	tags, err := r.PhotoTags.GetTagsForPhoto(ctx, photo)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "first", tags[0].Name)
	assert.Equal(t, "second", tags[1].Name)

	require.NoError(t, r.PhotoTags.Remove(ctx, photo, first))
	require.NoError(t, r.PhotoTags.Remove(ctx, photo, first), "removing an absent link is a no-op")
	tags, err = r.PhotoTags.GetTagsForPhoto(ctx, photo)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, second, tags[0].ID)

	tags, err = r.PhotoTags.GetTagsForPhoto(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestRepositoriesTransactionRollsBack(t *testing.T) {
	r := newTestRepos(t)
	ctx := context.Background()
	err := r.Transaction(ctx, func(tx *Repositories) error {
		if _, err := tx.Folders.Create(ctx, "kept?", nil, nil); err != nil {
			return err
		}
		_, err := tx.Folders.Create(ctx, "KEPT?", nil, nil)
		return err
	})
	assert.True(t, IsValidationError(err))

	folders, err := r.Folders.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, folders)
}
