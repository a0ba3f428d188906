package models

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"path/filepath"
	"testing"
	"time"

	"organizer/db"

	"github.com/stretchr/testify/require"
)

// testClock hands out increasing timestamps so creation order is observable
type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time {
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

func newTestRepos(t *testing.T) *Repositories {
	t.Helper()
	tx, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, Migrate(tx))
	clock := &testClock{t: time.Date(2026, 10, 17, 9, 0, 0, 0, time.Local)}
	return NewRepositories(tx, clock.now)
}

func pngFile(t *testing.T, name string, w, h int) ImportFile {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return ImportFile{Data: buf.Bytes(), Name: name, MimeType: "image/png", Size: int64(buf.Len())}
}

func rawFile(name string, size int) ImportFile {
	return ImportFile{Data: bytes.Repeat([]byte{0xAB}, size), Name: name, MimeType: "image/jpeg", Size: int64(size)}
}

func importOne(t *testing.T, r *Repositories, file ImportFile, folderID *uint64) uint64 {
	t.Helper()
	ids, err := r.Photos.Import(context.Background(), []ImportFile{file}, folderID)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	return ids[0]
}

func names(photos []Photo) []string {
	result := []string{}
	for _, p := range photos {
		result = append(result, p.DisplayName)
	}
	return result
}

func ptr[T any](v T) *T {
	return &v
}
