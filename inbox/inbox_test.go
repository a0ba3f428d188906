package inbox

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"organizer/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImporter struct {
	mutex    sync.Mutex
	files    []models.ImportFile
	imported chan string
}

func (f *fakeImporter) Import(ctx context.Context, files []models.ImportFile, explicit *uint64) ([]uint64, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	ids := []uint64{}
	for _, file := range files {
		f.files = append(f.files, file)
		ids = append(ids, uint64(len(f.files)))
		if f.imported != nil {
			f.imported <- file.Name
		}
	}
	return ids, nil
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "photo.png"))
	writePNG(t, filepath.Join(dir, ".hidden.png"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	writePNG(t, filepath.Join(dir, "nested", "deep.png"))

	importer := &fakeImporter{}
	count, err := New(dir, importer).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, importer.files, 1)
	assert.Equal(t, "photo.png", importer.files[0].Name)
	assert.Equal(t, "image/png", importer.files[0].MimeType)
	assert.Positive(t, importer.files[0].LastModified)

	assert.NoFileExists(t, filepath.Join(dir, "photo.png"))
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
	assert.FileExists(t, filepath.Join(dir, ".hidden.png"))
	assert.FileExists(t, filepath.Join(dir, "nested", "deep.png"))
}

func TestScanMissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), &fakeImporter{}).Scan(context.Background())
	assert.Error(t, err)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "before.png"))
	importer := &fakeImporter{imported: make(chan string, 4)}
	in := New(dir, importer)
	in.settle = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- in.Watch(ctx) }()

	select {
	case name := <-importer.imported:
		assert.Equal(t, "before.png", name)
	case <-time.After(5 * time.Second):
		t.Fatal("existing file not imported")
	}

	writePNG(t, filepath.Join(dir, "after.png"))
	select {
	case name := <-importer.imported:
		assert.Equal(t, "after.png", name)
	case <-time.After(5 * time.Second):
		t.Fatal("new file not imported")
	}

	cancel()
	require.NoError(t, <-done)
	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, "after.png"))
		return os.IsNotExist(err)
	}, time.Second, 10*time.Millisecond)
}
