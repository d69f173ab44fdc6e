package module

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/devsapp/comfyui-batch-cli/pkg/config"
	"github.com/devsapp/comfyui-batch-cli/pkg/models"
	"github.com/stretchr/testify/assert"
)

type fakeDownloader struct {
	fail bool
}

func (f *fakeDownloader) DownloadView(file models.File, destDir string) (string, error) {
	if f.fail {
		return "", errors.New("download fail")
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(destDir, file.Filename)
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func TestDownloadAll(t *testing.T) {
	destDir := t.TempDir()
	files := []models.File{
		{Filename: "wan_t2v_01.webm"},
		{Filename: "wan_t2v_01.webp"},
	}
	paths, err := DownloadAll(&fakeDownloader{}, files, destDir)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(paths))
	for _, path := range paths {
		_, err := os.Stat(path)
		assert.Nil(t, err)
	}

	// zero entries must not pass silently
	_, err = DownloadAll(&fakeDownloader{}, nil, destDir)
	assert.NotNil(t, err)
	assert.Equal(t, config.EMPTYRESULT, err.Error())

	_, err = DownloadAll(&fakeDownloader{fail: true}, files, destDir)
	assert.NotNil(t, err)
}

func TestFilterByFormat(t *testing.T) {
	files := []models.File{
		{Filename: "wan_t2v_01.webm"},
		{Filename: "wan_t2v_01.webp"},
		{Filename: "wan_t2v_01_00001_.png"},
	}
	kept := FilterByFormat(files, config.MODE_VIDEO, config.FORMAT_WEBM)
	assert.Equal(t, 1, len(kept))
	assert.Equal(t, "wan_t2v_01.webm", kept[0].Filename)

	kept = FilterByFormat(files, config.MODE_VIDEO, config.FORMAT_WEBP)
	assert.Equal(t, 1, len(kept))
	assert.Equal(t, "wan_t2v_01.webp", kept[0].Filename)

	kept = FilterByFormat(files, config.MODE_VIDEO, config.FORMAT_BOTH)
	assert.Equal(t, 3, len(kept))

	kept = FilterByFormat(files, config.MODE_IMAGE, config.FORMAT_WEBM)
	assert.Equal(t, 3, len(kept))
}

func TestWriteIndex(t *testing.T) {
	destDir := t.TempDir()
	paths := []string{
		filepath.Join(destDir, "wan_t2v_01.webm"),
		filepath.Join(destDir, "wan_t2v_01_00001_.png"),
	}
	err := WriteIndex(destDir, "a piglet <in> a meadow", paths)
	assert.Nil(t, err)

	data, err := os.ReadFile(filepath.Join(destDir, IndexFileName))
	assert.Nil(t, err)
	index := string(data)
	assert.Contains(t, index, "<video controls src=\"wan_t2v_01.webm\"")
	assert.Contains(t, index, "<img src=\"wan_t2v_01_00001_.png\"")
	// prompt text is escaped
	assert.Contains(t, index, "a piglet &lt;in&gt; a meadow")
}

func TestNewRunDir(t *testing.T) {
	root := t.TempDir()
	runDir, err := NewRunDir(root)
	assert.Nil(t, err)
	info, err := os.Stat(runDir)
	assert.Nil(t, err)
	assert.True(t, info.IsDir())
}
