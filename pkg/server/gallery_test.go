package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/devsapp/comfyui-batch-cli/pkg/config"
	"github.com/devsapp/comfyui-batch-cli/pkg/datastore"
	"github.com/stretchr/testify/assert"
)

func TestGallery(t *testing.T) {
	config.InitConfig("")
	config.ConfigGlobal.DbSqlite = filepath.Join(t.TempDir(), "sqlite")
	runStore := datastore.NewRunStore(datastore.SQLite)
	defer runStore.Close()
	assert.Nil(t, runStore.OpenRun("run-1", "a piglet", "", "video", 42, nil))
	assert.Nil(t, runStore.FinishRun("run-1", []string{"wan_t2v_01.webm"}))

	outputDir := t.TempDir()
	assert.Nil(t, os.WriteFile(filepath.Join(outputDir, "index.html"), []byte("<html>"), 0644))

	gallery := NewGalleryServer("0", outputDir, runStore)
	srv := httptest.NewServer(gallery.srv.Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	assert.Nil(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/runs")
	assert.Nil(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var runs map[string]map[string]interface{}
	assert.Nil(t, json.NewDecoder(resp.Body).Decode(&runs))
	assert.Contains(t, runs, "run-1")
	assert.Equal(t, config.RUN_FINISH, runs["run-1"][datastore.KRunStatus])
}
