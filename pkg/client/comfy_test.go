package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/devsapp/comfyui-batch-cli/pkg/config"
	"github.com/devsapp/comfyui-batch-cli/pkg/models"
	"github.com/stretchr/testify/assert"
)

func testGraph() map[string]models.Node {
	return map[string]models.Node{
		"3": {ClassType: "KSampler", Inputs: map[string]interface{}{"seed": int64(7)}},
	}
}

func TestSubmitPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, config.PROMPT, r.URL.Path)
		var request models.PromptRequest
		assert.Nil(t, json.NewDecoder(r.Body).Decode(&request))
		assert.Equal(t, "cli-1", request.ClientId)
		json.NewEncoder(w).Encode(models.PromptResponse{PromptId: "p-123"})
	}))
	defer srv.Close()

	promptId, err := NewComfyClient(srv.URL).SubmitPrompt(testGraph(), "cli-1")
	assert.Nil(t, err)
	assert.Equal(t, "p-123", promptId)
}

func TestSubmitPromptError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"type": "invalid_prompt"},
		})
	}))
	defer srv.Close()

	_, err := NewComfyClient(srv.URL).SubmitPrompt(testGraph(), "cli-1")
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "prompt rejected")
}

func TestWaitForPrompt(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, config.HISTORY+"/p-123", r.URL.Path)
		// first poll still running, second completed
		if atomic.AddInt32(&polls, 1) == 1 {
			fmt.Fprint(w, "{}")
			return
		}
		json.NewEncoder(w).Encode(map[string]models.HistoryEntry{
			"p-123": {
				Status: models.HistoryStatus{Completed: true, StatusStr: "success"},
				Outputs: map[string]models.Output{
					"47": {Videos: []models.File{{Filename: "wan_t2v_01.webm", Type: "output"}}},
				},
			},
		})
	}))
	defer srv.Close()

	entry, err := NewComfyClient(srv.URL).WaitForPrompt("p-123", time.Second, time.Millisecond)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(entry.Files()))
	assert.Equal(t, "wan_t2v_01.webm", entry.Files()[0].Filename)
}

func TestWaitForPromptTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "{}")
	}))
	defer srv.Close()

	_, err := NewComfyClient(srv.URL).WaitForPrompt("p-123", 30*time.Millisecond, 5*time.Millisecond)
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestWaitForPromptFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]models.HistoryEntry{
			"p-123": {
				Status: models.HistoryStatus{
					Completed: true,
					StatusStr: "error",
					Messages:  []interface{}{"CUDA out of memory"},
				},
			},
		})
	}))
	defer srv.Close()

	_, err := NewComfyClient(srv.URL).WaitForPrompt("p-123", time.Second, time.Millisecond)
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "CUDA out of memory")
}

func TestPreflightCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, config.OBJECTINFO, r.URL.Path)
		fmt.Fprint(w, `{
			"UNETLoader": {"input": {"required": {"unet_name": [["wan2.1_t2v_1.3B_bf16.safetensors"], {}]}}},
			"CLIPLoader": {"input": {"required": {"clip_name": [["umt5_xxl_fp16.safetensors"], {}]}}},
			"VAELoader": {"input": {"required": {"vae_name": [["other_vae.safetensors"], {}]}}}
		}`)
	}))
	defer srv.Close()

	c := NewComfyClient(srv.URL)
	err := c.PreflightCheck("wan2.1_t2v_1.3B_bf16.safetensors", "umt5_xxl_fp16.safetensors", "wan_2.1_vae.safetensors")
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "VAE: wan_2.1_vae.safetensors")
	assert.NotContains(t, err.Error(), "UNET")

	err = c.PreflightCheck("wan2.1_t2v_1.3B_bf16.safetensors", "umt5_xxl_fp16.safetensors", "other_vae.safetensors")
	assert.Nil(t, err)
}

func TestDownloadView(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, config.VIEW, r.URL.Path)
		assert.Equal(t, "wan_t2v_01.webm", r.URL.Query().Get("filename"))
		assert.Equal(t, "output", r.URL.Query().Get("type"))
		w.Write([]byte("webm-bytes"))
	}))
	defer srv.Close()

	destDir := filepath.Join(t.TempDir(), "run")
	path, err := NewComfyClient(srv.URL).DownloadView(models.File{Filename: "wan_t2v_01.webm"}, destDir)
	assert.Nil(t, err)
	data, err := os.ReadFile(path)
	assert.Nil(t, err)
	assert.Equal(t, "webm-bytes", string(data))
}

func TestWaitReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, config.QUEUE, r.URL.Path)
		fmt.Fprint(w, "{}")
	}))
	c := NewComfyClient(srv.URL)
	assert.True(t, c.Reachable())
	srv.Close()
	assert.False(t, c.Reachable())
	assert.False(t, c.WaitReady(10*time.Millisecond))
}
