package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/devsapp/comfyui-batch-cli/pkg/config"
	"github.com/devsapp/comfyui-batch-cli/pkg/models"
)

// ComfyClient thin json client for the comfy http api
type ComfyClient struct {
	baseUrl    string
	httpClient *http.Client
	// probeClient short timeout, reachability only
	probeClient *http.Client
	// downloadClient no overall timeout, result files can be large
	downloadClient *http.Client
}

func NewComfyClient(baseUrl string) *ComfyClient {
	return &ComfyClient{
		baseUrl:        strings.TrimRight(baseUrl, "/"),
		httpClient:     &http.Client{Timeout: config.HTTPTIMEOUT},
		probeClient:    &http.Client{Timeout: config.REACHTIMEOUT},
		downloadClient: &http.Client{},
	}
}

func (c *ComfyClient) getJson(path string, out interface{}) error {
	resp, err := c.httpClient.Get(c.baseUrl + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s status=%d body=%s", path, resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}

func (c *ComfyClient) postJson(path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequest("POST", c.baseUrl+path, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("POST %s status=%d body=%s", path, resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}

// Reachable probe /queue with a short timeout
func (c *ComfyClient) Reachable() bool {
	resp, err := c.probeClient.Get(c.baseUrl + config.QUEUE)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// WaitReady bounded reachability wait, fixed 1s interval
func (c *ComfyClient) WaitReady(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if c.Reachable() {
			return true
		}
		time.Sleep(config.WAITINTERVAL)
	}
	return false
}

// SubmitPrompt queue one graph, return the server-assigned prompt id
func (c *ComfyClient) SubmitPrompt(graph map[string]models.Node, clientId string) (string, error) {
	request := &models.PromptRequest{Prompt: graph, ClientId: clientId}
	var result models.PromptResponse
	if err := c.postJson(config.PROMPT, request, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", fmt.Errorf("prompt rejected: %v", result.Error)
	}
	if result.PromptId == "" {
		return "", errors.New("unexpected response: no prompt_id")
	}
	return result.PromptId, nil
}

// GetHistory history entries keyed by prompt id, absent while still queued
func (c *ComfyClient) GetHistory(promptId string) (map[string]models.HistoryEntry, error) {
	var result map[string]models.HistoryEntry
	if err := c.getJson(fmt.Sprintf("%s/%s", config.HISTORY, promptId), &result); err != nil {
		return nil, err
	}
	return result, nil
}

// WaitForPrompt poll history until completion, timeout or generation failure
func (c *ComfyClient) WaitForPrompt(promptId string, timeout, interval time.Duration) (*models.HistoryEntry, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		history, err := c.GetHistory(promptId)
		if err != nil {
			return nil, err
		}
		if entry, ok := history[promptId]; ok && entry.Status.Completed {
			if entry.Status.StatusStr != "success" {
				return nil, fmt.Errorf("generation failed: %s", joinMessages(entry.Status))
			}
			return &entry, nil
		}
		time.Sleep(interval)
	}
	return nil, fmt.Errorf("timed out waiting for prompt %s", promptId)
}

func joinMessages(status models.HistoryStatus) string {
	if len(status.Messages) == 0 {
		return status.StatusStr
	}
	parts := make([]string, 0, len(status.Messages))
	for _, m := range status.Messages {
		parts = append(parts, fmt.Sprint(m))
	}
	return strings.Join(parts, ", ")
}

// ObjectInfo node capability listing
func (c *ComfyClient) ObjectInfo() (models.ObjectInfo, error) {
	var info models.ObjectInfo
	if err := c.getJson(config.OBJECTINFO, &info); err != nil {
		return nil, err
	}
	return info, nil
}

// PreflightCheck make sure the expected model files are loadable server side
func (c *ComfyClient) PreflightCheck(unetName, clipName, vaeName string) error {
	info, err := c.ObjectInfo()
	if err != nil {
		return err
	}
	missing := make([]string, 0, 3)
	if !contains(info.OptionList("UNETLoader", "unet_name"), unetName) {
		missing = append(missing, "UNET: "+unetName)
	}
	if !contains(info.OptionList("CLIPLoader", "clip_name"), clipName) {
		missing = append(missing, "CLIP: "+clipName)
	}
	if !contains(info.OptionList("VAELoader", "vae_name"), vaeName) {
		missing = append(missing, "VAE: "+vaeName)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing model files: %s", strings.Join(missing, ", "))
	}
	return nil
}

func contains(options []string, name string) bool {
	for _, opt := range options {
		if opt == name {
			return true
		}
	}
	return false
}

// DownloadView fetch one output file via /view into destDir
func (c *ComfyClient) DownloadView(file models.File, destDir string) (string, error) {
	params := url.Values{}
	params.Set("filename", file.Filename)
	params.Set("subfolder", file.Subfolder)
	fileType := file.Type
	if fileType == "" {
		fileType = "output"
	}
	params.Set("type", fileType)

	resp, err := c.downloadClient.Get(c.baseUrl + config.VIEW + "?" + params.Encode())
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s status=%d", file.Filename, resp.StatusCode)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", err
	}
	destPath := filepath.Join(destDir, file.Filename)
	out, err := os.Create(destPath)
	if err != nil {
		return "", err
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", err
	}
	return destPath, nil
}
