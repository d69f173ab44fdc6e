package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/devsapp/comfyui-batch-cli/pkg/models"
)

// generation can take minutes on a cold backend
const sdGenerateTimeout = 10 * time.Minute

// SDClient client for the flat /generate image api
type SDClient struct {
	url        string
	httpClient *http.Client
}

func NewSDClient(url string) *SDClient {
	return &SDClient{
		url:        url,
		httpClient: &http.Client{Timeout: sdGenerateTimeout},
	}
}

// Generate one image, the endpoint answers with raw png bytes
func (c *SDClient) Generate(request *models.GenerateRequest) (*models.GenerateResult, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest("POST", c.url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	image, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generate status=%d body=%s", resp.StatusCode, string(image))
	}
	genTime := resp.Header.Get("X-Gen-Time")
	if genTime == "" {
		genTime = "?"
	}
	return &models.GenerateResult{Image: image, GenTime: genTime}, nil
}
