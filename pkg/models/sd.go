package models

// GenerateRequest flat body for the simple sd api /generate
type GenerateRequest struct {
	Prompt string `json:"prompt"`
	Steps  int    `json:"steps"`
}

// GenerateResult raw png plus server-reported generation time
type GenerateResult struct {
	Image   []byte
	GenTime string
}
