package module

import (
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/devsapp/comfyui-batch-cli/pkg/config"
	"github.com/devsapp/comfyui-batch-cli/pkg/models"
)

const IndexFileName = "index.html"

// NewRunDir timestamped directory under the output root
func NewRunDir(outputDir string) (string, error) {
	runDir := filepath.Join(outputDir, time.Now().Format("20060102_150405"))
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	return runDir, nil
}

// FilterByFormat keep files matching the requested video container. Image mode
// and format "both" pass everything through.
func FilterByFormat(files []models.File, mode, format string) []models.File {
	if mode != config.MODE_VIDEO || format == config.FORMAT_BOTH {
		return files
	}
	kept := make([]models.File, 0, len(files))
	for _, file := range files {
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if format == config.FORMAT_WEBM && ext != ".webm" {
			continue
		}
		if format == config.FORMAT_WEBP && ext != ".webp" {
			continue
		}
		kept = append(kept, file)
	}
	return kept
}

type downloader interface {
	DownloadView(file models.File, destDir string) (string, error)
}

// DownloadAll one local file per reported entry, zero entries is an error
func DownloadAll(c downloader, files []models.File, destDir string) ([]string, error) {
	if len(files) == 0 {
		return nil, errors.New(config.EMPTYRESULT)
	}
	paths := make([]string, 0, len(files))
	for _, file := range files {
		path, err := c.DownloadView(file, destDir)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteIndex minimal html index referencing files by relative name
func WriteIndex(destDir, promptText string, paths []string) error {
	lines := []string{
		"<!doctype html>",
		"<html><head><meta charset='utf-8'><title>ComfyUI Outputs</title></head><body>",
		fmt.Sprintf("<h1>Prompt</h1><p>%s</p>", html.EscapeString(promptText)),
	}
	for _, path := range paths {
		rel := filepath.Base(path)
		ext := strings.ToLower(filepath.Ext(rel))
		if ext == ".webm" || ext == ".mp4" {
			lines = append(lines, fmt.Sprintf("<div><video controls src=\"%s\" style=\"max-width: 100%%;\"></video></div>", rel))
		} else {
			lines = append(lines, fmt.Sprintf("<div><img src=\"%s\" style=\"max-width: 100%%;\"></div>", rel))
		}
	}
	lines = append(lines, "</body></html>")
	return os.WriteFile(filepath.Join(destDir, IndexFileName), []byte(strings.Join(lines, "\n")), 0644)
}
