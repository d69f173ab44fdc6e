package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/devsapp/comfyui-batch-cli/pkg/client"
	"github.com/devsapp/comfyui-batch-cli/pkg/config"
	"github.com/devsapp/comfyui-batch-cli/pkg/datastore"
	"github.com/devsapp/comfyui-batch-cli/pkg/models"
	"github.com/devsapp/comfyui-batch-cli/pkg/utils"
	"github.com/sirupsen/logrus"
)

const defaultConfigPath = "config.yaml"

func logInit(logLevel string) {
	switch logLevel {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "dev":
		logrus.SetLevel(logrus.InfoLevel)
	default:
		logrus.SetLevel(logrus.WarnLevel)
	}
}

func main() {
	prompt := flag.String("prompt", "", "prompt to send to the api, required")
	count := flag.Int("count", 1, "number of images to generate")
	prefix := flag.String("prefix", "img", "output filename prefix, e.g. piggy")
	outDir := flag.String("out-dir", "outputs", "directory to save images")
	steps := flag.Int("steps", 30, "diffusion steps per image")
	apiUrl := flag.String("url", "", "api endpoint, overrides config")
	delay := flag.Duration("delay", 0, "pause between requests")
	dbType := flag.String("dbType", string(datastore.SQLite), "run ledger backend sqlite|tableStore")
	configFile := flag.String("config", defaultConfigPath, "default config path")
	logMode := flag.String("log", "dev", "log mode debug|dev|product")
	flag.Parse()

	logInit(*logMode)

	if err := config.InitConfig(*configFile); err != nil {
		logrus.Fatal(err.Error())
	}
	if *apiUrl != "" {
		config.ConfigGlobal.SdApiUrl = *apiUrl
	}
	if *prompt == "" {
		logrus.Fatal("-prompt is required")
	}

	if err := generate(*prompt, *prefix, *outDir, *steps, *count, *delay,
		datastore.DatastoreType(*dbType)); err != nil {
		logrus.Fatal(err.Error())
	}
}

func generate(prompt, prefix, outDir string, steps, count int, delay time.Duration,
	dbType datastore.DatastoreType) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	runStore := datastore.NewRunStore(dbType)
	defer runStore.Close()

	sdClient := client.NewSDClient(config.ConfigGlobal.SdApiUrl)
	for idx := 1; idx <= count; idx++ {
		name := fmt.Sprintf("%s_%02d.png", prefix, idx)
		target := filepath.Join(outDir, name)

		runId := utils.RandStr(10)
		request := &models.GenerateRequest{Prompt: prompt, Steps: steps}
		if err := runStore.OpenRun(runId, prompt, "", "sd15", 0, request); err != nil {
			logrus.WithFields(logrus.Fields{"runId": runId}).Errorf("open run err=%s", err.Error())
		}

		logrus.WithFields(logrus.Fields{"runId": runId}).Infof(
			"[%d/%d] generating %s", idx, count, name)
		result, err := sdClient.Generate(request)
		if err != nil {
			runStore.FailRun(runId, err.Error())
			return err
		}
		if err := os.WriteFile(target, result.Image, 0644); err != nil {
			runStore.FailRun(runId, err.Error())
			return err
		}
		if err := runStore.FinishRun(runId, []string{name}); err != nil {
			logrus.WithFields(logrus.Fields{"runId": runId}).Errorf("finish run err=%s", err.Error())
		}
		logrus.WithFields(logrus.Fields{"runId": runId}).Infof(
			"done in %ss, saved %s", result.GenTime, target)

		if delay > 0 && idx != count {
			time.Sleep(delay)
		}
	}
	logrus.Infof("all done, images saved under %s", outDir)
	return nil
}
