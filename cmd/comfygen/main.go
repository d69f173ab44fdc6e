package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/devsapp/comfyui-batch-cli/pkg/client"
	"github.com/devsapp/comfyui-batch-cli/pkg/comfy"
	"github.com/devsapp/comfyui-batch-cli/pkg/config"
	"github.com/devsapp/comfyui-batch-cli/pkg/datastore"
	"github.com/devsapp/comfyui-batch-cli/pkg/module"
	"github.com/devsapp/comfyui-batch-cli/pkg/server"
	"github.com/devsapp/comfyui-batch-cli/pkg/utils"
	"github.com/sirupsen/logrus"
)

const (
	defaultDBType     = datastore.SQLite
	defaultConfigPath = "config.yaml"
	shutdownTimeout   = 5 * time.Second // 5s

	fpsWebm = 24
	fpsWebp = 16
)

type options struct {
	prompt      string
	negative    string
	count       int
	width       int
	height      int
	frames      int
	steps       int
	cfg         float64
	sampler     string
	scheduler   string
	denoise     float64
	mode        string
	format      string
	seed        int64
	portForward bool
	skipCheck   bool
	serve       bool
	dbType      string
}

func handleSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down gallery...")
}

func logInit(logLevel string) {
	switch logLevel {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
		// include function and file
		logrus.SetReportCaller(true)
	case "dev":
		logrus.SetLevel(logrus.InfoLevel)
	default:
		logrus.SetLevel(logrus.WarnLevel)
	}
}

func main() {
	opts := &options{}
	flag.StringVar(&opts.prompt, "prompt", "", "text prompt, required")
	flag.StringVar(&opts.negative, "negative", "blurry, low quality, artifacts", "negative prompt")
	flag.IntVar(&opts.count, "count", 5, "number of outputs to generate")
	flag.IntVar(&opts.width, "width", 512, "output width, multiple of 16")
	flag.IntVar(&opts.height, "height", 320, "output height, multiple of 16")
	flag.IntVar(&opts.frames, "frames", 16, "number of frames")
	flag.IntVar(&opts.steps, "steps", 25, "sampling steps")
	flag.Float64Var(&opts.cfg, "cfg", 6.0, "cfg scale")
	flag.StringVar(&opts.sampler, "sampler", "uni_pc", "sampler name")
	flag.StringVar(&opts.scheduler, "scheduler", "simple", "scheduler name")
	flag.Float64Var(&opts.denoise, "denoise", 1.0, "denoise strength")
	flag.StringVar(&opts.mode, "mode", config.MODE_VIDEO, "output type video|image")
	flag.StringVar(&opts.format, "format", config.FORMAT_WEBM, "video format webm|webp|both")
	flag.Int64Var(&opts.seed, "seed", -1, "base seed, random per output when unset")
	flag.BoolVar(&opts.portForward, "port-forward", false, "start kubectl port-forward automatically")
	flag.BoolVar(&opts.skipCheck, "skip-check", false, "skip model presence checks")
	flag.BoolVar(&opts.serve, "serve", false, "serve the output gallery after generation")
	flag.StringVar(&opts.dbType, "dbType", string(defaultDBType), "run ledger backend sqlite|tableStore")
	comfyUrl := flag.String("url", "", "comfy base url, overrides config")
	outputDir := flag.String("output-dir", "", "directory to save results, overrides config")
	configFile := flag.String("config", defaultConfigPath, "default config path")
	logMode := flag.String("log", "dev", "log mode debug|dev|product")
	flag.Parse()

	// init log
	logInit(*logMode)

	// init config
	if err := config.InitConfig(*configFile); err != nil {
		logrus.Fatal(err.Error())
	}
	if *comfyUrl != "" {
		config.ConfigGlobal.ComfyUrl = *comfyUrl
	}
	if *outputDir != "" {
		config.ConfigGlobal.OutputDir = *outputDir
	}
	if opts.prompt == "" {
		logrus.Fatal("-prompt is required")
	}

	if err := generate(opts); err != nil {
		logrus.Fatal(err.Error())
	}
}

func generate(opts *options) error {
	includeWebm, includeWebp, includeImages, err := comfy.OutputToggles(opts.mode, opts.format)
	if err != nil {
		return err
	}
	if opts.mode == config.MODE_IMAGE && opts.frames != 1 {
		opts.frames = 1
	}

	var base *int64
	if opts.seed >= 0 {
		base = utils.Int64(opts.seed)
	}
	seeds, err := comfy.SeedPlan(base, opts.count)
	if err != nil {
		return err
	}

	runStore := datastore.NewRunStore(datastore.DatastoreType(opts.dbType))
	defer runStore.Close()

	comfyClient := client.NewComfyClient(config.ConfigGlobal.ComfyUrl)
	if !comfyClient.Reachable() {
		if !opts.portForward {
			return errors.New(config.NOTREACHABLE)
		}
		localPort := module.ParsePort(config.ConfigGlobal.ComfyUrl)
		portForward, err := module.StartPortForward(config.ConfigGlobal.Namespace,
			config.ConfigGlobal.Deployment, localPort, config.ConfigGlobal.RemotePort)
		if err != nil {
			return err
		}
		defer portForward.Stop()
		if !comfyClient.WaitReady(config.WAITREADY) {
			return fmt.Errorf("port-forward started, but comfy is not reachable")
		}
	}

	if !opts.skipCheck {
		if err := comfyClient.PreflightCheck(config.ConfigGlobal.UnetName,
			config.ConfigGlobal.ClipName, config.ConfigGlobal.VaeName); err != nil {
			return err
		}
	}

	runDir, err := module.NewRunDir(config.ConfigGlobal.OutputDir)
	if err != nil {
		return err
	}
	clientId := "cli-" + utils.RandStr(6)

	allPaths := make([]string, 0, opts.count)
	for idx, seed := range seeds {
		prefixBase := "wan_t2v"
		if opts.mode == config.MODE_IMAGE {
			prefixBase = "wan_t2i"
		}
		params := &comfy.GenerationParams{
			Prompt:         opts.prompt,
			Negative:       opts.negative,
			Seed:           seed,
			Width:          opts.width,
			Height:         opts.height,
			Frames:         opts.frames,
			Steps:          opts.steps,
			Cfg:            opts.cfg,
			Sampler:        opts.sampler,
			Scheduler:      opts.scheduler,
			Denoise:        opts.denoise,
			UnetName:       config.ConfigGlobal.UnetName,
			ClipName:       config.ConfigGlobal.ClipName,
			VaeName:        config.ConfigGlobal.VaeName,
			FpsWebm:        fpsWebm,
			FpsWebp:        fpsWebp,
			FilenamePrefix: fmt.Sprintf("%s_%02d", prefixBase, idx+1),
			IncludeWebm:    includeWebm,
			IncludeWebp:    includeWebp,
			IncludeImages:  includeImages,
		}
		if err := params.Validate(); err != nil {
			return err
		}

		runId := utils.RandStr(10)
		if err := runStore.OpenRun(runId, opts.prompt, opts.negative, opts.mode, seed, params); err != nil {
			logrus.WithFields(logrus.Fields{"runId": runId}).Errorf("open run err=%s", err.Error())
		}

		logrus.WithFields(logrus.Fields{"runId": runId}).Infof(
			"[%d/%d] queuing prompt (seed=%d)", idx+1, opts.count, seed)
		paths, err := runOne(comfyClient, runStore, runId, clientId, params, opts, runDir)
		if err != nil {
			runStore.FailRun(runId, err.Error())
			return err
		}
		if err := runStore.FinishRun(runId, baseNames(paths)); err != nil {
			logrus.WithFields(logrus.Fields{"runId": runId}).Errorf("finish run err=%s", err.Error())
		}
		allPaths = append(allPaths, paths...)
	}

	if err := module.WriteIndex(runDir, opts.prompt, allPaths); err != nil {
		return err
	}
	logrus.Infof("done, open %s to view results", filepath.Join(runDir, module.IndexFileName))

	if config.ConfigGlobal.EnableOssArchive() {
		if err := module.NewOssManager(); err != nil {
			return err
		}
		if err := module.OssGlobal.ArchiveRun(filepath.Base(runDir), runDir, allPaths); err != nil {
			return err
		}
	}

	if opts.serve {
		gallery := server.NewGalleryServer(config.ConfigGlobal.GalleryPort,
			config.ConfigGlobal.OutputDir, runStore)
		go gallery.Start()
		logrus.Infof("gallery on http://127.0.0.1:%s", config.ConfigGlobal.GalleryPort)
		handleSignal()
		return gallery.Close(shutdownTimeout)
	}
	return nil
}

// runOne submit, poll and download a single generation
func runOne(comfyClient *client.ComfyClient, runStore *datastore.RunStore,
	runId, clientId string, params *comfy.GenerationParams, opts *options, runDir string) ([]string, error) {
	graph := comfy.BuildGraph(params)
	promptId, err := comfyClient.SubmitPrompt(graph, clientId)
	if err != nil {
		return nil, err
	}
	if err := runStore.MarkSubmitted(runId, promptId); err != nil {
		logrus.WithFields(logrus.Fields{"runId": runId}).Errorf("mark submitted err=%s", err.Error())
	}

	entry, err := comfyClient.WaitForPrompt(promptId, config.POLLDEADLINE, config.POLLINTERVAL)
	if err != nil {
		return nil, err
	}
	files := entry.Files()
	if len(files) == 0 {
		return nil, errors.New(config.EMPTYRESULT)
	}
	paths, err := module.DownloadAll(comfyClient, module.FilterByFormat(files, opts.mode, opts.format), runDir)
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		logrus.WithFields(logrus.Fields{"runId": runId}).Infof("saved: %s", path)
	}
	return paths, nil
}

func baseNames(paths []string) []string {
	names := make([]string, 0, len(paths))
	for _, path := range paths {
		names = append(names, filepath.Base(path))
	}
	return names
}
