package comfy

import (
	"errors"

	"github.com/devsapp/comfyui-batch-cli/pkg/config"
	"github.com/devsapp/comfyui-batch-cli/pkg/models"
)

// node ids fixed by the wan2.1 t2v workflow
const (
	nodeUnet     = "37"
	nodeClip     = "38"
	nodeVae      = "39"
	nodeLatent   = "40"
	nodePositive = "6"
	nodeNegative = "7"
	nodeSampler  = "3"
	nodeDecode   = "8"
	nodeWebp     = "28"
	nodeWebm     = "47"
	nodeImage    = "10"
)

// GenerationParams everything BuildGraph needs, immutable once built
type GenerationParams struct {
	Prompt         string
	Negative       string
	Seed           int64
	Width          int
	Height         int
	Frames         int
	Steps          int
	Cfg            float64
	Sampler        string
	Scheduler      string
	Denoise        float64
	UnetName       string
	ClipName       string
	VaeName        string
	FpsWebm        int
	FpsWebp        int
	FilenamePrefix string
	IncludeWebm    bool
	IncludeWebp    bool
	IncludeImages  bool
}

// Validate reject invalid mode/format combinations before submission
func (p *GenerationParams) Validate() error {
	if !p.IncludeWebm && !p.IncludeWebp && !p.IncludeImages {
		return errors.New("select at least one output format")
	}
	return nil
}

// OutputToggles derive save nodes from mode/format flags
func OutputToggles(mode, format string) (webm, webp, images bool, err error) {
	switch mode {
	case config.MODE_VIDEO:
		webm = format == config.FORMAT_WEBM || format == config.FORMAT_BOTH
		webp = format == config.FORMAT_WEBP || format == config.FORMAT_BOTH
		if !webm && !webp {
			return false, false, false, errors.New("select at least one video format")
		}
	case config.MODE_IMAGE:
		images = true
	default:
		return false, false, false, errors.New("mode must be video or image")
	}
	return webm, webp, images, nil
}

// BuildGraph assemble the fixed wan2.1 node graph, deterministic for fixed params
func BuildGraph(p *GenerationParams) map[string]models.Node {
	graph := map[string]models.Node{
		nodeUnet: {
			ClassType: "UNETLoader",
			Inputs: map[string]interface{}{
				"unet_name":    p.UnetName,
				"weight_dtype": "default",
			},
		},
		nodeClip: {
			ClassType: "CLIPLoader",
			Inputs: map[string]interface{}{
				"clip_name": p.ClipName,
				"type":      "wan",
				"device":    "default",
			},
		},
		nodeVae: {
			ClassType: "VAELoader",
			Inputs: map[string]interface{}{
				"vae_name": p.VaeName,
			},
		},
		nodeLatent: {
			ClassType: "EmptyHunyuanLatentVideo",
			Inputs: map[string]interface{}{
				"width":      p.Width,
				"height":     p.Height,
				"length":     p.Frames,
				"batch_size": 1,
			},
		},
		nodePositive: {
			ClassType: "CLIPTextEncode",
			Inputs: map[string]interface{}{
				"clip": link(nodeClip, 0),
				"text": p.Prompt,
			},
		},
		nodeNegative: {
			ClassType: "CLIPTextEncode",
			Inputs: map[string]interface{}{
				"clip": link(nodeClip, 0),
				"text": p.Negative,
			},
		},
		nodeSampler: {
			ClassType: "KSampler",
			Inputs: map[string]interface{}{
				"model":        link(nodeUnet, 0),
				"positive":     link(nodePositive, 0),
				"negative":     link(nodeNegative, 0),
				"latent_image": link(nodeLatent, 0),
				"seed":         p.Seed,
				"steps":        p.Steps,
				"cfg":          p.Cfg,
				"sampler_name": p.Sampler,
				"scheduler":    p.Scheduler,
				"denoise":      p.Denoise,
			},
		},
		nodeDecode: {
			ClassType: "VAEDecode",
			Inputs: map[string]interface{}{
				"samples": link(nodeSampler, 0),
				"vae":     link(nodeVae, 0),
			},
		},
	}

	if p.IncludeWebp {
		graph[nodeWebp] = models.Node{
			ClassType: "SaveAnimatedWEBP",
			Inputs: map[string]interface{}{
				"images":          link(nodeDecode, 0),
				"filename_prefix": p.FilenamePrefix,
				"fps":             p.FpsWebp,
				"lossless":        false,
				"quality":         90,
				"method":          "default",
			},
		}
	}
	if p.IncludeWebm {
		graph[nodeWebm] = models.Node{
			ClassType: "SaveWEBM",
			Inputs: map[string]interface{}{
				"images":          link(nodeDecode, 0),
				"filename_prefix": p.FilenamePrefix,
				"codec":           "vp9",
				"fps":             p.FpsWebm,
				"crf":             32,
			},
		}
	}
	if p.IncludeImages {
		graph[nodeImage] = models.Node{
			ClassType: "SaveImage",
			Inputs: map[string]interface{}{
				"images":          link(nodeDecode, 0),
				"filename_prefix": p.FilenamePrefix,
			},
		}
	}
	return graph
}

func link(nodeId string, slot int) []interface{} {
	return []interface{}{nodeId, slot}
}
