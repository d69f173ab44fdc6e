package comfy

import (
	"encoding/json"
	"testing"

	"github.com/devsapp/comfyui-batch-cli/pkg/config"
	"github.com/stretchr/testify/assert"
)

func testParams() *GenerationParams {
	return &GenerationParams{
		Prompt:         "a piglet in a meadow",
		Negative:       "blurry, low quality, artifacts",
		Seed:           42,
		Width:          512,
		Height:         320,
		Frames:         16,
		Steps:          25,
		Cfg:            6.0,
		Sampler:        "uni_pc",
		Scheduler:      "simple",
		Denoise:        1.0,
		UnetName:       "wan2.1_t2v_1.3B_bf16.safetensors",
		ClipName:       "umt5_xxl_fp16.safetensors",
		VaeName:        "wan_2.1_vae.safetensors",
		FpsWebm:        24,
		FpsWebp:        16,
		FilenamePrefix: "wan_t2v_01",
		IncludeWebm:    true,
	}
}

func TestBuildGraph(t *testing.T) {
	t.Run("core", core)
	t.Run("saveNodes", saveNodes)
	t.Run("deterministic", deterministic)
	t.Run("toggles", toggles)
	t.Run("seedPlan", seedPlan)
}

func core(t *testing.T) {
	graph := BuildGraph(testParams())
	assert.Equal(t, "KSampler", graph[nodeSampler].ClassType)
	assert.Equal(t, int64(42), graph[nodeSampler].Inputs["seed"])
	assert.Equal(t, 25, graph[nodeSampler].Inputs["steps"])
	assert.Equal(t, "uni_pc", graph[nodeSampler].Inputs["sampler_name"])
	assert.Equal(t, 16, graph[nodeLatent].Inputs["length"])
	assert.Equal(t, "a piglet in a meadow", graph[nodePositive].Inputs["text"])
	// sampler wired to both encoders and the latent
	assert.Equal(t, link(nodePositive, 0), graph[nodeSampler].Inputs["positive"])
	assert.Equal(t, link(nodeNegative, 0), graph[nodeSampler].Inputs["negative"])
	assert.Equal(t, link(nodeLatent, 0), graph[nodeSampler].Inputs["latent_image"])
}

func saveNodes(t *testing.T) {
	params := testParams()
	graph := BuildGraph(params)
	assert.Contains(t, graph, nodeWebm)
	assert.NotContains(t, graph, nodeWebp)
	assert.NotContains(t, graph, nodeImage)

	params.IncludeWebm = false
	params.IncludeImages = true
	graph = BuildGraph(params)
	assert.NotContains(t, graph, nodeWebm)
	assert.Equal(t, "SaveImage", graph[nodeImage].ClassType)
	assert.Equal(t, "wan_t2v_01", graph[nodeImage].Inputs["filename_prefix"])
}

func deterministic(t *testing.T) {
	a, err := json.Marshal(BuildGraph(testParams()))
	assert.Nil(t, err)
	b, err := json.Marshal(BuildGraph(testParams()))
	assert.Nil(t, err)
	assert.Equal(t, string(a), string(b))
}

func toggles(t *testing.T) {
	webm, webp, images, err := OutputToggles(config.MODE_VIDEO, config.FORMAT_BOTH)
	assert.Nil(t, err)
	assert.True(t, webm)
	assert.True(t, webp)
	assert.False(t, images)

	_, _, images, err = OutputToggles(config.MODE_IMAGE, config.FORMAT_WEBM)
	assert.Nil(t, err)
	assert.True(t, images)

	_, _, _, err = OutputToggles(config.MODE_VIDEO, "gif")
	assert.NotNil(t, err)

	_, _, _, err = OutputToggles("audio", config.FORMAT_WEBM)
	assert.NotNil(t, err)

	params := testParams()
	params.IncludeWebm = false
	assert.NotNil(t, params.Validate())
}

func seedPlan(t *testing.T) {
	base := int64(100)
	seeds, err := SeedPlan(&base, 3)
	assert.Nil(t, err)
	assert.Equal(t, []int64{100, 101, 102}, seeds)

	seeds, err = SeedPlan(nil, 5)
	assert.Nil(t, err)
	assert.Equal(t, 5, len(seeds))
	for _, s := range seeds {
		assert.True(t, s >= 0)
	}
}
