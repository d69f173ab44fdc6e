package config

import (
	"io/ioutil"
	"os"

	"gopkg.in/yaml.v2"
)

var ConfigGlobal = DefaultConfig()

type Config struct {
	// comfy backend
	ComfyUrl string `yaml:"comfyUrl"`

	// model assets expected on the backend
	UnetName string `yaml:"unetName"`
	ClipName string `yaml:"clipName"`
	VaeName  string `yaml:"vaeName"`

	// simple sd api
	SdApiUrl string `yaml:"sdApiUrl"`

	// port-forward
	Namespace  string `yaml:"namespace"`
	Deployment string `yaml:"deployment"`
	RemotePort int    `yaml:"remotePort"`

	// output
	OutputDir string `yaml:"outputDir"`

	// run ledger
	DbSqlite string `yaml:"dbSqlite"`

	// ots
	OtsEndpoint     string `yaml:"otsEndpoint"`
	OtsInstanceName string `yaml:"otsInstanceName"`
	OtsTimeToAlive  int    `yaml:"otsTimeToAlive"`
	OtsMaxVersion   int    `yaml:"otsMaxVersion"`

	// oss archive, enabled when Bucket set and account env present
	OssEndpoint     string `yaml:"ossEndpoint"`
	Bucket          string `yaml:"bucket"`
	AccessKeyId     string `yaml:"-"`
	AccessKeySecret string `yaml:"-"`
	AccessKeyToken  string `yaml:"-"`

	// gallery
	GalleryPort string `yaml:"galleryPort"`
}

func DefaultConfig() *Config {
	return &Config{
		ComfyUrl:        "http://127.0.0.1:8181",
		UnetName:        "wan2.1_t2v_1.3B_bf16.safetensors",
		ClipName:        "umt5_xxl_fp16.safetensors",
		VaeName:         "wan_2.1_vae.safetensors",
		SdApiUrl:        "http://192.168.0.176:30800/generate",
		Namespace:       "llm",
		Deployment:      "wan-video-gen",
		RemotePort:      8181,
		OutputDir:       "generated",
		DbSqlite:        "./sqlite3",
		OtsTimeToAlive:  -1,
		OtsMaxVersion:   1,
		GalleryPort:     "8090",
		AccessKeyId:     os.Getenv(ACCESS_KEY_ID),
		AccessKeySecret: os.Getenv(ACCESS_KEY_SECRET),
		AccessKeyToken:  os.Getenv(ACCESS_KEY_TOKEN),
	}
}

// InitConfig load config file, keep defaults when file absent
func InitConfig(fn string) error {
	ConfigGlobal = DefaultConfig()
	if fn == "" {
		return nil
	}
	data, err := ioutil.ReadFile(fn)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, ConfigGlobal)
}

// EnableOssArchive archive outputs to oss when bucket configured
func (c *Config) EnableOssArchive() bool {
	return c.Bucket != "" && c.AccessKeyId != "" && c.AccessKeySecret != ""
}
