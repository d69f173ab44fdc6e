package module

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/devsapp/comfyui-batch-cli/pkg/config"
	"github.com/sirupsen/logrus"
)

// OssGlobal oss manager
var OssGlobal *OssManager

type OssManager struct {
	bucket *oss.Bucket
}

func NewOssManager() error {
	client, err := oss.New(config.ConfigGlobal.OssEndpoint, config.ConfigGlobal.AccessKeyId,
		config.ConfigGlobal.AccessKeySecret, oss.SecurityToken(config.ConfigGlobal.AccessKeyToken))
	if err != nil {
		return err
	}
	bucket, err := client.Bucket(config.ConfigGlobal.Bucket)
	if err != nil {
		return err
	}
	OssGlobal = &OssManager{
		bucket: bucket,
	}
	return nil
}

// UploadFile upload file to oss
func (o *OssManager) UploadFile(ossKey, localFile string) error {
	return o.bucket.PutObjectFromFile(ossKey, localFile)
}

// ArchiveRun mirror downloaded outputs and the index under runs/<runId>/
func (o *OssManager) ArchiveRun(runId, runDir string, paths []string) error {
	for _, path := range paths {
		ossKey := fmt.Sprintf("runs/%s/%s", runId, filepath.Base(path))
		if err := o.UploadFile(ossKey, path); err != nil {
			return fmt.Errorf("archive %s err=%s", path, err.Error())
		}
		logrus.WithFields(logrus.Fields{"runId": runId}).Infof("archived %s", ossKey)
	}
	indexPath := filepath.Join(runDir, IndexFileName)
	if _, err := os.Stat(indexPath); err == nil {
		return o.UploadFile(fmt.Sprintf("runs/%s/%s", runId, IndexFileName), indexPath)
	}
	return nil
}
