package module

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/devsapp/comfyui-batch-cli/pkg/config"
	"github.com/devsapp/comfyui-batch-cli/pkg/utils"
	"github.com/sirupsen/logrus"
)

const stopGrace = 5 * time.Second

// PortForward kubectl tunnel to the backend deployment
type PortForward struct {
	proc *utils.ExecItem
}

// StartPortForward spawn kubectl port-forward for the configured deployment,
// binding localPort on 127.0.0.1
func StartPortForward(namespace, deployment string, localPort, remotePort int) (*PortForward, error) {
	proc, err := utils.DoExecAsync("kubectl",
		"port-forward",
		"-n", namespace,
		fmt.Sprintf("deploy/%s", deployment),
		fmt.Sprintf("%d:%d", localPort, remotePort),
		"--address", "127.0.0.1",
	)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"pid": proc.Pid}).Infof(
		"port-forward started for deploy/%s in %s", deployment, namespace)
	return &PortForward{proc: proc}, nil
}

// Stop terminate the tunnel, safe on nil receiver
func (p *PortForward) Stop() {
	if p == nil {
		return
	}
	p.proc.Stop(stopGrace)
}

// ParsePort local port from the base url, backend port when unset
func ParsePort(baseUrl string) int {
	parsed, err := url.Parse(baseUrl)
	if err != nil {
		return config.ConfigGlobal.RemotePort
	}
	if port := parsed.Port(); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			return n
		}
	}
	return config.ConfigGlobal.RemotePort
}
