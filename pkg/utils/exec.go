package utils

import (
	"errors"
	"os/exec"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

type ExecItem struct {
	Pid  int
	Args []string
	cmd  *exec.Cmd
}

// DoExecAsync start a child process as its own process group leader
func DoExecAsync(name string, args ...string) (*ExecItem, error) {
	cmd := exec.Command(name, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		logrus.Errorf("cmd.Start err: %s", err.Error())
		return nil, errors.New(name + " start error")
	}
	return &ExecItem{
		Pid:  cmd.Process.Pid,
		Args: cmd.Args,
		cmd:  cmd,
	}, nil
}

// Stop terminate the process group, escalate to SIGKILL after the grace period
func (e *ExecItem) Stop(grace time.Duration) {
	if e == nil || e.cmd == nil || e.cmd.Process == nil {
		return
	}
	syscall.Kill(-e.Pid, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		e.cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(grace):
		syscall.Kill(-e.Pid, syscall.SIGKILL)
		<-done
	}
}
