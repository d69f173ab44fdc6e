package datastore

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/devsapp/comfyui-batch-cli/pkg/config"
	"github.com/devsapp/comfyui-batch-cli/pkg/utils"
)

const (
	KRunTableName    = "run"
	KRunIdColumnName = "RUN_ID"
	KRunPrompt       = "RUN_PROMPT"
	KRunNegative     = "RUN_NEGATIVE"
	KRunMode         = "RUN_MODE"
	KRunSeed         = "RUN_SEED"
	KRunParams       = "RUN_PARAMS"
	KRunPromptId     = "RUN_PROMPT_ID"
	KRunFiles        = "RUN_FILES"
	KRunStatus       = "RUN_STATUS"
	KRunInfo         = "RUN_INFO"
	KRunCreateTime   = "RUN_CREATE_TIME"
	KRunModifyTime   = "RUN_MODIFY_TIME"
)

// RunStore run ledger, one row per generation attempt
type RunStore struct {
	store Datastore
}

func NewRunStore(dbType DatastoreType) *RunStore {
	tableFactory := DatastoreFactory{}
	return &RunStore{
		store: tableFactory.NewTable(dbType, KRunTableName),
	}
}

// OpenRun record a queued run before submission
func (r *RunStore) OpenRun(runId, prompt, negative, mode string, seed int64, params interface{}) error {
	paramsJson, err := json.Marshal(params)
	if err != nil {
		return err
	}
	return r.store.Put(runId, map[string]interface{}{
		KRunPrompt:     prompt,
		KRunNegative:   negative,
		KRunMode:       mode,
		KRunSeed:       seed,
		KRunParams:     string(paramsJson),
		KRunStatus:     config.RUN_QUEUE,
		KRunCreateTime: fmt.Sprintf("%d", utils.TimestampS()),
		KRunModifyTime: fmt.Sprintf("%d", utils.TimestampS()),
	})
}

// MarkSubmitted store the server prompt id once queued
func (r *RunStore) MarkSubmitted(runId, promptId string) error {
	return r.store.Update(runId, map[string]interface{}{
		KRunPromptId:   promptId,
		KRunStatus:     config.RUN_INPROGRESS,
		KRunModifyTime: fmt.Sprintf("%d", utils.TimestampS()),
	})
}

// FinishRun mark success and record the downloaded files
func (r *RunStore) FinishRun(runId string, files []string) error {
	return r.store.Update(runId, map[string]interface{}{
		KRunFiles:      strings.Join(files, ","),
		KRunStatus:     config.RUN_FINISH,
		KRunModifyTime: fmt.Sprintf("%d", utils.TimestampS()),
	})
}

// FailRun mark failure with the terminal error
func (r *RunStore) FailRun(runId string, info string) error {
	return r.store.Update(runId, map[string]interface{}{
		KRunInfo:       info,
		KRunStatus:     config.RUN_FAILED,
		KRunModifyTime: fmt.Sprintf("%d", utils.TimestampS()),
	})
}

// GetRun single run row
func (r *RunStore) GetRun(runId string, columns []string) (map[string]interface{}, error) {
	return r.store.Get(runId, columns)
}

// ListRuns all rows, gallery listing only
func (r *RunStore) ListRuns() (map[string]map[string]interface{}, error) {
	return r.store.ListAll([]string{KRunIdColumnName, KRunPrompt, KRunMode, KRunSeed,
		KRunFiles, KRunStatus, KRunCreateTime})
}

func (r *RunStore) Close() error {
	return r.store.Close()
}
