package datastore

import (
	"fmt"

	config2 "github.com/devsapp/comfyui-batch-cli/pkg/config"
)

type DatastoreFactory struct{}

func (f *DatastoreFactory) NewTable(dbType DatastoreType, tableName string) Datastore {
	switch dbType {
	case SQLite:
		cfg := NewSQLiteConfig(tableName)
		return NewSQLiteDatastore(cfg)
	case TableStore:
		cfg := NewOtsConfig(tableName)
		otsStore, err := NewOtsDatastore(cfg)
		if err != nil {
			panic("init ots fail")
		}
		return otsStore
	default:
		panic(fmt.Sprintf("not support db type=%s", dbType))
	}
}

func NewSQLiteConfig(tableName string) *Config {
	config := &Config{
		Type:      SQLite,
		DBName:    config2.ConfigGlobal.DbSqlite,
		TableName: tableName,
	}
	switch tableName {
	case KRunTableName:
		config.ColumnConfig = map[string]string{
			KRunIdColumnName: "TEXT PRIMARY KEY NOT NULL",
			KRunPrompt:       "TEXT",
			KRunNegative:     "TEXT",
			KRunMode:         "TEXT",
			KRunSeed:         "INT",
			KRunParams:       "TEXT",
			KRunPromptId:     "TEXT",
			KRunFiles:        "TEXT",
			KRunStatus:       "TEXT",
			KRunInfo:         "TEXT",
			KRunCreateTime:   "TEXT",
			KRunModifyTime:   "TEXT",
		}
		config.PrimaryKeyColumnName = KRunIdColumnName
	}
	return config
}

func NewOtsConfig(tableName string) *Config {
	config := &Config{
		Type:        TableStore,
		TableName:   tableName,
		TimeToAlive: config2.ConfigGlobal.OtsTimeToAlive,
		MaxVersion:  config2.ConfigGlobal.OtsMaxVersion,
	}
	switch tableName {
	case KRunTableName:
		config.ColumnConfig = map[string]string{
			KRunIdColumnName: "TEXT",
			KRunPrompt:       "TEXT",
			KRunNegative:     "TEXT",
			KRunMode:         "TEXT",
			KRunSeed:         "INT",
			KRunParams:       "TEXT",
			KRunPromptId:     "TEXT",
			KRunFiles:        "TEXT",
			KRunStatus:       "TEXT",
			KRunInfo:         "TEXT",
			KRunCreateTime:   "TEXT",
			KRunModifyTime:   "TEXT",
		}
		config.PrimaryKeyColumnName = KRunIdColumnName
	}
	return config
}
