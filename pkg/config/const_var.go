package config

import "time"

// datastore primary key column
const COLPK = "PK"

// env keys
const (
	ACCESS_KEY_ID     = "ALIBABA_CLOUD_ACCESS_KEY_ID"
	ACCESS_KEY_SECRET = "ALIBABA_CLOUD_ACCESS_KEY_SECRET"
	ACCESS_KEY_TOKEN  = "ALIBABA_CLOUD_SECURITY_TOKEN"
)

const (
	// run status
	RUN_INPROGRESS = "inprogress"
	RUN_FAILED     = "failed"
	RUN_QUEUE      = "queue"
	RUN_FINISH     = "finish"

	HTTPTIMEOUT = 30 * time.Second

	// reachability probe and bounded wait
	REACHTIMEOUT = 3 * time.Second
	WAITREADY    = 30 * time.Second
	WAITINTERVAL = 1 * time.Second

	// history polling
	POLLDEADLINE = 3600 * time.Second
	POLLINTERVAL = 5 * time.Second
)

// comfy endpoints
const (
	PROMPT     = "/prompt"
	HISTORY    = "/history"
	VIEW       = "/view"
	OBJECTINFO = "/object_info"
	QUEUE      = "/queue"
)

// output mode
const (
	MODE_VIDEO = "video"
	MODE_IMAGE = "image"

	FORMAT_WEBM = "webm"
	FORMAT_WEBP = "webp"
	FORMAT_BOTH = "both"
)

// ERROR message
const (
	INTERNALERROR = "an internal error"
	NOTREACHABLE  = "comfy not reachable, use -port-forward or set -url"
	EMPTYRESULT   = "no output files found in history response"
)
