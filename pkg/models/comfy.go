package models

// PromptRequest submit body for /prompt
type PromptRequest struct {
	Prompt   map[string]Node `json:"prompt"`
	ClientId string          `json:"client_id"`
}

// Node one graph node, inputs hold scalars or [nodeId, slot] links
type Node struct {
	ClassType string                 `json:"class_type"`
	Inputs    map[string]interface{} `json:"inputs"`
}

type PromptResponse struct {
	PromptId string      `json:"prompt_id"`
	Number   int         `json:"number"`
	Error    interface{} `json:"error,omitempty"`
}

// HistoryEntry one finished or running prompt in /history/{id}
type HistoryEntry struct {
	Status  HistoryStatus     `json:"status"`
	Outputs map[string]Output `json:"outputs"`
}

// Output files reported by one save node
type Output struct {
	Images []File `json:"images"`
	Videos []File `json:"videos"`
	Gifs   []File `json:"gifs"`
}

type HistoryStatus struct {
	Completed bool          `json:"completed"`
	StatusStr string        `json:"status_str"`
	Messages  []interface{} `json:"messages"`
}

// Files every output file reported across all save nodes
func (h *HistoryEntry) Files() []File {
	files := make([]File, 0)
	for _, output := range h.Outputs {
		files = append(files, output.Images...)
		files = append(files, output.Videos...)
		files = append(files, output.Gifs...)
	}
	return files
}

// File one server-side output, addressed via /view
type File struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

// ObjectInfo /object_info payload, only the option lists are read
type ObjectInfo map[string]NodeInfo

type NodeInfo struct {
	Input NodeInput `json:"input"`
}

type NodeInput struct {
	Required map[string]interface{} `json:"required"`
}

// OptionList the selectable values for one required input. Option inputs are
// encoded as [["a.safetensors", "b.safetensors"], {...}], plain enum inputs as
// ["a", "b"].
func (o ObjectInfo) OptionList(nodeName, inputName string) []string {
	spec, ok := o[nodeName].Input.Required[inputName]
	if !ok {
		return nil
	}
	items, ok := spec.([]interface{})
	if !ok || len(items) == 0 {
		return nil
	}
	if nested, ok := items[0].([]interface{}); ok {
		items = nested
	}
	options := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			options = append(options, s)
		}
	}
	return options
}
