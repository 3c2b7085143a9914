package tools

// Tool identifiers and metadata
type ToolID string

const (
	ToolIdb   ToolID = "idb"
	ToolXcrun ToolID = "xcrun"
)

type ToolInfo struct {
	ID          ToolID
	DisplayName string
	PipPackage  string   // python package for fallback version lookup
	Binaries    []string // candidate binary names in PATH
	VersionArgs [][]string
}

// Check results
type CheckResult struct {
	Installed bool   `json:"installed"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
	Source    string `json:"source,omitempty"` // which method produced version (binary/pip)
	Err       string `json:"error,omitempty"`
}
