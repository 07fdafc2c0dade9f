package tools

// Status captures the resolved state of an external tool.
type Status struct {
	Tool      string   `json:"tool"`
	Version   string   `json:"version,omitempty"`
	Minimum   string   `json:"minimum,omitempty"`
	Path      string   `json:"path,omitempty"`
	Override  bool     `json:"override,omitempty"`
	Satisfied bool     `json:"satisfied"`
	Error     string   `json:"error,omitempty"`
	Hints     []string `json:"hints,omitempty"`
}

// BinarySpec describes how to find and interrogate an executable.
type BinarySpec struct {
	Name          string
	Executable    string
	VersionSwitch string
}

// ToolDefinition contains the metadata needed to check a tool.
type ToolDefinition struct {
	Name           string
	MinimumVersion string
	Binary         BinarySpec
}
