package tools

import (
	"runtime"
	"sort"
)

// ffmpeg 5.1 is the first release whose concat demuxer accepts the
// ffconcat duration directives the caption track relies on.
var toolDefinitions = map[string]ToolDefinition{
	"ffmpeg": {
		Name:           "ffmpeg",
		MinimumVersion: "5.1",
		Binary:         BinarySpec{Name: "ffmpeg", Executable: executableName("ffmpeg"), VersionSwitch: "-version"},
	},
	"ffprobe": {
		Name:           "ffprobe",
		MinimumVersion: "5.1",
		Binary:         BinarySpec{Name: "ffprobe", Executable: executableName("ffprobe"), VersionSwitch: "-version"},
	},
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

// KnownTools returns the list of checked tool names.
func KnownTools() []string {
	names := make([]string, 0, len(toolDefinitions))
	for name := range toolDefinitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definition returns the tool definition for the provided name.
func Definition(name string) (ToolDefinition, bool) {
	def, ok := toolDefinitions[name]
	return def, ok
}
