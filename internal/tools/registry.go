package tools

// MinIdbVersion is the oldest idb client known to support record-video.
const MinIdbVersion = "1.1.0"

var Tools = []ToolInfo{
	{
		ID:          ToolIdb,
		DisplayName: "idb (fb-idb)",
		PipPackage:  "fb-idb",
		Binaries:    []string{"idb"},
		VersionArgs: [][]string{{"--version"}, {"version"}},
	},
	{
		ID:          ToolXcrun,
		DisplayName: "xcrun (Xcode)",
		Binaries:    []string{"xcrun"},
		VersionArgs: [][]string{{"--version"}},
	},
}

// Lookup returns the registry entry for id.
func Lookup(id ToolID) (ToolInfo, bool) {
	for _, t := range Tools {
		if t.ID == id {
			return t, true
		}
	}
	return ToolInfo{}, false
}
