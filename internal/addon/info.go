package addon

import "github.com/mistweaverco/addonup/internal/lib/semver"

// Info is the add-on metadata the host reads at load time.
type Info struct {
	Name        string `json:"name"`
	Author      string `json:"author"`
	Version     [3]int `json:"version"`
	Blender     [3]int `json:"blender"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// VersionString renders Version as "6.3.0".
func (i Info) VersionString() string {
	return semver.FromTuple(i.Version[:]...)
}

// UVIslandAlignmentTool is the metadata of the add-on this updater ships with.
var UVIslandAlignmentTool = Info{
	Name:        "UV Island Alignment Tool",
	Author:      "samia-done",
	Version:     [3]int{6, 3, 0},
	Blender:     [3]int{2, 80, 0},
	Location:    "Image Editor > Sidebar > UV Island Alignment",
	Description: "Align UV islands to each other",
	Category:    "UV",
}
