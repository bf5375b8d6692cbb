// Package version exposes build metadata set through -ldflags.
package version

import (
	"runtime"
	"runtime/debug"
)

// Version is the release version of the shapematch binary.
var Version = "dev"

// Commit is the Git hash the binary was built from.
var Commit = "<unknown>"

// Date is the build date.
var Date = "<unknown>"

// Info is a printable summary of the build.
type Info struct {
	Version   string `json:"version"   yaml:"version"`
	Commit    string `json:"commit"    yaml:"commit"`
	Date      string `json:"date"      yaml:"date"`
	GoVersion string `json:"goVersion" yaml:"goVersion"`
	Module    string `json:"module"    yaml:"module"`
}

// Get returns the build metadata. Values not set at link time are filled
// from the embedded build info when available.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
	}

	build, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	info.Module = build.Main.Path

	if info.Version == "dev" && build.Main.Version != "" && build.Main.Version != "(devel)" {
		info.Version = build.Main.Version
	}

	for _, setting := range build.Settings {
		if setting.Key == "vcs.revision" && info.Commit == "<unknown>" {
			info.Commit = setting.Value
		}
	}

	return info
}
