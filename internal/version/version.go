// Package version exposes build metadata stamped at link time.
package version

// These are set with -ldflags at release builds; a source build reports dev.
var (
	Version   = "dev"
	Built     = ""
	GitCommit = ""
)

type Info struct {
	Version   string `json:"version"`
	Built     string `json:"built,omitempty"`
	GitCommit string `json:"git_commit,omitempty"`
}

func Get() Info {
	return Info{
		Version:   Version,
		Built:     Built,
		GitCommit: GitCommit,
	}
}

// String renders the info for a --version line, e.g. "1.2.3 (abc123)".
func (i Info) String() string {
	text := i.Version
	if text == "" {
		text = "dev"
	}
	if i.GitCommit != "" {
		text += " (" + i.GitCommit + ")"
	}
	return text
}
