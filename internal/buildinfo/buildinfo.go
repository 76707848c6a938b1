package buildinfo

import "time"

// Set via -ldflags at build time
var (
	BuildTime  string // when the binary was compiled
	CommitHash string // short git commit hash
)

// StartTime is recorded when the process starts
var StartTime = time.Now().UTC()

// Info describes the running binary
type Info struct {
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"buildTime,omitempty"`
	Uptime    string `json:"uptime"`
}

// Current reports build metadata and uptime at now
func Current(now time.Time) Info {
	return Info{
		Commit:    CommitHash,
		BuildTime: BuildTime,
		Uptime:    now.Sub(StartTime).Truncate(time.Second).String(),
	}
}
