// Package deps reports on the external programs a run shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"walkthrough/internal/config"
	"walkthrough/internal/services"
)

// Requirement defines an external program walkthrough relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Detail      string
}

// Requirements lists the programs the configuration needs. Piper is only
// required when it is the selected speech engine.
func Requirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{Name: "FFmpeg", Command: cfg.Assembly.FFmpegBinary, Description: "muxes narration onto the recording"},
		{Name: "FFprobe", Command: cfg.Assembly.FFprobeBinary, Description: "verifies the rendered tutorial"},
	}
	reqs = append(reqs, Requirement{
		Name:        "Piper",
		Command:     cfg.Synthesis.PiperPath,
		Description: "speech synthesis executable",
		Optional:    cfg.Synthesis.Engine != config.EnginePiper,
	})
	return reqs
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		if err := unix.Access(path, unix.X_OK); err != nil {
			status.Detail = fmt.Sprintf("%s is not executable", path)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		results = append(results, status)
	}
	return results
}

// Missing returns a configuration error naming every unavailable required
// dependency, or nil when all are present.
func Missing(statuses []Status) error {
	var missing []string
	for _, status := range statuses {
		if status.Optional || status.Available {
			continue
		}
		missing = append(missing, fmt.Sprintf("%s (%s)", status.Name, status.Detail))
	}
	if len(missing) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "deps", "check binaries",
		"missing "+strings.Join(missing, ", "), nil)
}
