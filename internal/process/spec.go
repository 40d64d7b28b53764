package process

import (
	"errors"

	"github.com/aamsilva/vigilhome/internal/logger"
)

// Spec describes the single monitor process the supervisor launches.
// Command is a shell line, matching how the monitor was historically
// started (venv activation plus the python entrypoint in one string).
type Spec struct {
	Command string        `toml:"command" mapstructure:"command"`
	WorkDir string        `toml:"workdir" mapstructure:"workdir"`
	Env     []string      `toml:"env" mapstructure:"env"`
	Log     logger.Config `toml:"log" mapstructure:"log"`
}

// Validate reports configuration errors before any spawn attempt.
func (s Spec) Validate() error {
	if s.Command == "" {
		return errors.New("monitor command is empty")
	}
	return nil
}
