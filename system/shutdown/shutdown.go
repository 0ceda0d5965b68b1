package shutdown

import (
	"fmt"
	"os/exec"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/brew-controller/internal/env"
)

var run = func(name string, args ...string) error {
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %v: %w: %s", name, args, err, out)
	}
	return nil
}

// Reboot restarts the host. In safe mode it only logs.
func Reboot() error {
	return host("-r", "Rebooting system")
}

// PowerOff halts the host. In safe mode it only logs.
func PowerOff() error {
	return host("-P", "Shutting down system")
}

func host(flag, msg string) error {
	if env.Cfg != nil && env.Cfg.SafeMode {
		log.Warn().Str("flag", flag).Msg("Safe mode, not touching host power")
		return nil
	}
	log.Info().Msg(msg)
	return run("shutdown", flag, "now")
}
