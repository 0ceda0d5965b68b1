package startup

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/thatsimonsguy/brew-controller/internal/env"
	"github.com/thatsimonsguy/brew-controller/internal/model"
)

// BootScript renders a pinctrl script that drives every output to its
// inactive level, so relays stay open between power-on and controller start.
func BootScript(outputs []model.NamedPin) string {
	var lines []string
	lines = append(lines, "#!/bin/bash", "", "# Brewery GPIO pin configuration at boot", "")

	for _, o := range outputs {
		drive := "dh"
		if o.Pin.ActiveHigh {
			drive = "dl"
		}
		lines = append(lines, fmt.Sprintf("# %s", o.Name))
		lines = append(lines, fmt.Sprintf("pinctrl set %d op pn %s", o.Pin.Number, drive))
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n") + "\n"
}

func WriteStartupScript(outputs []model.NamedPin) error {
	return os.WriteFile(env.Cfg.BootScriptFilePath, []byte(BootScript(outputs)), 0755)
}

func InstallStartupService() error {
	unitContents := fmt.Sprintf(`[Unit]
Description=Configure brewery GPIO pins at boot
After=network.target

[Service]
Type=oneshot
Environment=PATH=/usr/local/bin:/usr/bin:/bin
ExecStart=%s
RemainAfterExit=true

[Install]
WantedBy=multi-user.target
`, env.Cfg.BootScriptFilePath)

	return os.WriteFile(env.Cfg.OSServicePath, []byte(unitContents), 0644)
}

func RunStartupScript() error {
	cmd := exec.Command("/bin/bash", env.Cfg.BootScriptFilePath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// InstallControllerService writes the unit running binary with args after
// the boot script service.
func InstallControllerService(binary string, args ...string) error {
	gpioUnitName := filepath.Base(env.Cfg.OSServicePath)
	execCmd := strings.TrimSpace(binary + " " + strings.Join(args, " "))

	unit := fmt.Sprintf(`[Unit]
Description=Brewery controller
After=%s
Requires=%s

[Service]
Type=simple
WorkingDirectory=%s
ExecStart=%s
Restart=on-failure
RestartSec=5s

[Install]
WantedBy=multi-user.target
`, gpioUnitName, gpioUnitName, filepath.Dir(binary), execCmd)

	return os.WriteFile(env.Cfg.MainServicePath, []byte(unit), 0644)
}
