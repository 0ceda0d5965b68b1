package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/thatsimonsguy/brew-controller/db"
	"github.com/thatsimonsguy/brew-controller/internal/brewery"
	"github.com/thatsimonsguy/brew-controller/internal/config"
	"github.com/thatsimonsguy/brew-controller/internal/env"
	"github.com/thatsimonsguy/brew-controller/internal/gpio"
	"github.com/thatsimonsguy/brew-controller/internal/onewire"
	"github.com/thatsimonsguy/brew-controller/system/startup"
)

func main() {
	DebugCLI()
}

func DebugCLI() {
	var command, binary string
	var limit int
	flag.StringVar(&command, "cmd", "", "Command to run: list-sensors, layout, script, journal, write-boot-script, install-services")
	flag.IntVar(&limit, "limit", 20, "Number of journal entries to show")
	flag.StringVar(&binary, "binary", "/usr/local/bin/brew-controller", "Controller binary for install-services")
	help := flag.Bool("help", false, "Show help")

	cfg := config.Load()
	env.Cfg = &cfg

	if *help || command == "" {
		fmt.Println("\nUsage of brew-debug:")
		fmt.Println("  -cmd string\tCommand to run: list-sensors, layout, script, journal, write-boot-script, install-services")
		fmt.Println("  -config-file string\tController config file (built-in board layout if empty)")
		fmt.Println("  -limit int\tNumber of journal entries to show (default 20)")
		fmt.Println("  -binary string\tController binary for install-services")
		fmt.Println("  -help\tShow this help message")
		os.Exit(0)
	}

	var err error
	switch command {
	case "list-sensors":
		err = listSensors(cfg.W1Dir)
	case "layout":
		err = withBrewery(&cfg, func(b *brewery.Brewery) error {
			fmt.Println(b.Layout())
			return nil
		})
	case "script":
		err = withBrewery(&cfg, func(b *brewery.Brewery) error {
			fmt.Println(b.Script(nil))
			return nil
		})
	case "journal":
		err = showJournal(cfg.JournalPath, limit)
	case "write-boot-script":
		err = withBrewery(&cfg, func(b *brewery.Brewery) error {
			return startup.WriteStartupScript(b.Outputs())
		})
	case "install-services":
		err = withBrewery(&cfg, func(b *brewery.Brewery) error {
			if err := startup.WriteStartupScript(b.Outputs()); err != nil {
				return err
			}
			if err := startup.InstallStartupService(); err != nil {
				return err
			}
			args := []string{}
			if cfg.ConfigFile != "" {
				args = append(args, "-config-file", cfg.ConfigFile)
			}
			return startup.InstallControllerService(binary, args...)
		})
	default:
		fmt.Println("Invalid command")
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Command %s failed: %v\n", command, err)
		os.Exit(1)
	}
	fmt.Printf("Command %s completed successfully\n", command)
}

func listSensors(dir string) error {
	if !onewire.IsSetup(dir) {
		return fmt.Errorf("1-wire bus not available at %s", dir)
	}
	ids, err := onewire.ListDeviceIDs(dir)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

// withBrewery builds the tree on an in-memory driver so nothing touches the
// board.
func withBrewery(cfg *config.Config, fn func(b *brewery.Brewery) error) error {
	m := gpio.NewMock()
	b, err := brewery.New(cfg, m, brewery.AnalogProbes(m), time.Now())
	if err != nil {
		return err
	}
	defer b.Shutdown()
	return fn(b)
}

func showJournal(path string, limit int) error {
	if path == "" {
		return fmt.Errorf("no journal_path configured")
	}
	conn, err := db.Open(path)
	if err != nil {
		return err
	}
	defer conn.Close()

	commands, err := db.RecentCommands(context.Background(), conn, limit)
	if err != nil {
		return err
	}
	for _, c := range commands {
		fmt.Printf("%s  %-4s  %-6s %-4d %s\n", c.At.Format(time.RFC3339), c.Source, c.Method, c.Status, c.Path)
	}
	return nil
}
