// Package onewire finds DS18B20 probes on the 1-wire bus.
package onewire

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/thatsimonsguy/brew-controller/internal/model"
)

const (
	DevicesDir   = "/sys/bus/w1/devices"
	familyPrefix = "28-"
)

// ErrNotFound means the probe is not on the bus.
var ErrNotFound = errors.New("1-wire device not found")

// IsSetup reports whether the 1-wire overlay is loaded.
func IsSetup(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

// ListDeviceIDs returns the ids of the connected probes, sorted.
func ListDeviceIDs(dir string) ([]model.SensorID, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list 1-wire devices: %w", err)
	}

	var ids []model.SensorID
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "w1_bus_master") {
			continue
		}
		ids = append(ids, model.SensorID(strings.TrimPrefix(name, familyPrefix)))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// DevicePath is the sysfs directory of probe id.
func DevicePath(dir string, id model.SensorID) string {
	return filepath.Join(dir, familyPrefix+string(id))
}

// Setup checks that probe id is present and returns its sysfs directory.
func Setup(dir string, id model.SensorID) (string, error) {
	path := DevicePath(dir, id)
	if _, err := os.Stat(filepath.Join(path, "w1_slave")); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrNotFound, id, err)
	}
	return path, nil
}
