package env

import (
	"github.com/thatsimonsguy/brew-controller/internal/config"
)

var Cfg *config.Config
