package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Indicator Engine Configuration

[engine]
# Number of concurrent evaluation workers for batch runs
workers = 4
# Decimal places used when printing values
precision = 4
# Bar field feeding "price" inputs: open, high, low, close, median, typical, weighted
default_price = "close"

[store]
# SQLite database holding imported bars (defaults to bars.db next to this file)
# path = ""

[logging]
# trace, debug, info, warn, error
level = "info"
# Log to stderr
console = true
# Log to a rotated file
file = false
# file_path = ""
max_size = 100
max_backups = 7
max_age = 30

[metrics]
# Print Prometheus metrics after batch runs
enabled = false

# Jobs evaluated by "indicators batch"
[[jobs]]
name = "sma20"
kind = "SMA"
params = { period = 20 }

[[jobs]]
name = "bands"
kind = "BBANDS"
params = { period = 20, nbdev_up = 2, nbdev_dn = 2, ma = "sma" }

[[jobs]]
name = "macd"
kind = "MACD"
params = { fast = 12, slow = 26, signal = 9 }

[[jobs]]
name = "atr"
kind = "ATR"
params = { period = 14 }
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, fileName+"."+fileType)
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
