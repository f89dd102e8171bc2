package service

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"postpad/app/repositories"
	"postpad/config"
	"postpad/logging"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

// newLogger is a variable so tests can silence the process logger.
var newLogger = logging.New

// openStorage opens the configured backend, creating parent directories
// for file-backed drivers.
func openStorage(cfg *config.Config) (repositories.Storage, error) {
	path := cfg.StoragePath()
	if path != "" && cfg.Storage.Driver == repositories.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}
	storage, err := repositories.OpenStorage(cfg.Storage.Driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}
	return storage, nil
}

// confirm asks a yes/no question; anything but y or Y declines.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	answer := strings.TrimSpace(line)
	return answer == "y" || answer == "Y"
}
