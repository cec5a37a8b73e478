package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// readDotEnv returns the KEY=VALUE pairs of path. A missing file is only an
// error when required.
func readDotEnv(path string, required bool) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return values, nil
}
