package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const envFileName = ".env"

// Environment variables that provide defaults for flags.
const (
	envPort        = "PAGESIM_PORT"
	envRecord      = "PAGESIM_RECORD"
	envAllowOrigin = "PAGESIM_ALLOW_ORIGIN"
)

// loadEnvFile loads variables from an env file if it exists. Variables that
// are already set win over the file.
func loadEnvFile(filename string) error {
	err := godotenv.Load(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("loading %s: %w", filename, err)
	}

	return nil
}

// stringSetting returns the flag value if the flag was given on the command
// line, then the environment variable, then the flag default.
func stringSetting(cmd *cobra.Command, flag, env string) string {
	value, _ := cmd.Flags().GetString(flag)
	if cmd.Flags().Changed(flag) {
		return value
	}

	if v, ok := os.LookupEnv(env); ok {
		return v
	}

	return value
}

// intSetting is stringSetting for integer flags.
func intSetting(cmd *cobra.Command, flag, env string) (int, error) {
	value, _ := cmd.Flags().GetInt(flag)
	if cmd.Flags().Changed(flag) {
		return value, nil
	}

	v, ok := os.LookupEnv(env)
	if !ok {
		return value, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", env, v)
	}

	return n, nil
}
