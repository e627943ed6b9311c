package commands

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// CommonFlags are accepted by every command.
type CommonFlags struct {
	ConfigDir string
	Quiet     bool
	Debug     bool
}

// NewFlagSet builds the flag set for cmd: common flags plus the command's
// own. Parse errors are returned, never printed.
func NewFlagSet(cmd Command) (*flag.FlagSet, *CommonFlags) {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	common := &CommonFlags{}
	fs.StringVar(&common.ConfigDir, "config", "", "")
	fs.BoolVar(&common.Quiet, "quiet", false, "")
	fs.BoolVar(&common.Debug, "debug", false, "")

	cmd.RegisterFlags(fs)
	return fs, common
}

// ParseArgs parses args with fs and returns the positional arguments.
// The returned error message is ready to print after "error: ".
func ParseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, flagError(err)
	}

	// A positional arg starting with - should have been parsed as a flag
	positional := fs.Args()
	if len(positional) > 0 && strings.HasPrefix(positional[0], "-") {
		return nil, fmt.Errorf("unknown flag: %s", positional[0])
	}
	return positional, nil
}

func flagError(err error) error {
	errStr := err.Error()

	// Missing flag value
	if strings.Contains(errStr, "needs a value") || strings.Contains(errStr, "flag needs an argument") {
		parts := strings.Split(errStr, ":")
		flagPart := strings.TrimSpace(parts[len(parts)-1])
		return fmt.Errorf("flag needs an argument: %s", flagPart)
	}

	if strings.HasPrefix(errStr, "flag provided but not defined:") {
		flagName := strings.TrimPrefix(errStr, "flag provided but not defined: ")
		return fmt.Errorf("unknown flag: %s", flagName)
	}

	return err
}
