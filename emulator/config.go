package emulator

import (
	"io/fs"

	"github.com/BurntSushi/toml"
)

// Config holds the emulator tunables.
type Config struct {
	MaxTicks        int  `toml:"max-ticks"`        // Run limit; 0 is unlimited.
	Workers         int  `toml:"workers"`          // Cores stepped in parallel per tick.
	MailboxCapacity int  `toml:"mailbox-capacity"` // Messages queued per actor.
	DecodeCache     int  `toml:"decode-cache"`     // Decoded instructions cached; 0 disables.
	Verbose         bool `toml:"verbose"`          // Per-instruction tracing.
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		MaxTicks:        0,
		Workers:         1,
		MailboxCapacity: 64,
		DecodeCache:     1024,
	}
}

// LoadConfig reads a TOML configuration file. Keys missing from the file
// keep their DefaultConfig values.
func LoadConfig(filesys fs.FS, name string) (config Config, err error) {
	data, err := fs.ReadFile(filesys, name)
	if err != nil {
		return
	}

	config = DefaultConfig()
	err = toml.Unmarshal(data, &config)
	if err != nil {
		err = &fs.PathError{Op: "config", Path: name, Err: err}
		return
	}

	return
}
