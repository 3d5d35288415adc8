/*
MIT License

Copyright (c) 2026 the isy authors

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package directoryconf loads the Directory's configuration file.
// The exact KEY=VALUE/comment syntax is an external concern; this package only defines the typed result and wires it
// through github.com/spf13/viper's "env" config type, which already speaks
// that syntax.
package directoryconf

import (
	"fmt"

	"github.com/nabbar/golib/duration"
	"github.com/spf13/viper"
)

// Config is the Directory's resolved, typed configuration.
type Config struct {
	ServerIP       string
	ServerPort     int
	BasePort       int
	MaxGroups      int
	IdleTimeoutSec duration.Duration
}

const (
	defaultMaxGroups = 32
	minMaxGroups     = 1
	maxMaxGroups     = 256
)

// Load reads and validates the Directory configuration file at path.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")

	v.SetDefault("SERVER_IP", "0.0.0.0")
	v.SetDefault("MAX_GROUPS", defaultMaxGroups)
	v.SetDefault("IDLE_TIMEOUT_SEC", 0)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read directory config %q: %w", path, err)
	}

	c := Config{
		ServerIP:       v.GetString("SERVER_IP"),
		ServerPort:     v.GetInt("SERVER_PORT"),
		BasePort:       v.GetInt("BASE_PORT"),
		MaxGroups:      v.GetInt("MAX_GROUPS"),
		IdleTimeoutSec: duration.Seconds(v.GetInt64("IDLE_TIMEOUT_SEC")),
	}

	if c.ServerPort <= 0 {
		return Config{}, fmt.Errorf("SERVER_PORT is required")
	}
	if c.BasePort <= 0 {
		return Config{}, fmt.Errorf("BASE_PORT is required")
	}
	if c.MaxGroups < minMaxGroups || c.MaxGroups > maxMaxGroups {
		return Config{}, fmt.Errorf("MAX_GROUPS must be in [%d,%d], got %d", minMaxGroups, maxMaxGroups, c.MaxGroups)
	}

	return c, nil
}
