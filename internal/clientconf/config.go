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

// Package clientconf loads the Client's configuration file.
package clientconf

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the Client's resolved, typed configuration.
type Config struct {
	User          string
	ServerIP      string
	ServerPort    int
	LocalRecvPort int
}

// Load reads and validates the Client configuration file at path.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read client config %q: %w", path, err)
	}

	c := Config{
		User:          v.GetString("USER"),
		ServerIP:      v.GetString("SERVER_IP"),
		ServerPort:    v.GetInt("SERVER_PORT"),
		LocalRecvPort: v.GetInt("LOCAL_RECV_PORT"),
	}

	if c.User == "" {
		return Config{}, fmt.Errorf("USER is required")
	}
	if len(c.User) > 19 {
		return Config{}, fmt.Errorf("USER must be <= 19 characters")
	}
	if c.ServerPort <= 0 {
		return Config{}, fmt.Errorf("SERVER_PORT is required")
	}

	return c, nil
}
