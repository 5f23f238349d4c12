/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package config

import (
	"fmt"
	"io/ioutil"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	IP             string `yaml:"ip" json:"ip"`
	Port           int    `yaml:"port" json:"port"`
	ApiIP          string `yaml:"api_ip" json:"api_ip"`
	ApiPort        int    `yaml:"api_port" json:"api_port"`
	ClientTimeout  string `yaml:"client_timeout" json:"client_timeout"`
	MotionInterval string `yaml:"motion_interval" json:"motion_interval"`
	CapturePath    string `yaml:"capture_path,omitempty" json:"capture_path,omitempty"`
	LogLevel       string `yaml:"log_level" json:"log_level"`
	filepath       string
}

func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	return ioutil.WriteFile(c.filepath, data, 0644)
}

func (c *Config) LoadConfig() error {
	data, err := ioutil.ReadFile(c.filepath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// Load reads the config file if it exists and keeps the defaults otherwise
func (c *Config) Load() error {
	if _, err := os.Stat(c.filepath); os.IsNotExist(err) {
		return nil
	}
	return c.LoadConfig()
}

func (c *Config) Path() string {
	return c.filepath
}

func (c *Config) SetPath(path string) {
	c.filepath = path
}

// UDPAddr is the address the DSU server binds to
func (c *Config) UDPAddr() (*net.UDPAddr, error) {
	return net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", c.IP, c.Port))
}

// ApiAddr is the address of the HTTP API server
func (c *Config) ApiAddr() string {
	return fmt.Sprintf("%s:%d", c.ApiIP, c.ApiPort)
}

// ClientTimeoutDuration is how long a client registration stays valid
func (c *Config) ClientTimeoutDuration() (time.Duration, error) {
	return parsePositiveDuration("client_timeout", c.ClientTimeout)
}

// MotionIntervalDuration is the cadence of the motion driver
func (c *Config) MotionIntervalDuration() (time.Duration, error) {
	return parsePositiveDuration("motion_interval", c.MotionInterval)
}

func parsePositiveDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, ErrInvalidConfig{Field: field, What: err.Error()}
	}
	if d <= 0 {
		return 0, ErrInvalidConfig{Field: field, What: "must be positive"}
	}
	return d, nil
}

// Validate checks the values that would otherwise fail deep inside the servers
func (c *Config) Validate() error {
	if net.ParseIP(c.IP) == nil {
		return ErrInvalidConfig{Field: "ip", What: fmt.Sprintf("not an IP address: %q", c.IP)}
	}
	if c.Port < 0 || c.Port > 65535 {
		return ErrInvalidConfig{Field: "port", What: fmt.Sprintf("out of range: %d", c.Port)}
	}
	if c.ApiPort < 0 || c.ApiPort > 65535 {
		return ErrInvalidConfig{Field: "api_port", What: fmt.Sprintf("out of range: %d", c.ApiPort)}
	}
	if _, err := c.ClientTimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.MotionIntervalDuration(); err != nil {
		return err
	}
	return nil
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, ConfigFile)
}

func NewDefaultConfig() *Config {
	return &Config{
		IP:             DefaultIP,
		Port:           DefaultPort,
		ApiIP:          DefaultApiIP,
		ApiPort:        DefaultApiPort,
		ClientTimeout:  DefaultClientTimeout,
		MotionInterval: DefaultMotionInterval,
		LogLevel:       DefaultLogLevel,
		filepath:       DefaultConfigPath(),
	}
}
