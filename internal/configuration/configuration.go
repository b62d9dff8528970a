package configuration

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConnectionTimeout = 5 * time.Second
	DefaultUpdateTimeout     = 30 * time.Second
)

// Configuration holds the settings used to reach the Critic system.
// Every field can also be set from the command line, which takes precedence.
type Configuration struct {
	CriticURL         string        `yaml:"critic-url" validate:"required,url"`
	RepositoryURL     string        `yaml:"repository-url" validate:"required"`
	Username          string        `yaml:"username"`
	Password          string        `yaml:"password"`
	Verify            bool          `yaml:"verify"`
	ConnectionTimeout time.Duration `yaml:"connection-timeout" validate:"gt=0"`
	UpdateTimeout     time.Duration `yaml:"update-timeout" validate:"gt=0"`
}

// New returns the default configuration, overridden by the contents of the YAML file at the given path
// (if any)
func New(path string) (Configuration, error) {
	c := Configuration{
		ConnectionTimeout: DefaultConnectionTimeout,
		UpdateTimeout:     DefaultUpdateTimeout,
	}
	if path == "" {
		return c, nil
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	err = yaml.Unmarshal(contents, &c)
	return c, err
}

// HasCredentials returns true when both username and password are set.
// Credentials are only sent to Critic in that case.
func (c Configuration) HasCredentials() bool {
	return c.Username != "" && c.Password != ""
}

func (c Configuration) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
