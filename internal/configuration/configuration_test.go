package configuration_test

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/codeready-toolchain/toolchain-cicd/critic-notify/internal/configuration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfiguration(t *testing.T) {

	t.Run("empty filename", func(t *testing.T) {
		// when
		c, err := configuration.New("")
		// then
		require.NoError(t, err)
		assert.Empty(t, c.CriticURL)
		assert.Equal(t, 5*time.Second, c.ConnectionTimeout)
		assert.Equal(t, 30*time.Second, c.UpdateTimeout)
	})

	t.Run("empty file", func(t *testing.T) {
		// given
		tempFile, err := os.CreateTemp(t.TempDir(), "critic-*.yaml")
		require.NoError(t, err)
		// when
		c, err := configuration.New(tempFile.Name())
		// then
		require.NoError(t, err)
		assert.Empty(t, c.CriticURL)
		assert.Equal(t, configuration.DefaultConnectionTimeout, c.ConnectionTimeout)
		assert.Equal(t, configuration.DefaultUpdateTimeout, c.UpdateTimeout)
	})

	t.Run("all settings", func(t *testing.T) {
		// given
		tempFile, err := os.CreateTemp(t.TempDir(), "critic-*.yaml")
		require.NoError(t, err)

		content := `# Critic instance tracking the gitlab repository
critic-url: https://critic.example.com/
repository-url: git@gitlab.com:username/repo.git
username: ci-bot
password: s3cr3t
verify: true
connection-timeout: 10s
update-timeout: 1m`
		_, err = tempFile.WriteString(content)
		require.NoError(t, err)

		// when
		c, err := configuration.New(tempFile.Name())
		// then
		require.NoError(t, err)
		assert.Equal(t, "https://critic.example.com/", c.CriticURL)
		assert.Equal(t, "git@gitlab.com:username/repo.git", c.RepositoryURL)
		assert.Equal(t, "ci-bot", c.Username)
		assert.Equal(t, "s3cr3t", c.Password)
		assert.True(t, c.Verify)
		assert.Equal(t, 10*time.Second, c.ConnectionTimeout)
		assert.Equal(t, time.Minute, c.UpdateTimeout)
		assert.True(t, c.HasCredentials())
	})

	t.Run("missing file", func(t *testing.T) {
		// when
		_, err := configuration.New("/does/not/exist.yaml")
		// then
		require.Error(t, err)
	})

	t.Run("invalid file", func(t *testing.T) {
		// given
		tempFile, err := os.CreateTemp(t.TempDir(), "critic-*.yaml")
		require.NoError(t, err)
		fmt.Fprintln(tempFile, "update-timeout: forever")
		// when
		_, err = configuration.New(tempFile.Name())
		// then
		require.Error(t, err)
	})
}

func TestHasCredentials(t *testing.T) {

	t.Run("username only", func(t *testing.T) {
		c := configuration.Configuration{Username: "ci-bot"}
		assert.False(t, c.HasCredentials())
	})

	t.Run("password only", func(t *testing.T) {
		c := configuration.Configuration{Password: "s3cr3t"}
		assert.False(t, c.HasCredentials())
	})

	t.Run("both", func(t *testing.T) {
		c := configuration.Configuration{Username: "ci-bot", Password: "s3cr3t"}
		assert.True(t, c.HasCredentials())
	})
}

func TestValidate(t *testing.T) {

	valid := func() configuration.Configuration {
		c, err := configuration.New("")
		require.NoError(t, err)
		c.CriticURL = "http://critic.example.com/"
		c.RepositoryURL = "git@gitlab.com:username/repo.git"
		return c
	}

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, valid().Validate())
	})

	t.Run("invalid critic url", func(t *testing.T) {
		// given
		c := valid()
		c.CriticURL = "critic"
		// when
		err := c.Validate()
		// then
		require.ErrorContains(t, err, "invalid configuration")
		assert.ErrorContains(t, err, "CriticURL")
	})

	t.Run("missing repository url", func(t *testing.T) {
		// given
		c := valid()
		c.RepositoryURL = ""
		// when
		err := c.Validate()
		// then
		require.ErrorContains(t, err, "RepositoryURL")
	})

	t.Run("zero update timeout", func(t *testing.T) {
		// given
		c := valid()
		c.UpdateTimeout = 0
		// when
		err := c.Validate()
		// then
		require.ErrorContains(t, err, "UpdateTimeout")
	})
}
