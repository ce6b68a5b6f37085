// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/BurntSushi/toml"
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	if _, err = toml.DecodeFile(path+"main.toml", &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv("AZ_GROUPS_AUTH_CONFIG_JSON")

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5 // default of 5 seconds
	}

	return c, validate(c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	return c, nil
}

// DumpConfig config as TOML String. The Azure AD client secret is redacted so
// the dump is safe to log.
func DumpConfig(c Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	c.Auth.ClientSecret = redactedSecret

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String, with the client secret redacted.
func DumpConfigJSON(c Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	c.Auth.ClientSecret = redactedSecret

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

const redactedSecret = "<redacted>"

// validate minimal config settings.
// A malformed Azure AD credential is fatal here, before any network activity,
// since no well-formed on-behalf-of exchange would be possible.
func validate(c Config) error {
	invalidErrMessage := "invalid config"

	// validate webserver listening port
	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	// validate access-control-allow-origin
	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	// validate Azure AD credential
	if c.Auth.TenantID == "" {
		return errors.Wrap(ErrEmptyTenantID, invalidErrMessage)
	}

	if c.Auth.ClientID == "" {
		return errors.Wrap(ErrEmptyClientID, invalidErrMessage)
	}

	if c.Auth.ClientSecret == "" {
		return errors.Wrap(ErrEmptyClientSecret, invalidErrMessage)
	}

	if len(c.Auth.GraphScopes) == 0 {
		return errors.Wrap(ErrNoGraphScopes, invalidErrMessage)
	}

	return nil
}
