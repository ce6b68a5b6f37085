package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrEmptyTenantID error if config auth.tenantid is empty.
	ErrEmptyTenantID = errors.New("toml config auth.tenantid can not be empty")

	// ErrEmptyClientID error if config auth.clientid is empty.
	ErrEmptyClientID = errors.New("toml config auth.clientid can not be empty")

	// ErrEmptyClientSecret error if config auth.clientsecret is empty.
	ErrEmptyClientSecret = errors.New("toml config auth.clientsecret can not be empty")

	// ErrNoGraphScopes error if config auth.graphscopes is empty.
	ErrNoGraphScopes = errors.New("toml config auth.graphscopes needs at least one scope")
)
