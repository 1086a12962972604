package main

import "errors"

var (
	errUsage            = errors.New("usage error")
	errValidationFailed = errors.New("validation failed")
	errRejected         = errors.New("log rejected")
	errUnknownFormat    = errors.New("unknown graph format")
)
