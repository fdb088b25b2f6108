package mongo

import "errors"

var (
	ErrEmptyConnectionURL     = errors.New("mongo: empty connection URL")
	ErrFailedToConnectToMongo = errors.New("mongo: connection failed")
	ErrHealthcheckFailed      = errors.New("mongo: healthcheck failed")
)
