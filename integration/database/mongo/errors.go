package mongo

import "errors"

var (
	ErrFailedToConnectToMongo = errors.New("failed to connect to mongo")
	ErrHealthcheckFailed      = errors.New("mongo healthcheck failed")
	ErrEmptyConnectionURL     = errors.New("empty mongo connection URL, use MONGODB_URL env var")
	ErrStartSessionFailed     = errors.New("failed to start mongo session")
	ErrBeginFailed            = errors.New("failed to start mongo transaction")
	ErrCommitFailed           = errors.New("failed to commit mongo transaction")
	ErrAbortFailed            = errors.New("failed to abort mongo transaction")
)
