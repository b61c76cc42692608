package opensearch

import "errors"

var (
	ErrConnectionFailed  = errors.New("failed to connect to opensearch")
	ErrHealthcheckFailed = errors.New("opensearch healthcheck failed")
	ErrInvalidDocument   = errors.New("invalid opensearch document")
	ErrBulkFailed        = errors.New("opensearch bulk request failed")
)
