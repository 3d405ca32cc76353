package blob

import "errors"

var (
	ErrInvalidConfig      = errors.New("blob: invalid configuration")
	ErrInvalidKey         = errors.New("blob: invalid key")
	ErrNotFound           = errors.New("blob: object not found")
	ErrAccessDenied       = errors.New("blob: access denied")
	ErrBucketNotFound     = errors.New("blob: bucket not found")
	ErrServiceUnavailable = errors.New("blob: service unavailable")
	ErrOperationTimeout   = errors.New("blob: operation timeout")
	ErrOperationCanceled  = errors.New("blob: operation canceled")
)
