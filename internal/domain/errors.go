package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrNoSourceImage   = errors.New("try-on has no image URL")
	ErrNoProduct       = errors.New("try-on has no product")
	ErrNoGarmentImage  = errors.New("product has no image")
	ErrProviderFailure = errors.New("provider failure")
	ErrUploadFailure   = errors.New("failed to upload result images")
)
