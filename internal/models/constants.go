package models

const (
	// DefaultPageSize is used when a listing request omits size.
	DefaultPageSize = 20

	// MaxPageSize caps size on listing requests and the configured default.
	MaxPageSize = 500

	// SharerUserHeader carries the caller's user id.
	SharerUserHeader = "X-Sharer-User-Id"
)
