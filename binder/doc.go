// Package binder decodes HTTP requests into typed request structs for
// handler.Wrap: JSON bodies and chi path parameters.
package binder
