// Package ctx holds the key type for values the todo packages put into a context.Context.
package ctx

// CTXKey is the type of all keys used with context.WithValue in this module,
// so they cannot collide with keys of other packages.
type CTXKey string
