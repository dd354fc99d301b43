// Package file provides the TOML configuration store.
//
// The configuration file describes the storage drivers, which entity types
// each one serves, optional write buffers, the HTTP listener and the
// query match policy. It lives at ~/.trakhound/config.toml unless another
// directory is given.
package file
