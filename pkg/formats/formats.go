// Package formats reads and writes placement dumps: binary containers of
// shape geometry, element metadata and placed instances exported from a
// building model.
package formats
