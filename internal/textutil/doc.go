// Package textutil sanitizes user-supplied file names before they are used to
// build output and preview paths.
package textutil
