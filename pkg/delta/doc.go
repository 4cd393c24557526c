// Package delta wraps the binary delta codec used to rebuild data.win.
//
// The codec contract is a single Decode(source, patch, target) call. The
// production implementation runs an xdelta3 executable; each call keeps
// its own copy of whatever the tool printed. ReadHeader inspects a patch
// without decoding it.
package delta
