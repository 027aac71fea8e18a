// Package file provides TOML-based configuration for intelstream.
//
// Configuration lives in a single config.toml under the intelstream
// config directory. A Watcher built on fsnotify re-reads the file when
// it changes so long-running processes pick up edits without a restart.
package file
