// Package confloader loads configuration with koanf and watches config files
// with fsnotify.
//
// Priority (highest to lowest):
//
//  1. Command-line flags (applied by the caller through LoadMap)
//  2. Environment variables (RUDIS_ prefix)
//  3. Configuration file (YAML)
//  4. Default values already present in the target struct
//
// Environment names map to keys by dropping the prefix, lower-casing and
// turning underscores into dots. When the target struct is known, names are
// matched against its koanf keys first, so RUDIS_REACTOR_POLL_TIMEOUT resolves
// to reactor.poll_timeout rather than reactor.poll.timeout.
package confloader
