// Package confloader loads configuration with koanf and watches the
// configuration file with fsnotify.
//
// Priority, highest first:
//
//  1. Environment variables (WORLDSNAP_ prefix)
//  2. The YAML configuration file
//  3. Values already present in the target struct
//
// Environment names are matched against the koanf keys of the target
// struct, so WORLDSNAP_STORAGE_WORLD_DIR sets storage.world_dir even
// though the key itself contains an underscore.
package confloader
