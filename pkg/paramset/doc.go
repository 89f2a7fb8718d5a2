// Package paramset stores named parameter presets: a bundle of prompt
// texts, workflow overrides, and blend settings that can be recalled by
// name for later runs.
//
// Sets persist as JSON files in a config directory. Older files that
// stored overrides as [target, value] pairs still load.
package paramset
