// Package collection loads and validates on-disk agent collections: markdown
// agent definitions with YAML frontmatter under agents/, rubric and heuristic
// documents under context/, and a profile markdown naming the agents to load.
//
// Agent bodies may inline context documents with the
// @collection:context/<name>.md directive; resolution happens at load time so
// agents receive fully expanded instructions. Validate returns every violation
// found rather than stopping at the first, which keeps it usable as a lint
// surface for the CLI.
//
// A Watcher built on fsnotify reloads the collection when files under the
// directory change, with debouncing to absorb editor save bursts.
package collection
