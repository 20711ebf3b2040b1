// Package source loads retention rule definitions from YAML files and
// keeps a rule store synchronized with them.
//
// A rule file holds a list of rule definitions under a top-level "rules"
// key. FileSource loads a single file or every .yaml/.yml file in a
// directory; Watcher hot-reloads the store when the files change, with
// debouncing to absorb editor write bursts. A reload that fails validation
// keeps the previously loaded rule set.
package source
