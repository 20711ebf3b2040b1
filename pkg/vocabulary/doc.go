// Package vocabulary stores the directory of accepted retention trigger
// events. Entries can be marked obsolete instead of deleted so historical
// rules keep resolving; only non-obsolete entries are offered as accepted
// events.
package vocabulary
