// Saturn is a record retention engine for document stores.
//
// It attaches retention rules to documents, turning them into records
// whose retention period is enforced until expiration, and provides:
//   - Immediate, event-based, and metadata-based retention starting points
//   - Legal hold independent of retention expiration
//   - Begin and end action sequences around the retention period
//   - An asynchronous evaluation queue for event-triggered rules
//   - A scheduled sweep that fires end actions when retention elapses
//
// Usage:
//
//	# Start the retention daemon with default configuration
//	saturn run
//
//	# Start with a custom configuration file
//	saturn run --config /path/to/config.yaml
//
//	# Validate configuration and rule definitions
//	saturn validate
//
//	# List the configured retention rules
//	saturn rules
//
//	# Fire a retention event carrying an input value
//	saturn fire --event retention.contractEnd --input C-1042
//
//	# Run a single expiration sweep pass
//	saturn sweep
//
// For complete documentation, see: https://github.com/custodia-hq/saturn
package main

func main() {
	Execute()
}
