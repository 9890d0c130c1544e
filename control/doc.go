// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration loading, runtime metrics, and debug introspection layer
// of hioload-ipc.
//
// Provides concurrent-safe state handling primitives including:
//   - Typed transport configuration with JSON loading and validation
//   - Immutable snapshot config reads and reload listeners
//   - Metrics telemetry for memory-manager pools
//   - A bounded journal of runtime error reports
//   - State export, debug hooks, and probe registration
//
// Nothing in this package sits on the publish path.
package control
