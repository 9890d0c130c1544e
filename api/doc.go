// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Public contracts of the hioload-ipc chunk transport: policies, limits,
// configuration, typed errors, and the runtime error handler.
//
// The packages mempool, chunkqueue, distributor and sender implement these
// contracts; api itself carries no allocation logic.
package api
