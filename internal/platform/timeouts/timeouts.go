// Package timeouts defines shared timeout constants used across services.
package timeouts

import "time"

// GameLock caps how long a dispatch waits for exclusive access to a game.
const GameLock = 2 * time.Second

// MailboxAppend caps a single mailbox append attempt after a record commit.
const MailboxAppend = time.Second

// MailboxBackoff is the base delay between mailbox append attempts.
const MailboxBackoff = 25 * time.Millisecond

// Shutdown limits how long the gRPC server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
