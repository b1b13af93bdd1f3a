package httpserver

import "time"

// ShutdownTimeout bounds how long the process waits for in-flight requests
// during graceful shutdown.
const ShutdownTimeout = 10 * time.Second
