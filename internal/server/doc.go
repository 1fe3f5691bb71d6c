// Package server exposes a cube session over HTTP.
//
// Two surfaces share one listener: a small JSON snapshot API and a
// WebSocket feed of live updates.
//
// # Routes
//
//	GET /healthz      liveness probe
//	GET /api/status   cube identity and radio budget
//	GET /api/rooms    room list with member device addresses
//	GET /api/devices  full device list joined with rooms and live status
//	GET /ws           WebSocket update feed
//
// # WebSocket Feed
//
// A new subscriber first receives a "snapshot" event carrying the full
// device list, then one "update" event per cube report:
//
//	{"event":"snapshot","devices":[...]}
//	{"event":"update","kind":"device_status","rf_address":"0fc380","device":{...}}
//
// The feed is one way; inbound messages are discarded. Slow subscribers
// whose send queue fills up are dropped so one stuck reader cannot stall
// the feed for everyone else. Connections are kept alive with pings and
// closed when a pong does not arrive in time.
//
// # Usage Example
//
//	c, err := cube.Dial(ctx, host, cube.DefaultPort)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	srv, err := server.New(&server.Config{Port: 8080, LogLevel: "info"}, c)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Start blocks until shutdown signal, session end, or error
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// The server handles SIGINT and SIGTERM for graceful shutdown: it stops
// accepting new connections, closes WebSocket subscribers, and drains
// in-flight requests with a timeout. It also shuts down on its own when
// the underlying cube session ends.
//
// # Thread Safety
//
// The server is fully concurrent and handles multiple subscribers
// simultaneously. Each WebSocket connection runs its own read and write
// goroutines.
package server
