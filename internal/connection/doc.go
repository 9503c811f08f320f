// Package connection implements the WebSocket client for a decoded-feed relay.
//
// The relay pushes one JSON record per text frame, in the same shape the
// offline decoder writes to disk. The client:
//   - Dials the relay with an optional bearer token
//   - Sends subscribe commands
//   - Delivers every frame in order; a slow consumer blocks the read loop
//   - Treats a relay that stays silent past ReadTimeout as stale
//
// Liveness uses read deadlines: every frame, ping and pong moves the
// deadline forward, and the client pings the relay every PingInterval.
// Frames is closed when reading stops; Err then reports why.
package connection
