// Package connection provides the RESP client used by rudis-cli.
//
//   - client.go: a blocking request/reply client over TCP
//   - manager.go: the current connection of a CLI session
//
// Replies are decoded with internal/resp. Error replies from the server are
// returned as resp.Error frames, not as Go errors; use ReplyError to turn
// them into one.
package connection
