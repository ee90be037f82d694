// Package resp implements the RESP2 wire format used by rudis.
//
// The codec is pure: it works over a byte Cursor and never touches a socket.
// Decoding is split in two passes. Check scans ahead without allocating and
// reports ErrIncomplete when more bytes are needed; Decode then materializes
// the frame from the same position and advances the cursor past exactly the
// consumed bytes.
//
// Supported frame kinds:
//   - Simple  "+OK\r\n"
//   - Error   "-ERR oops\r\n"
//   - Integer ":42\r\n" (unsigned 64-bit)
//   - Bulk    "$5\r\nhello\r\n"
//   - Null    "$-1\r\n"
//   - Array   "*2\r\n..." (one level of nesting on encode)
package resp
