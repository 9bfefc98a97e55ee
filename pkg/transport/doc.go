// Package transport carries encoded commands over byte streams.
//
// The transport layer handles:
//   - Length-prefixed framing (4-byte big-endian length, then payload)
//   - Streams: one command per frame, with logging and metrics hooks
//   - A plain TCP server and Dial for tools and tests
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│    Tagged CBOR commands        │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│   byte stream (TCP, pipe, …)   │
//	└────────────────────────────────┘
//
// Session security is the responsibility of the byte stream; a Stream
// only assumes that bytes arrive in order.
//
// # Serving
//
//	router := dispatch.NewRouter()
//	router.HandleFunc(command.ThingUpdateCmdID, onThingUpdate)
//	stream := transport.NewStream(conn, transport.WithRouter(router))
//	err := stream.Serve(ctx)
//
// Frames that fail to decode are logged and skipped; Serve only returns on
// end of stream, transport errors or cancellation.
package transport
