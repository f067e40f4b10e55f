// ABOUTME: Push-channel listener: one WebSocket connection feeding the store
// ABOUTME: Frames, routing, fixed-delay reconnection, and the refcounted hub

// Package stream owns the client's long-lived connection to the platform's
// event-stream endpoint. Inbound frames are parsed into a closed set of
// frame kinds and translated into store mutations; the listener never calls
// the submission interface.
//
// Delivery is best effort by design: malformed frames and frames addressed
// at since-deleted entities are silently dropped. Frames for a given
// interaction are assumed to arrive in emission order; the listener does not
// resequence.
//
// Views acquire the connection through the Hub rather than owning one each:
// the first acquire opens it, the last release closes it, so exactly one
// connection exists no matter how many views need the stream.
package stream
