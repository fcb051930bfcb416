// Package serializer provides message serialization for the dEntity RPC
// system. It defines a common interface and multiple implementations for
// serializing and deserializing common.Message values between client and server.
//
// Key Components:
//
//   - IRPCSerializer: Core interface that all serializer implementations must satisfy.
//
//   - binarySerializerImpl: Custom binary format. A two byte flag field marks
//     the present fields, strings are length prefixed and entity records are
//     encoded as counted key/value lists. Recommended for production use.
//
//   - jsonSerializerImpl: JSON encoding, useful for debugging or for clients
//     written in other languages.
//
//   - gobSerializerImpl: Go's gob encoding. Larger payloads and slower than
//     the binary format, kept for comparison in the benchmarks.
//
// All serializers are stateless and safe for concurrent use.
//
// Usage:
//
//	serializer, err := serializer.ByName("binary")
//	data, err := serializer.Serialize(message)
//	// ... send data ...
//	var receivedMsg common.Message
//	err = serializer.Deserialize(receivedData, &receivedMsg)
package serializer
