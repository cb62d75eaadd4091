// Package objstream serializes object graphs driven by runtime type
// metadata.
//
// This package contains:
//   - Writer: breadth-first graph serialization with identifier assignment
//   - Reader: stream validation and graph reconstruction
//   - PrimitiveSet: extensible kind -> codec dispatch
//   - Format selection between the text and binary encodings
//
// A Writer serializes one root instance and everything it transitively
// references. Each distinct instance is written exactly once and assigned a
// small integer identifier; further references encode the identifier only,
// so shared structure and cycles survive a round trip. Class declarations
// always precede the first record that depends on them.
package objstream
