// Package record provides the constrained value model used to persist
// transformations and facts, its RFC 8785 canonical JSON encoding, and the
// content hashes derived from it.
//
// Records never carry floats or nulls. Scalar payloads of constants are
// stored as their 32-bit words, so every persisted value is a string, an
// integer, a boolean, an array or an object. This keeps the encoding
// byte-stable across platforms and replays.
package record
