// Package validate classifies uploaded payloads as legitimate images of an
// allowed kind or rejects them with a machine-readable reason.
//
// Checks run cheapest-first and short-circuit: extension allowlist, MIME
// allowlist, magic-byte signature, header decode with a decompression-bomb
// guard, then a full decode. Validation is pure classification with no side
// effects.
package validate
