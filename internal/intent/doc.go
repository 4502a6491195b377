// Package intent defines the user-facing description of a visualization:
// clauses, intents and the values they filter on.
//
// This package contains type definitions and pure helpers only. It imports
// nothing internal, so every other package can depend on it without cycles.
//
// Key constraints:
//   - A Clause is a tagged variant: the Kind fields say whether an attribute
//     or value is literal, a wildcard or an explicit list
//   - Enumerations reject unknown strings at parse time
//   - Fingerprints are computed over NFC-normalized canonical bytes
package intent
