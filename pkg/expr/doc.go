/*
Package expr implements the template-expression engine.

Strings may embed `${...}` code blocks written in a small expression
language (arithmetic, comparisons, boolean logic, list/map literals,
indexing, dotted attribute sugar, and a closed builtin-function table).
Templates are parsed once, up front; malformed embedded code fails at parse
time. Evaluation happens against a chained, optionally immutable variable
Context.

Values are plain JSON-compatible Go values: nil, bool, float64, string,
[]any, and map[string]any. Integers arriving from decoded YAML or Go code
are normalized to float64 during evaluation.
*/
package expr
