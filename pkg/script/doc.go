/*
Package script defines the declarative worker-script model and its
interpreter.

A script is a YAML document declaring models, shared bindings, and tools.
A tool's body is a Statement tree: evaluate an expression, call another
tool, run a sequence, or branch on a condition. Statements are immutable
once built and their tool references are resolved at build time, so a
script referencing an unknown tool fails to load instead of failing mid
conversation.

Executing a statement yields a lazy stream of progress notifications
(through a ports.RunSink) terminated by exactly one result or error.
*/
package script
