/*
Package ports defines the boundary interfaces of the Skein engine.

Following Hexagonal Architecture, the engine core depends only on these
interfaces; adapters (Anthropic client, Redis history store, MCP importer,
console) implement them at the edges.
*/
package ports
