/*
Package tools provides the standard tools available to every script:
file access, user input, and model-as-tool delegation.

Schemas are reflected from typed argument structs, so the shape a tool
advertises and the shape it decodes stay in sync.
*/
package tools
