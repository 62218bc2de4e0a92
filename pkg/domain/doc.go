/*
Package domain contains the core domain models for the Skein engine.

It defines the entities exchanged between the worker, tools, and front ends:
Messages, progress Notifications, ConfirmationRequests, and token usage.
This package is kept pure and free of external dependencies like I/O or
persistence, following Hexagonal Architecture principles.

# Key Entities

  - Message: A role-tagged conversation item (system, human, assistant, tool).
  - Notification: A typed progress event emitted during worker/tool execution.
  - ConfirmationRequest: A human-in-the-loop approval request for a tool call.
  - TokenUsage / UsageTracker: Token accounting across models and sessions.
*/
package domain
