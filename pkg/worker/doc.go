/*
Package worker implements the conversation state machine driving the
model and tool interaction loop.

A run cycles through model turns: call the model over the accumulated
history, surface the assistant message, then execute any requested tool
calls strictly in order, feeding their results back into the next turn.
Confirmation-gated calls block the whole turn on an approval round trip
and are cancelled all-or-nothing. Direct-return tools short-circuit the
loop: their output goes to the user, the model only sees a placeholder,
and the turn ends.

Execution is single threaded and cooperative. Progress surfaces through
an Events sink; blocking points respect the run's context.
*/
package worker
