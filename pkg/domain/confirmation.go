package domain

// ConfirmationParam is a single displayed parameter of a confirmation
// request. Format hints the front end how to render Value (e.g. "markdown").
type ConfirmationParam struct {
	Name   string `json:"name"`
	Value  any    `json:"value"`
	Format string `json:"format,omitempty"`
}

// ConfirmationRequest asks the user to approve one tool call before the
// worker executes its batch.
type ConfirmationRequest struct {
	CallID string              `json:"call_id"`
	Action string              `json:"action"`
	Params []ConfirmationParam `json:"params,omitempty"`
}

// ConfirmationResponse carries the set of approved call ids. A call absent
// from the set is denied, which cancels the whole batch.
type ConfirmationResponse struct {
	ApprovedCallIDs map[string]bool `json:"approved_call_ids"`
}

// Approved reports whether the given call id was approved.
func (r ConfirmationResponse) Approved(callID string) bool {
	return r.ApprovedCallIDs[callID]
}

// ApproveAll builds a response approving every request in the batch.
func ApproveAll(reqs []ConfirmationRequest) ConfirmationResponse {
	approved := make(map[string]bool, len(reqs))
	for _, req := range reqs {
		approved[req.CallID] = true
	}
	return ConfirmationResponse{ApprovedCallIDs: approved}
}
