package ports

import (
	"context"

	"github.com/aretw0/skein/pkg/domain"
)

// Confirmer is the human-in-the-loop approval gate. The worker blocks mid
// turn until a response is supplied; this is a synchronous two-phase
// request/response exchange, not a fire-and-forget callback.
type Confirmer interface {
	Confirm(ctx context.Context, reqs []domain.ConfirmationRequest) (domain.ConfirmationResponse, error)
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(ctx context.Context, reqs []domain.ConfirmationRequest) (domain.ConfirmationResponse, error)

func (f ConfirmerFunc) Confirm(ctx context.Context, reqs []domain.ConfirmationRequest) (domain.ConfirmationResponse, error) {
	return f(ctx, reqs)
}

// ApproveAllConfirmer approves every request unconditionally.
var ApproveAllConfirmer = ConfirmerFunc(func(_ context.Context, reqs []domain.ConfirmationRequest) (domain.ConfirmationResponse, error) {
	return domain.ApproveAll(reqs), nil
})
