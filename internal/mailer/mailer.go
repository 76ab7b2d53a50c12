package mailer

import (
	"context"

	"github.com/havenloop/haven-backend/internal/models"
)

// Dispatcher delivers one composed alert. Single attempt, no queue; the
// orchestrator decides whether a failure is worth logging or retrying.
type Dispatcher interface {
	Send(ctx context.Context, alert *models.EmailAlert) error
}
