package handlers

import (
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"github.com/KevinVandy/pointmystory-sub000/internal/security"
	"github.com/KevinVandy/pointmystory-sub000/internal/services"
)

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Precondition failures surface immediately; nothing is retried.
func writeServiceError(re *core.RequestEvent, err error) error {
	status := http.StatusBadRequest

	switch {
	case errors.Is(err, services.ErrAuthRequired):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrPermissionDenied),
		errors.Is(err, services.ErrObserversCannotVote):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrRoomClosed),
		errors.Is(err, services.ErrRoundRevealed),
		errors.Is(err, services.ErrNotJoined),
		errors.Is(err, services.ErrAdminsCannotLeave),
		errors.Is(err, services.ErrDemoReopenRequiresAuth):
		status = http.StatusConflict
	case errors.Is(err, services.ErrInvalidVoteValue):
		status = http.StatusUnprocessableEntity
	}

	return re.JSON(status, map[string]string{
		"error": security.SanitizeErrorMessage(err),
	})
}
