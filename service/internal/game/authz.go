// internal/game/authz.go
package game

import "github.com/jason-s-yu/ludo/service/internal/models"

// PickupRequest describes one attempt to change a seat's occupant.
type PickupRequest struct {
	IsHost    bool
	Requester string          // transport id of the requester
	Current   models.UserType // seat's current occupant type
	Occupant  string          // transport id of a HUMAN occupant, else empty
	Target    models.UserType
}

// PickupDecision is the outcome of AuthorizePickup: either the occupant type
// to install, or the reason for refusal.
type PickupDecision struct {
	Type models.UserType
	Err  error
}

// Allowed reports whether the pickup may proceed.
func (d PickupDecision) Allowed() bool {
	return d.Err == nil
}

func deny(err error) PickupDecision {
	return PickupDecision{Err: err}
}

// AuthorizePickup decides a pickup request. The host may install any
// occupant type, taking a HUMAN seat for itself. Everyone else may only take
// an empty seat or give back their own.
func AuthorizePickup(r PickupRequest) PickupDecision {
	if _, ok := models.ParseUserType(string(r.Target)); !ok {
		return deny(models.Invalid("unsupported user type %s", r.Target))
	}
	if r.Target == r.Current && (r.Target != models.UserHuman || r.Occupant == r.Requester) {
		return deny(models.Invalid("no change for user type"))
	}
	if r.IsHost {
		return PickupDecision{Type: r.Target}
	}

	switch {
	case r.Current == models.UserComputer, r.Current == models.UserUnavailable,
		r.Target == models.UserComputer, r.Target == models.UserUnavailable:
		return deny(models.ErrPerm)
	case r.Target == models.UserHuman && r.Current == models.UserUnassigned:
		return PickupDecision{Type: models.UserHuman}
	case r.Target == models.UserUnassigned && r.Current == models.UserHuman && r.Occupant == r.Requester:
		return PickupDecision{Type: models.UserUnassigned}
	}
	return deny(models.ErrPerm)
}
