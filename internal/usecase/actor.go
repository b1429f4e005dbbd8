package usecase

import "fmt"

// Actor identifies who triggered an operation. Admin is resolved by the
// transport layer from the startup allow-list and never changes at runtime.
type Actor struct {
	ID       string
	Username string
	Admin    bool
}

func requireAdmin(actor Actor) error {
	if !actor.Admin {
		return fmt.Errorf("%w: administrator access required", ErrUnauthorized)
	}
	return nil
}
