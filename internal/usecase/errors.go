package usecase

import (
	"errors"
	"fmt"
	"strings"

	"github.com/riskibarqy/dota-team-tracker/internal/entitystore"
	"github.com/riskibarqy/dota-team-tracker/internal/persistence"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrPersistence           = persistence.ErrPersistence

	ErrProviderTimeout   = errors.New("provider timeout")
	ErrProviderHardError = errors.New("provider hard error")
)

type ProviderErrorKind string

const (
	ProviderErrorTimeout ProviderErrorKind = "timeout"
	ProviderErrorHard    ProviderErrorKind = "hard"
)

// ProviderError is the settled failure of one provider call. It matches
// ErrProviderTimeout or ErrProviderHardError by kind.
type ProviderError struct {
	Provider string
	Op       string
	Status   int
	Attempts int
	Kind     ProviderErrorKind
	Cause    error
}

func NewProviderTimeout(provider, op string, attempts int) *ProviderError {
	return &ProviderError{Provider: provider, Op: op, Attempts: attempts, Kind: ProviderErrorTimeout}
}

func NewProviderHardError(provider, op string, status int, cause error) *ProviderError {
	return &ProviderError{Provider: provider, Op: op, Status: status, Kind: ProviderErrorHard, Cause: cause}
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Provider, e.Op)
	switch e.Kind {
	case ProviderErrorTimeout:
		fmt.Fprintf(&b, ": not ready after %d polls", e.Attempts)
	default:
		b.WriteString(": hard error")
		if e.Status > 0 {
			fmt.Fprintf(&b, " status=%d", e.Status)
		}
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

func (e *ProviderError) Is(target error) bool {
	switch target {
	case ErrProviderTimeout:
		return e.Kind == ProviderErrorTimeout
	case ErrProviderHardError:
		return e.Kind == ProviderErrorHard
	}
	return false
}

// userMessage is the text stored on an entity's Error field.
func userMessage(err error) string {
	var perr *ProviderError
	if errors.As(err, &perr) {
		switch perr.Kind {
		case ProviderErrorTimeout:
			return fmt.Sprintf("%s did not finish in time", perr.Provider)
		default:
			if errors.Is(perr, ErrDependencyUnavailable) {
				return fmt.Sprintf("%s is temporarily unavailable", perr.Provider)
			}
			if perr.Status > 0 {
				return fmt.Sprintf("%s failed with status %d", perr.Provider, perr.Status)
			}
			return fmt.Sprintf("%s request failed", perr.Provider)
		}
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// storeError maps a rejected user mutation onto the usecase errors.
func storeError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, entitystore.ErrTargetMissing):
		return fmt.Errorf("%w: %s: %v", ErrNotFound, op, err)
	case errors.Is(err, entitystore.ErrDuplicateID),
		errors.Is(err, entitystore.ErrNotManual),
		errors.Is(err, entitystore.ErrEditInFlight):
		return fmt.Errorf("%w: %s: %v", ErrInvalidInput, op, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
