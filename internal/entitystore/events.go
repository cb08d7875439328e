package entitystore

// Event is a pure state transition. Apply must not modify its input.
type Event interface {
	Name() string
	Apply(s State, meta Meta) (State, error)
}

// Hydrated and Reconciled are published for state replaced from storage.
// They are never dispatched.
type Hydrated struct{}

func (Hydrated) Name() string { return "hydrated" }

func (Hydrated) Apply(s State, _ Meta) (State, error) { return s, ErrUnchanged }

type Reconciled struct {
	Diverged bool
}

func (Reconciled) Name() string { return "reconciled" }

func (Reconciled) Apply(s State, _ Meta) (State, error) { return s, ErrUnchanged }
