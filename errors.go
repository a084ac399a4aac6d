package nodes

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Use errors.Is against these; the concrete types below
// carry the offending node/slot/key and wrap one of these as their root
// cause.
var (
	// ErrMissingRequiredSlot is returned when a Build omits a required slot.
	ErrMissingRequiredSlot = errors.New("nodes: missing required slot")

	// ErrDoubleBoundSlot is returned when a slot is bound more than once.
	ErrDoubleBoundSlot = errors.New("nodes: slot already bound")

	// ErrUnknownSlot is returned when a slot does not belong to the kind.
	ErrUnknownSlot = errors.New("nodes: unknown slot for kind")

	// ErrOddPositionalArgs is returned when positional Build args don't pair up.
	ErrOddPositionalArgs = errors.New("nodes: odd number of positional slot/node arguments")

	// ErrTooManyDependencies is the cause of the panic raised when the
	// anonymous default-slot kind is asked for more slots than
	// DefaultSlotCardinality allows.
	ErrTooManyDependencies = errors.New("nodes: too many dependencies for default slot set")

	// ErrNoExposedNodes is returned by Subgraph.Validate when no nodes
	// were registered as exposed.
	ErrNoExposedNodes = errors.New("nodes: subgraph has no exposed nodes")

	// ErrRequiredNull is the root cause of a RequiredNullError.
	ErrRequiredNull = errors.New("nodes: required input settled with null or absent value")

	// ErrNullResult is returned when a node's body yields null and the node
	// is not null-admissible.
	ErrNullResult = errors.New("nodes: body returned null on a non-null-admissible node")

	// ErrDeciderOff is the root cause of a DeciderError.
	ErrDeciderOff = errors.New("nodes: decider suppressed execution")

	// ErrNotSettled is returned by Emit when the node's promise is still pending.
	ErrNotSettled = errors.New("nodes: emit called before the node settled")

	// ErrAlreadyFailed is returned by Emit when the node's promise failed.
	ErrAlreadyFailed = errors.New("nodes: emit called on a failed node")
)

// BuildError reports a problem discovered while assembling a Node from a
// Builder: a missing, double-bound, or unknown slot, a malformed positional
// argument list, or an exposed Subgraph with nothing exposed.
type BuildError struct {
	Kind  string
	Slots []SlotID
	err   error
}

func (e *BuildError) Error() string {
	if len(e.Slots) == 0 {
		return fmt.Sprintf("nodes: build %q: %v", e.Kind, e.err)
	}
	names := make([]string, len(e.Slots))
	for i, s := range e.Slots {
		names[i] = string(s)
	}
	return fmt.Sprintf("nodes: build %q: %v: [%s]", e.Kind, e.err, strings.Join(names, ", "))
}

func (e *BuildError) Unwrap() error { return e.err }

func newBuildError(kind string, cause error, slots ...SlotID) *BuildError {
	return &BuildError{Kind: kind, Slots: slots, err: cause}
}

// RequiredNullError reports that a required dependency settled
// successfully but produced a null (or absent) value.
type RequiredNullError struct {
	Node string
	Slot SlotID
}

func (e *RequiredNullError) Error() string {
	return fmt.Sprintf("nodes: %q: required slot %q received a null value: %v", e.Node, e.Slot, ErrRequiredNull)
}

func (e *RequiredNullError) Unwrap() error { return ErrRequiredNull }

// NodeError wraps a panic or error raised from a node's body with the
// node's identity, the way pocket wraps lifecycle failures with the node
// name ("node %s: %w").
type NodeError struct {
	Node string
	err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("nodes: %q: body failed: %v", e.Node, e.err)
}

func (e *NodeError) Unwrap() error { return e.err }

func newNodeError(name string, err error) *NodeError {
	return &NodeError{Node: name, err: err}
}

// DeciderError reports that a node's decider suppressed execution and the
// node had no way to absorb that (neither optional-wrapped nor
// null-admissible).
type DeciderError struct {
	Node string
	Key  string
}

func (e *DeciderError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("nodes: %q: %v", e.Node, ErrDeciderOff)
	}
	return fmt.Sprintf("nodes: %q: decider %q: %v", e.Node, e.Key, ErrDeciderOff)
}

func (e *DeciderError) Unwrap() error { return ErrDeciderOff }
