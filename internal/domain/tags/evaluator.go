package tags

// EntryState tracks one entry through evaluation.
type EntryState int

const (
	StatePending EntryState = iota
	StateResolving
	StateResolved
	StateSkipped
	StateFailed
)

func (s EntryState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolving:
		return "resolving"
	case StateResolved:
		return "resolved"
	case StateSkipped:
		return "skipped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// EntryEvent describes a state transition of one entry.
type EntryEvent struct {
	Tag       Key
	Index     int
	Reference string
	Required  bool
	State     EntryState
	Err       error
}

// EntryObserver receives every entry transition. It must not block.
type EntryObserver func(EntryEvent)

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithEntryObserver registers an observer for entry transitions.
func WithEntryObserver(observer EntryObserver) EvaluatorOption {
	return func(e *Evaluator) {
		e.observer = observer
	}
}

// Evaluator applies required/optional semantics while resolving the entries
// of a document.
type Evaluator struct {
	resolver *Resolver
	observer EntryObserver
}

// NewEvaluator creates an evaluator around resolver.
func NewEvaluator(resolver *Resolver, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{resolver: resolver}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Evaluate resolves every entry on behalf of tag. A failing required entry
// aborts with a *MisconfigurationError and no result; a failing optional
// entry contributes nothing.
func (e *Evaluator) Evaluate(tag Key, entries []Entry) (Result, error) {
	builder := newResultBuilder()

	for i, entry := range entries {
		required := true
		if annotated, ok := entry.(AnnotatedReference); ok {
			required = annotated.Required
		}

		event := EntryEvent{Tag: tag, Index: i, Reference: entry.Reference(), Required: required}
		e.emit(event, StateResolving, nil)

		resolved, err := e.resolver.ResolveReference(entry.Reference())
		switch {
		case err == nil:
			builder.add(resolved)
			e.emit(event, StateResolved, nil)
		case required:
			e.emit(event, StateFailed, err)
			return Result{}, Misconfigured(tag, err)
		default:
			e.emit(event, StateSkipped, err)
		}
	}

	return builder.build(), nil
}

// EvaluateDocument parses data and evaluates its entries on behalf of tag.
func (e *Evaluator) EvaluateDocument(tag Key, data []byte) (Result, error) {
	entries, err := ParseDocument(data)
	if err != nil {
		return Result{}, Misconfigured(tag, err)
	}
	return e.Evaluate(tag, entries)
}

func (e *Evaluator) emit(event EntryEvent, state EntryState, err error) {
	if e.observer == nil {
		return
	}
	event.State = state
	event.Err = err
	e.observer(event)
}

// ParseAndEvaluate parses data and evaluates it with a default evaluator
// around r.
func ParseAndEvaluate(tag Key, data []byte, r *Resolver) (Result, error) {
	return NewEvaluator(r).EvaluateDocument(tag, data)
}
