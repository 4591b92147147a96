package engine

// Session pairs an Engine with one eagerly-begun Transaction, so embedding
// code that only ever runs one statement at a time does not have to call
// BeginTransaction itself. Grounded on original_source's
// src/sql/engine/session.rs, whose Session::new begins its one txn field
// immediately and every execute() call reuses it — there is no lazy,
// first-call-triggered begin in the source this is adapted from.
type Session struct {
	tx *Transaction
}

// NewSession begins a transaction against e and wraps it.
func NewSession(e *Engine) *Session {
	return &Session{tx: e.BeginTransaction()}
}

// ID returns the identity of the session's underlying transaction.
func (s *Session) ID() string { return s.tx.ID() }

// Execute dispatches stmt against the session's single underlying
// transaction, the same dispatch Transaction.Execute performs directly.
func (s *Session) Execute(stmt Statement) (Result, error) {
	return s.tx.Execute(stmt)
}
