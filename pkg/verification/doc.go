// Package verification manages short-lived, single-use sessions that bind a
// completed password check to a pending second-factor check.
//
// A Manager issues sessions with a fixed five minute lifetime and resolves
// them through a Store. Missing, expired and already verified sessions are
// reported identically as ErrSessionInvalid so callers cannot learn which
// case occurred. Expired rows are deleted when observed; Sweep removes the
// rest.
//
//	m := verification.NewManager(verification.NewMemoryStore(time.Minute))
//	s, _ := m.Create(ctx, verification.Subject{Kind: "user", ID: id})
//	subject, err := m.Peek(ctx, s.Token)
//	// check the second factor for subject, then
//	_ = m.MarkVerified(ctx, s.Token)
//	subject, err = m.Consume(ctx, s.Token)
package verification
