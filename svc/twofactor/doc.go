// Package twofactor implements TOTP based two-factor authentication shared by
// platform users and organization employees.
//
// A Service owns the whole lifecycle: Setup hands out a secret and recovery
// codes without persisting them, ConfirmSetup stores the encrypted secret and
// hashed recovery codes once a code checks out, VerifyCode and
// VerifyRecoveryCode guard sign-in with a lockout after MaxFailedAttempts
// wrong codes, and Disable turns everything off again.
//
// Storage is split per principal kind through Repositories. Backends live in
// the memstore, pgstore, redisstore and mongostore subpackages.
//
// Sign-in spans two requests and is tied together by a verification session:
//
//	session, _ := svc.CreateSession(ctx, principal) // after the password check
//	p, err := svc.VerifyBySession(ctx, session.Token, code, meta)
//	p, err = svc.ExchangeSession(ctx, session.Token) // issue the real token for p
//
// Expected outcomes (wrong code, lockout, invalid session) are returned as
// sentinel errors. Crypto and storage failures are logged and surface only
// as ErrInternal.
package twofactor
