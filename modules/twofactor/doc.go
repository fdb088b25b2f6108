// Package twofactor mounts the two-factor service as a JSON API.
//
// Principal routes (status, setup, verify, recovery, disable, audit,
// sessions) require an authenticated principal resolved by a
// PrincipalResolver. Session routes under /sessions/{token} are used by the
// login flow between primary authentication and credential issuance. Code
// checking routes are rate limited per client IP.
//
//	m, err := twofactor.New(service, twofactor.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	defer m.Close()
//	r.Mount("/2fa", m.Handle())
package twofactor
