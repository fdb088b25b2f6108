package twofactor

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/enrollhub/twofa/handler"
	"github.com/enrollhub/twofa/pkg/clientip"
	svc "github.com/enrollhub/twofa/svc/twofactor"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

type (
	setupRequest struct {
		Label string `json:"label"`
	}

	confirmSetupRequest struct {
		Secret        string   `json:"secret"`
		Code          string   `json:"code"`
		RecoveryCodes []string `json:"recovery_codes"`
	}

	codeRequest struct {
		Code string `json:"code"`
	}

	auditRequest struct {
		Limit int `query:"limit"`
	}

	sessionRequest struct {
		Token string `path:"token"`
	}

	sessionCodeRequest struct {
		Token string `path:"token"`
		Code  string `json:"code"`
	}
)

type sessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type verifiedResponse struct {
	Verified bool     `json:"verified"`
	Kind     svc.Kind `json:"kind,omitempty"`
}

type recoveryResponse struct {
	verifiedResponse
	*svc.RecoveryResult
}

func clientMeta(r *http.Request) svc.ClientMeta {
	return svc.ClientMeta{
		IP:        clientip.FromContext(r.Context()),
		UserAgent: r.UserAgent(),
	}
}

func requireCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		verr := handler.NewValidationError()
		verr.Add("code", "is required")
		return "", verr
	}
	return code, nil
}

func (m *Module) status(ctx handler.Context, _ struct{}) handler.Response {
	st, err := m.svc.Status(ctx, principalFrom(ctx))
	if errors.Is(err, svc.ErrNotFound) {
		return handler.JSON(&svc.Status{}, handler.WithJSONMeta(map[string]any{"found": false}))
	}
	if err != nil {
		return errorResponse(err)
	}
	return handler.JSON(st, handler.WithJSONMeta(map[string]any{"found": true}))
}

func (m *Module) setup(ctx handler.Context, req setupRequest) handler.Response {
	p := principalFrom(ctx)
	label := strings.TrimSpace(req.Label)
	if label == "" {
		label = p.ID
	}

	pending, err := m.svc.Setup(ctx, p, label)
	if err != nil {
		return errorResponse(err)
	}
	return handler.JSON(pending)
}

func (m *Module) confirmSetup(ctx handler.Context, req confirmSetupRequest) handler.Response {
	code, err := requireCode(req.Code)
	if err != nil {
		return handler.JSONError(err)
	}
	if strings.TrimSpace(req.Secret) == "" || len(req.RecoveryCodes) == 0 {
		return errorResponse(svc.ErrInvalidSetup)
	}

	if err := m.svc.ConfirmSetup(ctx, principalFrom(ctx), req.Secret, code, req.RecoveryCodes); err != nil {
		return errorResponse(err)
	}
	return handler.JSON(verifiedResponse{Verified: true}, handler.WithJSONStatus(http.StatusCreated))
}

func (m *Module) verify(ctx handler.Context, req codeRequest) handler.Response {
	code, err := requireCode(req.Code)
	if err != nil {
		return handler.JSONError(err)
	}

	if err := m.svc.VerifyCode(ctx, principalFrom(ctx), code, clientMeta(ctx.Request())); err != nil {
		return errorResponse(err)
	}
	return handler.JSON(verifiedResponse{Verified: true})
}

func (m *Module) recoverCode(ctx handler.Context, req codeRequest) handler.Response {
	code, err := requireCode(req.Code)
	if err != nil {
		return handler.JSONError(err)
	}

	res, err := m.svc.VerifyRecoveryCode(ctx, principalFrom(ctx), code, clientMeta(ctx.Request()))
	if err != nil {
		return errorResponse(err)
	}
	return handler.JSON(recoveryResponse{verifiedResponse{Verified: true}, res})
}

func (m *Module) regenerate(ctx handler.Context, _ struct{}) handler.Response {
	codes, err := m.svc.RegenerateRecoveryCodes(ctx, principalFrom(ctx))
	if err != nil {
		return errorResponse(err)
	}
	return handler.JSON(map[string]any{"recovery_codes": codes})
}

func (m *Module) disable(ctx handler.Context, req codeRequest) handler.Response {
	code, err := requireCode(req.Code)
	if err != nil {
		return handler.JSONError(err)
	}

	if err := m.svc.Disable(ctx, principalFrom(ctx), code, clientMeta(ctx.Request())); err != nil {
		return errorResponse(err)
	}
	return handler.EmptyWithStatus(http.StatusNoContent)
}

func (m *Module) auditLogs(ctx handler.Context, req auditRequest) handler.Response {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	limit = min(limit, maxAuditLimit)

	events, err := m.svc.AuditLogs(ctx, principalFrom(ctx), limit)
	if err != nil {
		return errorResponse(err)
	}
	return handler.JSON(events, handler.WithJSONMeta(map[string]any{"limit": limit, "count": len(events)}))
}

func (m *Module) createSession(ctx handler.Context, _ struct{}) handler.Response {
	sess, err := m.svc.CreateSession(ctx, principalFrom(ctx))
	if err != nil {
		return errorResponse(err)
	}
	return handler.JSON(sessionResponse{Token: sess.Token, ExpiresAt: sess.ExpiresAt},
		handler.WithJSONStatus(http.StatusCreated))
}

// resolveSession exposes only the principal kind so a login page can pick
// the right copy; the identity stays server-side until exchange.
func (m *Module) resolveSession(ctx handler.Context, req sessionRequest) handler.Response {
	p, err := m.svc.ResolveSession(ctx, req.Token)
	if err != nil {
		return errorResponse(err)
	}
	return handler.JSON(map[string]any{"kind": p.Kind})
}

func (m *Module) verifySession(ctx handler.Context, req sessionCodeRequest) handler.Response {
	code, err := requireCode(req.Code)
	if err != nil {
		return handler.JSONError(err)
	}

	p, err := m.svc.VerifyBySession(ctx, req.Token, code, clientMeta(ctx.Request()))
	if err != nil {
		return errorResponse(err)
	}
	return handler.JSON(verifiedResponse{Verified: true, Kind: p.Kind})
}

func (m *Module) recoverSession(ctx handler.Context, req sessionCodeRequest) handler.Response {
	code, err := requireCode(req.Code)
	if err != nil {
		return handler.JSONError(err)
	}

	p, res, err := m.svc.RecoverBySession(ctx, req.Token, code, clientMeta(ctx.Request()))
	if err != nil {
		return errorResponse(err)
	}
	return handler.JSON(recoveryResponse{verifiedResponse{Verified: true, Kind: p.Kind}, res})
}

// exchangeSession consumes a verified session and returns the principal to
// the credential issuer. Hosts usually mount this route on an internal listener.
func (m *Module) exchangeSession(ctx handler.Context, req sessionRequest) handler.Response {
	p, err := m.svc.ExchangeSession(ctx, req.Token)
	if err != nil {
		return errorResponse(err)
	}
	return handler.JSON(p)
}
