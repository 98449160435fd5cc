package traderz

import (
	"context"
	"net/http"

	"github.com/rxtech-lab/traderz-go/internal/logger"
	"github.com/rxtech-lab/traderz-go/internal/transport"
	"github.com/rxtech-lab/traderz-go/pkg/errors"
)

// authContext holds the two tokens every scoped request carries.
type authContext struct {
	bearerToken     string
	tradingAPIToken string
}

func (a authContext) headers() map[string]string {
	return map[string]string{
		"Auth-trading-api": a.tradingAPIToken,
		"Cookie":           "co-auth=" + a.bearerToken,
		"Content-Type":     "application/json",
		"Accept":           "application/json",
	}
}

// requireSelected fails with a not-selected error tagged with module when
// source has no selected account.
func requireSelected(source AccountSource, module errors.Module) error {
	if source == nil || source.SelectedAccount().IsNone() {
		return errors.New(errors.ErrCodeAccountNotSelected, "no trading account selected, call SelectAccount first").In(module)
	}

	return nil
}

// resolveAuth reads the current tokens from source.
func resolveAuth(source AccountSource, module errors.Module) (authContext, error) {
	token := source.Token()
	if token.IsNone() || token.Unwrap() == "" {
		return authContext{}, errors.New(errors.ErrCodeTokenMissing, "client not logged in").In(module)
	}

	account := source.SelectedAccount()
	if account.IsNone() {
		return authContext{}, errors.New(errors.ErrCodeAccountNotSelected, "no trading account selected, call SelectAccount first").In(module)
	}

	tradingAPIToken := account.Unwrap().TradingAPIToken
	if tradingAPIToken == "" {
		return authContext{}, errors.New(errors.ErrCodeAccountNotSelected, "no trading api token available, select an account first").In(module)
	}

	return authContext{
		bearerToken:     token.Unwrap(),
		tradingAPIToken: tradingAPIToken,
	}, nil
}

// resource is the request pipeline shared by Market, Positions and Orders:
// build scoped headers, send, normalize failures into the module's errors.
type resource struct {
	module     errors.Module
	http       *transport.Client
	systemUUID string
	log        *logger.Logger
	// auth yields the headers' tokens, either captured once or read live.
	auth func() (authContext, error)
}

func newResource(module errors.Module, endpoint Endpoint, auth func() (authContext, error)) resource {
	log := endpoint.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	return resource{
		module:     module,
		http:       endpoint.HTTP,
		systemUUID: endpoint.SystemUUID,
		log:        log,
		auth:       auth,
	}
}

// snapshotAuth captures the tokens of source once.
func snapshotAuth(source AccountSource, module errors.Module) (func() (authContext, error), error) {
	if err := requireSelected(source, module); err != nil {
		return nil, err
	}

	token := source.Token().Unwrap()
	tradingAPIToken := source.SelectedAccount().Unwrap().TradingAPIToken
	captured := authContext{
		bearerToken:     token,
		tradingAPIToken: tradingAPIToken,
	}

	return func() (authContext, error) {
		return captured, nil
	}, nil
}

// liveAuth re-reads the tokens of source on every call.
func liveAuth(source AccountSource, module errors.Module) (func() (authContext, error), error) {
	if err := requireSelected(source, module); err != nil {
		return nil, err
	}

	return func() (authContext, error) {
		return resolveAuth(source, module)
	}, nil
}

// send performs one scoped request. action names the operation in error
// messages, e.g. "get active orders".
func (r *resource) send(ctx context.Context, method, endpoint string, query map[string]string, body any, action string) (*transport.Response, error) {
	auth, err := r.auth()
	if err != nil {
		return nil, err
	}

	resp, err := r.http.Do(ctx, transport.Request{
		Method:  method,
		Path:    tradingPath(r.systemUUID, endpoint),
		Headers: auth.headers(),
		Query:   query,
		Body:    body,
	})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeRequestFailed, err, "failed to %s", action).In(r.module)
	}

	if !resp.IsSuccess() {
		return nil, errors.NewHTTPError(r.module, resp.StatusCode, resp.Text(), "failed to "+action)
	}

	return resp, nil
}

func (r *resource) decode(resp *transport.Response, out any, action string) error {
	if err := resp.DecodeJSON(out); err != nil {
		return errors.Wrapf(errors.ErrCodeDecodeFailed, err, "failed to %s", action).In(r.module)
	}

	return nil
}

func (r *resource) get(ctx context.Context, endpoint string, query map[string]string, action string, out any) error {
	resp, err := r.send(ctx, http.MethodGet, endpoint, query, nil, action)
	if err != nil {
		return err
	}

	return r.decode(resp, out, action)
}

func (r *resource) post(ctx context.Context, endpoint string, body any, action string, out any) error {
	resp, err := r.send(ctx, http.MethodPost, endpoint, nil, body, action)
	if err != nil {
		return err
	}

	return r.decode(resp, out, action)
}

// mutate posts body and applies the mutation contract: the call succeeds only
// when the decoded status is "OK". It returns the reported order id.
func (r *resource) mutate(ctx context.Context, endpoint string, body any, action string) (string, error) {
	var result mutationResult
	if err := r.post(ctx, endpoint, body, action, &result); err != nil {
		return "", err
	}

	if result.Status != statusOK {
		return "", errors.NewAPIError(r.module, action, result.ErrorMessage)
	}

	return result.OrderID.String(), nil
}
