package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mcp-okta-support/okta-go/internal/instrumentation"
	"github.com/mcp-okta-support/okta-go/internal/logging"
	"github.com/mcp-okta-support/okta-go/pkg/okta"
	"go.opentelemetry.io/otel/attribute"
)

// Call implements okta.OperationClient.Call.
//
// Result values by operation:
//
//	OpGetUser, OpUpdateUserProfile                 *okta.User
//	OpResetPassword                                *okta.PasswordResetResult
//	OpUnlockUser, OpReinviteUser                   nil
//	OpGetApplication, OpUpdateApplicationConfig    *okta.Application
//	OpListApplications                             *okta.Page[okta.Application] (first page)
//	OpListPage                                     *okta.Page[json.RawMessage]
func (c *Client) Call(ctx context.Context, op okta.Operation, params okta.Params) (*okta.Result[any], error) {
	ctx, span := c.telemetry.StartSpan(ctx, "okta."+string(op),
		attribute.String(instrumentation.SpanAttrOperation, string(op)))
	start := time.Now()

	result, err := c.dispatch(ctx, op, params)

	c.metrics().RecordOperation(ctx, string(op), err, time.Since(start))
	instrumentation.EndSpan(span, err)

	if err != nil {
		c.logger.Debug("Operation failed", map[string]interface{}{
			logging.KeyOperation: string(op),
			logging.KeyErrorKind: okta.KindOf(err).String(),
			logging.KeyError:     logging.Err(err),
		})

		return nil, err
	}

	return result, nil
}

//nolint:cyclop // One case per operation
func (c *Client) dispatch(ctx context.Context, op okta.Operation, params okta.Params) (*okta.Result[any], error) {
	switch op {
	case okta.OpGetUser:
		spec, err := getUserSpec(params.UserID)
		if err != nil {
			return nil, err
		}

		return erase(call[okta.User](ctx, c, spec))
	case okta.OpUpdateUserProfile:
		if params.Profile == nil {
			return nil, okta.InvalidArgument("profile", "is required")
		}

		spec, err := updateUserProfileSpec(params.UserID, *params.Profile)
		if err != nil {
			return nil, err
		}

		return erase(call[okta.User](ctx, c, spec))
	case okta.OpUnlockUser:
		spec, err := unlockUserSpec(params.UserID)
		if err != nil {
			return nil, err
		}

		return c.discard(ctx, spec)
	case okta.OpResetPassword:
		spec, err := resetPasswordSpec(params.UserID, params.SendEmail)
		if err != nil {
			return nil, err
		}

		return erase(call[okta.PasswordResetResult](ctx, c, spec))
	case okta.OpReinviteUser:
		spec, err := reinviteUserSpec(params.UserID)
		if err != nil {
			return nil, err
		}

		return c.discard(ctx, spec)
	case okta.OpGetApplication:
		spec, err := getApplicationSpec(params.AppID)
		if err != nil {
			return nil, err
		}

		return erase(call[okta.Application](ctx, c, spec))
	case okta.OpUpdateApplicationConfig:
		if params.AppConfig == nil {
			return nil, okta.InvalidArgument("config", "is required")
		}

		spec, err := updateApplicationConfigSpec(params.AppID, *params.AppConfig)
		if err != nil {
			return nil, err
		}

		return erase(call[okta.Application](ctx, c, spec))
	case okta.OpListApplications:
		return firstPage[okta.Application](ctx, c, appQuerySpec(params), nil, params.MaxItems)
	case okta.OpListPage:
		if params.Spec == nil || params.Spec.Method == "" || params.Spec.Path == "" {
			return nil, okta.InvalidArgument("spec", "a page request is required")
		}

		return firstPage[json.RawMessage](ctx, c, *params.Spec, okta.DecodeRawItems, params.MaxItems)
	default:
		return nil, okta.UnsupportedOperation(op)
	}
}

// CallPaginated implements okta.OperationClient.CallPaginated. Items are
// okta.Application for OpListApplications and okta.LogEvent otherwise.
func (c *Client) CallPaginated(ctx context.Context, op okta.Operation, params okta.Params) (*okta.Pager[any], error) {
	start := time.Now()

	pager, err := c.pagerFor(op, params)
	c.metrics().RecordOperation(ctx, string(op), err, time.Since(start))

	return pager, err
}

func (c *Client) pagerFor(op okta.Operation, params okta.Params) (*okta.Pager[any], error) {
	var (
		spec   okta.RequestSpec
		err    error
		decode okta.PageDecoder[any] = okta.DecodeItemsAs[okta.LogEvent]
	)

	switch op {
	case okta.OpListApplications:
		spec = appQuerySpec(params)
		decode = okta.DecodeItemsAs[okta.Application]
	case okta.OpSearchLogs:
		spec, err = searchLogsSpec(params.Query, params.LogQuery())
	case okta.OpGetUserLogs:
		spec, err = identifiedLogsSpec("user_id", params.UserID, params.LogQuery(), UserLogFilter)
	case okta.OpGetApplicationLogs:
		spec, err = identifiedLogsSpec("app_id", params.AppID, params.LogQuery(), ApplicationLogFilter)
	case okta.OpListFailedLogins:
		spec, err = logsSpec(params.LogQuery(), FailedLoginsFilter())
	case okta.OpListPasswordResetEvents:
		spec, err = logsSpec(params.LogQuery(), PasswordResetsFilter())
	default:
		return nil, okta.UnsupportedOperation(op)
	}

	if err != nil {
		return nil, err
	}

	return okta.NewPager(c.Do, spec, decode, params.PageOptions()), nil
}

func appQuerySpec(params okta.Params) okta.RequestSpec {
	return listApplicationsSpec(&okta.AppQuery{
		Filter: params.Filter,
		Expand: params.Expand,
		Query:  params.Query,
		Limit:  params.Limit,
	})
}

// erase exposes a typed result through the untyped operation contract.
func erase[T any](result *okta.Result[T], err error) (*okta.Result[any], error) {
	if err != nil {
		return nil, err
	}

	return &okta.Result[any]{Value: &result.Value, Meta: result.Meta}, nil
}

// discard runs spec and keeps only the response metadata.
func (c *Client) discard(ctx context.Context, spec okta.RequestSpec) (*okta.Result[any], error) {
	raw, err := c.Do(ctx, spec)
	if err != nil {
		return nil, err
	}

	return &okta.Result[any]{Meta: okta.ResponseMeta{StatusCode: raw.StatusCode, Header: raw.Header}}, nil
}

// firstPage fetches a single page of spec.
func firstPage[T any](ctx context.Context, c *Client, spec okta.RequestSpec, decode okta.PageDecoder[T], maxItems int) (*okta.Result[any], error) {
	page, err := okta.NewPager(c.Do, spec, decode, okta.PageOptions{MaxItems: maxItems, MaxPages: 1}).Next(ctx)
	if err != nil {
		return nil, err
	}

	return &okta.Result[any]{Value: page, Meta: page.Meta}, nil
}
