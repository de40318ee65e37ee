package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNetwork         Kind = "network"
	KindUnauthenticated Kind = "unauthenticated"
	KindMFARequired     Kind = "mfa_required"
	KindForbidden       Kind = "forbidden"
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindServer          Kind = "server"
	KindCanceled        Kind = "canceled"
)

// mfaRequiredDetail - значение detail, по которому сервер просит второй фактор
const mfaRequiredDetail = "MFA_REQUIRED"

// Error - ошибка вызова API. Detail передаётся как есть, его можно показывать пользователю.
type Error struct {
	Kind       Kind
	StatusCode int
	Detail     string
	Code       string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind сообщает, что err - ошибка клиента указанного вида
func IsKind(err error, kind Kind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == kind
}

// IsCanceled отличает отменённый вызывающим запрос от настоящего сбоя
func IsCanceled(err error) bool {
	return IsKind(err, KindCanceled)
}

// transportError классифицирует ошибку, случившуюся до получения ответа
func transportError(ctx context.Context, err error) *Error {
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return &Error{Kind: KindCanceled, Err: err}
	}
	return &Error{Kind: KindNetwork, Err: err}
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Error  string          `json:"error"`
}

// responseError разбирает тело ответа с кодом >= 400
func responseError(status int, body []byte) *Error {
	e := &Error{StatusCode: status, Detail: http.StatusText(status)}

	var parsed errorBody
	if json.Unmarshal(body, &parsed) == nil {
		e.Code = parsed.Error
		var detail string
		if json.Unmarshal(parsed.Detail, &detail) == nil && detail != "" {
			e.Detail = detail
		}
	}

	switch {
	case status == http.StatusUnauthorized && e.Detail == mfaRequiredDetail:
		e.Kind = KindMFARequired
	case status == http.StatusUnauthorized:
		e.Kind = KindUnauthenticated
	case status == http.StatusForbidden:
		e.Kind = KindForbidden
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status == http.StatusConflict:
		e.Kind = KindConflict
	case status >= 400 && status < 500:
		e.Kind = KindValidation
	default:
		e.Kind = KindServer
	}
	return e
}
