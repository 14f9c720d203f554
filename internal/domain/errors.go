package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is the flat numeric error taxonomy shared with the front end.
// 1xxx auth/user, 2xxx meeting, 3xxx registration, 4xxx payment,
// 5xxx waitlist, 6xxx review/praise/badge, 7xxx cron/notification,
// 9xxx validation/internal.
type ErrorCode int

const (
	CodeUnauthorized       ErrorCode = 1001
	CodeInvalidCredentials ErrorCode = 1002
	CodeForbidden          ErrorCode = 1003
	CodeEmailTaken         ErrorCode = 1004
	CodeWeakPassword       ErrorCode = 1005
	CodeUserNotFound       ErrorCode = 1006

	CodeMeetingNotFound    ErrorCode = 2001
	CodeMeetingClosed      ErrorCode = 2002
	CodeInvalidMeeting     ErrorCode = 2003
	CodeCapacityTooLow     ErrorCode = 2004
	CodeMeetingNotStarted  ErrorCode = 2005
	CodeRefundPolicyAbsent ErrorCode = 2006

	CodeAlreadyRegistered    ErrorCode = 3001
	CodeMeetingFull          ErrorCode = 3002
	CodeAlreadyCancelled     ErrorCode = 3003
	CodeInvalidStatus        ErrorCode = 3004
	CodeRegistrationNotFound ErrorCode = 3005
	CodeTooManyAttempts      ErrorCode = 3006
	CodeCancelAfterStart     ErrorCode = 3007
	CodeInvalidPaymentMethod ErrorCode = 3008

	CodePaymentGateway        ErrorCode = 4001
	CodePaymentAmountMismatch ErrorCode = 4002
	CodePaymentNotFound       ErrorCode = 4003
	CodePaymentFailed         ErrorCode = 4004

	CodeAlreadyWaiting   ErrorCode = 5001
	CodeSeatsAvailable   ErrorCode = 5002
	CodeWaitlistNotFound ErrorCode = 5003

	CodeReviewExists  ErrorCode = 6001
	CodePraiseExists  ErrorCode = 6002
	CodeSelfPraise    ErrorCode = 6003
	CodeNotAttended   ErrorCode = 6004
	CodeInvalidPhrase ErrorCode = 6005
	CodeInvalidReview ErrorCode = 6006

	CodeCronUnauthorized ErrorCode = 7001
	CodeUnknownJob       ErrorCode = 7002
	CodeJobRunning       ErrorCode = 7003
	CodeMessaging        ErrorCode = 7004

	CodeInternal   ErrorCode = 9000
	CodeValidation ErrorCode = 9001
)

var httpStatus = map[ErrorCode]int{
	CodeUnauthorized:       http.StatusUnauthorized,
	CodeInvalidCredentials: http.StatusUnauthorized,
	CodeForbidden:          http.StatusForbidden,
	CodeEmailTaken:         http.StatusConflict,
	CodeWeakPassword:       http.StatusBadRequest,
	CodeUserNotFound:       http.StatusNotFound,

	CodeMeetingNotFound:    http.StatusNotFound,
	CodeMeetingClosed:      http.StatusConflict,
	CodeInvalidMeeting:     http.StatusBadRequest,
	CodeCapacityTooLow:     http.StatusConflict,
	CodeMeetingNotStarted:  http.StatusConflict,
	CodeRefundPolicyAbsent: http.StatusBadRequest,

	CodeAlreadyRegistered:    http.StatusConflict,
	CodeMeetingFull:          http.StatusConflict,
	CodeAlreadyCancelled:     http.StatusConflict,
	CodeInvalidStatus:        http.StatusConflict,
	CodeRegistrationNotFound: http.StatusNotFound,
	CodeTooManyAttempts:      http.StatusTooManyRequests,
	CodeCancelAfterStart:     http.StatusConflict,
	CodeInvalidPaymentMethod: http.StatusBadRequest,

	CodePaymentGateway:        http.StatusBadGateway,
	CodePaymentAmountMismatch: http.StatusBadRequest,
	CodePaymentNotFound:       http.StatusNotFound,
	CodePaymentFailed:         http.StatusPaymentRequired,

	CodeAlreadyWaiting:   http.StatusConflict,
	CodeSeatsAvailable:   http.StatusConflict,
	CodeWaitlistNotFound: http.StatusNotFound,

	CodeReviewExists:  http.StatusConflict,
	CodePraiseExists:  http.StatusConflict,
	CodeSelfPraise:    http.StatusBadRequest,
	CodeNotAttended:   http.StatusForbidden,
	CodeInvalidPhrase: http.StatusBadRequest,
	CodeInvalidReview: http.StatusBadRequest,

	CodeCronUnauthorized: http.StatusUnauthorized,
	CodeUnknownJob:       http.StatusNotFound,
	CodeJobRunning:       http.StatusConflict,
	CodeMessaging:        http.StatusBadGateway,

	CodeInternal:   http.StatusInternalServerError,
	CodeValidation: http.StatusBadRequest,
}

// HTTPStatus returns the status a handler answers with for this code.
func (c ErrorCode) HTTPStatus() int {
	if s, ok := httpStatus[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// MessageID is the i18n key of the localized message.
func (c ErrorCode) MessageID() string {
	return fmt.Sprintf("error.%d", c)
}

// AppError carries an ErrorCode through the service layer. Fields feed the
// localized message template.
type AppError struct {
	Code   ErrorCode
	Err    error
	Fields map[string]any
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("error %d", e.Code)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any *AppError with the same code, so sentinels work with
// errors.Is after wrapping.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// With returns a copy of e with one more template field.
func (e *AppError) With(key string, value any) *AppError {
	fields := make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		fields[k] = v
	}
	fields[key] = value
	return &AppError{Code: e.Code, Err: e.Err, Fields: fields}
}

func New(code ErrorCode) *AppError {
	return &AppError{Code: code}
}

func Wrap(code ErrorCode, err error) *AppError {
	return &AppError{Code: code, Err: err}
}

// Invalid builds a CodeValidation error with a readable reason.
func Invalid(format string, args ...any) *AppError {
	return &AppError{Code: CodeValidation, Err: fmt.Errorf(format, args...)}
}

// CodeOf extracts the ErrorCode of err. Errors outside the taxonomy are
// CodeInternal; nil is 0.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return 0
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// FieldsOf returns the template fields carried by err, if any.
func FieldsOf(err error) map[string]any {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Fields
	}
	return nil
}

// Domain errors.
var (
	ErrUnauthorized       = New(CodeUnauthorized)
	ErrInvalidCredentials = New(CodeInvalidCredentials)
	ErrForbidden          = New(CodeForbidden)
	ErrEmailTaken         = New(CodeEmailTaken)
	ErrWeakPassword       = New(CodeWeakPassword)
	ErrUserNotFound       = New(CodeUserNotFound)

	ErrMeetingNotFound    = New(CodeMeetingNotFound)
	ErrMeetingClosed      = New(CodeMeetingClosed)
	ErrInvalidMeeting     = New(CodeInvalidMeeting)
	ErrCapacityTooLow     = New(CodeCapacityTooLow)
	ErrMeetingNotStarted  = New(CodeMeetingNotStarted)
	ErrRefundPolicyAbsent = New(CodeRefundPolicyAbsent)

	ErrAlreadyRegistered    = New(CodeAlreadyRegistered)
	ErrMeetingFull          = New(CodeMeetingFull)
	ErrAlreadyCancelled     = New(CodeAlreadyCancelled)
	ErrInvalidStatus        = New(CodeInvalidStatus)
	ErrRegistrationNotFound = New(CodeRegistrationNotFound)
	ErrTooManyAttempts      = New(CodeTooManyAttempts)
	ErrCancelAfterStart     = New(CodeCancelAfterStart)
	ErrInvalidPaymentMethod = New(CodeInvalidPaymentMethod)

	ErrPaymentGateway        = New(CodePaymentGateway)
	ErrPaymentAmountMismatch = New(CodePaymentAmountMismatch)
	ErrPaymentNotFound       = New(CodePaymentNotFound)
	ErrPaymentFailed         = New(CodePaymentFailed)

	ErrAlreadyWaiting   = New(CodeAlreadyWaiting)
	ErrSeatsAvailable   = New(CodeSeatsAvailable)
	ErrWaitlistNotFound = New(CodeWaitlistNotFound)

	ErrReviewExists  = New(CodeReviewExists)
	ErrPraiseExists  = New(CodePraiseExists)
	ErrSelfPraise    = New(CodeSelfPraise)
	ErrNotAttended   = New(CodeNotAttended)
	ErrInvalidPhrase = New(CodeInvalidPhrase)
	ErrInvalidReview = New(CodeInvalidReview)

	ErrCronUnauthorized = New(CodeCronUnauthorized)
	ErrUnknownJob       = New(CodeUnknownJob)
	ErrJobRunning       = New(CodeJobRunning)
	ErrMessaging        = New(CodeMessaging)
)
