package dispatch

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/ido50/sqlhelper"
)

// Response is what an Action returns. It is rendered as a JSON envelope
// of the form {"status": ..., "status_message": ..., "data": ...} with
// Code as the HTTP status.
type Response struct {
	Code    int
	Status  bool
	Message string
	Data    interface{}
}

type envelope struct {
	Status        bool        `json:"status"`
	StatusMessage string      `json:"status_message"`
	Data          interface{} `json:"data"`
}

func (r Response) envelope() envelope {
	return envelope{
		Status:        r.Status,
		StatusMessage: r.Message,
		Data:          r.Data,
	}
}

func (r Response) code() int {
	switch {
	case r.Code != 0:
		return r.Code
	case r.Status:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// OK creates a successful response carrying data.
func OK(data interface{}) Response {
	return Response{Code: http.StatusOK, Status: true, Message: "OK", Data: data}
}

// Created creates a 201 response carrying data.
func Created(data interface{}) Response {
	return Response{Code: http.StatusCreated, Status: true, Message: "Created", Data: data}
}

// Fail creates a failed response.
func Fail(code int, message string) Response {
	return Response{Code: code, Message: message}
}

// FromError maps an error returned by sqlhelper to a failed response.
// Validation errors are the client's fault, connection errors mean the
// database is unavailable and anything else is an internal error.
func FromError(err error) Response {
	var connErr *sqlhelper.ConnectionError

	switch {
	case err == nil:
		return OK(nil)
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, sqlhelper.ErrNoRowsAffected):
		return Fail(http.StatusNotFound, "Not Found")
	case errors.Is(err, sqlhelper.ErrEmptyValues),
		errors.Is(err, sqlhelper.ErrUnsafeStatement),
		errors.Is(err, sqlhelper.ErrInvalidIdentifier),
		errors.Is(err, sqlhelper.ErrInvalidJoin),
		errors.Is(err, sqlhelper.ErrInvalidPagination),
		errors.Is(err, sqlhelper.ErrUnknownProcedure):
		return Fail(http.StatusBadRequest, err.Error())
	case errors.Is(err, sqlhelper.ErrProceduresDisabled):
		return Fail(http.StatusNotImplemented, err.Error())
	case errors.As(err, &connErr):
		return Fail(http.StatusServiceUnavailable, connErr.Code.Message())
	case sqlhelper.IsQueryError(err):
		return Fail(http.StatusInternalServerError, "query failed")
	default:
		return Fail(http.StatusInternalServerError, "Internal Server Error")
	}
}
