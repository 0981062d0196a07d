// Package errs defines the closed set of expected failure kinds used across
// the application. Every fallible core operation returns one of these tagged
// errors instead of an untyped failure, so callers can dispatch exhaustively
// with errors.As and transport layers can serialize them safely.
package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// Tagger is implemented by all tagged errors in this package.
type Tagger interface {
	error
	Tag() string
}

// Unauthenticated means no session could be resolved for the request.
type Unauthenticated struct{}

func (e *Unauthenticated) Error() string { return "User is not authenticated" }

// Tag returns the wire tag for this error kind.
func (e *Unauthenticated) Tag() string { return "UnauthenticatedError" }

// Unauthorized means the user is authenticated but may not act on a resource.
type Unauthorized struct {
	Resource string
}

func (e *Unauthorized) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("Not authorized to access %s", e.Resource)
	}
	return "Not authorized for this action"
}

// Tag returns the wire tag for this error kind.
func (e *Unauthorized) Tag() string { return "UnauthorizedError" }

// NotFound means the requested resource does not exist for this caller.
type NotFound struct {
	Resource string
	ID       string
}

func (e *NotFound) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Tag returns the wire tag for this error kind.
func (e *NotFound) Tag() string { return "NotFoundError" }

// Validation means the input failed schema or business-rule checks.
type Validation struct {
	Field   string
	Message string
}

func (e *Validation) Error() string { return e.Message }

// Tag returns the wire tag for this error kind.
func (e *Validation) Tag() string { return "ValidationError" }

// Config means a required configuration value is missing.
type Config struct {
	Key string
}

func (e *Config) Error() string { return fmt.Sprintf("Missing configuration: %s", e.Key) }

// Tag returns the wire tag for this error kind.
func (e *Config) Tag() string { return "ConfigError" }

// ExternalAPI means an upstream service call failed as a whole.
type ExternalAPI struct {
	Service string
	Status  int // zero when the failure was not an HTTP status
	Cause   error
}

func (e *ExternalAPI) Error() string {
	statusPart := ""
	if e.Status != 0 {
		statusPart = " (" + strconv.Itoa(e.Status) + ")"
	}
	causePart := ""
	if e.Cause != nil {
		causePart = ": " + e.Cause.Error()
	}
	return fmt.Sprintf("%s API error%s%s", e.Service, statusPart, causePart)
}

// Tag returns the wire tag for this error kind.
func (e *ExternalAPI) Tag() string { return "ApiError" }

func (e *ExternalAPI) Unwrap() error { return e.Cause }

// Database means a persistence operation failed.
type Database struct {
	Operation string
	Cause     error
}

func (e *Database) Error() string {
	causeMsg := "unknown cause"
	if e.Cause != nil {
		causeMsg = e.Cause.Error()
	}
	return fmt.Sprintf("Database %s failed: %s", e.Operation, causeMsg)
}

// Tag returns the wire tag for this error kind.
func (e *Database) Tag() string { return "DatabaseError" }

func (e *Database) Unwrap() error { return e.Cause }

// Serialized is the cross-boundary form of a tagged error. It carries the
// tag, the message, and safe structured fields only. Causes and stacks never
// cross the boundary; they are logged server-side.
type Serialized struct {
	Tag     string            `json:"tag"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Serialize converts any error into its transport form. Unknown errors
// collapse to a generic InternalError so internal detail does not leak.
func Serialize(err error) Serialized {
	var tagged Tagger
	if !errors.As(err, &tagged) {
		return Serialized{Tag: "InternalError", Message: "Internal server error"}
	}

	s := Serialized{Tag: tagged.Tag(), Message: tagged.Error()}

	switch e := tagged.(type) {
	case *Unauthorized:
		if e.Resource != "" {
			s.Fields = map[string]string{"resource": e.Resource}
		}
	case *NotFound:
		s.Fields = map[string]string{"resource": e.Resource}
		if e.ID != "" {
			s.Fields["id"] = e.ID
		}
	case *Validation:
		if e.Field != "" {
			s.Fields = map[string]string{"field": e.Field}
		}
	case *Config:
		s.Fields = map[string]string{"key": e.Key}
	case *ExternalAPI:
		s.Fields = map[string]string{"service": e.Service}
		if e.Status != 0 {
			s.Fields["status"] = strconv.Itoa(e.Status)
		}
	case *Database:
		s.Fields = map[string]string{"operation": e.Operation}
	}

	return s
}

// Deserialize reconstructs a tagged error from its transport form. Causes do
// not survive serialization; the reconstructed error carries the tag and the
// safe fields only.
func Deserialize(s Serialized) error {
	switch s.Tag {
	case "UnauthenticatedError":
		return &Unauthenticated{}
	case "UnauthorizedError":
		return &Unauthorized{Resource: s.Fields["resource"]}
	case "NotFoundError":
		return &NotFound{Resource: s.Fields["resource"], ID: s.Fields["id"]}
	case "ValidationError":
		return &Validation{Field: s.Fields["field"], Message: s.Message}
	case "ConfigError":
		return &Config{Key: s.Fields["key"]}
	case "ApiError":
		status, _ := strconv.Atoi(s.Fields["status"])
		return &ExternalAPI{Service: s.Fields["service"], Status: status}
	case "DatabaseError":
		return &Database{Operation: s.Fields["operation"]}
	default:
		return errors.New(s.Message)
	}
}

// HTTPStatus maps a tagged error to its HTTP response status.
func HTTPStatus(err error) int {
	var (
		unauthenticated *Unauthenticated
		unauthorized    *Unauthorized
		notFound        *NotFound
		validation      *Validation
		external        *ExternalAPI
	)
	switch {
	case errors.As(err, &unauthenticated):
		return http.StatusUnauthorized
	case errors.As(err, &unauthorized):
		return http.StatusForbidden
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &external):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
