package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

var ErrAlreadyExists = fmt.Errorf("already exists")
var ErrBadRequest = fmt.Errorf("bad request")
var ErrBadResponse = fmt.Errorf("bad response")
var ErrInternal = fmt.Errorf("internal error")
var ErrNotFound = fmt.Errorf("not found")
var ErrRequest = fmt.Errorf("request error")

type backendError struct {
	msg    string
	target error
}

func (b backendError) Error() string        { return b.msg }
func (b backendError) Is(target error) bool { return target == b.target }

func NewAlreadyExistsError(msg string) error {
	return &backendError{msg: msg, target: ErrAlreadyExists}
}

func NewBadRequestError(msg string) error {
	return &backendError{msg: msg, target: ErrBadRequest}
}

func NewNotFoundError(msg string) error {
	return &backendError{msg: msg, target: ErrNotFound}
}

const (
	TypeAlreadyExists string = "https://diwise.github.io/entity-manager/errors/AlreadyExists"
	TypeBadRequest    string = "https://diwise.github.io/entity-manager/errors/BadRequest"
	TypeInternalError string = "https://diwise.github.io/entity-manager/errors/InternalError"
	TypeNotFound      string = "https://diwise.github.io/entity-manager/errors/NotFound"
)

// NewErrorFromProblemReport decodes an RFC 7807 problem report returned by
// the entity API into one of the sentinel backed errors above.
func NewErrorFromProblemReport(code int, contentType string, body []byte) error {
	report := &struct {
		Type   string `json:"type"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}{}

	err := json.Unmarshal(body, report)
	if err != nil {
		return fmt.Errorf("failed to process problem report from entity api: %s", err.Error())
	}

	if code == http.StatusNotFound || report.Type == TypeNotFound {
		return NewNotFoundError(report.Detail)
	}

	if report.Type == TypeAlreadyExists {
		return NewAlreadyExistsError(report.Detail)
	}

	if report.Type == TypeBadRequest {
		return NewBadRequestError(report.Detail)
	}

	return &backendError{
		msg: fmt.Sprintf("[code: %d] problem report of type \"%s\" with detail \"%s\" received",
			code, report.Type, report.Detail,
		),
		target: ErrInternal,
	}
}

// ProblemDetails stores details about a certain problem according to RFC 7807
// See https://tools.ietf.org/html/rfc7807
type ProblemDetails struct {
	typ    string
	title  string
	detail string
	code   int
}

const ProblemReportContentType string = "application/problem+json"

func NewAlreadyExists(detail string) *ProblemDetails {
	return &ProblemDetails{typ: TypeAlreadyExists, title: "Already Exists", detail: detail, code: http.StatusConflict}
}

func NewBadRequest(detail string) *ProblemDetails {
	return &ProblemDetails{typ: TypeBadRequest, title: "Bad Request", detail: detail, code: http.StatusBadRequest}
}

func NewInternalError(detail string) *ProblemDetails {
	return &ProblemDetails{typ: TypeInternalError, title: "Internal Error", detail: detail, code: http.StatusInternalServerError}
}

func NewNotFound(detail string) *ProblemDetails {
	return &ProblemDetails{typ: TypeNotFound, title: "Not Found", detail: detail, code: http.StatusNotFound}
}

func (p *ProblemDetails) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   string `json:"type"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}{
		Type:   p.typ,
		Title:  p.title,
		Detail: p.detail,
	})
}

func (p *ProblemDetails) ResponseCode() int {
	if p.code != 0 {
		return p.code
	}

	return http.StatusBadRequest
}

// WriteResponse writes the contents of this instance to a http.ResponseWriter
func (p *ProblemDetails) WriteResponse(w http.ResponseWriter) {
	w.Header().Add("Content-Type", ProblemReportContentType)
	w.Header().Add("Content-Language", "en")
	w.WriteHeader(p.ResponseCode())

	pdbytes, err := json.MarshalIndent(p, "", "  ")
	if err == nil {
		w.Write(pdbytes)
	}
}
