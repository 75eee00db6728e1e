package domain

import (
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Status codes used by the server core.
const (
	StatusSuccess     uint8 = 20
	StatusServerError uint8 = 41
	StatusNotFound    uint8 = 51

	// MinStatus and MaxStatus bound the codes a Response may carry.
	MinStatus uint8 = 10
	MaxStatus uint8 = 69
)

const (
	// MIMEGemini is the meta of a successful gemtext response.
	MIMEGemini = "text/gemini"

	// MaxMetaLen is the protocol limit on the meta string in bytes.
	MaxMetaLen = 1024

	metaNotFound     = "Not found"
	metaServerError  = "Internal server error"
	metaNoSitePrefix = "No site configured for "
)

// Response is one status/meta/body triple.
//
// Responses are built fresh for each request and written once.
type Response struct {
	// Status is the two-digit status code.
	Status uint8
	// Meta is the MIME type on success or a message otherwise.
	Meta string
	// Body is sent verbatim after the header; may be empty.
	Body []byte
}

// OK returns a 20 text/gemini response carrying body.
func OK(body []byte) *Response {
	return Success(MIMEGemini, body)
}

// Success returns a 20 response with an explicit MIME type.
func Success(mime string, body []byte) *Response {
	return &Response{
		Status: StatusSuccess,
		Meta:   mime,
		Body:   body,
	}
}

// NotFound returns the 51 "Not found" response.
func NotFound() *Response {
	return &Response{
		Status: StatusNotFound,
		Meta:   metaNotFound,
	}
}

// NoSite returns the 51 response for a host with no configured site.
// The host is cut to keep the meta within MaxMetaLen.
func NoSite(host string) *Response {
	if limit := MaxMetaLen - len(metaNoSitePrefix); len(host) > limit {
		for limit > 0 && !utf8.RuneStart(host[limit]) {
			limit--
		}
		host = host[:limit]
	}
	return &Response{
		Status: StatusNotFound,
		Meta:   metaNoSitePrefix + host,
	}
}

// ServerError returns the 41 "Internal server error" response.
func ServerError() *Response {
	return &Response{
		Status: StatusServerError,
		Meta:   metaServerError,
	}
}

// Header returns the framed header line including the trailing CRLF.
func (r *Response) Header() string {
	return strconv.Itoa(int(r.Status)) + " " + r.Meta + "\r\n"
}

// Validate checks that the response can be framed.
func (r *Response) Validate() error {
	if r.Status < MinStatus || r.Status > MaxStatus {
		return ErrInvalidStatus.WithDetails(strconv.Itoa(int(r.Status)))
	}
	if len(r.Meta) > MaxMetaLen {
		return ErrInvalidMeta.WithDetails("longer than " + strconv.Itoa(MaxMetaLen) + " bytes")
	}
	if strings.ContainsAny(r.Meta, "\r\n") {
		return ErrInvalidMeta.WithDetails("contains line break")
	}
	return nil
}

// WriteTo frames the response onto w: header, then body.
//
// Each write is checked and the first failure aborts; nothing is retried.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}

	n, err := io.WriteString(w, r.Header())
	written := int64(n)
	if err != nil {
		return written, err
	}

	if len(r.Body) == 0 {
		return written, nil
	}

	n, err = w.Write(r.Body)
	written += int64(n)
	return written, err
}

// WriteResponse frames status, meta and body onto w.
func WriteResponse(w io.Writer, status uint8, meta string, body []byte) error {
	_, err := (&Response{Status: status, Meta: meta, Body: body}).WriteTo(w)
	return err
}
