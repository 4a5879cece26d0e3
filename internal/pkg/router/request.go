package router

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

// maxBodyBytes caps JSON and form bodies alike.
const maxBodyBytes = 1 << 20

// Request wraps http.Request with helpers for inbound handlers.
type Request struct {
	// Request is the underlying http.Request.
	*http.Request
}

// DecodeBody decodes the request body into dst.
//
// JSON bodies are decoded strictly. HTML form bodies (application/x-www-form-urlencoded)
// are mapped onto the json tags of dst; the first value of every field wins and unknown
// fields are ignored.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Request == nil || r.Body == nil {
		return goerror.NewInvalidFormat()
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/x-www-form-urlencoded" {
		return r.decodeForm(dst)
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return goerror.NewInvalidFormat()
	}

	return nil
}

func (r *Request) decodeForm(dst any) error {
	if err := r.ParseForm(); err != nil {
		return goerror.NewInvalidFormat()
	}

	fields := make(map[string]string, len(r.PostForm))
	for k, v := range r.PostForm {
		if len(v) > 0 {
			fields[strings.TrimSpace(k)] = v[0]
		}
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return goerror.NewInvalidFormat()
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return goerror.NewInvalidFormat()
	}

	return nil
}
