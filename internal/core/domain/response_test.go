package domain

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestResponse_WriteTo(t *testing.T) {
	tests := []struct {
		name string
		resp *Response
		want string
	}{
		{
			name: "success with body",
			resp: OK([]byte("hi")),
			want: "20 text/gemini\r\nhi",
		},
		{
			name: "success with empty body",
			resp: OK(nil),
			want: "20 text/gemini\r\n",
		},
		{
			name: "success with binary body",
			resp: OK([]byte{0x00, '\r', '\n', 0xff}),
			want: "20 text/gemini\r\n\x00\r\n\xff",
		},
		{
			name: "explicit mime",
			resp: Success("image/png", []byte("png")),
			want: "20 image/png\r\npng",
		},
		{
			name: "not found",
			resp: NotFound(),
			want: "51 Not found\r\n",
		},
		{
			name: "no site",
			resp: NoSite("b.example"),
			want: "51 No site configured for b.example\r\n",
		},
		{
			name: "server error",
			resp: ServerError(),
			want: "41 Internal server error\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			n, err := tt.resp.WriteTo(&buf)
			if err != nil {
				t.Fatalf("WriteTo() error = %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("WriteTo() wrote %q, want %q", got, tt.want)
			}
			if n != int64(len(tt.want)) {
				t.Errorf("WriteTo() n = %d, want %d", n, len(tt.want))
			}
		})
	}
}

func TestWriteResponse(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResponse(&buf, 20, "text/gemini", []byte("# hello\n")); err != nil {
		t.Fatalf("WriteResponse() error = %v", err)
	}
	if got, want := buf.String(), "20 text/gemini\r\n# hello\n"; got != want {
		t.Errorf("WriteResponse() wrote %q, want %q", got, want)
	}
}

func TestResponse_Validate(t *testing.T) {
	tests := []struct {
		name    string
		resp    *Response
		wantErr error
	}{
		{"lowest status", &Response{Status: 10, Meta: "Query"}, nil},
		{"highest status", &Response{Status: 69, Meta: "x"}, nil},
		{"status too low", &Response{Status: 9, Meta: "x"}, ErrInvalidStatus},
		{"status too high", &Response{Status: 70, Meta: "x"}, ErrInvalidStatus},
		{"meta at limit", &Response{Status: 20, Meta: strings.Repeat("a", MaxMetaLen)}, nil},
		{"meta too long", &Response{Status: 20, Meta: strings.Repeat("a", MaxMetaLen+1)}, ErrInvalidMeta},
		{"meta with CRLF", &Response{Status: 20, Meta: "text/gemini\r\n20 x"}, ErrInvalidMeta},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.resp.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestResponse_WriteTo_InvalidWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	resp := &Response{Status: 5, Meta: "bad"}

	if _, err := resp.WriteTo(&buf); err == nil {
		t.Fatal("WriteTo() expected error for invalid status")
	}
	if buf.Len() != 0 {
		t.Errorf("WriteTo() wrote %q, want nothing", buf.String())
	}
}

// failingWriter fails on the nth call to Write.
type failingWriter struct {
	failOn int
	calls  int
	buf    bytes.Buffer
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.calls++
	if w.calls == w.failOn {
		return 0, errors.New("broken pipe")
	}
	return w.buf.Write(p)
}

func TestResponse_WriteTo_HeaderFailureAborts(t *testing.T) {
	w := &failingWriter{failOn: 1}

	if _, err := OK([]byte("body")).WriteTo(w); err == nil {
		t.Fatal("WriteTo() expected error")
	}
	if w.calls != 1 {
		t.Errorf("Write called %d times, want 1 (body must not be attempted)", w.calls)
	}
}

func TestResponse_WriteTo_BodyFailure(t *testing.T) {
	w := &failingWriter{failOn: 2}

	n, err := OK([]byte("body")).WriteTo(w)
	if err == nil {
		t.Fatal("WriteTo() expected error")
	}
	if n != int64(len("20 text/gemini\r\n")) {
		t.Errorf("WriteTo() n = %d, want header length", n)
	}
}

func TestResponse_IdenticalHeaders(t *testing.T) {
	var a, b bytes.Buffer
	OK([]byte("x")).WriteTo(&a)
	OK([]byte("x")).WriteTo(&b)

	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Errorf("repeated responses differ: %q vs %q", a.Bytes(), b.Bytes())
	}
}

func TestNoSite_LongHost(t *testing.T) {
	tests := []struct {
		name string
		host string
	}{
		{"ascii", strings.Repeat("a", 2000) + ".example"},
		{"multibyte at cut", strings.Repeat("a", MaxMetaLen-len(metaNoSitePrefix)-1) + "é.example"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NoSite(tt.host)
			if err := resp.Validate(); err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if !utf8.ValidString(resp.Meta) {
				t.Errorf("Meta is not valid UTF-8")
			}
			if !strings.HasPrefix(tt.host, strings.TrimPrefix(resp.Meta, metaNoSitePrefix)) {
				t.Errorf("Meta %q does not carry a prefix of the host", resp.Meta)
			}

			var buf bytes.Buffer
			if _, err := resp.WriteTo(&buf); err != nil {
				t.Fatalf("WriteTo() error = %v", err)
			}
			if !strings.HasPrefix(buf.String(), "51 ") {
				t.Errorf("header = %.20q, want 51", buf.String())
			}
		})
	}
}
