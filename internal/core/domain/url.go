package domain

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// Scheme is the only URL scheme the server accepts.
const Scheme = "gemini"

// hostProfile maps hosts the way URL parsers do for lookup: lowercase,
// Unicode labels to punycode, no STD3 restriction on ASCII.
var hostProfile = idna.New(
	idna.MapForLookup(),
	idna.Transitional(false),
	idna.StrictDomainName(false),
)

// URL is a request target that passed ValidateURL.
//
// Host is normalized (see NormalizeHost) and never carries a port or
// brackets. Path is the path component as sent, percent-encoded, with
// dot segments removed; it may be empty (see NormalizePath).
type URL struct {
	Scheme string
	Host   string
	Path   string
}

// ValidateURL parses a request line and applies the protocol's URL rules.
//
// Checks run in a fixed order so the first violated rule is reported:
// authority present, no userinfo, non-empty host, scheme equal to "gemini".
func ValidateURL(raw string) (*URL, error) {
	head, rest := splitAuthority(raw)

	// net/url rejects malformed escapes after the authority; they are
	// kept verbatim in the path.
	u, err := url.Parse(head + escapeStrayPercents(rest))
	if err != nil {
		return nil, ErrURLParse.WithCause(err).WithDetails(err.Error())
	}
	if u.Scheme == "" {
		return nil, ErrURLParse.WithDetails("relative URL without a base")
	}

	// url.Parse treats "scheme:/path" and "scheme:opaque" the same as a
	// missing host, so look at the raw text following "scheme:".
	if !strings.HasPrefix(raw[len(u.Scheme)+1:], "//") {
		return nil, ErrMissingAuthority
	}

	if u.User != nil {
		if _, hasPassword := u.User.Password(); u.User.Username() != "" || hasPassword {
			return nil, ErrUserinfoNotAllowed
		}
	}

	if u.Hostname() == "" {
		return nil, ErrMissingHost
	}
	host, err := NormalizeHost(u.Hostname())
	if err != nil {
		return nil, ErrMissingHost.WithCause(err).WithDetails(err.Error())
	}

	if u.Scheme != Scheme {
		return nil, ErrUnknownScheme.WithDetails(u.Scheme)
	}

	return &URL{
		Scheme: u.Scheme,
		Host:   host,
		Path:   CanonicalPath(pathComponent(rest)),
	}, nil
}

// NormalizeHost returns host in the form used as a routing key: IP
// literals lowercased, domain names lowercased with Unicode labels in
// punycode.
func NormalizeHost(host string) (string, error) {
	if net.ParseIP(host) != nil {
		return strings.ToLower(host), nil
	}
	ascii, err := hostProfile.ToASCII(host)
	if err != nil {
		return "", err
	}
	if ascii == "" {
		return "", ErrMissingHost
	}
	return ascii, nil
}

// CanonicalPath percent-encodes the bytes a URL path may not carry
// literally and removes "." and ".." segments. Existing escapes,
// including %2F, are left as they are.
func CanonicalPath(p string) string {
	return removeDotSegments(encodePath(p))
}

// NormalizePath maps an empty path to "/".
func NormalizePath(path string) string {
	if path == "" {
		return "/"
	}
	return path
}

// splitAuthority splits raw after the "scheme://authority" prefix.
// Without one, everything is head.
func splitAuthority(raw string) (head, rest string) {
	colon := strings.IndexByte(raw, ':')
	if colon <= 0 || !strings.HasPrefix(raw[colon+1:], "//") {
		return raw, ""
	}
	start := colon + 3
	end := strings.IndexAny(raw[start:], "/?#")
	if end < 0 {
		return raw, ""
	}
	return raw[:start+end], raw[start+end:]
}

// pathComponent strips the query and fragment from the text following
// the authority.
func pathComponent(rest string) string {
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		return rest[:i]
	}
	return rest
}

func escapeStrayPercents(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && (i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2])) {
			b.WriteString("%25")
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func encodePath(p string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c <= ' ' || c >= 0x7f || strings.IndexByte("\"<>`{}", c) >= 0 {
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0x0f])
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// removeDotSegments follows RFC 3986 section 5.2.4 for an absolute path.
// "%2e" counts as a dot.
func removeDotSegments(p string) string {
	if p == "" {
		return p
	}

	segs := strings.Split(strings.TrimPrefix(p, "/"), "/")
	out := make([]string, 0, len(segs))
	for i, s := range segs {
		last := i == len(segs)-1
		switch {
		case isDotSegment(s):
			if last {
				out = append(out, "")
			}
		case isDotDotSegment(s):
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
			if last {
				out = append(out, "")
			}
		default:
			out = append(out, s)
		}
	}
	return "/" + strings.Join(out, "/")
}

func isDotSegment(s string) bool {
	return s == "." || strings.EqualFold(s, "%2e")
}

func isDotDotSegment(s string) bool {
	switch strings.ToLower(s) {
	case "..", ".%2e", "%2e.", "%2e%2e":
		return true
	}
	return false
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
