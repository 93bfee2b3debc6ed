// Package uri implements the textual identifier format: parsing a
// wire-format Hyphanet URI into its typed fields, serialising back, and
// bridging to the keys package's typed ClientKey variants.
package uri

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/hyphanet/corelib/herrors"
	"github.com/hyphanet/corelib/keys"
)

// Uri holds a parsed identifier: key type, routing/decryption material,
// the extra-bytes trailer, and the ordered path meta-strings.
type Uri struct {
	Type        herrors.KeyType
	Routing     []byte
	Decryption  []byte
	Extra       []byte
	MetaStrings []string
}

var keyTypeNames = map[string]herrors.KeyType{
	"CHK": herrors.KeyTypeCHK,
	"SSK": herrors.KeyTypeSSK,
	"USK": herrors.KeyTypeUSK,
	"KSK": herrors.KeyTypeKSK,
}

var schemePrefixes = []string{"ext+freenet:", "ext+hyphanet:", "ext+hypha:", "web+freenet:", "web+hyphanet:", "web+hypha:", "freenet:", "hyphanet:", "hypha:"}

// Parse parses a wire-format URI string. noTrim disables the
// percent-decode-and-retry fallback used when a caller-supplied string
// has no '@' or '/' (already-decoded callers should not need it, but
// some historical URIs arrive double-encoded).
func Parse(s string, noTrim bool) (Uri, error) {
	s = stripHostPrefix(s)
	s = stripSchemePrefix(s)

	if idx := strings.IndexByte(s, '?'); idx >= 0 {
		s = s[:idx]
	}

	if !noTrim && !strings.ContainsAny(s, "@/") {
		decoded, err := url.QueryUnescape(s)
		if err == nil {
			s = decoded
		}
	}

	atIdx := strings.IndexByte(s, '@')
	if atIdx < 0 {
		return Uri{}, herrors.MalformedURI("missing '@' key-type separator", nil)
	}
	typeStr := strings.ToUpper(s[:atIdx])
	kt, ok := keyTypeNames[typeStr]
	if !ok {
		return Uri{}, herrors.MalformedURI("unknown key type "+typeStr, nil)
	}
	remainder := s[atIdx+1:]

	// A KSK carries no routing/decryption material: everything after
	// the '@' is the keyword plus any further path segments.
	if kt == herrors.KeyTypeKSK {
		meta := parseMetaStrings(remainder)
		if len(meta) == 0 {
			return Uri{}, herrors.MalformedURI("KSK URI missing keyword", nil)
		}
		return Uri{Type: kt, MetaStrings: meta}, nil
	}

	keysStr := remainder
	path := ""
	if slashIdx := strings.IndexByte(remainder, '/'); slashIdx >= 0 {
		keysStr = remainder[:slashIdx]
		path = remainder[slashIdx+1:]
	}

	parts := strings.SplitN(keysStr, ",", 3)
	var routing, decryption, extra []byte
	var err error
	if len(parts) > 0 && parts[0] != "" {
		routing, err = decodeB64(parts[0])
		if err != nil {
			return Uri{}, herrors.MalformedURI("invalid routing key base64", err)
		}
	}
	if len(parts) > 1 && parts[1] != "" {
		decryption, err = decodeB64(parts[1])
		if err != nil {
			return Uri{}, herrors.MalformedURI("invalid decryption key base64", err)
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		extra, err = decodeB64(parts[2])
		if err != nil {
			return Uri{}, herrors.MalformedURI("invalid extra bytes base64", err)
		}
	}

	return Uri{
		Type:        kt,
		Routing:     routing,
		Decryption:  decryption,
		Extra:       extra,
		MetaStrings: parseMetaStrings(path),
	}, nil
}

func stripHostPrefix(s string) string {
	for _, scheme := range []string{"https://", "http://"} {
		if strings.HasPrefix(s, scheme) {
			rest := s[len(scheme):]
			if slash := strings.IndexByte(rest, '/'); slash >= 0 {
				return rest[slash+1:]
			}
			return rest
		}
	}
	return s
}

func stripSchemePrefix(s string) string {
	lower := strings.ToLower(s)
	for _, p := range schemePrefixes {
		if strings.HasPrefix(lower, p) {
			return s[len(p):]
		}
	}
	return s
}

// parseMetaStrings splits the path (the text after the key section's
// '/') into meta-strings. strings.Split preserves one empty element per
// extra consecutive separator, so "a//b" keeps its intervening empty
// segment; a lone trailing empty element (path ending in '/') is
// dropped rather than emitted, since it denotes "no more segments"
// rather than an empty final segment.
func parseMetaStrings(path string) []string {
	if path == "" {
		return nil
	}
	segments := strings.Split(path, "/")
	if len(segments) > 0 && segments[len(segments)-1] == "" {
		segments = segments[:len(segments)-1]
	}
	out := make([]string, len(segments))
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		decoded, err := url.PathUnescape(seg)
		if err != nil {
			decoded = seg
		}
		out[i] = decoded
	}
	return out
}

// SerializeOptions selects the optional "freenet:" prefix and
// ASCII-only percent-encoding of meta-strings.
type SerializeOptions struct {
	Prefix    bool
	PureASCII bool
}

// Serialize renders the Uri back to its wire form.
func (u Uri) Serialize(opts SerializeOptions) string {
	var sb strings.Builder
	if opts.Prefix {
		sb.WriteString("freenet:")
	}
	sb.WriteString(string(u.Type))
	sb.WriteString("@")

	hadRouting := len(u.Routing) > 0
	if hadRouting {
		sb.WriteString(encodeB64(u.Routing))
	}
	if len(u.Decryption) > 0 {
		sb.WriteString(",")
		sb.WriteString(encodeB64(u.Decryption))
	} else if len(u.Extra) > 0 {
		// Keep the empty decryption slot so Parse reads the extra bytes
		// from the third field rather than as a decryption key.
		sb.WriteString(",")
	}
	if len(u.Extra) > 0 {
		sb.WriteString(",")
		sb.WriteString(encodeB64(u.Extra))
	}

	for i, m := range u.MetaStrings {
		if i > 0 || hadRouting {
			sb.WriteString("/")
		}
		sb.WriteString(escapeSegment(m, opts.PureASCII))
	}

	return sb.String()
}

// escapeSegment percent-encodes a meta-string for the URI path.
// pureASCII forces every non-ASCII byte to be percent-encoded
// (url.PathEscape's normal behaviour); the default mode only escapes
// path-structural and control characters, leaving raw UTF-8 bytes in
// the output.
func escapeSegment(s string, pureASCII bool) string {
	if pureASCII {
		return url.PathEscape(s)
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '/' || c == '%' || c == '?' || c < 0x20 || c == 0x7f {
			fmt.Fprintf(&sb, "%%%02X", c)
		} else {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func decodeB64(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}

func encodeB64(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// CreateAccessKey dispatches on u.Type to build the corresponding
// keys.ClientKey.
func (u Uri) CreateAccessKey() (keys.ClientKey, error) {
	switch u.Type {
	case herrors.KeyTypeCHK:
		return u.createChk()
	case herrors.KeyTypeSSK:
		return u.createSsk()
	case herrors.KeyTypeUSK:
		return u.createUsk()
	case herrors.KeyTypeKSK:
		return u.createKsk()
	default:
		return nil, herrors.MalformedURI("unknown key type", nil)
	}
}

func (u Uri) createChk() (*keys.Chk, error) {
	if len(u.Routing) == 0 {
		return nil, herrors.MalformedURI("CHK URI missing routing key", nil)
	}
	algo, isControlDoc, comp, err := keys.ParseChkExtraBytes(u.Extra)
	if err != nil {
		return nil, err
	}
	var filename string
	if len(u.MetaStrings) > 0 {
		filename = u.MetaStrings[0]
	}
	return keys.NewChk(u.Routing, u.Decryption, algo, isControlDoc, comp, filename)
}

func (u Uri) createSsk() (*keys.Ssk, error) {
	if len(u.Routing) == 0 || len(u.Decryption) == 0 {
		return nil, herrors.MalformedURI("SSK URI missing routing or decryption key", nil)
	}
	if len(u.MetaStrings) == 0 {
		return nil, herrors.MalformedURI("SSK URI missing doc_name meta-string", nil)
	}
	algo, err := keys.ParseSskExtraBytes(u.Extra)
	if err != nil {
		return nil, err
	}
	docName := u.MetaStrings[0]
	rest := u.MetaStrings[1:]
	return keys.NewSsk(docName, u.Routing, u.Decryption, algo, nil, rest)
}

func (u Uri) createUsk() (*keys.Usk, error) {
	if len(u.Routing) == 0 || len(u.Decryption) == 0 {
		return nil, herrors.MalformedURI("USK URI missing routing or decryption key", nil)
	}
	if len(u.MetaStrings) < 2 {
		return nil, herrors.MalformedURI("USK URI missing doc_name/edition meta-strings", nil)
	}
	algo, err := keys.ParseSskExtraBytes(u.Extra)
	if err != nil {
		return nil, err
	}
	docName := u.MetaStrings[0]
	edition, err := strconv.ParseInt(u.MetaStrings[1], 10, 64)
	if err != nil {
		return nil, herrors.MalformedURI("USK edition is not a valid int64", err)
	}
	return &keys.Usk{
		Routing:    u.Routing,
		Decryption: u.Decryption,
		CryptoAlgo: algo,
		DocName:    docName,
		Edition:    edition,
		ExtraMeta:  append([]string(nil), u.MetaStrings[2:]...),
	}, nil
}

func (u Uri) createKsk() (*keys.Ksk, error) {
	if len(u.MetaStrings) == 0 {
		return nil, herrors.MalformedURI("KSK URI missing keyword meta-string", nil)
	}
	return keys.CreateKsk(u.MetaStrings[0])
}

// ToURI builds the full (insert-capable) Uri for a ClientKey, including
// its decryption key.
func ToURI(ck keys.ClientKey) (Uri, error) {
	switch k := ck.(type) {
	case *keys.Chk:
		meta := []string(nil)
		if k.Filename != "" {
			meta = []string{k.Filename}
		}
		return Uri{Type: herrors.KeyTypeCHK, Routing: k.Routing, Decryption: k.Decryption, Extra: k.ExtraBytes(), MetaStrings: meta}, nil
	case *keys.Ssk:
		return Uri{Type: herrors.KeyTypeSSK, Routing: k.Routing, Decryption: k.Decryption, Extra: k.ExtraBytes(false),
			MetaStrings: append([]string{k.DocName}, k.ExtraMeta...)}, nil
	case *keys.InsertableSsk:
		return Uri{Type: herrors.KeyTypeSSK, Routing: k.Routing, Decryption: k.Decryption, Extra: k.ExtraBytes(true),
			MetaStrings: append([]string{k.DocName}, k.ExtraMeta...)}, nil
	case *keys.Usk:
		meta := append([]string{k.DocName, strconv.FormatInt(k.Edition, 10)}, k.ExtraMeta...)
		return Uri{Type: herrors.KeyTypeUSK, Routing: k.Routing, Decryption: k.Decryption,
			Extra: keys.SskExtraBytes(false, k.CryptoAlgo), MetaStrings: meta}, nil
	case *keys.Ksk:
		return Uri{Type: herrors.KeyTypeKSK, MetaStrings: []string{k.Keyword}}, nil
	default:
		return Uri{}, herrors.Unsupported("unknown ClientKey variant")
	}
}

// ToRequestURI builds the fetch-only Uri (no decryption key) for a
// ClientKey.
func ToRequestURI(ck keys.ClientKey) (Uri, error) {
	u, err := ToURI(ck)
	if err != nil {
		return Uri{}, err
	}
	u.Decryption = nil
	return u, nil
}
