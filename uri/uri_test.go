package uri

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseMetaStringsEmptyPolicyExamples(t *testing.T) {
	cases := []struct {
		path string
		want []string
	}{
		{"/file", []string{"", "file"}},
		{"a/b", []string{"a", "b"}},
		{"", nil},
	}
	for _, c := range cases {
		got := parseMetaStrings(c.path)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("parseMetaStrings(%q) = %#v, want %#v", c.path, got, c.want)
		}
	}
}

func TestParseSerializeRoundTrip(t *testing.T) {
	routing := make([]byte, 32)
	decryption := make([]byte, 32)
	for i := range routing {
		routing[i] = byte(i)
		decryption[i] = byte(255 - i)
	}
	u := Uri{
		Type:        "SSK",
		Routing:     routing,
		Decryption:  decryption,
		Extra:       []byte{1, 0, 2, 0, 1},
		MetaStrings: []string{"site", "42", "index.html"},
	}

	s := u.Serialize(SerializeOptions{})
	back, err := Parse(s, true)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if back.Type != u.Type {
		t.Fatalf("type mismatch: got %s want %s", back.Type, u.Type)
	}
	if string(back.Routing) != string(u.Routing) {
		t.Fatal("routing key mismatch after round trip")
	}
	if string(back.Decryption) != string(u.Decryption) {
		t.Fatal("decryption key mismatch after round trip")
	}
	if !reflect.DeepEqual(back.MetaStrings, u.MetaStrings) {
		t.Fatalf("meta-strings mismatch: got %v want %v", back.MetaStrings, u.MetaStrings)
	}
}

func TestSerializeBase64IsURLSafeNoPadding(t *testing.T) {
	routing := make([]byte, 32)
	for i := range routing {
		routing[i] = byte(i * 7)
	}
	u := Uri{Type: "CHK", Routing: routing, Extra: []byte{0, 2, 0, 0, 0}}
	s := u.Serialize(SerializeOptions{})
	if strings.ContainsAny(s[strings.IndexByte(s, '@'):], "+/=") {
		t.Fatalf("serialized URI contains non-URL-safe base64 characters: %s", s)
	}
}

func TestUskUriScenario(t *testing.T) {
	routing := make([]byte, 32)
	decryption := make([]byte, 32)
	for i := range routing {
		routing[i] = byte(i + 3)
		decryption[i] = byte(i + 9)
	}

	base := Uri{Type: "USK", Routing: routing, Decryption: decryption, Extra: []byte{1, 0, 2, 0, 1}}
	s := base.Serialize(SerializeOptions{}) + "/site/42/index.html"

	u, err := Parse(s, true)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if u.Type != "USK" {
		t.Fatalf("expected USK, got %s", u.Type)
	}
	if len(u.MetaStrings) != 3 || u.MetaStrings[0] != "site" || u.MetaStrings[1] != "42" || u.MetaStrings[2] != "index.html" {
		t.Fatalf("unexpected meta-strings: %v", u.MetaStrings)
	}

	reU := Uri{Type: u.Type, Routing: u.Routing, Decryption: u.Decryption, Extra: u.Extra, MetaStrings: u.MetaStrings}
	if got := reU.Serialize(SerializeOptions{}); got != s {
		t.Fatalf("reserialize mismatch:\n got  %s\n want %s", got, s)
	}
}

func TestParseKskKeywordRoundTrip(t *testing.T) {
	u, err := Parse("KSK@gpl.txt", true)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if u.Type != "KSK" {
		t.Fatalf("type = %s, want KSK", u.Type)
	}
	if len(u.Routing) != 0 || len(u.Decryption) != 0 {
		t.Fatal("KSK URIs must carry no routing or decryption material")
	}
	if len(u.MetaStrings) != 1 || u.MetaStrings[0] != "gpl.txt" {
		t.Fatalf("meta-strings = %v, want [gpl.txt]", u.MetaStrings)
	}
	if got := u.Serialize(SerializeOptions{}); got != "KSK@gpl.txt" {
		t.Fatalf("reserialize = %q, want %q", got, "KSK@gpl.txt")
	}
}

func TestParseRejectsMissingAt(t *testing.T) {
	if _, err := Parse("SSKfoo/bar", true); err == nil {
		t.Fatal("expected error for URI missing '@'")
	}
}

func TestParseRejectsUnknownKeyType(t *testing.T) {
	if _, err := Parse("XYZ@abc", true); err == nil {
		t.Fatal("expected error for unknown key type")
	}
}

func TestParseStripsSchemeAndHostPrefixes(t *testing.T) {
	routing := make([]byte, 32)
	u := Uri{Type: "CHK", Routing: routing, Extra: []byte{0, 2, 0, 0, 0}}
	plain := u.Serialize(SerializeOptions{})

	for _, prefix := range []string{"freenet:", "ext+hyphanet:", "https://127.0.0.1:8888/"} {
		got, err := Parse(prefix+plain, true)
		if err != nil {
			t.Fatalf("Parse(%q): %v", prefix+plain, err)
		}
		if got.Type != "CHK" {
			t.Fatalf("Parse(%q) type = %s, want CHK", prefix+plain, got.Type)
		}
	}
}
