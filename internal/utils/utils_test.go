package utils

import (
	"strings"
	"testing"
)

func TestGenerateRandomPasswordIsStrong(t *testing.T) {
	for _, n := range []int{0, 8, 12, 32} {
		p := GenerateRandomPassword(n)
		want := n
		if want < 8 {
			want = 8
		}
		if len(p) != want {
			t.Fatalf("length %d: got %q", n, p)
		}
		if !IsStrongPassword(p) {
			t.Fatalf("generated password %q is not strong", p)
		}
	}
}

func TestGenerateRandomOTP(t *testing.T) {
	for i := 0; i < 50; i++ {
		otp := GenerateRandomOTP()
		if len(otp) != 6 || strings.Trim(otp, "0123456789") != "" {
			t.Fatalf("unexpected otp %q", otp)
		}
	}
}

func TestIsStrongPassword(t *testing.T) {
	tests := map[string]bool{
		"S3cure!Pass": true,
		"short1!A":    true,
		"Sh0rt!":      false,
		"alllower1!":  false,
		"ALLUPPER1!":  false,
		"NoDigits!!":  false,
		"NoSpecial12": false,
	}
	for in, want := range tests {
		if got := IsStrongPassword(in); got != want {
			t.Errorf("IsStrongPassword(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestTextRules(t *testing.T) {
	if !IsFreeText("Can we get better coffee? It's 50% worse than before!") {
		t.Fatal("expected ordinary text to pass")
	}
	if IsFreeText("emoji 🙂 not allowed") {
		t.Fatal("expected non-ASCII text to fail")
	}
	if !IsTag(" follow-up 2 ") || IsTag("bad_tag") || IsTag(strings.Repeat("a", 51)) {
		t.Fatal("unexpected tag rule result")
	}
	if !IsPersonName("Mary Ann") || IsPersonName("R2D2") {
		t.Fatal("unexpected name rule result")
	}
}

func TestSanitizeRespectsExemptionsAndDepth(t *testing.T) {
	in := map[string]any{
		"email":          `<script>alert("x")</script>`,
		"suggestionText": "a < b",
		"tags":           []any{"<b>", 3.0},
		"nested":         map[string]any{"reply": "keep <i>", "note": "x/y"},
	}
	exempt := map[string]bool{"suggestionText": true, "reply": true}

	out := Sanitize(in, exempt).(map[string]any)
	if out["email"] != "&lt;script&gt;alert(&quot;x&quot;)&lt;&#x2F;script&gt;" {
		t.Fatalf("unexpected email %q", out["email"])
	}
	if out["suggestionText"] != "a < b" {
		t.Fatal("exempt key must be untouched")
	}
	tags := out["tags"].([]any)
	if tags[0] != "&lt;b&gt;" || tags[1] != 3.0 {
		t.Fatalf("unexpected tags %v", tags)
	}
	nested := out["nested"].(map[string]any)
	if nested["reply"] != "keep <i>" || nested["note"] != "x&#x2F;y" {
		t.Fatalf("unexpected nested %v", nested)
	}

	var deep any = "<x>"
	for i := 0; i < MaxSanitizeDepth+2; i++ {
		deep = []any{deep}
	}
	v := Sanitize(deep, nil)
	for i := 0; i < MaxSanitizeDepth; i++ {
		v = v.([]any)[0]
	}
	if v.([]any)[0] != nil {
		t.Fatalf("expected values past the depth bound to be dropped, got %v", v)
	}
}

func TestDecodeEntitiesReversesEscape(t *testing.T) {
	s := `He said "use </br> & go"`
	if got := DecodeEntities(EscapeMarkup(s)); got != s {
		t.Fatalf("round trip failed: %q", got)
	}
	if got := DecodeEntities("it&#x27;s &amp; fine"); got != "it's & fine" {
		t.Fatalf("unexpected decode %q", got)
	}
}

func TestGenerateRandomStaffName(t *testing.T) {
	first, last := GenerateRandomStaffName()
	if !IsPersonName(first) || !IsPersonName(last) {
		t.Fatalf("generated names must be ASCII letters: %q %q", first, last)
	}
	email := GenerateStaffEmail(first, last, "company.com")
	if !strings.HasSuffix(email, "@company.com") || email != strings.ToLower(email) {
		t.Fatalf("unexpected email %q", email)
	}
}
