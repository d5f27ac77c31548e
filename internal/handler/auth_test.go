package handler

import (
	"testing"

	"github.com/ixfflogin/server/internal/wire"
)

func TestPasswordPolicyOK(t *testing.T) {
	cases := []struct {
		pw   string
		want bool
	}{
		{"short1A", false},      // under 8 chars
		{"alllowercase", false}, // only one class
		{"ALLUPPERCASE1", false}, // upper + digit = 2 classes
		{"Password1", true},      // upper, lower, digit = 3 classes
		{"password!", false},     // lower, other = 2 classes
		{"Password1!", true},     // upper, lower, digit, other = 4 classes
	}
	for _, c := range cases {
		if got := passwordPolicyOK(c.pw); got != c.want {
			t.Errorf("passwordPolicyOK(%q) = %v, want %v", c.pw, got, c.want)
		}
	}
}

func TestDecodeAuthRequestFields(t *testing.T) {
	buf := make([]byte, authRequestSize)
	copy(buf[0:16], "player1")
	copy(buf[16:32], "secretpw")
	buf[32] = wire.AuthCmdLogin

	req := decodeAuthRequest(buf)
	if req.malformed {
		t.Fatalf("a fully-populated, well-formed request should not be marked malformed")
	}
	if req.username != "player1" {
		t.Fatalf("username = %q, want %q", req.username, "player1")
	}
	if req.password != "secretpw" {
		t.Fatalf("password = %q, want %q", req.password, "secretpw")
	}
}

func TestDecodeAuthRequestMissingNewPasswordOnChangeCommand(t *testing.T) {
	buf := make([]byte, authRequestSize)
	copy(buf[0:16], "player1")
	copy(buf[16:32], "secretpw")
	buf[32] = wire.AuthCmdChangePassword
	// new_password field (buf[33:49]) left all-NUL: no terminator inside the field is fine
	// since an empty field IS terminated at byte 0; instead corrupt it to be unterminated.
	for i := 33; i < 33+16; i++ {
		buf[i] = 'x'
	}

	req := decodeAuthRequest(buf)
	if !req.malformed {
		t.Fatalf("an unterminated new_password on a change-password command should be malformed")
	}
}
