package store

import "testing"

func TestHashPasswordIsDeterministicPerSalt(t *testing.T) {
	a := hashPassword("correct horse", "saltsalt")
	b := hashPassword("correct horse", "saltsalt")
	if a != b {
		t.Fatalf("hashPassword should be deterministic for the same password and salt")
	}
}

func TestHashPasswordDiffersBySalt(t *testing.T) {
	a := hashPassword("correct horse", "salt-one")
	b := hashPassword("correct horse", "salt-two")
	if a == b {
		t.Fatalf("hashPassword must depend on the salt, got identical hashes for different salts")
	}
}

func TestHashPasswordDiffersByPassword(t *testing.T) {
	a := hashPassword("password-one", "samesalt")
	b := hashPassword("password-two", "samesalt")
	if a == b {
		t.Fatalf("hashPassword must depend on the password, got identical hashes for different passwords")
	}
}

func TestNewSaltIsUniqueAndHexEncoded(t *testing.T) {
	a, err := newSalt()
	if err != nil {
		t.Fatalf("newSalt: %v", err)
	}
	b, err := newSalt()
	if err != nil {
		t.Fatalf("newSalt: %v", err)
	}
	if a == b {
		t.Fatalf("two calls to newSalt produced the same salt")
	}
	if len(a) != saltLen*2 {
		t.Fatalf("newSalt length = %d, want %d (hex-encoded %d raw bytes)", len(a), saltLen*2, saltLen)
	}
}

func TestAccountEnabledAndTestAccessBitmask(t *testing.T) {
	cases := []struct {
		priv        uint32
		enabled     bool
		testAccess  bool
	}{
		{0, false, false},
		{1, true, false},
		{2, false, true},
		{3, true, true},
	}
	for _, c := range cases {
		a := Account{Privileges: c.priv}
		if got := a.Enabled(); got != c.enabled {
			t.Errorf("Privileges=%d: Enabled() = %v, want %v", c.priv, got, c.enabled)
		}
		if got := a.HasTestAccess(); got != c.testAccess {
			t.Errorf("Privileges=%d: HasTestAccess() = %v, want %v", c.priv, got, c.testAccess)
		}
	}
}

func TestValidatePasswordRoundTrip(t *testing.T) {
	r := &AccountRepo{}
	salt, err := newSalt()
	if err != nil {
		t.Fatalf("newSalt: %v", err)
	}
	acct := &Account{Salt: salt, PasswordHash: hashPassword("s3cret!", salt)}

	if !r.ValidatePassword(acct, "s3cret!") {
		t.Fatalf("ValidatePassword should accept the correct password")
	}
	if r.ValidatePassword(acct, "wrong") {
		t.Fatalf("ValidatePassword should reject an incorrect password")
	}
}
