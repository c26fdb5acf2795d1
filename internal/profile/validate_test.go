package profile

import "testing"

func TestValidateName(t *testing.T) {
	valid := []string{"main", "work", "node-2", "a_b", "x"}
	for _, name := range valid {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) error = %v, want nil", name, err)
		}
	}

	invalid := []string{"", "Main", "has space", "dots.bad", "slash/bad", string(make([]byte, 65))}
	for _, name := range invalid {
		if err := ValidateName(name); err == nil {
			t.Errorf("ValidateName(%q) = nil, want error", name)
		}
	}
}

func TestResolvePrecedence(t *testing.T) {
	t.Setenv("MANKELI_PROFILE", "from-env")

	if got := Resolve("from-flag"); got != "from-flag" {
		t.Errorf("Resolve(flag) = %q, want from-flag", got)
	}
	if got := Resolve(""); got != "from-env" {
		t.Errorf("Resolve(env) = %q, want from-env", got)
	}

	t.Setenv("MANKELI_PROFILE", "")
	if got := Resolve(""); got != DefaultName {
		t.Errorf("Resolve() = %q, want %q", got, DefaultName)
	}
}
