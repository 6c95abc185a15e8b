package pgversion

import "testing"

func TestParse_LegacyThreeComponent(t *testing.T) {
	major, minor, err := Parse("PostgreSQL 9.6.5 on x86_64-pc-linux-gnu, compiled by gcc")
	if err != nil {
		t.Fatal(err)
	}
	if major != 96 {
		t.Errorf("major = %d, want 96", major)
	}
	if minor != 5 {
		t.Errorf("minor = %d, want 5", minor)
	}
}

func TestParse_TwoComponent(t *testing.T) {
	major, minor, err := Parse("PostgreSQL 12.3 on x86_64-pc-linux-gnu")
	if err != nil {
		t.Fatal(err)
	}
	if major != 120 {
		t.Errorf("major = %d, want 120", major)
	}
	if minor != 3 {
		t.Errorf("minor = %d, want 3", minor)
	}
}

func TestParse_BetaSuffixNoDot(t *testing.T) {
	major, minor, err := Parse("PostgreSQL 12beta1 on x86_64-pc-linux-gnu")
	if err != nil {
		t.Fatal(err)
	}
	if major != 120 {
		t.Errorf("major = %d, want 120", major)
	}
	if minor != 0 {
		t.Errorf("minor = %d, want 0", minor)
	}
}

func TestParse_NoSpace(t *testing.T) {
	_, _, err := Parse("garbage")
	if err == nil {
		t.Fatal("expected error for string with no space")
	}
	if _, ok := err.(*FatalError); !ok {
		t.Errorf("err = %T, want *FatalError", err)
	}
}

func TestParse_MajorOutOfRange(t *testing.T) {
	_, _, err := Parse("PostgreSQL 3.1 on x86_64-pc-linux-gnu")
	if err == nil {
		t.Fatal("expected fatal error for out-of-range major")
	}
}

func TestParse_MinorOutOfRange(t *testing.T) {
	_, _, err := Parse("PostgreSQL 12.999 on x86_64-pc-linux-gnu")
	if err == nil {
		t.Fatal("expected fatal error for out-of-range minor")
	}
}
