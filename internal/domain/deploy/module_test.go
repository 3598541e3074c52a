package deploy

import "testing"

func TestAllKindsControllerFirst(t *testing.T) {
	kinds := AllKinds()
	if len(kinds) != 6 {
		t.Fatalf("len: want=6 got=%d", len(kinds))
	}
	if kinds[0] != KindController {
		t.Fatalf("first: want=%q got=%q", KindController, kinds[0])
	}
	seen := map[ModuleKind]bool{}
	for _, k := range kinds {
		if seen[k] {
			t.Fatalf("duplicate kind %q", k)
		}
		seen[k] = true
	}
}

func TestParseModuleKind(t *testing.T) {
	k, err := ParseModuleKind(" Voting ")
	if err != nil || k != KindVoting {
		t.Fatalf("ParseModuleKind: want=%q got=%q err=%v", KindVoting, k, err)
	}
	if _, err := ParseModuleKind("jurors"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestSameAddress(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"0xAbC0000000000000000000000000000000000001", "0xabc0000000000000000000000000000000000001", true},
		{"0x01", "0x02", false},
		{"", "", false},
		{"0x01", "", false},
	}
	for _, tc := range cases {
		if got := SameAddress(tc.a, tc.b); got != tc.want {
			t.Fatalf("SameAddress(%q,%q): want=%v got=%v", tc.a, tc.b, tc.want, got)
		}
	}
}

func TestRecordValidate(t *testing.T) {
	r := DeploymentRecord{Kind: KindTreasury, Address: "0x01"}
	if err := r.Validate(); err != ErrIncompleteRecord {
		t.Fatalf("Validate: want=%v got=%v", ErrIncompleteRecord, err)
	}
	r.CreationRef = "0xtx"
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate: unexpected error %v", err)
	}
}
