package verdict

import "testing"

func TestPValueTableLookup(t *testing.T) {
	table := &PValueTable{
		Alpha: 0.05,
		Entries: []PValue{
			{Method: "a", Diagnosis: "adhd", P: 0.01, Status: StatusSignificant},
			{Method: "a", Diagnosis: "mdd", P: 0.4, Status: StatusNotSignificant},
			{Method: "b", Diagnosis: "adhd", P: 0.05, Status: StatusSignificant},
		},
	}

	got, ok := table.Lookup("a", "mdd")
	if !ok || got.P != 0.4 {
		t.Errorf("Lookup(a, mdd) = %+v, %v", got, ok)
	}
	if _, ok := table.Lookup("b", "mdd"); ok {
		t.Error("Lookup(b, mdd) should miss")
	}
	if n := len(table.ForMethod("a")); n != 2 {
		t.Errorf("ForMethod(a) returned %d entries", n)
	}
	if n := table.SignificantCount(); n != 2 {
		t.Errorf("SignificantCount = %d, want 2", n)
	}
}
