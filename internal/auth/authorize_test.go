package auth

import "testing"

func TestCanReadGrievance(t *testing.T) {
	housekeeping, err := DepartmentActor("acc-d", "Housekeeping")
	if err != nil {
		t.Fatalf("DepartmentActor: %v", err)
	}

	cases := []struct {
		name       string
		actor      Actor
		ownerID    string
		department string
		want       bool
	}{
		{"admin reads anything", Administrator("acc-a"), "someone", "Security", true},
		{"submitter reads own", Submitter("acc-s"), "acc-s", "", true},
		{"submitter denied other", Submitter("acc-s"), "acc-x", "", false},
		{"submitter denied anonymous", Submitter("acc-s"), "", "", false},
		{"department reads assigned", housekeeping, "", "Housekeeping", true},
		{"department denied foreign", housekeeping, "", "Security", false},
		{"department denied unassigned", housekeeping, "", "", false},
	}
	for _, tc := range cases {
		if got := CanReadGrievance(tc.actor, tc.ownerID, tc.department); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCanTransitionGrievance(t *testing.T) {
	housekeeping, _ := DepartmentActor("acc-d", "Housekeeping")

	if !CanTransitionGrievance(Administrator("acc-a"), "", "In Progress") {
		t.Error("admin should transition freely")
	}
	if !CanTransitionGrievance(housekeeping, "Housekeeping", "Resolved") {
		t.Error("department should resolve its own grievances")
	}
	if CanTransitionGrievance(housekeeping, "Housekeeping", "In Progress") {
		t.Error("department target is limited to Resolved")
	}
	if CanTransitionGrievance(housekeeping, "Security", "Resolved") {
		t.Error("department must not touch foreign grievances")
	}
	if CanTransitionGrievance(Submitter("acc-s"), "Housekeeping", "Resolved") {
		t.Error("submitters cannot transition")
	}
}

func TestCanAttachFeedback(t *testing.T) {
	if !CanAttachFeedback(Submitter("acc-s"), "acc-s") {
		t.Error("author should attach feedback")
	}
	if CanAttachFeedback(Submitter("acc-s"), "acc-x") {
		t.Error("non-author must not attach feedback")
	}
	if CanAttachFeedback(Submitter("acc-s"), "") {
		t.Error("anonymous grievances take feedback via tracking code only")
	}
	if !CanAttachFeedback(Administrator("acc-a"), "anyone") {
		t.Error("admin should attach feedback")
	}
}

func TestDepartmentActorRequiresName(t *testing.T) {
	if _, err := DepartmentActor("acc-d", "  "); err == nil {
		t.Fatal("expected error for empty department")
	}
}

func TestParseRole(t *testing.T) {
	for _, s := range []string{"submitter", " Administrator ", "DEPARTMENT"} {
		if _, err := ParseRole(s); err != nil {
			t.Errorf("ParseRole(%q): %v", s, err)
		}
	}
	if _, err := ParseRole("superuser"); err == nil {
		t.Error("expected error for unknown role")
	}
}
