package rbac

import "testing"

func TestAdminHoldsEveryPermission(t *testing.T) {
	for _, policy := range []Policy{{}, {StrictUserTags: true}} {
		for _, perm := range policy.All() {
			if !policy.HasPermission(RoleAdmin, perm) {
				t.Fatalf("ADMIN missing %s (strict=%v)", perm, policy.StrictUserTags)
			}
		}
	}
}

func TestDoctorRow(t *testing.T) {
	policy := Default
	want := []Permission{
		PermCreateTreatment,
		PermReadTreatment,
		PermUpdateTreatment,
		PermReadTreatmentOption,
		PermReadMedication,
	}
	got := policy.PermissionsFor(RoleDoctor)
	if len(got) != len(want) {
		t.Fatalf("DOCTOR permissions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("DOCTOR permissions = %v, want %v", got, want)
		}
	}
	if policy.HasPermission(RoleDoctor, PermDeleteTreatment) {
		t.Fatal("DOCTOR must not delete treatments")
	}
	if policy.HasPermission(RoleDoctor, PermReadUser) {
		t.Fatal("DOCTOR must not manage users")
	}
}

func TestNurseAndStaffAreReadOnly(t *testing.T) {
	policy := Default
	for _, role := range []Role{RoleNurse, RoleStaff} {
		perms := policy.PermissionsFor(role)
		if len(perms) != 3 {
			t.Fatalf("%s permissions = %v", role, perms)
		}
		for _, perm := range perms {
			if !policy.HasPermission(role, perm) {
				t.Fatalf("%s missing %s", role, perm)
			}
		}
		if policy.HasPermission(role, PermCreateTreatment) {
			t.Fatalf("%s must not create treatments", role)
		}
	}
}

func TestHasAnyPermission(t *testing.T) {
	policy := Default
	if !policy.HasAnyPermission(RoleNurse, []Permission{PermDeleteUser, PermReadMedication}) {
		t.Fatal("NURSE holds read:medication")
	}
	if policy.HasAnyPermission(RoleStaff, []Permission{PermDeleteUser, PermCreateUser}) {
		t.Fatal("STAFF holds no user permissions")
	}
	if policy.HasAnyPermission(RoleStaff, nil) {
		t.Fatal("empty request must be false")
	}
}

func TestLegacyUserTagDuplicate(t *testing.T) {
	if Default.UpdateUser() != PermReadUser {
		t.Fatalf("legacy update:user tag = %s, want %s", Default.UpdateUser(), PermReadUser)
	}
	strict := Policy{StrictUserTags: true}
	if strict.UpdateUser() != PermUpdateUserStrict {
		t.Fatalf("strict update:user tag = %s", strict.UpdateUser())
	}
	// The legacy table collapses the duplicate, the strict one keeps 16 tags.
	if got := len(Default.All()); got != 15 {
		t.Fatalf("legacy policy has %d tags, want 15", got)
	}
	if got := len(strict.All()); got != 16 {
		t.Fatalf("strict policy has %d tags, want 16", got)
	}
}

func TestParseRoleDefaultsToStaff(t *testing.T) {
	cases := map[string]Role{
		"ADMIN":  RoleAdmin,
		"doctor": RoleDoctor,
		" Nurse": RoleNurse,
		"STAFF":  RoleStaff,
		"":       RoleStaff,
		"USER":   RoleStaff,
		"root":   RoleStaff,
	}
	for in, want := range cases {
		if got := ParseRole(in); got != want {
			t.Fatalf("ParseRole(%q) = %s, want %s", in, got, want)
		}
	}
}
