package signup

import "testing"

// TestValidPhone exercises the E.164 shape on accepted and rejected inputs.
func TestValidPhone(t *testing.T) {
	cases := []struct {
		phone string
		want  bool
	}{
		{"+14155551234", true},
		{"+442071838750", true},
		{"+911234567890", true},
		{"+12", true},
		{"+123456789012345", true},

		{"", false},
		{"14155551234", false},          // missing plus
		{"+04155551234", false},         // leading zero after plus
		{"+1", false},                   // too short
		{"+1234567890123456", false},    // 16 digits
		{"+1 415 555 1234", false},      // spaces
		{"+1-415-555-1234", false},      // separators
		{"+1415555123a", false},         // non-digit
		{"415-555-1234", false},         // national format
	}
	for _, c := range cases {
		if got := ValidPhone(c.phone); got != c.want {
			t.Errorf("ValidPhone(%q) = %v, want %v", c.phone, got, c.want)
		}
	}
}

// TestValidateForm_FirstFailureMessage checks that each rule maps to its
// user-facing message and that a fully valid form passes.
func TestValidateForm_FirstFailureMessage(t *testing.T) {
	v := newValidator()

	mutate := func(fn func(*Form)) Form {
		f := validForm()
		fn(&f)
		return f
	}

	cases := []struct {
		name string
		form Form
		want string
	}{
		{"valid", validForm(), ""},
		{"missing first name", mutate(func(f *Form) { f.FirstName = "" }), "Please fill in all required fields."},
		{"short password", mutate(func(f *Form) { f.Password = "abc12"; f.ConfirmPassword = "abc12" }), "Password must be at least 6 characters."},
		{"password mismatch", mutate(func(f *Form) { f.ConfirmPassword = "different1" }), "Passwords do not match."},
		{"national phone", mutate(func(f *Form) { f.Phone = "4155551234" }), "Please enter your phone in international format, e.g. +14155551234."},
		{"bad role", mutate(func(f *Form) { f.Role = "pilot" }), "Please select a role."},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := validateForm(v, c.form)
			if c.want == "" {
				if err != nil {
					t.Fatalf("expected valid form, got %q", err)
				}
				return
			}
			if err == nil || err.Error() != c.want {
				t.Fatalf("got %v, want %q", err, c.want)
			}
		})
	}
}
