package validation

import "testing"

func TestValidateOriginEntry(t *testing.T) {
	t.Parallel()
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"https://foo.example", false},
		{"http://localhost:3000", false},
		{"app://.", false},
		{"*", false},
		{"null", false},
		{"", true},
		{"foo.example", true},
		{"https://foo.example/", true},
		{"https://foo.example/path", true},
		{"https:// foo.example", true},
		{"://foo.example", true},
		{"https://", true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			err := ValidateOriginEntry(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOriginEntry(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestCustomTags(t *testing.T) {
	t.Parallel()

	type sample struct {
		Mode string `validate:"cors_policy_mode"`
		Rate string `validate:"omitempty,ulule_rate"`
	}

	tests := []struct {
		name    string
		in      sample
		wantErr bool
	}{
		{"valid", sample{Mode: "localapps", Rate: "100-M"}, false},
		{"valid without rate", sample{Mode: "all"}, false},
		{"bad mode", sample{Mode: "open"}, true},
		{"bad rate", sample{Mode: "all", Rate: "lots"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Validate.Struct(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate.Struct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
