package validator

import "testing"

func TestEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"Valid", "jane.doe@example.com", false},
		{"Empty", "", true},
		{"Missing At", "jane.example.com", true},
		{"Display Name", "Jane <jane@example.com>", true},
		{"No TLD", "jane@localhost", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Email(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("Email(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestIdentifier(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"REG-2024/17", false},
		{"", true},
		{"REG 17", true},
		{"TAX#1", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := Identifier("registration number", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Identifier(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestWindow(t *testing.T) {
	ptr := func(v int64) *int64 { return &v }

	tests := []struct {
		name       string
		start, end *int64
		wantErr    bool
	}{
		{"Both Nil", nil, nil, false},
		{"Open Start", nil, ptr(100), false},
		{"Open End", ptr(100), nil, false},
		{"Ordered", ptr(100), ptr(200), false},
		{"Equal", ptr(100), ptr(100), true},
		{"Reversed", ptr(200), ptr(100), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Window(tt.start, tt.end)
			if (err != nil) != tt.wantErr {
				t.Errorf("Window() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
