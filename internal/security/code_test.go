package security

import "testing"

func TestGenerateVerificationCode(t *testing.T) {
	seen := make(map[string]struct{})

	for i := 0; i < 50; i++ {
		code, err := GenerateVerificationCode()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("expected numeric code, got %q", code)
			}
		}
		seen[code] = struct{}{}
	}

	if len(seen) < 2 {
		t.Error("expected codes to vary across invocations")
	}
}
