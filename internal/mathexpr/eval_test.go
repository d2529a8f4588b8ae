package mathexpr

import (
	"math"
	"testing"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"single number", "42", 42},
		{"decimal", "3.5", 3.5},
		{"thousands separator", "1,200", 1200},
		{"addition", "2 + 3", 5},
		{"subtraction", "10 - 4", 6},
		{"multiplication", "6 * 7", 42},
		{"division", "9 / 3", 3},
		{"precedence", "2 + 3 * 4", 14},
		{"parentheses", "(2 + 3) * 4", 20},
		{"unary minus", "-5 + 8", 3},
		{"percent of", "20 percent of 50", 10},
		{"percent symbol", "15 % of 200", 30},
		{"spoken plus", "120 plus 30", 150},
		{"spoken minus", "100 minus 25", 75},
		{"spoken times", "12 times 12", 144},
		{"spoken divided by", "90 divided by 3", 30},
		{"markup expression", "120 * 1.1", 132},
		{"mixed spoken and symbol", "400 + 80", 480},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.input)
			if err != nil {
				t.Fatalf("Evaluate(%q) error = %v", tt.input, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"words", "about twelve"},
		{"division by zero", "5 / 0"},
		{"trailing input", "2 + 3 4"},
		{"dangling operator", "2 +"},
		{"unclosed paren", "(2 + 3"},
		{"letters after number", "40 sqft"},
		{"code injection attempt", "__import__('os')"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Evaluate(tt.input); err == nil {
				t.Errorf("Evaluate(%q) expected error, got nil", tt.input)
			}
		})
	}
}
