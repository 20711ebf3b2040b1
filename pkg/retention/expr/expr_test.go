package expr

import (
	"errors"
	"testing"
	"time"

	"custodia-hq/saturn/pkg/document"
)

func testEnv() *Env {
	return &Env{
		Document: &document.Document{
			ID:    "doc-1",
			Type:  "File",
			Path:  "/testFolder/contract",
			Title: "Contract",
			Properties: map[string]any{
				"dc:expired": time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
				"dc:format":  "pdf",
				"app:score":  float64(7),
			},
		},
		Vars: map[string]any{
			"currentDate": time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			"eventInput":  "approved",
		},
	}
}

func TestEvalBool(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"string equality", `document.title == "Contract"`, true},
		{"string inequality", `document.title != "Contract"`, false},
		{"event input match", `eventInput == "approved"`, true},
		{"event input mismatch", `eventInput == "rejected"`, false},
		{"starts with", `document.path.startsWith("/testFolder")`, true},
		{"starts with miss", `document.path.startsWith("/otherFolder")`, false},
		{"ends with", `document.path.endsWith("contract")`, true},
		{"contains", `eventInput.contains("rove")`, true},
		{"equals method", `document.title.equals(eventInput)`, false},
		{"equals ignore case", `"APPROVED".equalsIgnoreCase(eventInput)`, true},
		{"regex match", `document.path.matches("^/test.*")`, true},
		{"lowercase chain", `document.title.toLowerCase() == "contract"`, true},
		{"length", `eventInput.length() >= 8`, true},
		{"property index", `document.properties["dc:format"] == "pdf"`, true},
		{"document index", `document["dc:format"] == "pdf"`, true},
		{"bare property selector", `document.type == "File"`, true},
		{"date comparison", `document.properties["dc:expired"] < currentDate`, true},
		{"date method", `currentDate.after(document.properties["dc:expired"])`, true},
		{"arithmetic", `document.properties["app:score"] * 2 > 10`, true},
		{"arithmetic equality", `1 + 2 * 3 == 7`, true},
		{"boolean and", `eventInput == "approved" && document.type == "File"`, true},
		{"boolean or", `eventInput == "nope" || document.type == "File"`, true},
		{"negation", `!document.trashed`, true},
		{"parentheses", `(1 + 2) * 3 == 9`, true},
		{"nil comparison", `document.properties["missing"] == nil`, true},
		{"string concat", `"app" + "roved" == eventInput`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := Compile(tt.src)
			if err != nil {
				t.Fatalf("Compile(%q): %v", tt.src, err)
			}
			got, err := e.EvalBool(testEnv())
			if err != nil {
				t.Fatalf("EvalBool(%q): %v", tt.src, err)
			}
			if got != tt.want {
				t.Errorf("EvalBool(%q) = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestCompileEmptyExpressionAlwaysTrue(t *testing.T) {
	for _, src := range []string{"", "   "} {
		e, err := Compile(src)
		if err != nil {
			t.Fatalf("Compile(%q): %v", src, err)
		}
		got, err := e.EvalBool(nil)
		if err != nil {
			t.Fatalf("EvalBool: %v", err)
		}
		if !got {
			t.Errorf("empty expression should evaluate to true")
		}
	}
}

func TestCompileSyntaxErrors(t *testing.T) {
	tests := []string{
		`document.title ==`,
		`(1 + 2`,
		`"unterminated`,
		`document..title`,
		`1 ~ 2`,
		`document.title == "a" extra`,
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			_, err := Compile(src)
			if err == nil {
				t.Fatalf("Compile(%q) succeeded, want syntax error", src)
			}
			var syntaxErr *SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Errorf("Compile(%q) returned %T, want *SyntaxError", src, err)
			}
		})
	}
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown identifier", `unknownVar == 1`},
		{"unknown field", `document.nonexistent == 1`},
		{"unknown method", `document.title.frobnicate()`},
		{"non-bool result", `1 + 1`},
		{"type mismatch", `document.title < 3`},
		{"not on string", `!document.title`},
		{"division by zero", `1 / 0 == 1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := Compile(tt.src)
			if err != nil {
				t.Fatalf("Compile(%q): %v", tt.src, err)
			}
			if _, err := e.EvalBool(testEnv()); err == nil {
				t.Errorf("EvalBool(%q) succeeded, want error", tt.src)
			}
		})
	}
}

func TestEvalShortCircuit(t *testing.T) {
	// The right operand would fail with an unknown identifier; the
	// short-circuit must prevent its evaluation.
	e, err := Compile(`false && bogus == 1`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	got, err := e.EvalBool(testEnv())
	if err != nil {
		t.Fatalf("EvalBool: %v", err)
	}
	if got {
		t.Error("false && ... should be false")
	}

	e, err = Compile(`true || bogus == 1`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	got, err = e.EvalBool(testEnv())
	if err != nil {
		t.Fatalf("EvalBool: %v", err)
	}
	if !got {
		t.Error("true || ... should be true")
	}
}

func TestEvalNoDocumentBound(t *testing.T) {
	e, err := Compile(`document.title == "x"`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := e.EvalBool(&Env{Vars: map[string]any{}}); err == nil {
		t.Error("expected error when no document is bound")
	}
}
