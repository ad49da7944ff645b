package sanitize_test

import (
	"strings"
	"testing"

	"github.com/flicky/brioso-market/internal/sanitize"
)

func TestText_Empty(t *testing.T) {
	if got := sanitize.Text("   "); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestText_PlainTextUnchanged(t *testing.T) {
	input := "Café de Taza & Leche, origen único"
	if got := sanitize.Text("  " + input + " "); got != input {
		t.Errorf("expected %q, got %q", input, got)
	}
}

func TestText_StripsTags(t *testing.T) {
	if got := sanitize.Text("<b>Tostado</b> <i>Oscuro</i>"); got != "Tostado Oscuro" {
		t.Errorf("expected tags stripped, got %q", got)
	}
}

func TestText_DropsScript(t *testing.T) {
	if got := sanitize.Text("Hola<script>alert('xss')</script>"); got != "Hola" {
		t.Errorf("expected script removed, got %q", got)
	}
}

func TestText_KeepsApostrophes(t *testing.T) {
	if got := sanitize.Text("Juan's beans"); got != "Juan's beans" {
		t.Errorf("expected apostrophe kept, got %q", got)
	}
}

func TestText_EncodedMarkupStaysDead(t *testing.T) {
	tests := map[string]string{
		"&lt;script&gt;alert(1)&lt;/script&gt;Café": "Café",
		"&lt;b&gt;Tostado&lt;/b&gt;":                  "Tostado",
		"&amp;lt;img src=x onerror=alert(1)&amp;gt;": "",
		"Precio &lt; 20":                              "Precio < 20",
	}
	for input, want := range tests {
		got := sanitize.Text(input)
		if got != want {
			t.Errorf("Text(%q) = %q, want %q", input, got, want)
		}
		if strings.Contains(got, "<script") || strings.Contains(got, "<img") {
			t.Errorf("Text(%q) kept live markup: %q", input, got)
		}
	}
}
