package hairstyle

import (
	"strings"
	"testing"

	"github.com/sellaverya-ship-it/Virtual-Hairstyle-AI/internal/domain"
)

func TestBuildDirectiveCoversEveryPreference(t *testing.T) {
	for _, pref := range domain.Preferences {
		t.Run(string(pref), func(t *testing.T) {
			directive := BuildDirective(RenderRequest{
				Hairstyle:          "Textured Crop",
				OriginalHairLength: "shoulder length",
				Preference:         pref,
			})
			if !strings.Contains(directive, domain.SeverityDirectives[pref]) {
				t.Fatalf("directive does not carry the %s severity wording:\n%s", pref, directive)
			}
			if !strings.Contains(directive, `"Textured Crop"`) {
				t.Fatalf("directive does not name the style:\n%s", directive)
			}
			if !strings.Contains(directive, "the cutting instruction wins") {
				t.Fatalf("directive does not state severity precedence:\n%s", directive)
			}
			if !strings.Contains(directive, "Change nothing except the hair") {
				t.Fatalf("directive does not protect identity:\n%s", directive)
			}
			if !strings.Contains(directive, "shoulder length") {
				t.Fatalf("directive omits the current hair length:\n%s", directive)
			}
		})
	}
}

func TestBuildDirectiveUnknownPreferenceFallsBackToMedium(t *testing.T) {
	directive := BuildDirective(RenderRequest{Hairstyle: "Bob", Preference: "mystery"})
	if !strings.Contains(directive, domain.SeverityDirectives[domain.CutMedium]) {
		t.Fatalf("expected the medium severity fallback:\n%s", directive)
	}
}

func TestBuildDirectiveOmitsUnknownHairLength(t *testing.T) {
	directive := BuildDirective(RenderRequest{Hairstyle: "Bob", Preference: domain.CutShort})
	if strings.Contains(directive, "current hair length") {
		t.Fatalf("directive mentions a hair length nobody supplied:\n%s", directive)
	}
}

func TestBuildDirectiveCaptionLanguage(t *testing.T) {
	en := BuildDirective(RenderRequest{Hairstyle: "Bob", Preference: domain.CutShort, Locale: "en"})
	if strings.Contains(en, "Indonesian") {
		t.Fatalf("english directive asks for Indonesian:\n%s", en)
	}
	id := BuildDirective(RenderRequest{Hairstyle: "Bob", Preference: domain.CutShort, Locale: "id"})
	if !strings.Contains(id, "Indonesian") {
		t.Fatalf("id directive does not ask for Indonesian:\n%s", id)
	}
}

func TestDefaultCaption(t *testing.T) {
	cases := []struct {
		hairstyle string
		locale    string
		want      string
	}{
		{hairstyle: "pixie cut", locale: "en", want: "Your new look with a Pixie Cut."},
		{hairstyle: "french crop", locale: "", want: "Your new look with a French Crop."},
		{hairstyle: "bob pendek", locale: "id", want: "Tampilan baru dengan gaya Bob Pendek."},
	}
	for _, tc := range cases {
		if got := DefaultCaption(tc.hairstyle, tc.locale); got != tc.want {
			t.Errorf("DefaultCaption(%q, %q) = %q, want %q", tc.hairstyle, tc.locale, got, tc.want)
		}
	}
}
