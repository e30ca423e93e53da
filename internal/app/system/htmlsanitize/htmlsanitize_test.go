package htmlsanitize_test

import (
	"testing"

	"github.com/dalemusser/roomdesk/internal/app/system/htmlsanitize"
)

func TestPlainText_Empty(t *testing.T) {
	if got := htmlsanitize.PlainText(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestPlainText_KeepsText(t *testing.T) {
	in := "2 Queen beds, non-smoking room"
	if got := htmlsanitize.PlainText(in); got != in {
		t.Errorf("got %q, want %q", got, in)
	}
}

func TestPlainText_StripsTags(t *testing.T) {
	in := "<b>Suite</b> with <script>alert('x')</script>view"
	if got := htmlsanitize.PlainText(in); got != "Suite with view" {
		t.Errorf("got %q", got)
	}
}

func TestPlainText_CollapsesWhitespace(t *testing.T) {
	if got := htmlsanitize.PlainText("  King \n  bed  "); got != "King bed" {
		t.Errorf("got %q", got)
	}
}

func TestPlainText_DecodesEntities(t *testing.T) {
	if got := htmlsanitize.PlainText("Tub & shower"); got != "Tub & shower" {
		t.Errorf("got %q", got)
	}
}
