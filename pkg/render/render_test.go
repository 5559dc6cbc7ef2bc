package render

import (
	"bytes"
	"strings"
	"testing"
)

func TestTable(t *testing.T) {
	got := Table([]string{"ID", "NAME"}, [][]string{
		{"7", "API"},
		{"12", "Ünïcode"},
		{"3", "日本"},
	})
	want := strings.Join([]string{
		"ID  NAME",
		"7   API",
		"12  Ünïcode",
		"3   日本",
	}, "\n")
	if got != want {
		t.Errorf("Table =\n%s\nwant\n%s", got, want)
	}
}

// TestTableWideRunes verifies columns after a wide rune stay aligned.
func TestTableWideRunes(t *testing.T) {
	got := Table(nil, [][]string{
		{"日本", "x"},
		{"ab", "y"},
	})
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if lines[0] != "日本  x" || lines[1] != "ab    y" {
		t.Errorf("unexpected layout: %q", lines)
	}
}

func TestPrettyJSON(t *testing.T) {
	out, err := PrettyJSON([]byte(` {"a":[1,2],"b":"c"} `), false)
	if err != nil {
		t.Fatalf("PrettyJSON: %v", err)
	}
	want := "{\n  \"a\": [\n    1,\n    2\n  ],\n  \"b\": \"c\"\n}"
	if out != want {
		t.Errorf("PrettyJSON = %q", out)
	}
	if _, err := PrettyJSON([]byte("<html>"), false); err == nil {
		t.Error("expected error for non-JSON body")
	}
}

func TestPrettyJSONColor(t *testing.T) {
	out, err := PrettyJSON([]byte(`{"a":1}`), true)
	if err != nil {
		t.Fatalf("PrettyJSON: %v", err)
	}
	if !strings.Contains(out, "\x1b[") {
		t.Errorf("expected ANSI escapes, got %q", out)
	}
}

func TestValue(t *testing.T) {
	if got := Value("plain", false); got != "plain" {
		t.Errorf("Value(string) = %q", got)
	}
	if got := Value(float64(3), false); got != "3" {
		t.Errorf("Value(number) = %q", got)
	}
	if got := Value(map[string]any{"k": true}, false); got != "{\n  \"k\": true\n}" {
		t.Errorf("Value(map) = %q", got)
	}
}

func TestMarkdownPlain(t *testing.T) {
	out := Markdown("# Title\n\n- `host`: select a host\n", 60, false)
	for _, want := range []string{"Title", "host", "select a host"} {
		if !strings.Contains(out, want) {
			t.Errorf("Markdown missing %q: %q", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("plain markdown contains escapes: %q", out)
	}
}

func TestColorEnabled(t *testing.T) {
	var buf bytes.Buffer
	if !ColorEnabled(ColorAlways, &buf) {
		t.Error("always should enable color")
	}
	if ColorEnabled(ColorNever, &buf) {
		t.Error("never should disable color")
	}
	if ColorEnabled(ColorAuto, &buf) {
		t.Error("auto should disable color for a non-terminal writer")
	}
}

func TestNewStylesPlain(t *testing.T) {
	var buf bytes.Buffer
	st := NewStyles(&buf, false)
	if st.Color() {
		t.Error("Color() = true")
	}
	if got := st.Failed.Render("Failed:"); got != "Failed:" {
		t.Errorf("plain style rendered %q", got)
	}
}
