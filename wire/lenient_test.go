package wire

import (
	"reflect"
	"testing"
)

func TestNormalizeQuotes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "simple dict",
			in:   `{'phase': 'generating', 'sequence': 5}`,
			want: `{"phase": "generating", "sequence": 5}`,
		},
		{
			name: "escaped single quote becomes apostrophe",
			in:   `{'message': 'it\'s ready'}`,
			want: `{"message": "it's ready"}`,
		},
		{
			name: "double quote inside single-quoted string is escaped",
			in:   `{'message': 'class="hero"'}`,
			want: `{"message": "class=\"hero\""}`,
		},
		{
			name: "double-quoted strings pass through",
			in:   `{"message": "already \"fine\""}`,
			want: `{"message": "already \"fine\""}`,
		},
		{
			name: "apostrophe free text untouched",
			in:   `plain text`,
			want: `plain text`,
		},
		{
			name: "dangling backslash preserved",
			in:   `{'message': 'oops\`,
			want: `{"message": "oops\`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeQuotes(tt.in); got != tt.want {
				t.Errorf("normalizeQuotes(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseObject(t *testing.T) {
	obj, ok := parseObject(`{'phase': 'analyzing', 'message': 'hi', 'sequence': 2}`)
	if !ok {
		t.Fatal("lenient parse failed")
	}
	want := map[string]any{"phase": "analyzing", "message": "hi", "sequence": float64(2)}
	if !reflect.DeepEqual(obj, want) {
		t.Errorf("got %v, want %v", obj, want)
	}

	if _, ok := parseObject(`{broken}`); ok {
		t.Error("unquoted keys must fail both passes")
	}
}
