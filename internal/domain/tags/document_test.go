package tags

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDocument(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Entry
		wantMsg string
	}{
		{
			name:  "bare strings",
			input: `{"values":["minecraft:stone","#minecraft:wool"]}`,
			want:  []Entry{BareReference("minecraft:stone"), BareReference("#minecraft:wool")},
		},
		{
			name:  "annotated entries",
			input: `{"values":[{"id":"minecraft:dirt","required":false},{"id":"$slimefun:ores","required":true}]}`,
			want: []Entry{
				AnnotatedReference{ID: "minecraft:dirt", Required: false},
				AnnotatedReference{ID: "$slimefun:ores", Required: true},
			},
		},
		{
			name:  "extra fields ignored",
			input: `{"replace":false,"values":[{"id":"minecraft:dirt","required":true,"comment":"x"}]}`,
			want:  []Entry{AnnotatedReference{ID: "minecraft:dirt", Required: true}},
		},
		{
			name:  "empty values",
			input: `{"values":[]}`,
			want:  []Entry{},
		},
		{name: "invalid json", input: `{"values":[`, wantMsg: "invalid JSON"},
		{name: "empty input", input: ``, wantMsg: "invalid JSON"},
		{name: "top level array", input: `["minecraft:stone"]`, wantMsg: "expected a JSON object but found array"},
		{name: "missing values", input: `{}`, wantMsg: "no values array specified"},
		{name: "values not array", input: `{"values":"minecraft:stone"}`, wantMsg: "no values array specified"},
		{name: "values null", input: `{"values":null}`, wantMsg: "no values array specified"},
		{name: "number element", input: `{"values":[42]}`, wantMsg: "unexpected value format: number - 42"},
		{name: "nested array element", input: `{"values":[["a:b"]]}`, wantMsg: "unexpected value format: array - [\"a:b\"]"},
		{name: "missing id", input: `{"values":[{"required":true}]}`, wantMsg: "found a JSON object value without an id"},
		{name: "missing required", input: `{"values":[{"id":"minecraft:stone"}]}`, wantMsg: "found a JSON object value without an id"},
		{name: "id wrong type", input: `{"values":[{"id":5,"required":true}]}`, wantMsg: "found a JSON object value without an id"},
		{name: "required wrong type", input: `{"values":[{"id":"a:b","required":"yes"}]}`, wantMsg: "found a JSON object value without an id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDocument([]byte(tt.input))
			if tt.wantMsg != "" {
				require.Error(t, err)
				require.ErrorIs(t, err, ErrMalformedInput)
				require.Contains(t, err.Error(), tt.wantMsg)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestEntry_Reference(t *testing.T) {
	require.Equal(t, "a:b", BareReference("a:b").Reference())
	require.Equal(t, "c:d", AnnotatedReference{ID: "c:d"}.Reference())
}
