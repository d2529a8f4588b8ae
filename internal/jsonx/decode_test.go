package jsonx

import "testing"

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "bare object",
			raw:  `{"a": 1}`,
			want: `{"a": 1}`,
		},
		{
			name: "json fence",
			raw:  "```json\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "plain fence",
			raw:  "```\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "surrounding prose",
			raw:  `Sure, here is the result: {"a": 1} Let me know if you need more.`,
			want: `{"a": 1}`,
		},
		{
			name: "nested objects",
			raw:  `{"outer": {"inner": 2}}`,
			want: `{"outer": {"inner": 2}}`,
		},
		{
			name: "braces inside strings",
			raw:  `{"text": "use {braces} carefully"}`,
			want: `{"text": "use {braces} carefully"}`,
		},
		{
			name: "escaped quote inside string",
			raw:  `{"text": "she said \"done{\" loudly"}`,
			want: `{"text": "she said \"done{\" loudly"}`,
		},
		{
			name:    "no object",
			raw:     "I could not produce any structured output.",
			wantErr: true,
		},
		{
			name:    "unterminated object",
			raw:     `{"a": 1`,
			wantErr: true,
		},
		{
			name:    "empty input",
			raw:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractObject(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractObject() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ExtractObject() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	var p payload
	raw := "Here you go:\n```json\n{\"name\": \"demo\", \"count\": 3, \"extra\": true}\n```"
	if err := Decode(raw, &p); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if p.Name != "demo" || p.Count != 3 {
		t.Errorf("Decode() = %+v, want name=demo count=3", p)
	}
}

func TestDecodeStrict_RejectsUnknownFields(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	var p payload
	if err := DecodeStrict(`{"name": "demo", "extra": 1}`, &p); err == nil {
		t.Error("DecodeStrict() expected error for unknown field, got nil")
	}
	if err := DecodeStrict(`{"name": "demo"}`, &p); err != nil {
		t.Errorf("DecodeStrict() error = %v", err)
	}
}
