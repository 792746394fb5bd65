package ai

import (
	"testing"
)

func TestUnmarshalFlexible(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantEntities int
		wantErr      bool
	}{
		{
			name:         "clean json",
			input:        `{"entities":[{"name":"Acme","type":"organization","description":"x"}],"relations":[]}`,
			wantEntities: 1,
		},
		{
			name:         "fenced json",
			input:        "```json\n{\"entities\":[{\"name\":\"Acme\"}],\"relations\":[]}\n```",
			wantEntities: 1,
		},
		{
			name:         "bare fence",
			input:        "```\n{\"entities\":[],\"relations\":[]}\n```",
			wantEntities: 0,
		},
		{
			name:         "double encoded",
			input:        `"{\"entities\":[{\"name\":\"Acme\"}],\"relations\":[]}"`,
			wantEntities: 1,
		},
		{
			name:         "trailing comma repaired",
			input:        `{"entities":[{"name":"Acme",}],"relations":[],}`,
			wantEntities: 1,
		},
		{
			name:         "single quotes repaired",
			input:        `{'entities':[{'name':'Acme'}],'relations':[]}`,
			wantEntities: 1,
		},
		{
			name:    "hopeless input",
			input:   "the model refused to answer",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out ExtractionResult
			err := UnmarshalFlexible(tt.input, &out)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("UnmarshalFlexible failed: %v", err)
			}
			if len(out.Entities) != tt.wantEntities {
				t.Errorf("entities = %d, want %d", len(out.Entities), tt.wantEntities)
			}
		})
	}
}

func TestGenerateSchema(t *testing.T) {
	schema := GenerateSchema(&ExtractionResult{})
	if schema == nil {
		t.Fatal("expected a schema")
	}
}
