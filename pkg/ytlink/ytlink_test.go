package ytlink

import (
	"testing"

	"tunepipe/internal/core"
)

func TestClassify_SingleVariantsShareCanonicalID(t *testing.T) {
	const wantID = "dQw4w9WgXcQ"

	inputs := []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"http://youtube.com/watch?v=dQw4w9WgXcQ",
		"https://m.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://music.youtube.com/watch?v=dQw4w9WgXcQ&si=tracking",
		"https://youtu.be/dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ?t=42",
		"https://www.youtube.com/shorts/dQw4w9WgXcQ",
		"youtube.com/shorts/dQw4w9WgXcQ?feature=share",
		"https://www.youtube.com/embed/dQw4w9WgXcQ",
		"https://www.youtube.com/v/dQw4w9WgXcQ#frag",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			link := Classify(input)
			if link.Kind != core.KindSingle {
				t.Fatalf("Classify(%q).Kind = %v, want %v", input, link.Kind, core.KindSingle)
			}
			if link.ID != wantID {
				t.Errorf("Classify(%q).ID = %q, want %q", input, link.ID, wantID)
			}
			if link.SourceURL != core.WatchURL(wantID) {
				t.Errorf("Classify(%q).SourceURL = %q, want canonical watch URL", input, link.SourceURL)
			}
		})
	}
}

func TestClassify_CollectionWinsOverSingle(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantID string
	}{
		{
			name:   "watch link with list parameter",
			input:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLabc123_-",
			wantID: "PLabc123_-",
		},
		{
			name:   "plain playlist link",
			input:  "https://www.youtube.com/playlist?list=PLxyz789",
			wantID: "PLxyz789",
		},
		{
			name:   "music playlist link",
			input:  "https://music.youtube.com/playlist?list=RDCLAK5uy",
			wantID: "RDCLAK5uy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := Classify(tt.input)
			if link.Kind != core.KindCollection {
				t.Fatalf("Classify(%q).Kind = %v, want %v", tt.input, link.Kind, core.KindCollection)
			}
			if link.ID != tt.wantID {
				t.Errorf("Classify(%q).ID = %q, want %q", tt.input, link.ID, tt.wantID)
			}
		})
	}
}

func TestClassify_InvalidInputs(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"never gonna give you up",
		"https://example.com/watch?v=dQw4w9WgXcQ",
		"https://vimeo.com/12345",
	}

	for _, input := range inputs {
		if link := Classify(input); link.Kind != core.KindInvalid {
			t.Errorf("Classify(%q).Kind = %v, want %v", input, link.Kind, core.KindInvalid)
		}
	}
}

func TestExtractVideoID(t *testing.T) {
	id, ok := ExtractVideoID("https://youtu.be/dQw4w9WgXcQ")
	if !ok || id != "dQw4w9WgXcQ" {
		t.Errorf("ExtractVideoID() = %q, %v, want dQw4w9WgXcQ, true", id, ok)
	}

	if _, ok := ExtractVideoID("just some words"); ok {
		t.Error("ExtractVideoID() matched free text")
	}

	// A collection link is not a single item.
	if _, ok := ExtractVideoID("https://www.youtube.com/playlist?list=PLxyz"); ok {
		t.Error("ExtractVideoID() matched a playlist link")
	}
}

func TestCleanQuery(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  hello world  ", "hello world"},
		{"hello#fragment", "hello"},
		{"some song &feature=share", "some song"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CleanQuery(tt.input); got != tt.want {
			t.Errorf("CleanQuery(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
