package track

import (
	"testing"
)

func TestNormalizeFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"MP3", FormatMP3},
		{"mp3", FormatMP3},
		{"  flac ", FormatFLAC},
		{"Wav", FormatWAV},
		{"aiff", FormatAIFF},
		{"vinyl", FormatVinyl},
		{"VINYL", FormatVinyl},
		{"Vinyl", FormatVinyl},
		{"other", FormatOther},
		{"", FormatOther},
		{"   ", FormatOther},
		{"cassette", FormatOther},
		{"m4a", FormatOther},
		{"mp 3", FormatOther},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := NormalizeFormat(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeFormat_CanonicalAndIdempotent(t *testing.T) {
	inputs := []string{"", "mp3", "FLAC", "wav ", "Aiff", "vinyl", "OTHER", "8-track", "ＭＰ３", "vinyl\n"}

	canonical := make(map[Format]bool, len(Formats))
	for _, f := range Formats {
		canonical[f] = true
	}

	for _, in := range inputs {
		once := NormalizeFormat(in)
		if !canonical[once] {
			t.Errorf("NormalizeFormat(%q) = %q, not a canonical format", in, once)
		}
		if twice := NormalizeFormat(string(once)); twice != once {
			t.Errorf("NormalizeFormat not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input string
		want  Status
	}{
		{"owned", StatusOwned},
		{"OWNED", StatusOwned},
		{" Owned ", StatusOwned},
		{"wanted", StatusWanted},
		{"", StatusWanted},
		{"borrowed", StatusWanted},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseStatus(tt.input); got != tt.want {
				t.Errorf("ParseStatus(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	in := Track{
		Title:       "  Xtal ",
		Artist:      " Aphex Twin",
		Format:      "vinyl",
		Status:      "",
		Key:         "8a",
		BPM:         -4,
		ReleaseYear: -1,
	}

	got := Normalize(in)

	if got.Title != "Xtal" {
		t.Errorf("Title = %q, want %q", got.Title, "Xtal")
	}
	if got.Artist != "Aphex Twin" {
		t.Errorf("Artist = %q, want %q", got.Artist, "Aphex Twin")
	}
	if got.Format != FormatVinyl {
		t.Errorf("Format = %q, want %q", got.Format, FormatVinyl)
	}
	if got.Status != StatusWanted {
		t.Errorf("Status = %q, want %q", got.Status, StatusWanted)
	}
	if got.Key != "8A" {
		t.Errorf("Key = %q, want %q", got.Key, "8A")
	}
	if got.BPM != 0 || got.ReleaseYear != 0 {
		t.Errorf("negative numbers not cleared: bpm=%v year=%v", got.BPM, got.ReleaseYear)
	}

	if again := Normalize(got); again != got {
		t.Errorf("Normalize not idempotent: %+v then %+v", got, again)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(Track{Title: "Xtal"}); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
	for _, title := range []string{"", "   ", "\t"} {
		if err := Validate(Track{Title: title}); err != ErrEmptyTitle {
			t.Errorf("Validate(%q) error = %v, want %v", title, err, ErrEmptyTitle)
		}
	}
}

func TestDuplicateKey(t *testing.T) {
	tests := []struct {
		name       string
		a, b       Track
		duplicates bool
	}{
		{
			name:       "identical",
			a:          Track{Title: "Xtal", Artist: "Aphex Twin"},
			b:          Track{Title: "Xtal", Artist: "Aphex Twin"},
			duplicates: true,
		},
		{
			name:       "different case",
			a:          Track{Title: "Xtal", Artist: "Aphex Twin"},
			b:          Track{Title: "XTAL", Artist: "aphex twin"},
			duplicates: true,
		},
		{
			name:       "surrounding whitespace",
			a:          Track{Title: "Xtal", Artist: "Aphex Twin"},
			b:          Track{Title: " Xtal", Artist: "Aphex Twin "},
			duplicates: true,
		},
		{
			name:       "different artist",
			a:          Track{Title: "Xtal", Artist: "Aphex Twin"},
			b:          Track{Title: "Xtal", Artist: "AFX"},
			duplicates: false,
		},
		{
			name:       "title and artist are not concatenated",
			a:          Track{Title: "ab", Artist: "c"},
			b:          Track{Title: "a", Artist: "bc"},
			duplicates: false,
		},
		{
			name:       "both artists empty",
			a:          Track{Title: "Untitled"},
			b:          Track{Title: "untitled"},
			duplicates: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.DuplicateKey() == tt.b.DuplicateKey()
			if got != tt.duplicates {
				t.Errorf("duplicate = %v, want %v", got, tt.duplicates)
			}
		})
	}
}

func TestParseCamelot(t *testing.T) {
	tests := []struct {
		key      string
		position int
		minor    bool
		ok       bool
	}{
		{"8A", 8, true, true},
		{"8a", 8, true, true},
		{"12B", 12, false, true},
		{" 1b ", 1, false, true},
		{"13A", 0, false, false},
		{"0A", 0, false, false},
		{"A", 0, false, false},
		{"F#m", 0, false, false},
		{"", 0, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			pos, minor, ok := ParseCamelot(tt.key)
			if pos != tt.position || minor != tt.minor || ok != tt.ok {
				t.Errorf("ParseCamelot(%q) = (%d, %v, %v), want (%d, %v, %v)",
					tt.key, pos, minor, ok, tt.position, tt.minor, tt.ok)
			}
		})
	}
}

func TestSamples(t *testing.T) {
	samples := Samples(fixedNow)
	if len(samples) != 3 {
		t.Fatalf("len(Samples()) = %d, want 3", len(samples))
	}

	ids := make(map[string]bool)
	slugs := make(map[string]bool)
	keys := make(map[string]bool)
	for _, s := range samples {
		if s.ID == "" || s.Slug == "" {
			t.Errorf("sample %q missing id or slug", s.Title)
		}
		if ids[s.ID] || slugs[s.Slug] || keys[s.DuplicateKey()] {
			t.Errorf("sample %q is not unique", s.Title)
		}
		ids[s.ID] = true
		slugs[s.Slug] = true
		keys[s.DuplicateKey()] = true

		if Normalize(s) != s {
			t.Errorf("sample %q is not normalized", s.Title)
		}
	}
}
