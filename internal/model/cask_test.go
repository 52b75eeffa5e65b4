package model

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCaskURLUnmarshal(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input   string
		want    CaskURL
		wantErr bool
	}{
		"success: bare string": {
			input: `"https://example.com/app.dmg"`,
			want:  CaskURL{URL: "https://example.com/app.dmg"},
		},
		"success: object with metadata": {
			input: `{"url": "https://example.com/app.dmg", "verified": "example.com"}`,
			want:  CaskURL{URL: "https://example.com/app.dmg", Verified: "example.com"},
		},
		"success: object with referer": {
			input: `{"url": "https://cdn.example.com/x.zip", "referer": "https://example.com"}`,
			want:  CaskURL{URL: "https://cdn.example.com/x.zip", Referer: "https://example.com"},
		},
		"error: not a string or object": {
			input:   `42`,
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var got CaskURL
			err := json.Unmarshal([]byte(tc.input), &got)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("CaskURL mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCaskUnmarshalFullDefinition(t *testing.T) {
	t.Parallel()

	raw := `{
		"token": "spyglass",
		"version": "2.1.0",
		"url": "https://example.com/spyglass-2.1.0.dmg",
		"sha256": "deadbeef"
	}`

	var c Cask
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.URL == nil {
		t.Fatal("url field not parsed")
	}
	if got, want := c.URL.URL, "https://example.com/spyglass-2.1.0.dmg"; got != want {
		t.Errorf("url = %q, want %q", got, want)
	}
}

func TestCaskURLMarshalRoundTrip(t *testing.T) {
	t.Parallel()

	plain := CaskURL{URL: "https://example.com/a.zip"}
	data, err := json.Marshal(plain)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"https://example.com/a.zip"` {
		t.Errorf("plain url should marshal to bare string, got %s", data)
	}

	rich := CaskURL{URL: "https://example.com/a.zip", Verified: "example.com"}
	data, err = json.Marshal(rich)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back CaskURL
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(rich, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
