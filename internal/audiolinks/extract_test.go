package audiolinks

import "testing"

func TestExtractStrategyOrder(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
		ok   bool
	}{
		{
			name: "typed mp3 source wins",
			html: `<a href="/dl/x.mp3">dl</a><audio><source type="audio/mpeg" src="b.m4a"><source type="audio/mp3" src="a.mp3"></audio>`,
			want: "a.mp3",
			ok:   true,
		},
		{
			name: "typed mp3 source without extension is skipped",
			html: `<source type="audio/mp3" src="stream"><source type="audio/m4a" src="https://cdn/x.M4A?t=1">`,
			want: "https://cdn/x.M4A?t=1",
			ok:   true,
		},
		{
			name: "any source",
			html: `<video><source src="clip.mp4"></video><source src="ep.mp3">`,
			want: "ep.mp3",
			ok:   true,
		},
		{
			name: "audio tag",
			html: `<audio src="foo.mp3"></audio>`,
			want: "foo.mp3",
			ok:   true,
		},
		{
			name: "hyperlink",
			html: `<a href="/about">About</a><a href="https://cdn.test/e1.mp3">Download</a>`,
			want: "https://cdn.test/e1.mp3",
			ok:   true,
		},
		{
			name: "no audio markup",
			html: `<p>Listen on Spotify</p><a href="https://open.spotify.com/x">x</a>`,
			ok:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := Extract([]byte(tt.html))
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if got != tt.want || ok != tt.ok {
				t.Fatalf("Extract = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}
