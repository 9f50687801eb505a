package content

import "testing"

func TestEmbedImages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"inline", "check https://x.com/a.png out", "check  ![Image](https://x.com/a.png)  out"},
		{"start of string", "https://x.com/a.jpg", " ![Image](https://x.com/a.jpg) "},
		{"jpeg uppercase", "pic HTTPS://x.com/A.JPEG", "pic  ![Image](HTTPS://x.com/A.JPEG) "},
		{"query string", "see https://x.com/a.gif?w=200 now", "see  ![Image](https://x.com/a.gif?w=200)  now"},
		{"trailing period", "look: https://x.com/a.bmp.", "look:  ![Image](https://x.com/a.bmp) ."},
		{"not an image", "https://x.com/a.pdf", "https://x.com/a.pdf"},
		{"already markdown", "![Image](https://x.com/a.png)", "![Image](https://x.com/a.png)"},
		{"inside attribute", `<img src="https://x.com/a.png">`, `<img src="https://x.com/a.png">`},
		{"extension mid-path", "https://x.com/a.png/page", "https://x.com/a.png/page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EmbedImages(tt.input); got != tt.want {
				t.Errorf("EmbedImages(%q)\n got: %q\nwant: %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEmbedImagesIdempotent(t *testing.T) {
	t.Parallel()

	once := EmbedImages("a https://x.com/a.png b")
	if twice := EmbedImages(once); twice != once {
		t.Errorf("second pass changed output:\n%q\n%q", once, twice)
	}
}

func TestEmbedVideos(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		legacy bool
		want   string
	}{
		{"mp4", "https://x.com/v.mp4", false,
			` <video controls><source src="https://x.com/v.mp4" type="video/mp4"></video> `},
		{"webm", "https://x.com/v.webm", false,
			` <video controls><source src="https://x.com/v.webm" type="video/webm"></video> `},
		{"mov", "https://x.com/v.MOV", false,
			` <video controls><source src="https://x.com/v.MOV" type="video/quicktime"></video> `},
		{"ogg with query", "https://x.com/v.ogg?t=1", false,
			` <video controls><source src="https://x.com/v.ogg?t=1" type="video/ogg"></video> `},
		{"legacy webm", "https://x.com/v.webm", true,
			` <video controls><source src="https://x.com/v.webm" type="video/mp4"></video> `},
		{"image ignored", "https://x.com/a.png", false, "https://x.com/a.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EmbedVideos(tt.input, tt.legacy); got != tt.want {
				t.Errorf("EmbedVideos(%q, %v)\n got: %q\nwant: %q", tt.input, tt.legacy, got, tt.want)
			}
		})
	}
}

func TestEmbedAudio(t *testing.T) {
	t.Parallel()

	got := EmbedAudio("listen https://x.com/song.mp3")
	want := `listen  <audio controls><source src="https://x.com/song.mp3" type="audio/mpeg"></audio> `
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	if got := EmbedAudio("https://x.com/v.mp4"); got != "https://x.com/v.mp4" {
		t.Errorf("non-audio URL rewritten: %q", got)
	}
}

func TestMediaStagesCompose(t *testing.T) {
	t.Parallel()

	in := "a https://x.com/1.png b https://x.com/2.mp4 c https://x.com/3.mp3"
	got := EmbedAudio(EmbedVideos(EmbedImages(in), false))
	want := `a  ![Image](https://x.com/1.png)  b  <video controls><source src="https://x.com/2.mp4" type="video/mp4"></video>  c  <audio controls><source src="https://x.com/3.mp3" type="audio/mpeg"></audio> `
	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestMediaExt(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"https://x.com/a.MP4":       ".mp4",
		"https://x.com/a.webm?x=.y": ".webm",
		"https://x.com/a":           "",
	}
	for in, want := range tests {
		if got := mediaExt(in); got != want {
			t.Errorf("mediaExt(%q) = %q, want %q", in, got, want)
		}
	}
}
