package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/byteowlz/trackr/internal/weather"
	"github.com/byteowlz/trackr/pkg/trackr"
)

func sampleListing() *trackr.Listing {
	return &trackr.Listing{
		Source: "geeknews",
		Title:  "GeekNews Tracker",
		Page:   2,
		URL:    "https://news.hada.io/new?page=2",
		Items: []trackr.Entry{
			{
				Title:       "Show GN: <script>alert(1)</script>[beta] tool",
				URL:         "https://example.com/tool",
				Description: "A small tool that does one thing well and stays out of the way",
				InfoURL:     "https://news.hada.io/topic?id=1",
			},
			{
				Title:       "Second",
				URL:         "https://example.com/second",
				Description: "No description available",
				Summary:     "Short summary.",
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"Markdown", FormatMarkdown, false},
		{"json", FormatJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestListing_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := Listing(&buf, FormatText, sampleListing(), 40); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"GeekNews Tracker (page 2)\n",
		"\n1. Show GN:",
		"   https://example.com/tool\n",
		"   Comments: https://news.hada.io/topic?id=1\n",
		"   Summary: Short summary.\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "   A small") && len(line) > 40 {
			t.Errorf("description line not wrapped: %q", line)
		}
	}
}

func TestListing_Markdown(t *testing.T) {
	var buf bytes.Buffer
	if err := Listing(&buf, FormatMarkdown, sampleListing(), 0); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if strings.Contains(out, "<script>") {
		t.Errorf("markup should be stripped:\n%s", out)
	}
	if !strings.Contains(out, `1. [Show GN: \[beta\] tool](https://example.com/tool)`) {
		t.Errorf("expected escaped link text:\n%s", out)
	}
	if !strings.Contains(out, "[comments](https://news.hada.io/topic?id=1)") {
		t.Errorf("expected comments link:\n%s", out)
	}
}

func TestListing_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Listing(&buf, FormatJSON, sampleListing(), 0); err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		Title string `json:"title"`
		Items []struct {
			URL     string `json:"url"`
			InfoURL string `json:"info_url"`
		} `json:"items"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Title != "GeekNews Tracker" || len(decoded.Items) != 2 {
		t.Errorf("unexpected decoded listing: %+v", decoded)
	}
	if strings.Contains(buf.String(), `"info_url": ""`) {
		t.Error("empty info_url should be omitted")
	}
}

func TestWeather(t *testing.T) {
	r := &weather.Reading{City: "Seoul", TempC: 21.26, Band: weather.BandWarm}

	tests := []struct {
		format Format
		want   string
	}{
		{FormatText, "Seoul: 21.3°C (warm)\n"},
		{FormatMarkdown, `**Seoul** 21.3°C <span style="color:#f39c12">warm</span>` + "\n"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if err := Weather(&buf, tt.format, r); err != nil {
			t.Fatal(err)
		}
		if buf.String() != tt.want {
			t.Errorf("%s: got %q, want %q", tt.format, buf.String(), tt.want)
		}
	}
}

func TestSummary_Text(t *testing.T) {
	var buf bytes.Buffer
	s := &trackr.Summary{URL: "https://example.com/a", Title: "A", Text: "one two three four"}
	if err := Summary(&buf, FormatText, s, 9); err != nil {
		t.Fatal(err)
	}
	want := "A\nhttps://example.com/a\n\none two\nthree\nfour\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestSources(t *testing.T) {
	var buf bytes.Buffer
	err := Sources(&buf, FormatText, []trackr.SourceInfo{{Name: "clien", Title: "Clien Tracker", URL: "https://www.clien.net"}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "clien      Clien Tracker") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  string
	}{
		{"a b c", 0, "a b c"},
		{"aaa bbb ccc", 7, "aaa bbb\nccc"},
		{"one\n\ntwo three", 5, "one\n\ntwo\nthree"},
		{"가나 다라 마바", 5, "가나 다라\n마바"},
	}
	for _, tt := range tests {
		if got := wrapText(tt.text, tt.width); got != tt.want {
			t.Errorf("wrapText(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
		}
	}
}
