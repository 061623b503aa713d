package qqmusic

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected int
	}{
		{"nil", nil, 0},
		{"json number", json.Number("233"), 233},
		{"fractional number", json.Number("233.9"), 233},
		{"float", 120.0, 120},
		{"minutes seconds", "3:54", 234},
		{"chinese units", "3分20秒", 200},
		{"chinese units without digits", "分秒", 0},
		{"numeric string", "215", 215},
		{"empty string", "", 0},
		{"garbage", "about four minutes", 0},
		{"garbage with colon", "a:b", 0},
		{"nan", "NaN", 0},
		{"object", map[string]interface{}{"s": 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseDuration(tt.input); got != tt.expected {
				t.Errorf("ParseDuration(%v) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestArtistDisplay(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{"nil", nil, ""},
		{"list of objects", []interface{}{
			map[string]interface{}{"name": "A"},
			map[string]interface{}{"title": "B"},
			map[string]interface{}{"singer_name": "C"},
		}, "A, B, C"},
		{"list skips blanks", []interface{}{map[string]interface{}{}, "D"}, "D"},
		{"single object", map[string]interface{}{"name": "E", "title": "ignored"}, "E"},
		{"bare string", "F", "F"},
		{"number", json.Number("7"), "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ArtistDisplay(tt.input); got != tt.expected {
				t.Errorf("ArtistDisplay() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAlbumName(t *testing.T) {
	if got := AlbumName(map[string]interface{}{"title": "T"}); got != "T" {
		t.Errorf("Expected title fallback, got %q", got)
	}
	if got := AlbumName("Plain"); got != "Plain" {
		t.Errorf("Expected bare album string, got %q", got)
	}
	if got := AlbumName(nil); got != "" {
		t.Errorf("Expected empty album, got %q", got)
	}
}

func TestSongItem_DisplayTitlePrecedence(t *testing.T) {
	item := songItem{Name: "name", SongName: "songname", Title: "title"}
	if got := item.displayTitle(); got != "name" {
		t.Errorf("Expected name before songname and title, got %q", got)
	}

	item.Song = "song"
	if got := item.displayTitle(); got != "song" {
		t.Errorf("Expected song first, got %q", got)
	}

	var decoded songItem
	if err := wire.UnmarshalFromString(`{"songname":"lower","songName":"camel"}`, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.SongName != "lower" || decoded.AltName != "camel" {
		t.Errorf("Expected case-sensitive keys, got %+v", decoded)
	}
}

func TestUnwrapCallback(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
		wantErr  bool
	}{
		{"wrapped", `cb({"a":1})`, `{"a":1}`, false},
		{"wrapped with semicolon and whitespace", " cb( {\"a\":1} );\n", `{"a":1}`, false},
		{"bare json", `{"a":1}`, `{"a":1}`, false},
		{"other callback", `other({"a":1})`, "", true},
		{"unterminated", `cb({"a":1}`, "", true},
		{"html error page", `<html>busy</html>`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnwrapCallback(tt.body, "cb")
			if tt.wantErr {
				if !errors.Is(err, ErrEnvelopeShape) {
					t.Errorf("Expected ErrEnvelopeShape, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParseLyricEnvelope(t *testing.T) {
	blobs, err := ParseLyricEnvelope(LyricCallback + `({"retcode":0,"lyric":"bHlyaWM=","trans":"dHJhbnM="})`)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if blobs.Synced != "bHlyaWM=" || blobs.Translated != "dHJhbnM=" {
		t.Errorf("Unexpected blobs %+v", blobs)
	}

	if _, err := ParseLyricEnvelope(LyricCallback + `(not json)`); !errors.Is(err, ErrEnvelopeShape) {
		t.Errorf("Expected ErrEnvelopeShape for invalid JSON, got %v", err)
	}
}
