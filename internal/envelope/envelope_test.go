package envelope

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestMarshalUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		env  Envelope
	}{
		{"text", Envelope{Name: "notes.txt", Content: []byte("hello world")}},
		{"empty content", Envelope{Name: "empty", Content: nil}},
		{"binary", Envelope{Name: "blob.bin", Content: []byte{0, 1, 2, 255, 254}}},
		{"unicode name", Envelope{Name: "résumé.pdf", Content: []byte("x")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Marshal(tt.env)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			got, err := Unmarshal(data)
			if err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if got.Name != tt.env.Name {
				t.Errorf("name: got %q, want %q", got.Name, tt.env.Name)
			}
			if !bytes.Equal(got.Content, tt.env.Content) {
				t.Errorf("content: got %q, want %q", got.Content, tt.env.Content)
			}
		})
	}
}

func TestMarshal_Layout(t *testing.T) {
	data, err := Marshal(Envelope{Name: "ab", Content: []byte("xyz")})
	if err != nil {
		t.Fatal(err)
	}
	want := []byte("SHRD\x01\x00\x02ab\x00\x00\x00\x00\x00\x00\x00\x03xyz")
	if !bytes.Equal(data, want) {
		t.Errorf("got %q, want %q", data, want)
	}
}

func TestMarshal_InvalidName(t *testing.T) {
	for _, name := range []string{"", strings.Repeat("a", 70000), "\xff"} {
		if _, err := Marshal(Envelope{Name: name}); !errors.Is(err, ErrInvalidName) {
			t.Errorf("name %.10q: got %v, want ErrInvalidName", name, err)
		}
	}
}

func TestUnmarshal_Malformed(t *testing.T) {
	valid, err := Marshal(Envelope{Name: "file", Content: []byte("content")})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", append([]byte("XXXX"), valid[4:]...)},
		{"bad version", append(append([]byte("SHRD"), 2), valid[5:]...)},
		{"truncated", valid[:len(valid)-1]},
		{"trailing", append(append([]byte{}, valid...), 0)},
		{"zero name", []byte("SHRD\x01\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00")},
		{"name overruns", []byte("SHRD\x01\x00\x09ab")},
		{"random", []byte("this is not an envelope at all")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unmarshal(tt.data); !errors.Is(err, ErrMalformed) {
				t.Errorf("got %v, want ErrMalformed", err)
			}
		})
	}
}
