package ocr

import (
	"context"
	"fmt"
	"testing"

	"github.com/yutonagata/shipsnap-backend/pkg/config"
)

func TestLocalRecognizerDegradesOnError(t *testing.T) {
	recognizer := NewLocalRecognizer(config.OCRConfig{Languages: "jpn+eng"}, testLogger())
	recognizer.recognize = func(image []byte) (string, error) {
		return "", fmt.Errorf("tesseract unavailable")
	}

	text, err := recognizer.Recognize(context.Background(), []byte("img"), nil)
	if err != nil {
		t.Fatalf("recognizer errors must not propagate, got %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty text, got %q", text)
	}
}

func TestLocalRecognizerRecoversFromPanic(t *testing.T) {
	recognizer := NewLocalRecognizer(config.OCRConfig{Languages: "jpn+eng"}, testLogger())
	recognizer.recognize = func(image []byte) (string, error) {
		panic("native crash")
	}

	var lastFraction float64
	text, err := recognizer.Recognize(context.Background(), []byte("img"), func(label string, fraction float64) {
		lastFraction = fraction
	})
	if err != nil {
		t.Fatalf("panics must degrade to an empty result, got %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty text, got %q", text)
	}
	if lastFraction != 1 {
		t.Fatal("progress must still complete after a panic")
	}
}

func TestLocalRecognizerReportsProgressInOrder(t *testing.T) {
	recognizer := NewLocalRecognizer(config.OCRConfig{Languages: "jpn+eng"}, testLogger())
	recognizer.recognize = func(image []byte) (string, error) {
		return "1234-5678-9012", nil
	}

	var fractions []float64
	text, err := recognizer.Recognize(context.Background(), []byte("img"), func(label string, fraction float64) {
		fractions = append(fractions, fraction)
	})
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if text != "1234-5678-9012" {
		t.Fatalf("unexpected text %q", text)
	}
	for i := 1; i < len(fractions); i++ {
		if fractions[i] < fractions[i-1] {
			t.Fatal("progress fractions must be monotonic")
		}
	}
	if len(fractions) == 0 || fractions[len(fractions)-1] != 1 {
		t.Fatal("progress must end at 1")
	}
}

func TestSplitLanguages(t *testing.T) {
	got := splitLanguages("jpn+eng")
	if len(got) != 2 || got[0] != "jpn" || got[1] != "eng" {
		t.Fatalf("unexpected split %v", got)
	}
	if got := splitLanguages("jpn"); len(got) != 1 || got[0] != "jpn" {
		t.Fatalf("unexpected split %v", got)
	}
}
