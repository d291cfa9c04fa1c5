package ocr

import "testing"

func TestExtractTrackingNumberHyphenatedForm(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"bare", "1234-5678-9012", "1234-5678-9012"},
		{"embedded in receipt text", "お問い合わせ番号: 1234-5678-9012 ヤマト運輸", "1234-5678-9012"},
		{"first match wins", "2874-7496-3580 then 1111-2222-3333", "2874-7496-3580"},
		{"across noise", "label x9 1234-5678-9012 end", "1234-5678-9012"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractTrackingNumber(tc.text)
			if !ok {
				t.Fatalf("expected a match in %q", tc.text)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractTrackingNumberReformatsDigitRun(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"plain run", "287474963580", "2874-7496-3580"},
		{"run split by spaces", "2874 7496 3580", "2874-7496-3580"},
		{"run split by newline", "287474\n963580", "2874-7496-3580"},
		{"run inside text", "伝票番号 287474963580 です", "2874-7496-3580"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractTrackingNumber(tc.text)
			if !ok {
				t.Fatalf("expected a match in %q", tc.text)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractTrackingNumberNoMatch(t *testing.T) {
	for _, text := range []string{
		"hello world 123",
		"",
		"12345678901",
		"abcd-efgh-ijkl",
	} {
		if got, ok := ExtractTrackingNumber(text); ok {
			t.Fatalf("expected no match in %q, got %q", text, got)
		}
	}
}

func TestIsCanonicalTrackingNumber(t *testing.T) {
	if !IsCanonicalTrackingNumber("1234-5678-9012") {
		t.Fatal("canonical form must validate")
	}
	for _, value := range []string{"123456789012", "1234-5678-901", "x1234-5678-9012"} {
		if IsCanonicalTrackingNumber(value) {
			t.Fatalf("%q must not validate", value)
		}
	}
}
