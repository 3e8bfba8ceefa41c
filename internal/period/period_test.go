package period

import (
	"errors"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "localized markers",
			text: "2024年6月28日～2024年6月30日",
			want: "20240628-20240630",
		},
		{
			name: "dash separated",
			text: "2024-06-28 to 2024-06-30",
			want: "20240628-20240630",
		},
		{
			name: "slash separated",
			text: "2024/6/1 - 2024/12/31",
			want: "20240601-20241231",
		},
		{
			name: "dates embedded in prose",
			text: "配信期間：2023年11月2日から2023年11月9日まで",
			want: "20231102-20231109",
		},
		{
			name: "single digit month and day padded",
			text: "2024年1月5日～2024年1月7日",
			want: "20240105-20240107",
		},
		{
			name: "textual order preserved even when reversed",
			text: "2024年6月30日～2024年6月28日",
			want: "20240630-20240628",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format(tt.text)
			if err != nil {
				t.Fatalf("Format(%q) error = %v", tt.text, err)
			}
			if got != tt.want {
				t.Errorf("Format(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestFormat_Invalid(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{
			name: "empty text",
			text: "",
		},
		{
			name: "no dates",
			text: "期間未定",
		},
		{
			name: "one date",
			text: "2024年6月28日",
		},
		{
			name: "three dates",
			text: "2024年6月28日～2024年6月29日～2024年6月30日",
		},
		{
			name: "month out of range",
			text: "2024年13月1日～2024年13月2日",
		},
		{
			name: "day not in month",
			text: "2024-02-30 to 2024-03-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format(tt.text)
			if err == nil {
				t.Fatalf("Format(%q) = %q, want error", tt.text, got)
			}

			var formatErr *FormatError
			if !errors.As(err, &formatErr) {
				t.Fatalf("Format(%q) error type = %T, want *FormatError", tt.text, err)
			}
			if formatErr.Text != tt.text {
				t.Errorf("FormatError.Text = %q, want %q", formatErr.Text, tt.text)
			}
		})
	}
}
