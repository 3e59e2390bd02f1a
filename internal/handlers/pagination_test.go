package handlers

import "testing"

func TestParsePaginationParamsDefaults(t *testing.T) {
	page, limit, err := parsePaginationParams("", "")
	if err != nil {
		t.Fatalf("parsePaginationParams returned error: %v", err)
	}
	if page != 1 || limit != 20 {
		t.Fatalf("expected defaults 1/20, got %d/%d", page, limit)
	}
}

func TestParsePaginationParamsRejectsGarbage(t *testing.T) {
	tests := [][2]string{
		{"abc", ""},
		{"0", ""},
		{"-1", "10"},
		{"1", "0"},
		{"1", "xyz"},
	}
	for _, tc := range tests {
		if _, _, err := parsePaginationParams(tc[0], tc[1]); err == nil {
			t.Fatalf("expected error for page=%q limit=%q", tc[0], tc[1])
		}
	}
}

func TestParsePaginationParamsCapsLimit(t *testing.T) {
	_, limit, err := parsePaginationParams("2", "5000")
	if err != nil {
		t.Fatalf("parsePaginationParams returned error: %v", err)
	}
	if limit != maxPageSize {
		t.Fatalf("expected limit capped at %d, got %d", maxPageSize, limit)
	}
}
