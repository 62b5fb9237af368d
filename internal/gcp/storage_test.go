package gcp

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/api/googleapi"
)

func TestParseGCSURI(t *testing.T) {
	cases := []struct {
		uri            string
		bucket, object string
		wantErr        bool
	}{
		{uri: "gs://docs/in/report.pdf", bucket: "docs", object: "in/report.pdf"},
		{uri: "gs://docs/in/", bucket: "docs", object: "in/"},
		{uri: "gs://docs", bucket: "docs"},
		{uri: "https://docs/report.pdf", wantErr: true},
		{uri: "gs:///report.pdf", wantErr: true},
	}
	for _, tc := range cases {
		bucket, object, err := ParseGCSURI(tc.uri)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseGCSURI(%q) succeeded, want error", tc.uri)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseGCSURI(%q): %v", tc.uri, err)
			continue
		}
		if bucket != tc.bucket || object != tc.object {
			t.Errorf("ParseGCSURI(%q) = %q, %q", tc.uri, bucket, object)
		}
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("PDFANNOTEXT_TEST_KEY", "set")
	if got := GetEnv("PDFANNOTEXT_TEST_KEY", "fallback"); got != "set" {
		t.Fatalf("GetEnv = %q", got)
	}
	if got := GetEnv("PDFANNOTEXT_TEST_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("GetEnv = %q", got)
	}
}

func TestIsPreconditionFailed(t *testing.T) {
	if !isPreconditionFailed(&googleapi.Error{Code: http.StatusPreconditionFailed}) {
		t.Fatal("412 not detected")
	}
	if isPreconditionFailed(&googleapi.Error{Code: http.StatusNotFound}) {
		t.Fatal("404 treated as 412")
	}
	if isPreconditionFailed(fmt.Errorf("wrapped: %w", errors.New("x"))) {
		t.Fatal("plain error treated as 412")
	}
}
