package gate

import "testing"

func TestRequiresAuth(t *testing.T) {
	excluded := []string{"/api/v1/status/", "/api/v1/users/*", "/api/v1/stat*", "/api/v1/forbidden"}
	tests := []struct {
		name     string
		path     string
		excluded []string
		want     bool
	}{
		{"ExactMatch", "/api/v1/status/", []string{"/api/v1/status/"}, false},
		{"MissingSlash", "/api/v1/status", []string{"/api/v1/status/"}, false},
		{"EntryWithoutSlash", "/api/v1/forbidden/", excluded, false},
		{"Wildcard", "/api/v1/users/42", []string{"/api/v1/users/*"}, false},
		{"WildcardBase", "/api/v1/users", []string{"/api/v1/users/*"}, false},
		{"WildcardPartialSegment", "/api/v1/stats", excluded, false},
		{"NoMatch", "/api/v1/other", excluded, true},
		{"PrefixWithoutWildcard", "/api/v1/status/extra", []string{"/api/v1/status/"}, true},
		{"EmptyPath", "", excluded, true},
		{"DotDotEscapesWildcard", "/public/../admin/reports", []string{"/public/*"}, true},
		{"DotDotEscapesExact", "/api/v1/status/../../admin", excluded, true},
		{"DotDotIntoExcluded", "/admin/../api/v1/status", excluded, false},
		{"DotInsideWildcard", "/public/./docs", []string{"/public/*"}, false},
		{"RepeatedSlashes", "//api//v1//status//", excluded, false},
		{"NilList", "/api/v1/status/", nil, true},
		{"EmptyList", "/api/v1/status/", []string{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RequiresAuth(tt.path, tt.excluded); got != tt.want {
				t.Errorf("RequiresAuth(%q, %q) = %v, want %v", tt.path, tt.excluded, got, tt.want)
			}
		})
	}
}

func TestCleanPath(t *testing.T) {
	tests := map[string]string{
		"":                         "/",
		"/":                        "/",
		"/a/b/":                    "/a/b/",
		"/a/./b":                   "/a/b",
		"/public/../admin/reports": "/admin/reports",
		"/../..":                   "/",
		"a/b/":                     "/a/b/",
		"/a//b//":                  "/a/b/",
	}
	for in, want := range tests {
		if got := CleanPath(in); got != want {
			t.Errorf("CleanPath(%q) = %q, want %q", in, got, want)
		}
	}
}
