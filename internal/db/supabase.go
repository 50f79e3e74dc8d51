package db

import (
	"fmt"
	"net/url"

	supabase "github.com/nedpals/supabase-go"
)

// NewSupabaseClient returns a PostgREST client for the Supabase project at
// projectURL. The SDK does not dial on creation, so only the URL is checked.
func NewSupabaseClient(projectURL, key string) (*supabase.Client, error) {
	u, err := url.Parse(projectURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid SUPABASE_URL %q", projectURL)
	}
	if key == "" {
		return nil, fmt.Errorf("empty Supabase key")
	}
	return supabase.CreateClient(projectURL, key), nil
}
