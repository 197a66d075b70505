package tfl

import (
	"errors"
	"net/url"
)

// redactURLError strips the query string (which carries app_key) from the
// URL recorded in a *url.Error.
func redactURLError(err error, safe string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &url.Error{Op: urlErr.Op, URL: safe, Err: urlErr.Err}
	}
	return err
}
