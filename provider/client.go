package provider

import (
	"fmt"
	"net/http"
	"net/url"
)

type StatusError int

func (se StatusError) Error() string {
	return fmt.Sprintf("%d: %s", int(se), http.StatusText(int(se)))
}

func joinPath(base string, p ...string) string {
	r, _ := url.JoinPath(base, p...)
	return r
}
