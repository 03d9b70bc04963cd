package forbiddencalls

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

func ContextlessRequests() {
	http.Get("https://api-ssl.bitly.com")                            // want "http.Get sends a request without a context"
	http.Head("https://api-ssl.bitly.com")                           // want "http.Head sends a request without a context"
	http.Post("https://api-ssl.bitly.com", "", strings.NewReader("")) // want "http.Post sends a request without a context"
	http.PostForm("https://api-ssl.bitly.com", url.Values{})          // want "http.PostForm sends a request without a context"
}

func DefaultClientUse(req *http.Request) {
	http.DefaultClient.Do(req) // want "http.DefaultClient has no timeout"
}

func ContextRequest(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api-ssl.bitly.com", nil)
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
