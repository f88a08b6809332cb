package ipc

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"resty.dev/v3"
)

func newClient(path string) *resty.Client {
	var dialer net.Dialer
	client := resty.NewWithClient(&http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				return dialer.DialContext(ctx, "unix", path)
			},
		},
	})

	client.SetBaseURL("http://skadi")
	client.SetHeader("Accept", "application/json")
	client.SetHeader("User-Agent", "skadi")
	return client
}

// SendStatus asks the instance listening on path for its status.
func SendStatus(ctx context.Context, path string) (*StatusResponse, error) {
	client := newClient(path)
	defer client.Close()

	result := StatusResponse{}
	response, err := client.R().SetContext(ctx).SetResult(&result).Get("/status")
	if err != nil {
		return nil, err
	}

	if response.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("status request failed: %s", response.Status())
	}

	return &result, nil
}
