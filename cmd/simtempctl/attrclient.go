package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var httpClient = &http.Client{Timeout: 5 * time.Second}

func showAttr(name string) (string, error) {
	resp, err := httpClient.Get(addr + "/attr/" + name)
	if err != nil {
		return "", fmt.Errorf("GET /attr/%s: %w", name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	text := strings.TrimRight(string(body), "\n")
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: %s", resp.Status, text)
	}
	return text, nil
}

func storeAttr(name, value string) error {
	req, err := http.NewRequest(http.MethodPut, addr+"/attr/"+name, strings.NewReader(value))
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("PUT /attr/%s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimRight(string(body), "\n"))
	}
	return nil
}
