// Package uploader publishes the exported timetable calendar to a GitHub
// repository, where calendar apps can subscribe to its raw URL.
package uploader

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/go-resty/resty/v2"
)

const DefaultAPIURL = "https://api.github.com"

type contentRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
}

type contentResponse struct {
	SHA string `json:"sha"`
}

// Uploader writes files through the GitHub contents API.
type Uploader struct {
	http *resty.Client
	repo string
}

// New returns an uploader for repo ("owner/name"). apiURL may be empty.
func New(apiURL, token, repo string) *Uploader {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(apiURL, "/")).
		SetAuthToken(token).
		SetHeader("Accept", "application/vnd.github+json")
	return &Uploader{http: client, repo: repo}
}

// UploadFile creates or replaces path in the repository with the contents of
// filename.
func (u *Uploader) UploadFile(path, filename, message string) error {
	fileContent, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}
	return u.Upload(path, fileContent, message)
}

// Upload creates or replaces path with content. The current blob sha is
// looked up first, GitHub refuses to overwrite a file without it.
func (u *Uploader) Upload(path string, content []byte, message string) error {
	endpoint := fmt.Sprintf("/repos/%s/contents/%s", u.repo, strings.TrimPrefix(path, "/"))

	sha, err := u.currentSHA(endpoint)
	if err != nil {
		return err
	}

	res, err := u.http.R().
		SetBody(contentRequest{
			Message: message,
			Content: base64.StdEncoding.EncodeToString(content),
			SHA:     sha,
		}).
		Put(endpoint)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("error uploading to GitHub, status code: %d, response: %s", res.StatusCode(), res.String())
	}
	return nil
}

func (u *Uploader) currentSHA(endpoint string) (string, error) {
	var existing contentResponse
	res, err := u.http.R().
		SetResult(&existing).
		Get(endpoint)
	if err != nil {
		return "", fmt.Errorf("error looking up %s: %w", endpoint, err)
	}
	switch {
	case res.StatusCode() == http.StatusNotFound:
		return "", nil
	case res.IsError():
		return "", fmt.Errorf("error looking up %s, status code: %d", endpoint, res.StatusCode())
	}
	return existing.SHA, nil
}
