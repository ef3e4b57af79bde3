// Package client is a programmatic front end for the blog API: a typed
// HTTP client plus the view controllers the UI shell drives. Views return
// explicit results (success, redirect, field error) instead of navigating
// as a side effect, so they can be exercised without a router.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"

	"tagblog/models"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrBadRequest      = errors.New("bad request")
	ErrPayloadTooLarge = errors.New("payload too large")
)

const (
	csrfCookieName = "XSRF-TOKEN"
	csrfHeaderName = "X-XSRF-TOKEN"
)

// Client talks to the blog API. It keeps the session and anti-forgery
// cookies in a jar and echoes the anti-forgery cookie as a header on
// every mutating request, the way the server's double-submit check wants.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar},
	}, nil
}

// ImageUpload is an optional post attachment.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// PostForm is what the editor submits. Tags is the raw space-separated
// text field.
type PostForm struct {
	Title   string
	Content string
	Tags    string
	Image   *ImageUpload
}

func (c *Client) CurrentUser() (models.User, error) {
	var u models.User
	err := c.doJSON(http.MethodGet, "/api/user", nil, &u)
	return u, err
}

func (c *Client) Signup(username, password string) (models.User, error) {
	var u models.User
	body := models.User{Username: username, Password: password}
	err := c.doJSON(http.MethodPost, "/api/signup", body, &u)
	return u, err
}

func (c *Client) Login(username, password string) error {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := c.newRequest(http.MethodPost, "/api/login", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.send(req, nil)
}

func (c *Client) Logout() error {
	return c.doJSON(http.MethodPost, "/api/logout", nil, nil)
}

func (c *Client) SessionExpired() (bool, error) {
	var expired bool
	err := c.doJSON(http.MethodGet, "/api/session-expired", nil, &expired)
	return expired, err
}

func (c *Client) ListPosts(search string, tagID, page int) (models.Page, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	if tagID > 0 {
		q.Set("tagId", strconv.Itoa(tagID))
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}

	var p models.Page
	err := c.doJSON(http.MethodGet, "/api/post?"+q.Encode(), nil, &p)
	return p, err
}

func (c *Client) GetPost(id int) (models.Post, error) {
	var p models.Post
	err := c.doJSON(http.MethodGet, "/api/post/"+strconv.Itoa(id), nil, &p)
	return p, err
}

func (c *Client) CreatePost(form PostForm) (models.Post, error) {
	return c.submitPost(http.MethodPost, "/api/post", form)
}

func (c *Client) UpdatePost(id int, form PostForm) (models.Post, error) {
	return c.submitPost(http.MethodPut, "/api/post/"+strconv.Itoa(id), form)
}

func (c *Client) DeletePost(id int) error {
	return c.doJSON(http.MethodDelete, "/api/post/"+strconv.Itoa(id), nil, nil)
}

func (c *Client) ListTags() ([]models.Tag, error) {
	var tags []models.Tag
	err := c.doJSON(http.MethodGet, "/api/tag", nil, &tags)
	return tags, err
}

func (c *Client) UpdateUsername(id int, username string) error {
	body := models.User{ID: id, Username: username}
	return c.doJSON(http.MethodPut, "/api/user/username", body, nil)
}

func (c *Client) UpdatePassword(id int, password, currentPassword string) error {
	body := models.User{ID: id, Password: password, CurrentPassword: currentPassword}
	return c.doJSON(http.MethodPut, "/api/user/password", body, nil)
}

// ImageURL resolves a stored image name to its download URL.
func (c *Client) ImageURL(name string) string {
	return c.baseURL + "/api/files/" + url.PathEscape(name)
}

func (c *Client) submitPost(method, path string, form PostForm) (models.Post, error) {
	var p models.Post

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("title", form.Title)
	mw.WriteField("content", form.Content)
	mw.WriteField("tags", form.Tags)
	if form.Image != nil {
		part, err := mw.CreateFormFile("image", form.Image.Filename)
		if err != nil {
			return p, err
		}
		if _, err := io.Copy(part, form.Image.Data); err != nil {
			return p, err
		}
	}
	if err := mw.Close(); err != nil {
		return p, err
	}

	req, err := c.newRequest(method, path, &buf)
	if err != nil {
		return p, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	err = c.send(req, &p)
	return p, err
}

func (c *Client) doJSON(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := c.newRequest(method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) newRequest(method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if method != http.MethodGet {
		if token := c.csrfToken(req.URL); token != "" {
			req.Header.Set(csrfHeaderName, token)
		}
	}
	return req, nil
}

func (c *Client) csrfToken(u *url.URL) string {
	for _, cookie := range c.http.Jar.Cookies(u) {
		if cookie.Name == csrfCookieName {
			return cookie.Value
		}
	}
	return ""
}

func (c *Client) send(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return statusError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	var base error
	switch resp.StatusCode {
	case http.StatusBadRequest:
		base = ErrBadRequest
	case http.StatusUnauthorized:
		base = ErrUnauthorized
	case http.StatusForbidden:
		base = ErrForbidden
	case http.StatusNotFound:
		base = ErrNotFound
	case http.StatusConflict:
		base = ErrConflict
	case http.StatusRequestEntityTooLarge:
		base = ErrPayloadTooLarge
	default:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return fmt.Errorf("%w: %s", base, strings.TrimSpace(string(msg)))
}
