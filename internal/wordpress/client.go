// Package wordpress provides a client for the WordPress REST API (wp/v2).
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"wpseo/internal/config"
	"wpseo/internal/logger"
	"wpseo/internal/models"
	"wpseo/internal/transport"
	"wpseo/pkg/utils"
)

// Content API errors.
var (
	ErrAuthentication = errors.New("wordpress authentication failed")
	ErrListPosts      = errors.New("failed to list published posts")
	ErrFetchPost      = errors.New("failed to fetch post")
	ErrUpdatePost     = errors.New("failed to update post")
)

// Client defines the Content API surface the optimizer consumes.
type Client interface {
	Authenticate(ctx context.Context) error
	ListPublishedPosts(ctx context.Context) ([]models.Post, error)
	GetPost(ctx context.Context, id int) (*models.Post, error)
	GetSeoMeta(ctx context.Context, id int) (*models.RawSeoPayload, error)
	UpdatePost(ctx context.Context, id int, update models.PostUpdate) error
}

// Ensure RESTClient implements Client.
var _ Client = (*RESTClient)(nil)

// Credentials authenticate against the site with an application password.
type Credentials struct {
	Username string
	Password string
}

// RESTClient talks to /wp-json/wp/v2 with HTTP Basic authentication.
type RESTClient struct {
	exec    *transport.Executor
	creds   Credentials
	apiBase string
	perPage int
	logger  *logger.Logger
}

// NewClient creates a REST client from the immutable run configuration.
func NewClient(cfg *config.Config, exec *transport.Executor, log *logger.Logger) *RESTClient {
	return NewRESTClient(cfg.APIBase(), Credentials{
		Username: cfg.WordPress.Username,
		Password: cfg.WordPress.Password,
	}, cfg.WordPress.PerPage, exec, log)
}

// NewRESTClient creates a REST client for an explicit API root.
func NewRESTClient(apiBase string, creds Credentials, perPage int, exec *transport.Executor, log *logger.Logger) *RESTClient {
	if log == nil {
		log = logger.Discard()
	}

	if perPage < 1 || perPage > 100 {
		perPage = 100
	}

	return &RESTClient{
		exec:    exec,
		creds:   creds,
		apiBase: strings.TrimRight(apiBase, "/"),
		perPage: perPage,
		logger:  log,
	}
}

// apiError is the error envelope WordPress returns on failures.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *RESTClient) request(ctx context.Context, method, path string, query url.Values, body any) (*transport.Response, error) {
	var payload []byte

	if body != nil {
		var err error

		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	endpoint := c.apiBase + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	c.logger.Debug(fmt.Sprintf("%s %s", method, path))

	return c.exec.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}

		headers := map[string]string{}
		if payload != nil {
			headers["Content-Type"] = "application/json"
		}

		utils.ApplyHeaders(req, utils.BuildHeaders(headers))
		req.SetBasicAuth(c.creds.Username, c.creds.Password)

		return req, nil
	})
}

// classify maps authentication failures onto ErrAuthentication and wraps the rest in kind.
func classify(kind, err error) error {
	switch transport.StatusCode(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	return fmt.Errorf("%w: %w", kind, err)
}

// Authenticate verifies the credentials by loading the current user.
func (c *RESTClient) Authenticate(ctx context.Context) error {
	resp, err := c.request(ctx, http.MethodGet, "/users/me", url.Values{"context": {"edit"}}, nil)
	if err != nil {
		return classify(ErrAuthentication, err)
	}

	var me struct {
		Name string `json:"name"`
		ID   int    `json:"id"`
	}

	if err := json.Unmarshal(resp.Body, &me); err != nil {
		return fmt.Errorf("%w: failed to parse user: %w", ErrAuthentication, err)
	}

	if me.ID == 0 {
		return fmt.Errorf("%w: no user returned", ErrAuthentication)
	}

	c.logger.Debug("Authenticated", "user_id", me.ID, "user", me.Name)

	return nil
}

// ListPublishedPosts drains every page of published posts.
func (c *RESTClient) ListPublishedPosts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post

	for page := 1; ; page++ {
		query := url.Values{
			"status":   {models.StatusPublish},
			"per_page": {strconv.Itoa(c.perPage)},
			"page":     {strconv.Itoa(page)},
		}

		resp, err := c.request(ctx, http.MethodGet, "/posts", query, nil)
		if err != nil {
			if page > 1 && isPastLastPage(err) {
				break
			}

			return nil, classify(ErrListPosts, err)
		}

		var batch []models.Post
		if err := json.Unmarshal(resp.Body, &batch); err != nil {
			return nil, fmt.Errorf("%w: failed to parse page %d: %w", ErrListPosts, page, err)
		}

		for _, p := range batch {
			if p.Status == "" || p.IsPublished() {
				posts = append(posts, p)
			}
		}

		c.logger.Debug(fmt.Sprintf("Fetched page %d (%d posts)", page, len(batch)))

		if len(batch) < c.perPage {
			break
		}

		if total, err := strconv.Atoi(resp.Header.Get("X-WP-TotalPages")); err == nil && page >= total {
			break
		}
	}

	return posts, nil
}

// isPastLastPage recognises the 400 WordPress returns for a page beyond the end.
func isPastLastPage(err error) bool {
	var se *transport.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusBadRequest {
		return false
	}

	var apiErr apiError
	if json.Unmarshal([]byte(se.Body), &apiErr) != nil {
		return false
	}

	return apiErr.Code == "rest_post_invalid_page_number"
}

// GetPost loads a single post in edit context, which exposes raw fields and meta.
func (c *RESTClient) GetPost(ctx context.Context, id int) (*models.Post, error) {
	resp, err := c.request(ctx, http.MethodGet, fmt.Sprintf("/posts/%d", id), url.Values{"context": {"edit"}}, nil)
	if err != nil {
		return nil, classify(ErrFetchPost, err)
	}

	var post models.Post
	if err := json.Unmarshal(resp.Body, &post); err != nil {
		return nil, fmt.Errorf("%w: failed to parse post %d: %w", ErrFetchPost, id, err)
	}

	return &post, nil
}

// GetSeoMeta returns the plugin metadata of a post.
func (c *RESTClient) GetSeoMeta(ctx context.Context, id int) (*models.RawSeoPayload, error) {
	post, err := c.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	return post.SeoPayload(), nil
}

// UpdatePost sends a partial update. Only the fields set on update are transmitted.
func (c *RESTClient) UpdatePost(ctx context.Context, id int, update models.PostUpdate) error {
	if update.IsEmpty() {
		return nil
	}

	if _, err := c.request(ctx, http.MethodPost, fmt.Sprintf("/posts/%d", id), nil, update); err != nil {
		return classify(ErrUpdatePost, err)
	}

	return nil
}
