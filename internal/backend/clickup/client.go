// Package clickup implements the service.Service interface over the ClickUp REST API v2.
package clickup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"demandhook/internal/config"
	"demandhook/internal/logging"
	"demandhook/internal/sanitize"
	"demandhook/internal/service"
)

const (
	// APITimeout is the default timeout for each API call.
	APITimeout = 30 * time.Second

	// listStatus is the color status given to newly created company lists.
	listStatus = "red"
)

// Settings supplies the live remote settings. They are read on every call so
// that configuration changes apply to the next request.
type Settings interface {
	Remote() config.Remote
}

// Client implements service.Service using the ClickUp API.
type Client struct {
	settings Settings
	http     *http.Client
	timeout  time.Duration
	log      *slog.Logger
}

// Option customizes client construction.
type Option func(*Client)

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTransport replaces the base HTTP transport under the auth layer (for testing).
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.http.Transport.(*authTransport).base = rt
		}
	}
}

// New creates a new ClickUp client.
func New(settings Settings, opts ...Option) *Client {
	c := &Client{
		settings: settings,
		http: &http.Client{
			Transport: &authTransport{settings: settings},
		},
		timeout: APITimeout,
		log:     logging.Discard(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// personalTokenPrefix marks ClickUp personal API tokens. They are sent as the
// bare Authorization value; anything else is an OAuth access token.
const personalTokenPrefix = "pk_"

// authTransport sets the Authorization header from the live settings.
// Personal tokens go out as-is, OAuth tokens through oauth2.Transport as
// "Bearer <token>".
type authTransport struct {
	settings Settings
	base     http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	tok := t.settings.Remote().APIToken
	if !strings.HasPrefix(tok, personalTokenPrefix) {
		oauth := &oauth2.Transport{Source: tokenSource{settings: t.settings}, Base: t.base}
		return oauth.RoundTrip(req)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", tok)
	return base.RoundTrip(r)
}

// tokenSource hands the current OAuth access token to oauth2.Transport.
type tokenSource struct {
	settings Settings
}

func (s tokenSource) Token() (*oauth2.Token, error) {
	tok := s.settings.Remote().APIToken
	if tok == "" {
		return nil, errors.New("api token not configured")
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
}

// ListLists returns the lists in the configured folder, in API order.
func (c *Client) ListLists(ctx context.Context) ([]service.TaskList, error) {
	const op = "list lists"
	folder, err := c.folderID(op)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Lists []struct {
			ID   flexID `json:"id"`
			Name string `json:"name"`
		} `json:"lists"`
	}
	if err := c.do(ctx, op, http.MethodGet, "folder/"+url.PathEscape(folder)+"/list", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]service.TaskList, 0, len(resp.Lists))
	for _, l := range resp.Lists {
		out = append(out, service.TaskList{ID: string(l.ID), Name: l.Name})
	}
	return out, nil
}

// CreateList creates a list named name in the configured folder.
func (c *Client) CreateList(ctx context.Context, name string) (service.TaskList, error) {
	const op = "create list"
	folder, err := c.folderID(op)
	if err != nil {
		return service.TaskList{}, err
	}
	body := map[string]any{
		"name":          name,
		"content":       fmt.Sprintf("Lista de tarefas para %s", name),
		"due_date_time": false,
		"priority":      nil,
		"assignee":      nil,
		"status":        listStatus,
	}
	var resp struct {
		ID   flexID `json:"id"`
		Name string `json:"name"`
	}
	if err := c.do(ctx, op, http.MethodPost, "folder/"+url.PathEscape(folder)+"/list", body, &resp); err != nil {
		return service.TaskList{}, err
	}
	if resp.ID == "" {
		return service.TaskList{}, missingID(op)
	}
	return service.TaskList{ID: string(resp.ID), Name: name}, nil
}

// FindOrCreateList returns the first list whose name equals name
// case-insensitively, creating it when none does.
func (c *Client) FindOrCreateList(ctx context.Context, name string) (string, error) {
	lists, err := c.ListLists(ctx)
	if err != nil {
		return "", err
	}
	for _, l := range lists {
		if strings.EqualFold(l.Name, name) {
			c.log.Info("lista encontrada", "empresa", name, "list_id", l.ID)
			return l.ID, nil
		}
	}
	created, err := c.CreateList(ctx, name)
	if err != nil {
		return "", err
	}
	c.log.Info("lista criada", "empresa", name, "list_id", created.ID)
	return created.ID, nil
}

// CreateTask sanitizes fields and creates a task in listID.
func (c *Client) CreateTask(ctx context.Context, listID string, fields service.TaskFields) (string, error) {
	clean, err := sanitize.Task(fields)
	if err != nil {
		return "", err
	}
	return c.postTask(ctx, "create task", listID, clean)
}

func (c *Client) postTask(ctx context.Context, op, listID string, clean service.TaskFields) (string, error) {
	if c.log.Enabled(ctx, slog.LevelDebug) {
		payload, _ := json.Marshal(clean)
		c.log.Debug("criando tarefa", "list_id", listID, "payload", string(payload))
	}
	var resp struct {
		ID flexID `json:"id"`
	}
	if err := c.do(ctx, op, http.MethodPost, "list/"+url.PathEscape(listID)+"/task", clean, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", missingID(op)
	}
	c.log.Info("tarefa criada", "op", op, "task_id", string(resp.ID))
	return string(resp.ID), nil
}

// GetTask fetches a task, including the ID of the list that owns it.
func (c *Client) GetTask(ctx context.Context, taskID string) (service.Task, error) {
	const op = "get task"
	var resp struct {
		ID     flexID `json:"id"`
		Name   string `json:"name"`
		Parent flexID `json:"parent"`
		List   struct {
			ID flexID `json:"id"`
		} `json:"list"`
	}
	if err := c.do(ctx, op, http.MethodGet, "task/"+url.PathEscape(taskID), nil, &resp); err != nil {
		return service.Task{}, err
	}
	return service.Task{
		ID:     string(resp.ID),
		Name:   resp.Name,
		ListID: string(resp.List.ID),
		Parent: string(resp.Parent),
	}, nil
}

// CreateChecklistRecord creates an empty checklist on a task.
func (c *Client) CreateChecklistRecord(ctx context.Context, taskID, name string) (string, error) {
	const op = "create checklist"
	var resp struct {
		Checklist struct {
			ID flexID `json:"id"`
		} `json:"checklist"`
	}
	if err := c.do(ctx, op, http.MethodPost, "task/"+url.PathEscape(taskID)+"/checklist", map[string]any{"name": name}, &resp); err != nil {
		return "", err
	}
	if resp.Checklist.ID == "" {
		return "", missingID(op)
	}
	return string(resp.Checklist.ID), nil
}

// CreateChecklist creates a checklist and adds items one at a time, in order.
// A failed item is logged and skipped.
func (c *Client) CreateChecklist(ctx context.Context, taskID, name string, items []string) (string, error) {
	id, err := c.CreateChecklistRecord(ctx, taskID, name)
	if err != nil {
		return "", err
	}
	added := 0
	for _, item := range items {
		if err := c.AddChecklistItem(ctx, id, item); err != nil {
			c.log.Warn("erro ao adicionar item ao checklist", "checklist_id", id, "item", item, "error", err)
			continue
		}
		added++
	}
	c.log.Info("checklist criado", "checklist_id", id, "items", added, "failed", len(items)-added)
	return id, nil
}

// AddChecklistItem adds one item to a checklist.
func (c *Client) AddChecklistItem(ctx context.Context, checklistID, name string) error {
	body := map[string]any{"name": name, "assignee": nil}
	return c.do(ctx, "add checklist item", http.MethodPost, "checklist/"+url.PathEscape(checklistID)+"/checklist_item", body, nil)
}

// CreateSubtask creates a task under parentID in the parent's list.
func (c *Client) CreateSubtask(ctx context.Context, parentID string, fields service.TaskFields) (string, error) {
	const op = "create subtask"
	fields = fields.Clone()
	fields["parent"] = parentID
	clean, err := sanitize.Task(fields)
	if err != nil {
		return "", err
	}
	parent, err := c.GetTask(ctx, parentID)
	if err != nil {
		return "", err
	}
	if parent.ListID == "" {
		return "", &service.RemoteError{Op: op, Text: "tarefa pai sem lista"}
	}
	return c.postTask(ctx, op, parent.ListID, clean)
}

func (c *Client) folderID(op string) (string, error) {
	folder := c.settings.Remote().FolderID
	if folder == "" {
		return "", &service.RemoteError{Op: op, Text: "folder id not configured"}
	}
	return folder, nil
}

// do performs one API call. Every failure comes back as *service.RemoteError.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := strings.TrimRight(c.settings.Remote().BaseURL, "/") + "/" + path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &service.RemoteError{Op: op, Text: "encode request", Err: err}
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &service.RemoteError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		c.log.Error("erro na requisição", "method", method, "url", endpoint, "error", err)
		return wrapError(op, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return wrapError(op, err)
	}
	c.log.Info("requisição", "method", method, "url", endpoint, "status", res.StatusCode)

	if res.StatusCode >= 400 {
		text := strings.TrimSpace(string(data))
		c.log.Error("erro HTTP", "method", method, "url", endpoint, "status", res.StatusCode, "body", text)
		return &service.RemoteError{
			Op:     op,
			Status: res.StatusCode,
			Text:   text,
			Err: &googleapi.Error{
				Code:    res.StatusCode,
				Message: http.StatusText(res.StatusCode),
				Body:    text,
				Header:  res.Header,
			},
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.log.Error("resposta inválida da API", "method", method, "url", endpoint, "error", err)
		return &service.RemoteError{Op: op, Text: "resposta inválida da API", Err: err}
	}
	return nil
}

// wrapError wraps transport errors with a diagnostic text.
func wrapError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &service.RemoteError{Op: op, Text: "timeout na requisição", Err: err}
	}
	return &service.RemoteError{Op: op, Err: err}
}

func missingID(op string) error {
	return &service.RemoteError{Op: op, Text: "resposta sem id"}
}

// flexID accepts IDs encoded as JSON strings or numbers.
type flexID string

func (id *flexID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = flexID(n.String())
	return nil
}
