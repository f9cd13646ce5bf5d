package templates

import (
	"bytes"
	"context"
	"fmt"
	htmltmpl "html/template"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
	texttmpl "text/template"
)

// Config selects the template source. With Dir set, <id>.tmpl files are read
// from disk instead of the embedded set; Reload reparses them on every render.
type Config struct {
	Dir    string
	Reload bool
}

// Rendered is a materialized email.
type Rendered struct {
	Subject   string
	EmailHTML string
	EmailText string
}

// Handle ties a template ID to the data type it renders.
type Handle[T any] struct {
	id string
}

// Expect declares a handle, e.g. Expect[VerificationCodeData]("user.activation_code").
func Expect[T any](id string) Handle[T] { return Handle[T]{id: id} }

func (h Handle[T]) ID() string { return h.id }

// Engine parses each template once as text and once as HTML, so the
// email_html block gets contextual escaping while subject and email_text do not.
type Engine struct {
	src    fs.FS
	reload bool
	log    *slog.Logger

	mu    sync.RWMutex
	cache map[string]*parsed
}

type parsed struct {
	text *texttmpl.Template
	html *htmltmpl.Template
}

// NewEngine uses the embedded templates unless cfg.Dir is set.
func NewEngine(cfg Config, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	e := &Engine{log: log, cache: make(map[string]*parsed)}
	if cfg.Dir != "" {
		e.src = os.DirFS(cfg.Dir)
		e.reload = cfg.Reload
		log.Info("loading email templates from disk", "dir", cfg.Dir, "reload", cfg.Reload)
	} else {
		sub, err := fs.Sub(EmbeddedFS, "files")
		if err != nil {
			panic(err) // the embed pattern guarantees the directory
		}
		e.src = sub
	}
	return e
}

// Render renders h with data of the type the handle was declared for.
func Render[T any](ctx context.Context, e *Engine, h Handle[T], data T) (Rendered, error) {
	return e.RenderAny(ctx, h.ID(), data)
}

// RenderAny renders template id. The subject block is mandatory and
// email_text and email_html are rendered when present.
func (e *Engine) RenderAny(_ context.Context, id string, data any) (Rendered, error) {
	t, err := e.template(id)
	if err != nil {
		return Rendered{}, err
	}
	if t.text.Lookup("subject") == nil {
		return Rendered{}, fmt.Errorf("template %s: missing subject block", id)
	}

	var out Rendered
	if out.Subject, err = execute(t.text.ExecuteTemplate, "subject", data); err != nil {
		return Rendered{}, fmt.Errorf("template %s: %w", id, err)
	}
	out.Subject = strings.TrimSpace(out.Subject)

	if t.text.Lookup("email_text") != nil {
		if out.EmailText, err = execute(t.text.ExecuteTemplate, "email_text", data); err != nil {
			return Rendered{}, fmt.Errorf("template %s: %w", id, err)
		}
	}
	if t.html.Lookup("email_html") != nil {
		if out.EmailHTML, err = execute(t.html.ExecuteTemplate, "email_html", data); err != nil {
			return Rendered{}, fmt.Errorf("template %s: %w", id, err)
		}
	}
	return out, nil
}

func (e *Engine) template(id string) (*parsed, error) {
	if e.reload {
		return e.parse(id)
	}

	e.mu.RLock()
	t, ok := e.cache[id]
	e.mu.RUnlock()
	if ok {
		return t, nil
	}

	t, err := e.parse(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.cache[id] = t
	e.mu.Unlock()
	return t, nil
}

func (e *Engine) parse(id string) (*parsed, error) {
	b, err := fs.ReadFile(e.src, id+".tmpl")
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", id, err)
	}
	text, err := texttmpl.New(id).Option("missingkey=error").Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", id, err)
	}
	html, err := htmltmpl.New(id).Option("missingkey=error").Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("parse html template %s: %w", id, err)
	}
	return &parsed{text: text, html: html}, nil
}

func execute(fn func(io.Writer, string, any) error, name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := fn(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
