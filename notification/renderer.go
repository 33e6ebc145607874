package notification

import (
	"io/fs"
	"os"
	"sync"

	"github.com/flosch/pongo2/v6"
)

// Renderer compiles a template by path and renders it against flat string
// parameters.
type Renderer interface {
	Render(path string, params map[string]string) (string, error)
}

// RendererFunc adapts a function to Renderer
type RendererFunc func(path string, params map[string]string) (string, error)

// Render implements Renderer
func (f RendererFunc) Render(path string, params map[string]string) (string, error) {
	return f(path, params)
}

// PongoRenderer renders django style templates. Compilation, caching and
// execution are serialized behind a single mutex.
type PongoRenderer struct {
	mu  sync.Mutex
	set *pongo2.TemplateSet
}

// NewPongoRenderer loads templates from fsys
func NewPongoRenderer(fsys fs.FS) *PongoRenderer {
	return &PongoRenderer{
		set: pongo2.NewSet("notifications", pongo2.NewFSLoader(fsys)),
	}
}

// NewPongoRendererFromDir loads templates from a directory on disk
func NewPongoRendererFromDir(dir string) *PongoRenderer {
	return NewPongoRenderer(os.DirFS(dir))
}

func (r *PongoRenderer) Render(path string, params map[string]string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tpl, err := r.set.FromCache(path)
	if err != nil {
		return "", err
	}

	ctx := make(pongo2.Context, len(params))
	for k, v := range params {
		ctx[k] = v
	}

	return tpl.Execute(ctx)
}
