// Package httpattrs realizes simtemp.AttributeRegistry over HTTP using
// gin, grounded on the router.Group/gin.New()+gin.Recovery() wiring
// used throughout the retrieved example pack's gin-based services
// (e.g. cmd/trace's router setup) adapted here from JSON request/reply
// handlers to the driver's plain-text sysfs-style attribute contract.
package httpattrs

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/PyCharmGuy123/simtemp/simtemp"
)

// Registry is an HTTP-backed simtemp.AttributeRegistry. Each registered
// attribute is exposed as GET/PUT handlers whose path is computed by
// mount, so the same Registry can serve more than one mount point (see
// DualMount below) from a single attribute table.
type Registry struct {
	mu    sync.RWMutex
	attrs map[string]entry
}

type entry struct {
	mode simtemp.AttrMode
	attr simtemp.Attribute
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{attrs: make(map[string]entry)}
}

// RegisterAttr implements simtemp.AttributeRegistry.
func (r *Registry) RegisterAttr(name string, mode simtemp.AttrMode, a simtemp.Attribute) func() {
	r.mu.Lock()
	r.attrs[name] = entry{mode: mode, attr: a}
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.attrs, name)
		r.mu.Unlock()
	}
}

// Mount wires GET and PUT handlers for every currently- and
// future-registered attribute under prefix (e.g. "/attr") onto group.
// Mount reads the attribute table on each request, so attributes
// registered after Mount is called are served automatically.
func (r *Registry) Mount(group gin.IRouter, prefix string) {
	group.GET(prefix+"/:name", r.handleShow)
	group.PUT(prefix+"/:name", r.handleStore)
}

func (r *Registry) lookup(name string) (entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.attrs[name]
	return e, ok
}

func (r *Registry) handleShow(c *gin.Context) {
	name := c.Param("name")
	e, ok := r.lookup(name)
	if !ok {
		c.String(http.StatusNotFound, "no such attribute\n")
		return
	}
	val, err := e.attr.Show()
	if err != nil {
		writeError(c, err)
		return
	}
	c.String(http.StatusOK, "%s\n", val)
}

func (r *Registry) handleStore(c *gin.Context) {
	name := c.Param("name")
	e, ok := r.lookup(name)
	if !ok {
		c.String(http.StatusNotFound, "no such attribute\n")
		return
	}
	if e.mode != simtemp.AttrReadWrite || e.attr.Store == nil {
		c.String(http.StatusForbidden, "attribute is read-only\n")
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "failed to read request body\n")
		return
	}
	value := strings.TrimRight(string(body), "\n")
	if err := e.attr.Store(value); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, simtemp.ErrInvalidArgument):
		c.String(http.StatusBadRequest, "%s\n", err.Error())
	case errors.Is(err, simtemp.ErrIoFatal), errors.Is(err, simtemp.ErrNoDevice):
		c.String(http.StatusServiceUnavailable, "%s\n", err.Error())
	default:
		c.String(http.StatusInternalServerError, "%s\n", err.Error())
	}
}

// DualMount exposes a single Registry's attribute table at two path
// prefixes on the same router, the Go analogue of the original
// driver's platform-device and class-device sysfs attributes mirroring
// the same underlying state.
func DualMount(r *Registry, engine *gin.Engine, prefixes ...string) {
	for _, p := range prefixes {
		r.Mount(engine, p)
	}
}

// NewEngine builds a gin.Engine with recovery middleware and, when
// debug is set, request logging — matching gin.New()+gin.Recovery()
// plus conditional gin.Logger() from the example pack's server setup.
func NewEngine(debug bool) *gin.Engine {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	if debug {
		engine.Use(gin.Logger())
	}
	return engine
}
