package router

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/session"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
)

// Handler returns a payload for the success envelope or an error for the
// error envelope.
type Handler func(r *Request) (any, error)

// Config holds dependencies required to build a Router.
type Config struct {
	Config     config.Config
	UUID       uid.StringID // correlation ids
	OID        uid.StringID // session ids
	JWT        jwt.JWT      // session cookie signer
	Instrument instrument.Instrumentation
	Sessions   session.Store
	Cookie     CookieConfig
}

// Router is an http.Handler over httprouter with a shared middleware stack.
type Router struct {
	mux   *httprouter.Router
	stack []Middleware
}

func NewRouter(cfg Config) *Router {
	mux := httprouter.New()
	mux.SaveMatchedRoutePath = true
	mux.NotFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, errorResponse{Message: "endpoint not found"}, http.StatusNotFound)
	})
	mux.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, errorResponse{Message: "method not allowed"}, http.StatusMethodNotAllowed)
	})

	return &Router{
		mux: mux,
		stack: []Middleware{
			middlewareRecoverer,
			middlewareIP,
			middlewareCorrelationID(cfg.UUID),
			middlewareObservability(cfg.Config, cfg.Instrument),
			middlewareMaintenance(cfg.Config),
			middlewareSession(cfg.JWT, cfg.Sessions, cfg.OID, cfg.Cookie),
		},
	}
}

func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.Handle(http.MethodGet, path, h, mws...)
}

func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.Handle(http.MethodPost, path, h, mws...)
}

// GETRaw registers a GET endpoint that writes its own response.
func (r *Router) GETRaw(path string, h http.Handler, mws ...Middleware) {
	r.mount(http.MethodGet, path, h, mws)
}

func (r *Router) Handle(method, path string, h Handler, mws ...Middleware) {
	r.mount(method, path, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		resp, err := h(&Request{Request: req})
		if err != nil {
			if rec, ok := w.(interface{ SetError(error) }); ok {
				rec.SetError(err)
			}
			writeError(w, err)
			return
		}
		writeSuccess(w, resp)
	}), mws)
}

func (r *Router) mount(method, path string, h http.Handler, extra []Middleware) {
	mws := make([]Middleware, 0, len(r.stack)+len(extra))
	mws = append(mws, r.stack...)
	mws = append(mws, extra...)
	r.mux.Handler(method, path, Chain(h, mws...))
}

// Redirect answers with 303 so browsers follow up with a GET.
func Redirect(w http.ResponseWriter, r *http.Request, location string) {
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}
