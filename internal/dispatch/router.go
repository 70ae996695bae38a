package dispatch

import (
	"context"
	"strings"

	"github.com/ent0n29/ayanamist/internal/logging"
	"github.com/ent0n29/ayanamist/internal/platform"
)

// Namespace is the leading segment of a component custom id. The set is
// closed; anything else maps to NamespaceUnknown.
type Namespace int

const (
	NamespaceUnknown Namespace = iota
	NamespaceCaptcha
	NamespaceProxy
)

func (n Namespace) String() string {
	switch n {
	case NamespaceCaptcha:
		return "captcha"
	case NamespaceProxy:
		return "proxy"
	default:
		return "unknown"
	}
}

// ParseCustomID splits a component custom id into its namespace and the
// remainder after the first delimiter.
func ParseCustomID(id string) (Namespace, string) {
	head, rest, _ := strings.Cut(id, ":")
	switch head {
	case "captcha":
		return NamespaceCaptcha, rest
	case "proxy":
		return NamespaceProxy, rest
	default:
		return NamespaceUnknown, rest
	}
}

// HandlerFunc handles a component interaction; rest is the custom id with the
// namespace prefix stripped.
type HandlerFunc func(ctx context.Context, ic *platform.Interaction, rest string) error

// Router maps component namespaces to their owning subsystem. Routing mutates
// no state; unknown namespaces are logged and dropped, since stale components
// may outlive a redeploy.
type Router struct {
	handlers map[Namespace]HandlerFunc
}

func NewRouter() *Router {
	return &Router{handlers: make(map[Namespace]HandlerFunc)}
}

func (r *Router) Handle(ns Namespace, fn HandlerFunc) {
	r.handlers[ns] = fn
}

// Dispatch routes one component interaction to its handler.
func (r *Router) Dispatch(ctx context.Context, ic *platform.Interaction) error {
	if ic.Data == nil || ic.Data.CustomID == "" {
		return nil
	}
	ns, rest := ParseCustomID(ic.Data.CustomID)
	fn, ok := r.handlers[ns]
	if !ok {
		logging.With("dispatch").Warn().
			Str("custom_id", ic.Data.CustomID).
			Msg("unknown component namespace")
		return nil
	}
	return fn(ctx, ic, rest)
}
