package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authdeck/internal/guard"
)

// sseNavigator turns guard navigation into redirect events on the stream so
// the page can follow them
type sseNavigator struct {
	targets chan string
}

func (n *sseNavigator) Push(path string)    { n.send(path) }
func (n *sseNavigator) Replace(path string) { n.send(path) }

func (n *sseNavigator) send(path string) {
	select {
	case n.targets <- path:
	default:
	}
}

// streamAuthState serves the auth-state-change stream over SSE. A session
// guard is mounted for the lifetime of the connection: state changes are
// forwarded as events and guard-initiated redirects are delivered to the
// client instead of being applied server-side.
func (s *Server) streamAuthState(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Streaming unsupported"})
		return
	}

	rec, _ := currentSession(c)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	nav := &sseNavigator{targets: make(chan string, 1)}
	g := guard.New(s.broadcaster, s.provider, nav, rec.RefreshToken, slog.Default())
	g.Mount()
	defer g.Unmount()

	states, cancel := s.broadcaster.Subscribe()
	defer cancel()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case target := <-nav.targets:
			fmt.Fprintf(c.Writer, "event: redirect\ndata: %s\n\n", target)
			flusher.Flush()
			return
		case state, open := <-states:
			if !open {
				return
			}
			payload, err := json.Marshal(state)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "event: state\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
