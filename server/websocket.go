package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/xhad/medisimplify/internal/models"
	"github.com/xhad/medisimplify/pkg/render"
	"github.com/xhad/medisimplify/pkg/simplify"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

// conn serialises writes; gorilla connections allow one concurrent writer.
type conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	log := logger(r)
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &conn{ws: ws}
	defer ws.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("websocket read")
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Debug().Err(err).Msg("invalid websocket message")
			s.sendMessage(log, c, "error", "invalid message", nil)
			continue
		}

		// One submission at a time per connection, as in the form flow.
		s.handleMessage(ctx, log, c, msg)
	}
}

func (s *Server) handleMessage(ctx context.Context, log *zerolog.Logger, c *conn, msg Message) {
	if msg.Type != "" && msg.Type != "simplify" {
		s.sendMessage(log, c, "error", "unknown message type: "+msg.Type, nil)
		return
	}

	text, truncated := s.processor.Truncate(msg.Content)
	if truncated {
		s.sendMessage(log, c, "status", "Text truncated for processing efficiency", nil)
	}
	doc := models.Document{Source: models.SourceText, Content: text, Truncated: truncated}

	if err := s.service.Check(text); err != nil {
		s.sendMessage(log, c, "error", simplify.Message(err), nil)
		return
	}

	if s.config.Streaming && s.streamer != nil {
		s.stream(ctx, log, c, text)
		return
	}

	progress := func(percent int, status string) {
		s.sendMessage(log, c, "progress", status, percent)
	}
	result, err := s.service.Simplify(ctx, doc, progress)
	if err != nil {
		s.sendMessage(log, c, "error", simplify.Message(err), nil)
		return
	}
	s.sendResponse(log, c, result.Simplified)
}

func (s *Server) stream(ctx context.Context, log *zerolog.Logger, c *conn, text string) {
	s.sendMessage(log, c, "progress", "Processing with AI...", 10)
	stream, err := s.streamer.SimplifyStream(ctx, text)
	if err != nil {
		s.sendMessage(log, c, "error", simplify.Message(err), nil)
		return
	}

	var b strings.Builder
	for chunk := range stream {
		if strings.HasPrefix(chunk, "Error:") {
			s.sendMessage(log, c, "error", "An error occurred: "+strings.TrimSpace(strings.TrimPrefix(chunk, "Error:")), nil)
			return
		}
		b.WriteString(chunk)
		s.sendMessage(log, c, "stream", chunk, nil)
	}
	s.sendMessage(log, c, "progress", "Done", 100)
	s.sendResponse(log, c, strings.TrimSpace(b.String()))
}

func (s *Server) sendResponse(log *zerolog.Logger, c *conn, simplified string) {
	data := map[string]string{"filename": render.TextFilename}
	if html, err := render.HTML(simplified); err == nil {
		data["html"] = string(html)
	}
	s.sendMessage(log, c, "response", simplified, data)
}

func (s *Server) sendMessage(log *zerolog.Logger, c *conn, msgType string, content string, data interface{}) {
	msg := Message{
		Type:    msgType,
		Content: content,
		Data:    data,
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.WriteJSON(msg); err != nil {
		log.Debug().Err(err).Msg("error sending message")
	}
}
