package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/genome-variant-explorer/internal/domain"
	"github.com/genome-variant-explorer/internal/middleware"
)

const (
	wsWriteWait      = 10 * time.Second
	wsReadWait       = 30 * time.Second
	wsMaxMessageSize = 1 << 20
)

// streamError is sent instead of outcomes when the batch itself is rejected.
type streamError struct {
	Error *domain.APIError `json:"error"`
}

// handleAnalyzeStream upgrades to a websocket, reads one BatchAnalysisRequest,
// writes one VariantAnalysisOutcome per variant as each completes, then
// closes normally.
func (s *Server) handleAnalyzeStream(c *gin.Context) {
	origins := s.configManager.GetServerConfig().AllowedOrigins
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || originAllowed(origins, origin)
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	log := s.logger.WithField("correlation_id", c.GetString(middleware.CorrelationIDKey))

	conn.SetReadLimit(wsMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadWait))

	var req BatchAnalysisRequest
	if err := conn.ReadJSON(&req); err != nil {
		s.closeStream(conn, websocket.CloseUnsupportedData, "expected a JSON batch request", log)
		return
	}
	if err := validateBatch(req.Variants); err != nil {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		_ = conn.WriteJSON(streamError{Error: domain.NewAPIError(domain.ErrorCode(err), err.Error(), "", c.GetString(middleware.CorrelationIDKey))})
		s.closeStream(conn, websocket.ClosePolicyViolation, "invalid batch", log)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Any further client frame, or the client going away, stops the batch.
	go func() {
		_ = conn.SetReadDeadline(time.Time{})
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	sent := 0
	s.browser.AnalyzeVariantsStream(ctx, req.Variants, func(outcome domain.VariantAnalysisOutcome) {
		if ctx.Err() != nil {
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(outcome); err != nil {
			log.WithError(err).Debug("Websocket write failed")
			cancel()
			return
		}
		sent++
	})

	log.WithFields(logrus.Fields{"requested": len(req.Variants), "sent": sent}).Info("Streamed variant analyses")
	s.closeStream(conn, websocket.CloseNormalClosure, "done", log)
}

func (s *Server) closeStream(conn *websocket.Conn, code int, text string, log *logrus.Entry) {
	msg := websocket.FormatCloseMessage(code, text)
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteWait)); err != nil {
		log.WithError(err).Debug("Websocket close failed")
	}
}
