package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/harrison/catcensus/internal/census"
	"github.com/harrison/catcensus/internal/display"
	"github.com/harrison/catcensus/internal/fetch"
	"github.com/harrison/catcensus/internal/history"
	"github.com/harrison/catcensus/internal/parser"
)

// RequestSource is the source name recorded for POSTed payloads without ?source=.
const RequestSource = "request"

func (s *Server) health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *Server) createSummary(c *gin.Context) {
	format, err := requestFormat(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, CodeBadRequest, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, CodePayloadTooLarge,
				fmt.Errorf("payload exceeds %d bytes", tooLarge.Limit))
			return
		}
		respondError(c, http.StatusBadRequest, CodeBadRequest, fmt.Errorf("read body: %w", err))
		return
	}

	source := c.DefaultQuery("source", RequestSource)
	sr := s.runner.Process(c.Request.Context(), &fetch.Payload{
		Source:      source,
		Format:      format,
		ContentType: c.ContentType(),
		Data:        body,
	})

	if sr.Error != nil {
		if census.IsDecodeError(sr.Error) {
			respondError(c, http.StatusBadRequest, CodeDecodeError, sr.Error)
			return
		}
		respondError(c, http.StatusInternalServerError, CodeInternal, sr.Error)
		return
	}

	respondOK(c, display.NewSourceView(sr))
}

// requestFormat resolves the payload format from ?format=, then Content-Type.
// Unknown content types fall through to JSON in the decoder.
func requestFormat(c *gin.Context) (parser.Format, error) {
	if name := c.Query("format"); name != "" {
		return parser.ParseFormat(name)
	}
	return parser.FormatFromContentType(c.GetHeader("Content-Type")), nil
}

func (s *Server) listSummaries(c *gin.Context) {
	if !s.requireHistory(c) {
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(c, http.StatusBadRequest, CodeBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = n
	}

	runs, err := s.store.List(c.Request.Context(), limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, CodeInternal, err)
		return
	}

	if runs == nil {
		runs = []*history.Run{}
	}
	respondOK(c, gin.H{"runs": runs})
}

func (s *Server) getSummary(c *gin.Context) {
	if !s.requireHistory(c) {
		return
	}

	run, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, history.ErrRunNotFound) {
			respondError(c, http.StatusNotFound, CodeNotFound, err)
			return
		}
		respondError(c, http.StatusBadRequest, CodeBadRequest, err)
		return
	}
	respondOK(c, run)
}

func (s *Server) stats(c *gin.Context) {
	if !s.requireHistory(c) {
		return
	}

	st, err := s.store.Stats(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, CodeInternal, err)
		return
	}
	respondOK(c, st)
}

func (s *Server) requireHistory(c *gin.Context) bool {
	if s.store == nil {
		respondError(c, http.StatusServiceUnavailable, CodeHistoryDisabled,
			errors.New("history is disabled; start the server with --record"))
		return false
	}
	return true
}
