package httpadapter

import (
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PabloGalante/counsel-agent/internal/app/conversation"
	"github.com/PabloGalante/counsel-agent/internal/app/risk"
	"github.com/PabloGalante/counsel-agent/internal/app/wizard"
	"github.com/PabloGalante/counsel-agent/internal/domain"
	"github.com/PabloGalante/counsel-agent/internal/observability"
)

// Deps are the services exposed over HTTP. Recognizer may be nil.
type Deps struct {
	Sessions       *conversation.Service
	Evaluator      *risk.Evaluator
	Recognizer     domain.AudioRecognizer
	MaxUploadBytes int64
}

type Server struct {
	sessions   *conversation.Service
	evaluator  *risk.Evaluator
	recognizer domain.AudioRecognizer
	maxUpload  int64
}

// NewServer builds the gin engine with all routes and middleware.
func NewServer(deps Deps) http.Handler {
	s := &Server{
		sessions:   deps.Sessions,
		evaluator:  deps.Evaluator,
		recognizer: deps.Recognizer,
		maxUpload:  deps.MaxUploadBytes,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestID(), accessLog(), metrics(), cors())
	if s.maxUpload > 0 {
		engine.MaxMultipartMemory = s.maxUpload
	}

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	threads := engine.Group("/threads")
	threads.GET("", s.listThreads)
	threads.POST("", s.createThread)
	threads.PATCH("/:id", s.renameThread)
	threads.DELETE("/:id", s.deleteThread)
	threads.GET("/:id/messages", s.getMessages)
	threads.POST("/:id/messages", s.submit)

	session := engine.Group("/session")
	session.GET("", s.getSession)
	session.PUT("/active", s.selectThread)
	session.PUT("/draft", s.setDraft)
	session.DELETE("/draft", s.clearDraft)

	riskGroup := engine.Group("/risk")
	riskGroup.GET("/steps", s.riskSteps)
	riskGroup.POST("/evaluate", s.evaluate)

	engine.POST("/audio/identify", s.identifyAudio)

	return engine
}

// ─────────────────────────────────────────────
// Threads
// ─────────────────────────────────────────────

func (s *Server) listThreads(c *gin.Context) {
	threads, err := s.sessions.ListThreads(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]threadResponse, 0, len(threads))
	for _, t := range threads {
		out = append(out, toThreadResponse(t, s.sessions))
	}
	if strings.EqualFold(c.Query("order"), "desc") {
		slices.Reverse(out)
	}

	c.JSON(http.StatusOK, listThreadsResponse{
		Threads:        out,
		ActiveThreadID: string(s.sessions.ActiveThread()),
	})
}

func (s *Server) createThread(c *gin.Context) {
	var req createThreadRequest
	// an empty body means a default name
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid JSON body")
		return
	}

	th, err := s.sessions.NewThread(c.Request.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toThreadResponse(th, s.sessions))
}

func (s *Server) renameThread(c *gin.Context) {
	var req renameThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name is required")
		return
	}

	if err := s.sessions.RenameThread(c.Request.Context(), threadID(c), req.Name); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteThread(c *gin.Context) {
	if err := s.sessions.DeleteThread(c.Request.Context(), threadID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ─────────────────────────────────────────────
// Messages
// ─────────────────────────────────────────────

func (s *Server) getMessages(c *gin.Context) {
	id := threadID(c)
	msgs, err := s.sessions.Timeline(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, timelineResponse{
		ThreadID: string(id),
		Pending:  s.sessions.IsPending(id),
		Messages: toMessagesResponse(msgs),
	})
}

// submit accepts JSON {text, attachment_url} or a multipart form with text
// and an optional file. ?async=true answers 202 with the pending placeholder.
func (s *Server) submit(c *gin.Context) {
	in := conversation.SubmitInput{ThreadID: threadID(c)}

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if s.maxUpload > 0 {
			// room for the text fields on top of the file
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload+1<<20)
		}

		var req submitRequest
		if err := c.ShouldBind(&req); err != nil {
			badRequest(c, "invalid form body")
			return
		}
		in.Text = req.Text
		if req.AttachmentURL != "" {
			in.Attachment = &domain.Attachment{URL: req.AttachmentURL}
		}

		fh, err := c.FormFile("file")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			badRequest(c, "invalid file upload")
			return
		default:
			f, err := fh.Open()
			if err != nil {
				badRequest(c, "invalid file upload")
				return
			}
			defer f.Close()

			in.Attachment = &domain.Attachment{File: &domain.LocalFile{
				Name:        fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
				Data:        f,
			}}
		}
	} else {
		var req submitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid JSON body")
			return
		}
		in.Text = req.Text
		if req.AttachmentURL != "" {
			in.Attachment = &domain.Attachment{URL: req.AttachmentURL}
		}
	}

	ctx := c.Request.Context()
	if c.Query("async") == "true" {
		out, err := s.sessions.SubmitAsync(ctx, in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, toSubmitResponse(out))
		return
	}

	out, err := s.sessions.Submit(ctx, in)
	if err != nil && out != nil {
		// analysis failed: the user message and the failed reply still exist
		resp := toSubmitResponse(out)
		resp.Error = err.Error()
		c.JSON(statusFor(err), resp)
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSubmitResponse(out))
}

// ─────────────────────────────────────────────
// Session
// ─────────────────────────────────────────────

func (s *Server) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, s.sessions.State())
}

func (s *Server) selectThread(c *gin.Context) {
	var req selectThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "thread_id is required")
		return
	}

	if err := s.sessions.SelectThread(c.Request.Context(), domain.ThreadID(req.ThreadID)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) setDraft(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}

	s.sessions.SetDraft(conversation.Draft{Text: req.Text, AttachmentURL: req.AttachmentURL})
	c.Status(http.StatusNoContent)
}

func (s *Server) clearDraft(c *gin.Context) {
	s.sessions.ClearDraft()
	c.Status(http.StatusNoContent)
}

// ─────────────────────────────────────────────
// Risk and audio
// ─────────────────────────────────────────────

func (s *Server) riskSteps(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"steps": wizard.Steps()})
}

func (s *Server) evaluate(c *gin.Context) {
	var facts domain.FactSet
	if err := c.ShouldBindJSON(&facts); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}

	findings := s.evaluator.Evaluate(facts)
	for _, f := range findings {
		observability.RecordFinding(string(f.Severity))
	}
	c.JSON(http.StatusOK, findingsResponse{Findings: findings})
}

func (s *Server) identifyAudio(c *gin.Context) {
	if s.recognizer == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "audio identification is not configured"})
		return
	}

	var req identifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "missing or invalid audio url")
		return
	}

	rec, err := s.recognizer.Identify(c.Request.Context(), req.URL)
	if err != nil {
		log := observability.LoggerFromContext(c.Request.Context())
		log.Error().Err(err).Msg("audio identification failed")
		c.JSON(http.StatusBadGateway, errorResponse{Error: "audio identification failed"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

func threadID(c *gin.Context) domain.ThreadID {
	return domain.ThreadID(c.Param("id"))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUploadFailed), errors.Is(err, domain.ErrAnalysisFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	c.JSON(status, errorResponse{Error: msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}
