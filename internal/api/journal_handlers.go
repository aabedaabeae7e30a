package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"asteritime/internal/model"
	"asteritime/internal/service"
)

type journalRequest struct {
	Date              *string `json:"date"`
	Title             *string `json:"title"`
	Content           *string `json:"contentText"`
	ImageURLs         *string `json:"imageUrls"`
	Weather           *string `json:"weather"`
	Mood              *string `json:"mood"`
	Activity          *string `json:"activity"`
	VoiceNoteURL      *string `json:"voiceNoteUrl"`
	Evaluation        *string `json:"evaluation"`
	TotalFocusMinutes *int    `json:"totalFocusMinutes" binding:"omitempty,min=0"`
	Version           *int64  `json:"version"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r journalRequest) draft() (service.JournalDraft, error) {
	d := service.JournalDraft{
		Title:        deref(r.Title),
		Content:      deref(r.Content),
		ImageURLs:    deref(r.ImageURLs),
		Weather:      deref(r.Weather),
		Mood:         deref(r.Mood),
		Activity:     deref(r.Activity),
		VoiceNoteURL: deref(r.VoiceNoteURL),
		Evaluation:   deref(r.Evaluation),
	}
	if r.TotalFocusMinutes != nil {
		d.TotalFocusMinutes = *r.TotalFocusMinutes
	}
	if r.Date != nil && *r.Date != "" {
		date, err := parseDate(*r.Date)
		if err != nil {
			return d, err
		}
		d.Date = date
	}
	return d, nil
}

func (r journalRequest) patch() (service.JournalPatch, error) {
	p := service.JournalPatch{
		Title:             r.Title,
		Content:           r.Content,
		ImageURLs:         r.ImageURLs,
		Weather:           r.Weather,
		Mood:              r.Mood,
		Activity:          r.Activity,
		VoiceNoteURL:      r.VoiceNoteURL,
		Evaluation:        r.Evaluation,
		TotalFocusMinutes: r.TotalFocusMinutes,
		Version:           r.Version,
	}
	if r.Date != nil {
		date, err := parseDate(*r.Date)
		if err != nil {
			return p, err
		}
		p.Date = &date
	}
	return p, nil
}

type focusTimeRequest struct {
	Date    string `json:"date"`
	Minutes int    `json:"minutes" binding:"required,min=1"`
}

type evaluationRequest struct {
	Date       string `json:"date"`
	Evaluation string `json:"evaluation"`
}

func (s *Server) listJournalEntries(c *gin.Context) {
	entries, err := s.journal.ListEntries(c.Request.Context(), ownerID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) createJournalEntry(c *gin.Context) {
	var req journalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	draft, err := req.draft()
	if err != nil {
		badRequest(c, err)
		return
	}

	entry, err := s.journal.CreateEntry(c.Request.Context(), ownerID(c), draft)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (s *Server) getJournalEntry(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	entry, err := s.journal.GetEntry(c.Request.Context(), ownerID(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) updateJournalEntry(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	var req journalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	patch, err := req.patch()
	if err != nil {
		badRequest(c, err)
		return
	}

	entry, err := s.journal.UpdateEntry(c.Request.Context(), ownerID(c), id, patch)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) deleteJournalEntry(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	deleted, err := s.journal.DeleteEntry(c.Request.Context(), ownerID(c), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if !deleted {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "journal entry not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) journalByDate(c *gin.Context) {
	raw := c.Query("date")
	if raw == "" {
		badRequest(c, errors.New("date is required"))
		return
	}
	date, err := parseDate(raw)
	if err != nil {
		badRequest(c, err)
		return
	}
	entries, err := s.journal.ListByDate(c.Request.Context(), ownerID(c), date)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) journalByDateRange(c *gin.Context) {
	from, err := parseDate(c.Query("startDate"))
	if err != nil {
		badRequest(c, err)
		return
	}
	to, err := parseDate(c.Query("endDate"))
	if err != nil {
		badRequest(c, err)
		return
	}
	entries, err := s.journal.ListByDateRange(c.Request.Context(), ownerID(c), from, to)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// journalToday returns the earliest entry of today, creating it if needed.
func (s *Server) journalToday(c *gin.Context) {
	entry, err := s.journal.GetOrCreate(c.Request.Context(), ownerID(c), s.journal.Today())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) focusTime(c *gin.Context) {
	date, err := s.queryDate(c, "date")
	if err != nil {
		badRequest(c, err)
		return
	}
	total, err := s.journal.TotalFocusMinutes(c.Request.Context(), ownerID(c), date)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": model.DateKey(date), "totalFocusMinutes": total})
}

func (s *Server) addFocusTime(c *gin.Context) {
	var req focusTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	date := s.journal.Today()
	if req.Date != "" {
		parsed, err := parseDate(req.Date)
		if err != nil {
			badRequest(c, err)
			return
		}
		date = parsed
	}

	entry, err := s.journal.AddFocusMinutes(c.Request.Context(), ownerID(c), date, req.Minutes)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) getEvaluation(c *gin.Context) {
	date, err := s.queryDate(c, "date")
	if err != nil {
		badRequest(c, err)
		return
	}
	entry, err := s.journal.Evaluation(c.Request.Context(), ownerID(c), date)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) putEvaluation(c *gin.Context) {
	var req evaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	date := s.journal.Today()
	if req.Date != "" {
		parsed, err := parseDate(req.Date)
		if err != nil {
			badRequest(c, err)
			return
		}
		date = parsed
	}

	entry, err := s.journal.UpsertEvaluation(c.Request.Context(), ownerID(c), date, req.Evaluation)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}
