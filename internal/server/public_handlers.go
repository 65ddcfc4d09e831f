package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/masjidku/masjidku-web/internal/auth"
	"github.com/masjidku/masjidku-web/internal/backend"
	"github.com/masjidku/masjidku-web/internal/models"
	"github.com/masjidku/masjidku-web/internal/prayer"
)

type landingPage struct {
	Title      string
	User       *models.User
	Prayer     *prayer.Times
	Activities []models.Activity
	Articles   []models.Article
}

// landing is the public home page: prayer times plus the latest activities
// and articles. Backend failures only hide the affected section.
func (s *Server) landing(c *gin.Context) {
	session := auth.MustSession(c)
	ctx := c.Request.Context()

	page := landingPage{Title: "Masjidku", User: session.User()}
	if times, ok := s.prayer.Today(); ok {
		page.Prayer = times
	}

	creds := session.Credentials()
	if activities, err := s.client.ListActivities(ctx, creds, backend.ListParams{}); err == nil {
		page.Activities = firstN(activities.Data, 3)
	} else {
		s.logger.Warn().Err(err).Msg("Failed to load activities for landing page")
	}
	if articles, err := s.client.ListArticles(ctx, creds, backend.ListParams{}); err == nil {
		page.Articles = firstN(articles.Data, 3)
	} else {
		s.logger.Warn().Err(err).Msg("Failed to load articles for landing page")
	}

	c.HTML(http.StatusOK, "landing.html", page)
}

func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func (s *Server) notFound(c *gin.Context) {
	var user *models.User
	if session, ok := auth.GetSession(c); ok {
		user = session.User()
	}
	c.HTML(http.StatusNotFound, "notfound.html", authPage{Title: "Halaman tidak ditemukan", User: user})
}
