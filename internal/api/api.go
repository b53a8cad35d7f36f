package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/karagenc/rduprc/internal/htpasswd"
	"github.com/karagenc/rduprc/internal/rc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const settingsKey = "settings"

// Server exposes the settings of an rc file over HTTP. The file is loaded
// again for every request.
type Server struct {
	rcPath string
	loader *rc.Loader
	log    *zap.Logger

	e *echo.Echo
	s *http.Server
}

func New(rcPath string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		rcPath: rcPath,
		loader: rc.NewLoader(log),
		log:    log,
		e:      e,
		s:      &http.Server{Handler: e},
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	s.e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "Pong")
	})
	g := s.e.Group("/settings", s.loadSettings)
	g.GET("", s.getSettings)
	g.GET("/:key", s.getSetting)
}

func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) ListenAndServe(addr string) error {
	s.s.Addr = addr
	s.log.Sugar().Infof("Listening on: http://%s", addr)
	err := s.s.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error { return s.s.Shutdown(ctx) }

// loadSettings reads the rc file and, when it names an HTPASSWD file,
// requires basic auth against it.
func (s *Server) loadSettings(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		settings := s.loader.Load(s.rcPath)
		c.Set(settingsKey, settings)
		if settings.Htpasswd == "" {
			return next(c)
		}

		f, err := htpasswd.Load(settings.Htpasswd)
		if err != nil {
			s.log.Error("htpasswd unreadable", zap.String("path", settings.Htpasswd), zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "credentials unavailable")
		}
		basicAuth := middleware.BasicAuthWithConfig(middleware.BasicAuthConfig{
			Realm: "rdup",
			Validator: func(username, password string, c echo.Context) (bool, error) {
				return f.Verify(username, password), nil
			},
		})
		return basicAuth(next)(c)
	}
}

func (s *Server) getSettings(c echo.Context) error {
	settings := c.Get(settingsKey).(rc.Settings)
	return c.JSON(http.StatusOK, settings.Map())
}

func (s *Server) getSetting(c echo.Context) error {
	settings := c.Get(settingsKey).(rc.Settings)
	value, ok := settings.Get(c.Param("key"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unrecognized key: "+c.Param("key"))
	}
	return c.String(http.StatusOK, value)
}
