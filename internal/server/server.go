package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"ecshop/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	shutdownTimeout = 10 * time.Second
	bodyLimit       = "10M"
)

type Options struct {
	Addr      string
	FEURL     string
	UploadDir string
	// 1IPあたりの秒間リクエスト数。0なら制限しない
	RateLimit float64
}

// echoを組み立てる。ルートはまだ載せない
func New(opts Options, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{strings.TrimRight(opts.FEURL, "/")},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			"X-Idempotency-Key",
		},
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		ExposeHeaders: []string{echo.HeaderContentDisposition},
	}))
	e.Use(echomw.BodyLimit(bodyLimit))
	if opts.RateLimit > 0 {
		e.Use(echomw.RateLimiter(echomw.NewRateLimiterMemoryStore(rate.Limit(opts.RateLimit))))
	}
	return e
}

// ctxが終わるまで動かし、終わったら graceful shutdown する
func Start(ctx context.Context, e *echo.Echo, addr string, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info().Msg("server shutting down")
	return e.Shutdown(shutdownCtx)
}
