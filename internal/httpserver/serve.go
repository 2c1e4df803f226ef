package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/andrebq/turnstile/internal/logutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// Serve runs handler on bind until ctx is done, then shuts the server down
// giving in-flight requests up to a minute to finish.
func Serve(ctx context.Context, bind string, handler http.Handler) error {
	server := http.Server{
		Handler:           WithLogging(logutil.GetOrDefault(ctx), handler),
		Addr:              bind,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute * 5,
	}
	err := make(chan error, 1)
	done := make(chan struct{})
	go serveInBackground(ctx, &server, err, done)
	<-done
	return <-err
}

// WithLogging makes log available to handlers through logutil.GetOrDefault
// and emits one access log line per request.
func WithLogging(log zerolog.Logger, next http.Handler) http.Handler {
	access := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		l := logutil.GetOrDefault(r.Context())
		l.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Access")
	})(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		access.ServeHTTP(w, r.WithContext(logutil.WithLogger(r.Context(), log)))
	})
}

func serveInBackground(ctx context.Context, server *http.Server, firstErr chan<- error, done chan<- struct{}) {
	log := logutil.GetOrDefault(ctx).With().Str("server.addr", server.Addr).Logger()
	defer close(done)
	serverCtx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		defer close(firstErr)
		log.Info().Msg("Starting HTTP server")
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			log.Info().Msg("Server closed")
			return
		} else if err != nil {
			select {
			case firstErr <- err:
			default:
			}
			return
		}
	}()
	<-serverCtx.Done()
	if ctx.Err() == nil {
		// listener failed on its own, nothing to shutdown
		return
	}
	log.Info().Msg("Initiating shutdown process")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), time.Minute)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown did not complete cleanly")
		return
	}
	log.Info().Msg("Shutdown completed")
}
