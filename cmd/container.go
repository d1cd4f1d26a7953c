package cmd

import (
	"time"

	"journal/api/router/handlers"
	"journal/config"
	"journal/core"
	"journal/database"
	"journal/ratelimit"
	"journal/validation"

	"github.com/samber/do/v2"
)

// newContainer registers the object graph. Providers are lazy: the database is only opened by
// commands that need it. Services implementing Shutdown() error are closed by injector.Shutdown.
func newContainer(dbPath string) *do.RootScope {
	i := do.New()

	do.Provide(i, func(i do.Injector) (*database.Store, error) {
		return database.Open(dbPath)
	})
	do.Provide(i, func(i do.Injector) (*validation.Validator, error) {
		return validation.New(), nil
	})
	do.Provide(i, func(i do.Injector) (*core.TokenIssuer, error) {
		return core.NewTokenIssuer(config.AppConfig.Auth.TokenSecret, config.AppConfig.Auth.TokenTTL)
	})
	do.Provide(i, func(i do.Injector) (*ratelimit.KeyedRateLimiter, error) {
		perMinute := float64(config.AppConfig.Auth.LoginRatePerMinute)
		if perMinute <= 0 {
			perMinute = 10
		}
		return ratelimit.New(perMinute, int(perMinute), 10*time.Minute), nil
	})
	do.Provide(i, func(i do.Injector) (*core.AuthService, error) {
		return core.NewAuthService(do.MustInvoke[*database.Store](i), 0), nil
	})
	do.Provide(i, func(i do.Injector) (*core.JournalService, error) {
		return core.NewJournalService(do.MustInvoke[*database.Store](i), do.MustInvoke[*validation.Validator](i), config.AppConfig.UI.PageSize), nil
	})
	do.Provide(i, func(i do.Injector) (*core.AssociationManager, error) {
		return core.NewAssociationManager(do.MustInvoke[*database.Store](i)), nil
	})
	do.Provide(i, func(i do.Injector) (*handlers.Handler, error) {
		return &handlers.Handler{
			Store:     do.MustInvoke[*database.Store](i),
			Journal:   do.MustInvoke[*core.JournalService](i),
			Auth:      do.MustInvoke[*core.AuthService](i),
			Tokens:    do.MustInvoke[*core.TokenIssuer](i),
			Validator: do.MustInvoke[*validation.Validator](i),
			Limiter:   do.MustInvoke[*ratelimit.KeyedRateLimiter](i),
			Cookie: handlers.CookieSettings{
				Name:   config.AppConfig.Auth.CookieName,
				Secure: config.AppConfig.Auth.CookieSecure,
			},
		}, nil
	})

	return i
}
