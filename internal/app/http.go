package app

import (
	"context"

	apphttp "github.com/yungbote/court-deployer/internal/http"
	httpH "github.com/yungbote/court-deployer/internal/http/handlers"
	httpMW "github.com/yungbote/court-deployer/internal/http/middleware"
)

func (a *App) RouterConfig() apphttp.RouterConfig {
	rc := apphttp.RouterConfig{
		Log:               a.Log,
		CORSOrigins:       a.Cfg.HTTP.CORSOrigins,
		HealthHandler:     httpH.NewHealthHandler(),
		DeploymentHandler: httpH.NewDeploymentHandler(a.Log, a.backend.open, a.backend.runs),
	}
	if a.Cfg.Otel.Enabled {
		rc.ServiceName = a.Cfg.Otel.ServiceName
	}
	if a.Cfg.HTTP.JWTSecret != "" {
		rc.AuthMiddleware = httpMW.NewAuthMiddleware(a.Log, a.Cfg.HTTP.JWTSecret)
	}
	return rc
}

// Serve runs the status API until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	a.Log.Info("Serving status API", "addr", a.Cfg.HTTP.Addr, "store", a.Cfg.Store.Driver)
	return apphttp.NewServer(a.RouterConfig()).Run(ctx, a.Cfg.HTTP.Addr)
}
