package http

import (
	infra "github.com/aulaflow/streaks-backend/internal/infrastructure"
	"github.com/labstack/echo/v4"
)

func v1Endpoint(
	StreakHandler *StreakHandler,
	requestIDMiddleware echo.MiddlewareFunc,
	traceLoggerMiddleware echo.MiddlewareFunc,
) *endpoint {
	return &endpoint{
		apiVersion:  "api/v1",
		middlewares: []echo.MiddlewareFunc{requestIDMiddleware, traceLoggerMiddleware},
		groups: []*apiGroup{
			{
				prefix: "/streak",
				routes: []*route{
					{"POST", "/completion", StreakHandler.HandleRecordCompletion, nil},
					{"GET", "/stats", StreakHandler.HandleGetStats, nil},
					{"GET", "/points/preview", StreakHandler.HandlePointsPreview, nil},
					{"POST", "/recovery", StreakHandler.HandleUseRecovery, nil},
				},
			},
			{
				prefix: "/ws",
				routes: []*route{
					{"GET", "/stats", infra.WithHeartbeat(StreakHandler.StatsFeed), nil},
				},
			},
		},
	}
}
