package middleware

import (
	"github.com/MicahParks/keyfunc/v3"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/houmingya/LLM-MCP-TOOLS/pkg/ai"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/graph"
	"github.com/houmingya/LLM-MCP-TOOLS/pkg/query"
)

// App holds the shared service dependencies handed to every request.
// Engine, Query and AiClient are always present. DBConn, Queue, S3 and Key
// are nil when the corresponding backend is not configured; handlers that
// need them answer 503 in that case.
type App struct {
	Engine   *graph.Engine
	Query    *query.Client
	AiClient ai.ExtractorClient

	DBConn *pgxpool.Pool
	Queue  *amqp091.Channel
	S3     *s3.Client

	Key          *keyfunc.Keyfunc
	MasterAPIKey string
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
