package deps

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/herald/internal/challenges"
	"github.com/MrSnakeDoc/herald/internal/comments"
	"github.com/MrSnakeDoc/herald/internal/feedback"
	"github.com/MrSnakeDoc/herald/internal/index"
	"github.com/MrSnakeDoc/herald/internal/logger"
	"github.com/MrSnakeDoc/herald/internal/ratings"
	"github.com/MrSnakeDoc/herald/internal/votes"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string

	AllowedHosts []string // Host headers allowed on /api
	AllowedCIDRS []string // networks allowed on infra endpoints
	TrustProxy   bool     // resolve client IPs from proxy headers

	RateLimitBurst     int // mutations per actor in a burst
	RateLimitPerMinute int // sustained mutations per actor

	RedisClient *redis.Client     // nil disables the readiness ping
	Containers  *index.Containers // published admin settings
	Gatherer    prometheus.Gatherer

	Comments   *comments.Service
	Challenges *challenges.Service
	Feedback   *feedback.Service
	Votes      *votes.Service
	Ratings    *ratings.Service

	ReloadTrigger chan struct{} // manual settings reload, buffered(1)
}
