package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readtrack/internal/entities"
	"github.com/mrlokans/readtrack/internal/stats"
)

// StatsController serves aggregate reading statistics and the reading goal.
type StatsController struct {
	source StatsSource
	cache  *stats.Cache
	now    func() time.Time
}

func NewStatsController(source StatsSource, cache *stats.Cache, now func() time.Time) *StatsController {
	if cache == nil {
		cache = &stats.Cache{}
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &StatsController{source: source, cache: cache, now: now}
}

// Summary handles GET /api/stats
func (sc *StatsController) Summary(c *gin.Context) {
	c.JSON(http.StatusOK, sc.cache.Summary(sc.source, sc.now()))
}

// Tags handles GET /api/stats/tags
func (sc *StatsController) Tags(c *gin.Context) {
	tags := stats.TagFrequency(sc.source.Books())
	c.JSON(http.StatusOK, gin.H{"tags": tags, "count": len(tags)})
}

// Monthly handles GET /api/stats/monthly?year=
func (sc *StatsController) Monthly(c *gin.Context) {
	now := sc.now()
	year, ok := parseIntQuery(c, "year", now.Year())
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"year":   year,
		"months": stats.MonthlySummary(sc.source.Books(), year, now.Location()),
	})
}

type goalResponse struct {
	Goal     *entities.ReadingGoal `json:"goal"`
	Progress *stats.GoalProgress   `json:"progress,omitempty"`
}

// GetGoal handles GET /api/goal
func (sc *StatsController) GetGoal(c *gin.Context) {
	goal, ok := sc.source.Goal()
	if !ok {
		c.JSON(http.StatusOK, goalResponse{})
		return
	}
	progress := stats.Progress(goal, sc.source.Books(), sc.now())
	c.JSON(http.StatusOK, goalResponse{Goal: &goal, Progress: &progress})
}

// SetGoal handles PUT /api/goal
func (sc *StatsController) SetGoal(c *gin.Context) {
	var goal entities.ReadingGoal
	if !bindJSON(c, &goal) {
		return
	}
	if err := sc.source.SetGoal(c.Request.Context(), goal); err != nil {
		respondError(c, err, "set goal")
		return
	}
	progress := stats.Progress(goal, sc.source.Books(), sc.now())
	c.JSON(http.StatusOK, goalResponse{Goal: &goal, Progress: &progress})
}
