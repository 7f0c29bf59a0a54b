// Package adminserver is the HTTP control surface named in spec.md 6:
// status/config/enable/disable/logs/costs/signals/trigger/kill plus the
// DEX- and crisis-specific maintenance routes, all authenticated with a
// constant-time bearer-token check and routed through the actor's Submit so
// no handler ever touches AgentState off the actor's own goroutine —
// grounded on the teacher's internal/controlplane/server (gin-gonic/gin,
// one Router() entry point), used here with gin.Context-native handlers
// instead of the teacher's net/http-plus-wrap() bridge, since this surface
// has no chi-style path params to translate.
package adminserver

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/darkhorse-quant/sentinel-agent/internal/actor"
	"github.com/darkhorse-quant/sentinel-agent/internal/dex"
	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
	"github.com/darkhorse-quant/sentinel-agent/pkg/logger"
)

// Server wraps the actor behind the admin HTTP surface.
type Server struct {
	Actor            *actor.Actor
	APIToken         string
	KillSwitchSecret string
}

// Router builds the gin handler tree.
func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(requestIDMiddleware())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws/logs", s.handleLogsWS)

	api := r.Group("/", s.authMiddleware())
	api.GET("/status", s.handleStatus)
	api.GET("/config", s.handleGetConfig)
	api.POST("/config", s.handlePostConfig)
	api.POST("/enable", s.handleEnable)
	api.POST("/disable", s.handleDisable)
	api.GET("/logs", s.handleLogs)
	api.GET("/costs", s.handleCosts)
	api.GET("/signals", s.handleSignals)
	api.POST("/trigger", s.handleTrigger)
	api.POST("/dex/reset", s.handleDexReset)
	api.POST("/dex/clear-cooldowns", s.handleDexClearCooldowns)
	api.POST("/dex/clear-breaker", s.handleDexClearBreaker)
	api.POST("/crisis/toggle", s.handleCrisisToggle)
	api.POST("/crisis/check", s.handleCrisisCheck)

	r.POST("/kill", s.handleKill)

	return r
}

// requestIDMiddleware stamps every request with a fresh UUID, stored on the
// gin context as "request_id" and echoed back in the X-Request-Id response
// header. Of the handlers, only handleLogsWS writes it to the process log.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-Id", id)
		c.Next()
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleLogsWS streams newly appended domain.LogEntry rows over a
// websocket, polling the actor's log buffer every 2s through Submit so the
// tail never races the tick loop's own AppendLog calls. Authenticated via a
// query-string token since browser WebSocket clients cannot set a custom
// Authorization header on the upgrade request.
func (s *Server) handleLogsWS(c *gin.Context) {
	token := c.Query("token")
	if s.APIToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.APIToken)) != 1 {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	requestID, _ := c.Get("request_id")
	logger.WithField("request_id", requestID).Info("admin_ws_logs_connected")

	// Track the last streamed timestamp rather than a slice index: once
	// state.Logs is capped at LogCap, its length stops growing while new
	// rows keep arriving.
	var lastSent time.Time
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			var fresh []domain.LogEntry
			s.Actor.Submit(func(state *domain.AgentState) {
				for _, entry := range state.Logs {
					if entry.Timestamp.After(lastSent) {
						fresh = append(fresh, entry)
					}
				}
			})
			if len(fresh) > 0 {
				lastSent = fresh[len(fresh)-1].Timestamp
			}
			for _, entry := range fresh {
				if err := conn.WriteJSON(entry); err != nil {
					return
				}
			}
		case <-c.Request.Context().Done():
			return
		}
	}
}

// authMiddleware enforces the bearer token on every /api-group route with a
// constant-time comparison, the same defense the teacher applies to its own
// admin token check.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if len(token) > len(prefix) && token[:len(prefix)] == prefix {
			token = token[len(prefix):]
		}
		if s.APIToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.APIToken)) != 1 {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

func (s *Server) handleStatus(c *gin.Context) {
	var out gin.H
	s.Actor.Submit(func(state *domain.AgentState) {
		out = gin.H{
			"enabled":               state.Enabled,
			"crisis_level":          state.CrisisState.Level.String(),
			"equity_positions":      len(state.PositionEntries),
			"dex_positions":         len(state.DexPositions),
			"dex_paper_balance_sol": state.DexPaperBalanceSOL,
			"dex_realized_pnl_sol":  state.DexRealizedPnLSOL,
			"dex_metrics":           dex.ComputeMetrics(state.DexTradeHistory),
			"signal_cache_size":     len(state.SignalCache),
			"cost_usd_total":        state.CostTracker.TotalUSD,
			"last_data_gather":      state.LastDataGather,
			"last_analyst":          state.LastAnalyst,
			"last_dex_scan":         state.LastDexScan,
			"last_crisis_check":     state.LastCrisisCheck,
		}
	})
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetConfig(c *gin.Context) {
	var cfg domain.Config
	s.Actor.Submit(func(state *domain.AgentState) { cfg = state.Config })
	c.JSON(http.StatusOK, cfg)
}

// handlePostConfig applies a partial config patch via domain.Config.Merge,
// matching spec.md 6's "only non-zero fields in the patch are applied."
func (s *Server) handlePostConfig(c *gin.Context) {
	var patch domain.Config
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var merged domain.Config
	s.Actor.Submit(func(state *domain.AgentState) {
		state.Config = state.Config.Merge(patch)
		merged = state.Config
		state.AppendLog("info", "config_updated")
	})
	c.JSON(http.StatusOK, merged)
}

func (s *Server) handleEnable(c *gin.Context) {
	s.Actor.Submit(func(state *domain.AgentState) {
		state.Enabled = true
		state.Config.Enabled = true
		state.AppendLog("info", "agent_enabled")
	})
	c.Status(http.StatusNoContent)
}

func (s *Server) handleDisable(c *gin.Context) {
	s.Actor.Submit(func(state *domain.AgentState) {
		state.Enabled = false
		state.Config.Enabled = false
		state.AppendLog("info", "agent_disabled")
	})
	c.Status(http.StatusNoContent)
}

func (s *Server) handleLogs(c *gin.Context) {
	var logs []domain.LogEntry
	s.Actor.Submit(func(state *domain.AgentState) {
		logs = append(logs, state.Logs...)
	})
	c.JSON(http.StatusOK, logs)
}

func (s *Server) handleCosts(c *gin.Context) {
	var out *domain.CostTracker
	s.Actor.Submit(func(state *domain.AgentState) { out = state.CostTracker })
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleSignals(c *gin.Context) {
	var signals []domain.Signal
	s.Actor.Submit(func(state *domain.AgentState) {
		signals = append(signals, state.SignalCache...)
	})
	c.JSON(http.StatusOK, signals)
}

// handleTrigger forces one tick to run synchronously, the spec.md 6 POST
// /trigger escape hatch for testing outside the 30s alarm cadence.
func (s *Server) handleTrigger(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()
	s.Actor.TriggerTick(ctx)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleDexReset(c *gin.Context) {
	s.Actor.Submit(func(state *domain.AgentState) {
		state.DexPositions = make(map[string]*domain.DexPosition)
		state.DexPaperBalanceSOL = state.Config.DexStartingBalanceSOL
		state.DexRealizedPnLSOL = 0
		state.DexPeakBalance = state.Config.DexStartingBalanceSOL
		state.DexPeakValue = state.Config.DexStartingBalanceSOL
		state.DexDrawdownPaused = false
		state.DexCurrentLossStreak = 0
		state.AppendLog("warn", "dex_paper_account_reset")
	})
	c.Status(http.StatusNoContent)
}

func (s *Server) handleDexClearCooldowns(c *gin.Context) {
	s.Actor.Submit(func(state *domain.AgentState) {
		state.DexStopLossCooldowns = make(map[string]domain.StopLossCooldown)
		state.AppendLog("info", "dex_cooldowns_cleared")
	})
	c.Status(http.StatusNoContent)
}

func (s *Server) handleDexClearBreaker(c *gin.Context) {
	s.Actor.Submit(func(state *domain.AgentState) {
		state.DexCircuitBreakerUntil = nil
		state.DexRecentStopLosses = nil
		state.AppendLog("info", "dex_circuit_breaker_cleared_manual")
	})
	c.Status(http.StatusNoContent)
}

func (s *Server) handleCrisisToggle(c *gin.Context) {
	s.Actor.Submit(func(state *domain.AgentState) {
		state.CrisisState.ManualOverride = !state.CrisisState.ManualOverride
		state.AppendLog("info", "crisis_manual_override_toggled")
	})
	c.Status(http.StatusNoContent)
}

// handleCrisisCheck forces an out-of-cadence crisis re-check, useful for
// validating a newly wired indicator source without waiting for
// CrisisCheckIntervalMs to elapse.
func (s *Server) handleCrisisCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()
	engine := s.Actor.Crisis
	s.Actor.Submit(func(state *domain.AgentState) {
		if engine == nil {
			return
		}
		engine.Check(ctx, state, time.Now())
		state.LastCrisisCheck = time.Now()
	})
	c.Status(http.StatusNoContent)
}

// handleKill is the panic-button route from spec.md 6: a separate secret,
// disables the agent, clears the crisis override and signal cache and
// pre-market plan, but deliberately does NOT close any open position —
// that decision is left to a human once they've stopped the bleeding.
func (s *Server) handleKill(c *gin.Context) {
	secret := c.GetHeader("X-Kill-Secret")
	if s.KillSwitchSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(s.KillSwitchSecret)) != 1 {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	s.Actor.Submit(func(state *domain.AgentState) {
		state.Enabled = false
		state.Config.Enabled = false
		state.CrisisState.ManualOverride = false
		state.SignalCache = nil
		state.PremarketPlan = nil
		state.AppendLog("warn", "kill_switch_triggered")
	})
	c.Status(http.StatusNoContent)
}
