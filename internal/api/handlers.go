package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pokerzoo/pokerzoo/internal/agents"
	"github.com/pokerzoo/pokerzoo/internal/arena"
	"github.com/pokerzoo/pokerzoo/internal/engine"
	"github.com/pokerzoo/pokerzoo/internal/env"
	"github.com/pokerzoo/pokerzoo/internal/poker"
	"github.com/pokerzoo/pokerzoo/internal/store"
)

// handleVersion returns the running build's identification.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, GetVersionInfo())
}

// handleListVariants returns the registered variant specs.
func (s *Server) handleListVariants(w http.ResponseWriter, r *http.Request) {
	ids := poker.ListVariants()
	specs := make([]poker.VariantSpec, 0, len(ids))
	for _, id := range ids {
		if variant, ok := poker.GetVariant(id); ok {
			specs = append(specs, variant.Spec())
		}
	}
	s.writeJSON(w, http.StatusOK, VariantsResponse{
		Variants:      specs,
		EngineVersion: EngineVersion,
	})
}

// handleSeedHash returns the SHA-256 commitment for a server seed.
func (s *Server) handleSeedHash(w http.ResponseWriter, r *http.Request) {
	var req SeedHashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON")
		return
	}
	if req.ServerSeed == "" {
		s.errorHandler.HandleValidationError(w, r, "server_seed", "server seed is required")
		return
	}

	hash := engine.Seeds{Server: req.ServerSeed}.ServerHash()
	s.writeJSON(w, http.StatusOK, SeedHashResponse{
		Hash:          hash,
		EngineVersion: EngineVersion,
		Echo:          req,
	})
}

// handleCreateTable creates an interactive table session.
func (s *Server) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	var req CreateTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON")
		return
	}

	if req.Seeds == (engine.Seeds{}) {
		req.Seeds = s.defaultSeeds
	}
	opts := []env.Option{env.WithSeeds(req.Seeds)}
	if req.IllegalReward != nil {
		opts = append(opts, env.WithIllegalReward(*req.IllegalReward))
	}
	table, err := env.New(req.Variant, req.Config, opts...)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeInvalidConfig, err.Error())
		return
	}

	session := &tableSession{
		variant:    req.Variant,
		serverHash: req.Seeds.ServerHash(),
		table:      table,
	}
	s.putTable(session)
	s.logger.Printf("table_created id=%s variant=%s players=%d", session.id, req.Variant, req.Config.Players)

	s.writeJSON(w, http.StatusCreated, s.tableResponse(session, nil))
}

// handleGetTable returns the table's cycle state.
func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	session, ok := s.getTable(chi.URLParam(r, "tableID"))
	if !ok {
		s.writeError(w, r, http.StatusNotFound, ErrTypeTableNotFound, "table not found")
		return
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	s.writeJSON(w, http.StatusOK, s.tableResponse(session, nil))
}

// handleDeleteTable tears down a table session.
func (s *Server) handleDeleteTable(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "tableID")
	if !s.dropTable(id) {
		s.writeError(w, r, http.StatusNotFound, ErrTypeTableNotFound, "table not found")
		return
	}
	s.logger.Printf("table_deleted id=%s", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleResetTable deals a new hand.
func (s *Server) handleResetTable(w http.ResponseWriter, r *http.Request) {
	session, ok := s.getTable(chi.URLParam(r, "tableID"))
	if !ok {
		s.writeError(w, r, http.StatusNotFound, ErrTypeTableNotFound, "table not found")
		return
	}

	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON")
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if err := session.table.Reset(req.Seed); err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeInvalidSeed, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.tableResponse(session, nil))
}

// handleStepTable applies the selected agent's action.
func (s *Server) handleStepTable(w http.ResponseWriter, r *http.Request) {
	session, ok := s.getTable(chi.URLParam(r, "tableID"))
	if !ok {
		s.writeError(w, r, http.StatusNotFound, ErrTypeTableNotFound, "table not found")
		return
	}

	var req StepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON")
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	action := env.Action{Bet: req.Bet, Cards: poker.CardMask(req.Cards)}
	if err := session.table.Step(action); err != nil {
		status := http.StatusBadRequest
		errType := ErrTypeInvalidAction
		if errors.Is(err, env.ErrNotReset) {
			errType = ErrTypeValidation
		}
		s.writeError(w, r, status, errType, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.tableResponse(session, nil))
}

// handleObserveTable renders the table from one agent's seat.
func (s *Server) handleObserveTable(w http.ResponseWriter, r *http.Request) {
	session, ok := s.getTable(chi.URLParam(r, "tableID"))
	if !ok {
		s.writeError(w, r, http.StatusNotFound, ErrTypeTableNotFound, "table not found")
		return
	}

	agent, err := strconv.Atoi(r.URL.Query().Get("agent"))
	if err != nil {
		s.errorHandler.HandleValidationError(w, r, "agent", "agent must be a seat number")
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	obs, err := session.table.Observe(agent)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, env.ErrUnknownAgent) {
			status = http.StatusNotFound
		}
		s.writeError(w, r, status, ErrTypeValidation, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.tableResponse(session, &obs))
}

// handleRenderTable returns a human-readable table view.
func (s *Server) handleRenderTable(w http.ResponseWriter, r *http.Request) {
	session, ok := s.getTable(chi.URLParam(r, "tableID"))
	if !ok {
		s.writeError(w, r, http.StatusNotFound, ErrTypeTableNotFound, "table not found")
		return
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	s.writeJSON(w, http.StatusOK, RenderResponse{Render: session.table.Render()})
}

// tableResponse snapshots a session. Callers hold the session lock.
func (s *Server) tableResponse(session *tableSession, obs *env.Observation) TableResponse {
	table := session.table
	return TableResponse{
		ID:             session.id,
		Variant:        session.variant,
		AgentSelection: table.AgentSelection(),
		Agents:         table.Agents(),
		PossibleAgents: table.PossibleAgents(),
		Rewards:        table.Rewards(),
		Cumulative:     table.CumulativeRewards(),
		Terminations:   table.Terminations(),
		Truncations:    table.Truncations(),
		ServerHash:     session.serverHash,
		Observation:    obs,
	}
}

// handleRunMatch runs a self-play match and persists the outcome.
func (s *Server) handleRunMatch(w http.ResponseWriter, r *http.Request) {
	var req RunMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON")
		return
	}
	if len(req.Agents) != req.Match.Config.Players {
		s.errorHandler.HandleValidationError(w, r, "agents",
			fmt.Sprintf("%d agents for %d seats", len(req.Agents), req.Match.Config.Players))
		return
	}

	factories := make([]agents.Factory, len(req.Agents))
	labels := make([]string, len(req.Agents))
	for seat, name := range req.Agents {
		factory, label, err := s.resolveAgent(name, req.Seed)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, ErrTypeScriptInvalid, err.Error())
			return
		}
		factories[seat] = factory
		labels[seat] = label
	}
	if len(req.Match.Agents) == 0 {
		req.Match.Agents = labels
	}
	if req.Match.Seeds == (engine.Seeds{}) {
		req.Match.Seeds = s.defaultSeeds
	}
	if req.Match.Workers == 0 {
		req.Match.Workers = s.matchWorkers
	}

	result, err := s.runner.Run(r.Context(), req.Match, factories)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeInvalidConfig, err.Error())
		return
	}

	if err := s.persistMatch(req, result); err != nil {
		s.logger.Printf("match_persist_failed id=%s err=%v", result.ID, err)
		s.writeError(w, r, http.StatusInternalServerError, ErrTypeInternal, "failed to persist match")
		return
	}
	s.logger.Printf("match_completed id=%s variant=%s hands=%d elapsed_ms=%d",
		result.ID, result.Variant, result.Hands, result.ElapsedMs)

	s.writeJSON(w, http.StatusOK, RunMatchResponse{
		Result:        result,
		EngineVersion: EngineVersion,
	})
}

// resolveAgent maps an agent reference to a factory. "script:<id>" loads a
// stored script; anything else is a builtin name.
func (s *Server) resolveAgent(name string, seed int64) (agents.Factory, string, error) {
	if id, ok := strings.CutPrefix(name, "script:"); ok {
		script, err := s.db.GetScript(id)
		if err != nil {
			return nil, "", fmt.Errorf("script %s: %w", id, err)
		}
		// Compile once up front so bad scripts fail the request, not a worker.
		if _, err := agents.NewScript(script.Name, script.Source); err != nil {
			return nil, "", fmt.Errorf("script %s: %w", id, err)
		}
		return agents.ScriptFactory(script.Name, script.Source), script.Name, nil
	}

	factory, err := agents.BuiltinFactory(name, seed)
	if err != nil {
		return nil, "", err
	}
	return factory, name, nil
}

// persistMatch writes the match summary and its hand records.
func (s *Server) persistMatch(req RunMatchRequest, result *arena.MatchResult) error {
	configJSON, err := json.Marshal(req.Match.Config)
	if err != nil {
		return err
	}
	agentsJSON, err := json.Marshal(req.Match.Agents)
	if err != nil {
		return err
	}
	seatsJSON, err := json.Marshal(result.Seats)
	if err != nil {
		return err
	}

	match := &store.Match{
		ID:             result.ID,
		Variant:        result.Variant,
		ServerSeedHash: result.ServerHash,
		ClientSeed:     req.Match.Seeds.Client,
		ConfigJSON:     string(configJSON),
		AgentsJSON:     string(agentsJSON),
		Hands:          result.Hands,
		HandStart:      req.Match.HandStart,
		SeatsJSON:      string(seatsJSON),
		TimedOut:       result.TimedOut,
		ElapsedMs:      result.ElapsedMs,
	}
	if err := s.db.SaveMatch(match); err != nil {
		return err
	}

	hands := make([]store.Hand, 0, len(result.Records))
	for _, rec := range result.Records {
		rewardsJSON, err := json.Marshal(rec.Rewards)
		if err != nil {
			return err
		}
		boardJSON, err := json.Marshal(rec.Board)
		if err != nil {
			return err
		}
		holesJSON, err := json.Marshal(rec.Holes)
		if err != nil {
			return err
		}
		hands = append(hands, store.Hand{
			Nonce:       rec.Nonce,
			RewardsJSON: string(rewardsJSON),
			BoardJSON:   string(boardJSON),
			HolesJSON:   string(holesJSON),
			Steps:       rec.Steps,
		})
	}
	return s.db.SaveHands(match.ID, hands)
}

// handleListMatches lists stored matches.
func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	query := store.MatchesQuery{Variant: r.URL.Query().Get("variant")}
	query.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	query.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))

	list, err := s.db.ListMatches(query)
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

// handleGetMatch returns one stored match.
func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	match, err := s.db.GetMatch(chi.URLParam(r, "matchID"))
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, r, http.StatusNotFound, ErrTypeMatchNotFound, "match not found")
		return
	}
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, match)
}

// handleGetMatchHands returns a match's hands, paginated.
func (s *Server) handleGetMatchHands(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	if _, err := s.db.GetMatch(matchID); errors.Is(err, store.ErrNotFound) {
		s.writeError(w, r, http.StatusNotFound, ErrTypeMatchNotFound, "match not found")
		return
	} else if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	hands, err := s.db.GetHands(matchID, page, perPage)
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, hands)
}

// handleSaveScript validates and stores a JavaScript agent.
func (s *Server) handleSaveScript(w http.ResponseWriter, r *http.Request) {
	var req SaveScriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON")
		return
	}
	if req.Name == "" {
		s.errorHandler.HandleValidationError(w, r, "name", "name is required")
		return
	}

	// Reject scripts that do not compile or lack act().
	if _, err := agents.NewScript(req.Name, req.Source); err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeScriptInvalid, err.Error())
		return
	}

	script := &store.Script{ID: req.ID, Name: req.Name, Source: req.Source}
	if err := s.db.SaveScript(script); err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}
	s.logger.Printf("script_saved id=%s name=%s", script.ID, script.Name)
	s.writeJSON(w, http.StatusCreated, script)
}

// handleListScripts lists stored scripts.
func (s *Server) handleListScripts(w http.ResponseWriter, r *http.Request) {
	scripts, err := s.db.ListScripts()
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}
	if scripts == nil {
		scripts = []store.Script{}
	}
	s.writeJSON(w, http.StatusOK, scripts)
}

// handleGetScript returns one stored script.
func (s *Server) handleGetScript(w http.ResponseWriter, r *http.Request) {
	script, err := s.db.GetScript(chi.URLParam(r, "scriptID"))
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, r, http.StatusNotFound, ErrTypeScriptNotFound, "script not found")
		return
	}
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, script)
}

// handleDeleteScript removes a stored script.
func (s *Server) handleDeleteScript(w http.ResponseWriter, r *http.Request) {
	err := s.db.DeleteScript(chi.URLParam(r, "scriptID"))
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, r, http.StatusNotFound, ErrTypeScriptNotFound, "script not found")
		return
	}
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
