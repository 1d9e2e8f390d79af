/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package services

import (
	"context"
	"fmt"

	"github.com/tomoncle/findagent"
	"github.com/tomoncle/findagent/models"
	"github.com/tomoncle/findagent/types"
	"github.com/uptrace/bun"
)

type AgentService struct {
	findagent.Service[models.Agent, int64]
}

// NewAgentService returns an AgentService on db, or on the global connection when db is nil.
func NewAgentService(db bun.IDB) *AgentService {
	return &AgentService{Service: newService[models.Agent](db)}
}

func (s *AgentService) WithTx(tx bun.Tx) *AgentService {
	return &AgentService{Service: s.Service.WithTx(tx)}
}

// CreateAgent validates req and inserts the agent under an unused name.
func (s *AgentService) CreateAgent(ctx context.Context, req *AgentCreate) (*models.Agent, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := s.checkName(ctx, req.Name, 0); err != nil {
		return nil, err
	}

	agent, err := s.Save(ctx, req.model())
	if err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: %q", ErrAgentNameExists, req.Name)
		}
		return nil, err
	}
	log.WithField("id", agent.ID).Infof("created agent %s", agent.Name)
	return agent, nil
}

// UpdateAgent applies the set fields of req to the agent with id.
func (s *AgentService) UpdateAgent(ctx context.Context, id int64, req *AgentUpdate) (*models.Agent, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	agent, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, fmt.Errorf("%w: id %d", ErrAgentNotFound, id)
	}
	if req.Name != nil && *req.Name != agent.Name {
		if err := s.checkName(ctx, *req.Name, id); err != nil {
			return nil, err
		}
	}

	req.apply(agent)
	updated, err := s.Update(ctx, agent)
	if err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: %q", ErrAgentNameExists, agent.Name)
		}
		return nil, err
	}
	return updated, nil
}

func (s *AgentService) checkName(ctx context.Context, name string, excludeID int64) error {
	taken, err := valueTaken(ctx, s.SelectBuilder(), "name", name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: %q", ErrAgentNameExists, name)
	}
	return nil
}

func (s *AgentService) GetAgent(ctx context.Context, id int64) (*models.Agent, error) {
	return s.Get(ctx, id)
}

func (s *AgentService) GetAgentByName(ctx context.Context, name string) (*models.Agent, error) {
	if name == "" {
		return nil, nil
	}
	agents, err := s.List(ctx, &models.AgentQuery{Name: &name}, nil)
	if err != nil || len(agents) == 0 {
		return nil, err
	}
	return agents[0], nil
}

func (s *AgentService) GetAgentsByStatus(ctx context.Context, status types.Status) ([]*models.Agent, error) {
	return s.List(ctx, &models.AgentQuery{Status: &status}, nil)
}

func (s *AgentService) GetActiveAgents(ctx context.Context) ([]*models.Agent, error) {
	return s.GetAgentsByStatus(ctx, types.StatusActive)
}

func (s *AgentService) GetAgentsByModelID(ctx context.Context, modelID int64) ([]*models.Agent, error) {
	return s.List(ctx, &models.AgentQuery{AgentModelID: &modelID}, nil)
}

func (s *AgentService) GetAgentsByLevel(ctx context.Context, level int) ([]*models.Agent, error) {
	return s.List(ctx, &models.AgentQuery{Level: &level}, nil)
}

func (s *AgentService) GetOptionalAgents(ctx context.Context, isOptional bool) ([]*models.Agent, error) {
	return s.List(ctx, &models.AgentQuery{IsOptional: &isOptional}, nil)
}

// SearchAgents matches keyword against name, description and zh_name.
// Nil filters are ignored.
func (s *AgentService) SearchAgents(ctx context.Context, keyword string, status *types.Status, level *int, modelID *int64) ([]*models.Agent, error) {
	q := s.Repository().Where(s.SelectBuilder(), &models.AgentQuery{Status: status, Level: level, AgentModelID: modelID})
	q = keywordMatch(q, keyword, "name", "description", "zh_name")
	return scanAll[models.Agent](ctx, q)
}

func (s *AgentService) DeleteAgent(ctx context.Context, id int64) (bool, error) {
	return s.DeleteByID(ctx, id)
}

func (s *AgentService) GetAllAgents(ctx context.Context) ([]*models.Agent, error) {
	return s.List(ctx, types.MatchAll{}, nil)
}

func (s *AgentService) AgentExists(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, nil
	}
	return s.Exists(ctx, &models.AgentQuery{Name: &name})
}

func (s *AgentService) BatchUpdateStatus(ctx context.Context, ids []int64, status types.Status) (int, error) {
	n, err := batchUpdateStatus(ctx, s.Service, ids, status, func(a *models.Agent, st types.Status) { a.Status = st })
	if err != nil {
		return 0, err
	}
	log.WithField("status", status.Name()).Infof("updated %d of %d agents", n, len(ids))
	return n, nil
}

func (s *AgentService) ListAgents(ctx context.Context, page *types.PageHelper) (*types.Paginate[models.Agent], error) {
	return s.Page(ctx, page)
}
