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
	"errors"
	"fmt"

	"github.com/tomoncle/findagent"
	"github.com/tomoncle/findagent/models"
	"github.com/tomoncle/findagent/types"
	"github.com/uptrace/bun"
)

type ToolService struct {
	findagent.Service[models.Tool, int64]
}

// NewToolService returns a ToolService on db, or on the global connection when db is nil.
func NewToolService(db bun.IDB) *ToolService {
	return &ToolService{Service: newService[models.Tool](db)}
}

// WithTx returns a ToolService bound to the unit of work tx.
func (s *ToolService) WithTx(tx bun.Tx) *ToolService {
	return &ToolService{Service: s.Service.WithTx(tx)}
}

// CreateTool validates req and inserts the tool. Name and tool function must
// both be unused.
func (s *ToolService) CreateTool(ctx context.Context, req *ToolCreate) (*models.Tool, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, req.Name, req.ToolFunction, 0); err != nil {
		return nil, err
	}

	tool, err := s.Save(ctx, req.model())
	if err != nil {
		return nil, s.conflict(ctx, err, req.Name, req.ToolFunction, 0)
	}
	log.WithField("id", tool.ID).Infof("created tool %s", tool.Name)
	return tool, nil
}

// UpdateTool applies the set fields of req to the tool with id.
func (s *ToolService) UpdateTool(ctx context.Context, id int64, req *ToolUpdate) (*models.Tool, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	tool, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tool == nil {
		return nil, fmt.Errorf("%w: id %d", ErrToolNotFound, id)
	}

	var name, function string
	if req.Name != nil && *req.Name != "" && *req.Name != tool.Name {
		name = *req.Name
	}
	if req.ToolFunction != nil && *req.ToolFunction != "" && *req.ToolFunction != tool.ToolFunction {
		function = *req.ToolFunction
	}
	if err := s.checkUnique(ctx, name, function, id); err != nil {
		return nil, err
	}

	req.apply(tool)
	updated, err := s.Update(ctx, tool)
	if err != nil {
		return nil, s.conflict(ctx, err, tool.Name, tool.ToolFunction, id)
	}
	return updated, nil
}

func (s *ToolService) checkUnique(ctx context.Context, name, function string, excludeID int64) error {
	if name != "" {
		taken, err := valueTaken(ctx, s.SelectBuilder(), "name", name, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %q", ErrToolNameExists, name)
		}
	}
	if function != "" {
		taken, err := valueTaken(ctx, s.SelectBuilder(), "tool_function", function, excludeID)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %q", ErrToolFunctionExists, function)
		}
	}
	return nil
}

// conflict maps a unique violation raised by storage onto the sentinel of the
// column that collided. Other errors, and violations the recheck cannot
// attribute, are returned unchanged.
func (s *ToolService) conflict(ctx context.Context, err error, name, function string, excludeID int64) error {
	if !isDuplicate(err) {
		return err
	}
	cerr := s.checkUnique(ctx, name, function, excludeID)
	if errors.Is(cerr, ErrToolNameExists) || errors.Is(cerr, ErrToolFunctionExists) {
		return cerr
	}
	return err
}

func (s *ToolService) GetTool(ctx context.Context, id int64) (*models.Tool, error) {
	return s.Get(ctx, id)
}

func (s *ToolService) GetToolByName(ctx context.Context, name string) (*models.Tool, error) {
	return s.first(ctx, &models.ToolQuery{Name: &name})
}

func (s *ToolService) GetToolByFunction(ctx context.Context, function string) (*models.Tool, error) {
	return s.first(ctx, &models.ToolQuery{ToolFunction: &function})
}

// first returns the newest tool matching q. A q without conditions matches nothing.
func (s *ToolService) first(ctx context.Context, q *models.ToolQuery) (*models.Tool, error) {
	if len(q.Conditions()) == 0 {
		return nil, nil
	}
	tools, err := s.List(ctx, q, nil)
	if err != nil || len(tools) == 0 {
		return nil, err
	}
	return tools[0], nil
}

func (s *ToolService) GetToolsByStatus(ctx context.Context, status types.Status) ([]*models.Tool, error) {
	return s.List(ctx, &models.ToolQuery{Status: &status}, nil)
}

func (s *ToolService) GetActiveTools(ctx context.Context) ([]*models.Tool, error) {
	return s.GetToolsByStatus(ctx, types.StatusActive)
}

func (s *ToolService) GetDirectReturnTools(ctx context.Context, isDirectReturn bool) ([]*models.Tool, error) {
	return s.List(ctx, &models.ToolQuery{IsDirectReturn: &isDirectReturn}, nil)
}

// SearchTools matches keyword against name, description and tool function.
// Nil filters are ignored.
func (s *ToolService) SearchTools(ctx context.Context, keyword string, status *types.Status, isDirectReturn *bool) ([]*models.Tool, error) {
	q := s.Repository().Where(s.SelectBuilder(), &models.ToolQuery{Status: status, IsDirectReturn: isDirectReturn})
	q = keywordMatch(q, keyword, "name", "description", "tool_function")
	return scanAll[models.Tool](ctx, q)
}

func (s *ToolService) DeleteTool(ctx context.Context, id int64) (bool, error) {
	return s.DeleteByID(ctx, id)
}

func (s *ToolService) GetAllTools(ctx context.Context) ([]*models.Tool, error) {
	return s.List(ctx, types.MatchAll{}, nil)
}

func (s *ToolService) ToolExists(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, nil
	}
	return s.Exists(ctx, &models.ToolQuery{Name: &name})
}

func (s *ToolService) ToolFunctionExists(ctx context.Context, function string) (bool, error) {
	if function == "" {
		return false, nil
	}
	return s.Exists(ctx, &models.ToolQuery{ToolFunction: &function})
}

func (s *ToolService) GetToolsByNames(ctx context.Context, names []string) ([]*models.Tool, error) {
	return scanIn[models.Tool](ctx, s.SelectBuilder(), "name", names)
}

func (s *ToolService) GetToolsByFunctions(ctx context.Context, functions []string) ([]*models.Tool, error) {
	return scanIn[models.Tool](ctx, s.SelectBuilder(), "tool_function", functions)
}

// BatchUpdateStatus sets status on the tools with ids and returns how many existed.
func (s *ToolService) BatchUpdateStatus(ctx context.Context, ids []int64, status types.Status) (int, error) {
	n, err := batchUpdateStatus(ctx, s.Service, ids, status, func(t *models.Tool, st types.Status) { t.Status = st })
	if err != nil {
		return 0, err
	}
	log.WithField("status", status.Name()).Infof("updated %d of %d tools", n, len(ids))
	return n, nil
}

func (s *ToolService) ListTools(ctx context.Context, page *types.PageHelper) (*types.Paginate[models.Tool], error) {
	return s.Page(ctx, page)
}

// ValidateToolConfig reports whether the tool with id exists.
func (s *ToolService) ValidateToolConfig(ctx context.Context, id int64) (bool, error) {
	tool, err := s.Get(ctx, id)
	return tool != nil, err
}
